package jimeng

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// TaskStatus 归一化后的任务状态
type TaskStatus string

const (
	StatusProcessing TaskStatus = "processing"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
)

// NormalizedStatus 把后端杂乱的 history 记录收敛成稳定形状
type NormalizedStatus struct {
	HistoryID string     `json:"history_id"`
	Status    TaskStatus `json:"status"`
	RawStatus int        `json:"raw_status"`
	FailCode  string     `json:"fail_code"`
	Results   []string   `json:"results"`
	VideoURL  string     `json:"video_url,omitempty"`
}

// ---- history wire shapes ---------------------------------------------------
//
// Only the fields the extraction rules touch are modeled; everything else
// rides along in the raw body for the pattern-matching fallbacks.

type historyLargeImage struct {
	ImageURL string `json:"image_url"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

type historyItemImage struct {
	LargeImages []historyLargeImage `json:"large_images"`
}

type transcodedVideo struct {
	Origin struct {
		VideoURL string `json:"video_url"`
	} `json:"origin"`
}

type historyItemVideo struct {
	TranscodedVideo *transcodedVideo `json:"transcoded_video"`
	PlayURL         string           `json:"play_url"`
	DownloadURL     string           `json:"download_url"`
	URL             string           `json:"url"`
}

type historyCommonAttr struct {
	CoverURL    string            `json:"cover_url"`
	CoverURLMap map[string]string `json:"cover_url_map"`
}

type historyItem struct {
	Image      *historyItemImage  `json:"image"`
	Video      *historyItemVideo  `json:"video"`
	CommonAttr *historyCommonAttr `json:"common_attr"`
}

// failCode 后端的失败码有时是字符串，有时是数字，两种形态都收
type failCode string

func (f *failCode) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = failCode(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = failCode(n.String())
	return nil
}

type historyRecord struct {
	Status   int           `json:"status"`
	FailCode failCode      `json:"fail_code"`
	ItemList []historyItem `json:"item_list"`
}

// QueryImageTaskStatus fetches the history record for an image task. The
// result list maps each item through the large-original-image rule; a missing
// field yields an empty list, not an error. An unknown history id is a hard
// not-found for image queries.
func (s *Service) QueryImageTaskStatus(ctx context.Context, credential, historyID string) (*NormalizedStatus, error) {
	_, record, _, err := s.fetchHistory(ctx, credential, historyID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, newError(KindRecordNotFound, "history %s not found", historyID)
	}

	results := make([]string, 0, len(record.ItemList))
	for _, item := range record.ItemList {
		if item.Image == nil || len(item.Image.LargeImages) == 0 {
			continue
		}
		if u := UnescapeAmpersands(item.Image.LargeImages[0].ImageURL); u != "" {
			results = append(results, u)
		}
	}

	status := StatusProcessing
	switch record.Status {
	case rawStatusCompleted:
		status = StatusCompleted
	case rawStatusFailed:
		status = StatusFailed
	}

	return &NormalizedStatus{
		HistoryID: historyID,
		Status:    status,
		RawStatus: record.Status,
		FailCode:  string(record.FailCode),
		Results:   results,
	}, nil
}

// QueryImageTaskURLs returns every URL flavor for each finished result image.
func (s *Service) QueryImageTaskURLs(ctx context.Context, credential, historyID string) ([]ImageUrlInfo, error) {
	_, record, _, err := s.fetchHistory(ctx, credential, historyID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, newError(KindRecordNotFound, "history %s not found", historyID)
	}
	infos := make([]ImageUrlInfo, 0, len(record.ItemList))
	for _, item := range record.ItemList {
		infos = append(infos, buildImageUrlInfo(item))
	}
	return infos, nil
}

// QueryVideoTaskStatus fetches the history record for a video task and runs
// the video decision table. URL presence is the strongest completion signal;
// the raw status codes have been seen to disagree with reality.
func (s *Service) QueryVideoTaskStatus(ctx context.Context, credential, historyID string) (*NormalizedStatus, error) {
	_, record, raw, err := s.fetchHistory(ctx, credential, historyID)
	if err != nil {
		return nil, err
	}

	videoURL := extractVideoURL(raw, record)
	normalized := &NormalizedStatus{
		HistoryID: historyID,
		Status:    normalizeVideoStatus(record, videoURL),
		Results:   []string{},
		VideoURL:  videoURL,
	}
	if record != nil {
		normalized.RawStatus = record.Status
		normalized.FailCode = string(record.FailCode)
	}
	if videoURL != "" {
		normalized.Results = []string{videoURL}
	}
	return normalized, nil
}

// normalizeVideoStatus applies the video decision table in order, first match
// wins. A nil record means the vendor has not materialized it yet.
func normalizeVideoStatus(record *historyRecord, videoURL string) TaskStatus {
	if videoURL != "" {
		return StatusCompleted
	}
	if record == nil {
		return StatusProcessing
	}
	switch record.Status {
	case rawStatusProcessing:
		return StatusProcessing
	case rawStatusSuccess, rawStatusFailed:
		return StatusProcessing
	case rawStatusCompleted:
		return StatusFailed
	default:
		return StatusProcessing
	}
}

// fetchHistory runs the history-by-id call. A missing entry returns a nil
// record and no error; both callers interpret that per their own policy.
func (s *Service) fetchHistory(ctx context.Context, credential, historyID string) (Credential, *historyRecord, []byte, error) {
	cred, err := ResolveRegion(credential)
	if err != nil {
		return Credential{}, nil, nil, err
	}
	historyID = strings.TrimSpace(historyID)
	if historyID == "" {
		return Credential{}, nil, nil, newError(KindValidation, "history id is required")
	}

	body := map[string]any{
		"history_ids": []string{historyID},
		"image_info": map[string]any{
			"width":  2048,
			"height": 2048,
			"format": "webp",
			"image_scene_list": []map[string]any{
				{"scene": "smart_crop", "width": 360, "height": 360, "uniq_key": "smart_crop-w:360-h:360", "format": "webp"},
				{"scene": "normal", "width": 2400, "height": 2400, "uniq_key": "2400", "format": "webp"},
				{"scene": "normal", "width": 1080, "height": 1080, "uniq_key": "1080", "format": "webp"},
				{"scene": "normal", "width": 720, "height": 720, "uniq_key": "720", "format": "webp"},
				{"scene": "normal", "width": 480, "height": 480, "uniq_key": "480", "format": "webp"},
				{"scene": "normal", "width": 360, "height": 360, "uniq_key": "360", "format": "webp"},
			},
		},
		"http_common_info": map[string]any{"aid": cred.Region.AssistantID},
	}

	resp, err := s.client.call(ctx, http.MethodPost, "/mweb/v1/get_history_by_ids", cred, callOptions{Body: body})
	if err != nil {
		return Credential{}, nil, nil, err
	}

	var records map[string]historyRecord
	if err := json.Unmarshal(resp.Data, &records); err != nil {
		return Credential{}, nil, nil, wrapError(KindTransport, err, "decode history response")
	}

	record, ok := records[historyID]
	if !ok {
		return cred, nil, resp.Raw, nil
	}
	return cred, &record, resp.Raw, nil
}

// ---- video URL extraction --------------------------------------------------

// videoURLExtractor 单个提取策略；返回空串表示未命中
type videoURLExtractor func(raw []byte, record *historyRecord) string

// videoURLExtractors run in priority order; the first hit wins. The chain
// stays open to extension because the backend grows new response shapes
// without notice.
var videoURLExtractors = []videoURLExtractor{
	extractVideoByCDNPattern,
	extractVideoFromItemFields,
}

func extractVideoURL(raw []byte, record *historyRecord) string {
	for _, extract := range videoURLExtractors {
		if u := extract(raw, record); u != "" {
			return UnescapeAmpersands(u)
		}
	}
	return ""
}

var videoCDNPattern = regexp.MustCompile(`https://v[0-9a-z-]*\.vlabvod\.com/[^"\\\s]+`)

func extractVideoByCDNPattern(raw []byte, _ *historyRecord) string {
	return string(videoCDNPattern.Find(raw))
}

func extractVideoFromItemFields(_ []byte, record *historyRecord) string {
	if record == nil || len(record.ItemList) == 0 {
		return ""
	}
	video := record.ItemList[0].Video
	if video == nil {
		return ""
	}
	if video.TranscodedVideo != nil && video.TranscodedVideo.Origin.VideoURL != "" {
		return video.TranscodedVideo.Origin.VideoURL
	}
	for _, candidate := range []string{video.PlayURL, video.DownloadURL, video.URL} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

// downloadGradePatterns widen progressively: the dedicated high-quality CDN
// host first, then any vendor video host, then the two known video domains.
var downloadGradePatterns = []*regexp.Regexp{
	regexp.MustCompile(`https://v[0-9]+-hq\.vlabvod\.com/[^"\\\s]+`),
	regexp.MustCompile(`https://[0-9a-z-]+\.vlabvod\.com/[^"\\\s]+`),
	regexp.MustCompile(`https://[0-9a-z.-]+\.(?:vlabvod|bytevod)\.com/[^"\\\s]+`),
}

// QueryVideoDownloadURL asks the secondary endpoint for a download-grade URL
// and layers four extraction strategies over the response. Best-effort: every
// failure degrades to an empty string and is only logged, never propagated.
func (s *Service) QueryVideoDownloadURL(ctx context.Context, credential, historyID string) string {
	cred, err := ResolveRegion(credential)
	if err != nil {
		logrus.WithError(err).Warn("jimeng_video_download_url_skipped")
		return ""
	}

	body := map[string]any{
		"history_id": strings.TrimSpace(historyID),
		"scene":      "download",
		"http_common_info": map[string]any{
			"aid": cred.Region.AssistantID,
		},
	}
	resp, err := s.client.call(ctx, http.MethodPost, "/mweb/v1/get_download_video_info", cred, callOptions{Body: body})
	if err != nil {
		logrus.WithError(err).WithField("history_id", historyID).Warn("jimeng_video_download_url_failed")
		return ""
	}

	var info struct {
		VideoURL    string `json:"video_url"`
		DownloadURL string `json:"download_url"`
	}
	if err := json.Unmarshal(resp.Data, &info); err == nil {
		for _, candidate := range []string{info.DownloadURL, info.VideoURL} {
			if candidate != "" {
				return UnescapeAmpersands(candidate)
			}
		}
	}

	for _, pattern := range downloadGradePatterns {
		if match := pattern.Find(resp.Raw); len(match) > 0 {
			return UnescapeAmpersands(string(match))
		}
	}

	logrus.WithField("history_id", historyID).Debug("jimeng_video_download_url_empty")
	return ""
}

// ---- image URL flavors -----------------------------------------------------

// ImageUrlInfo 单个结果图的多种 URL 形态：原图与中等 webp 约 2 小时过期，
// 长效 webp 约 29 天。
type ImageUrlInfo struct {
	PngURL         string            `json:"png_url"`
	WebpURL        string            `json:"webp_url"`
	LongWebpURL    string            `json:"long_webp_url"`
	LongWebpBySize map[string]string `json:"long_webp_by_size,omitempty"`
}

// buildImageUrlInfo projects one history item into its URL flavors. The long
// flavor picks the first present key from the fixed size-priority list.
func buildImageUrlInfo(item historyItem) ImageUrlInfo {
	info := ImageUrlInfo{}
	if item.Image != nil && len(item.Image.LargeImages) > 0 {
		info.PngURL = UnescapeAmpersands(item.Image.LargeImages[0].ImageURL)
	}
	if item.CommonAttr != nil {
		info.WebpURL = UnescapeAmpersands(item.CommonAttr.CoverURL)
		if len(item.CommonAttr.CoverURLMap) > 0 {
			sized := make(map[string]string, len(item.CommonAttr.CoverURLMap))
			for key, value := range item.CommonAttr.CoverURLMap {
				sized[key] = UnescapeAmpersands(value)
			}
			info.LongWebpBySize = sized
			info.LongWebpURL = pickLongWebp(sized)
		}
	}
	return info
}

func pickLongWebp(bySize map[string]string) string {
	for _, key := range longWebpSizePriority {
		if u, ok := bySize[key]; ok && u != "" {
			return u
		}
	}
	return ""
}

// UnescapeAmpersands reverses the vendor's JSON ampersand escaping. Applying
// it to an already-clean URL is a no-op.
func UnescapeAmpersands(s string) string {
	return strings.ReplaceAll(s, `\u0026`, "&")
}
