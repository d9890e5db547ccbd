package jimeng

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

// Service 面向调用方的生成任务编排层。无跨请求共享状态，可被并发使用。
type Service struct {
	client   *Client
	uploader Uploader
}

// NewService wires the transport and the asset uploader together. Pass a
// custom uploader for tests; nil selects the vendor channel.
func NewService(client *Client, uploader Uploader) *Service {
	if client == nil {
		client = NewClient()
	}
	if uploader == nil {
		uploader = NewVendorUploader(client)
	}
	return &Service{client: client, uploader: uploader}
}

// ImageGenerationInput 文生图任务参数
type ImageGenerationInput struct {
	Model            string
	Prompt           string
	NegativePrompt   string
	Resolution       string
	Ratio            string
	SampleStrength   float64
	Count            int
	IntelligentRatio bool
}

// CompositionInput 图像合成任务参数，Images 顺序即 ability 顺序
type CompositionInput struct {
	ImageGenerationInput
	Images []ImageInput
}

// VideoGenerationInput 视频任务参数。Images 最多两张：首帧、尾帧。
type VideoGenerationInput struct {
	Model           string
	Prompt          string
	Ratio           string
	Resolution      string
	DurationSeconds int
	Images          []ImageInput
}

// CreateImageGenerationTask submits a text-to-image task and returns the
// vendor-issued history id.
func (s *Service) CreateImageGenerationTask(ctx context.Context, credential string, in ImageGenerationInput) (string, error) {
	intent, cred, err := s.prepareImageIntent(credential, in, modeGenerate)
	if err != nil {
		return "", err
	}

	logrus.WithFields(logrus.Fields{
		"model":           intent.Model.UserModel,
		"internal_model":  intent.Model.InternalModel,
		"region":          cred.Region.Code,
		"resolution_type": intent.Resolution.ResolutionType,
		"model_outcome":   intent.Model.Outcome.String(),
	}).Info("jimeng_create_image_task")

	return s.submitDraft(ctx, cred, intent, nil)
}

// CreateImageCompositionTask uploads the reference images in caller order and
// submits a blend task. Any single upload failure aborts the whole task.
func (s *Service) CreateImageCompositionTask(ctx context.Context, credential string, in CompositionInput) (string, error) {
	intent, cred, err := s.prepareImageIntent(credential, in.ImageGenerationInput, modeBlend)
	if err != nil {
		return "", err
	}

	uris, err := s.uploadAll(ctx, in.Images, cred, blendUploadPolicy)
	if err != nil {
		return "", err
	}

	logrus.WithFields(logrus.Fields{
		"model":          intent.Model.UserModel,
		"internal_model": intent.Model.InternalModel,
		"region":         cred.Region.Code,
		"image_cnt":      len(uris),
	}).Info("jimeng_create_composition_task")

	return s.submitDraft(ctx, cred, intent, uris)
}

// CreateVideoGenerationTask submits a text/image-to-video task. The first
// frame is required when any image is given; a failed end-frame upload is
// tolerated and the task proceeds without it.
func (s *Service) CreateVideoGenerationTask(ctx context.Context, credential string, in VideoGenerationInput) (string, error) {
	cred, err := ResolveRegion(credential)
	if err != nil {
		return "", err
	}

	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		return "", newError(KindValidation, "prompt is required")
	}
	if len(in.Images) > maxVideoFrames {
		return "", newError(KindValidation, "video task accepts at most %d images, got %d", maxVideoFrames, len(in.Images))
	}

	selection := ResolveModel(in.Model, cred.Region, TaskKindVideo)

	var firstFrame, endFrame *videoFrame
	if len(in.Images) > 0 {
		uris, err := s.uploadAll(ctx, in.Images, cred, videoUploadPolicy)
		if err != nil {
			return "", err
		}
		if len(uris) > 0 {
			firstFrame = &videoFrame{ImageURI: uris[0], URI: uris[0]}
		}
		if len(uris) > 1 {
			endFrame = &videoFrame{ImageURI: uris[1], URI: uris[1]}
		}
	}

	intent := videoIntent{
		Prompt:          prompt,
		Ratio:           in.Ratio,
		Resolution:      in.Resolution,
		DurationSeconds: in.DurationSeconds,
		Model:           selection,
	}
	body := buildVideoRequest(intent, cred.Region, firstFrame, endFrame)

	logrus.WithFields(logrus.Fields{
		"model":          selection.UserModel,
		"internal_model": selection.InternalModel,
		"region":         cred.Region.Code,
		"duration_ms":    quantizeDuration(selection.InternalModel, in.DurationSeconds),
		"has_first":      firstFrame != nil,
		"has_end":        endFrame != nil,
	}).Info("jimeng_create_video_task")

	return s.submit(ctx, cred, "/mweb/v1/generate_video", callOptions{Body: body})
}

func (s *Service) prepareImageIntent(credential string, in ImageGenerationInput, mode generateMode) (taskIntent, Credential, error) {
	cred, err := ResolveRegion(credential)
	if err != nil {
		return taskIntent{}, Credential{}, err
	}

	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		return taskIntent{}, Credential{}, newError(KindValidation, "prompt is required")
	}

	selection := ResolveModel(in.Model, cred.Region, TaskKindImage)
	spec, err := ResolveResolution(selection.UserModel, cred.Region, in.Resolution, in.Ratio)
	if err != nil {
		return taskIntent{}, Credential{}, err
	}

	return taskIntent{
		Mode:             mode,
		Prompt:           prompt,
		NegativePrompt:   strings.TrimSpace(in.NegativePrompt),
		SampleStrength:   in.SampleStrength,
		Count:            in.Count,
		IntelligentRatio: in.IntelligentRatio,
		Model:            selection,
		Resolution:       spec,
	}, cred, nil
}

func (s *Service) submitDraft(ctx context.Context, cred Credential, intent taskIntent, imageURIs []string) (string, error) {
	core := buildCoreParam(intent)
	metrics := buildMetricsExtra(intent, imageURIs)
	draft := buildDraftContent(intent, core, imageURIs)

	params, body, err := buildGenerateRequest(intent, draft, metrics, cred.Region)
	if err != nil {
		return "", err
	}

	return s.submit(ctx, cred, "/mweb/v1/aigc_draft/generate", callOptions{Params: params, Body: body})
}

// aigcData 提交响应里的任务受理块
type aigcData struct {
	HistoryRecordID string `json:"history_record_id"`
}

// submit issues the generation call and extracts the history id. A missing id
// is always fatal and never retried here: the submission may have partially
// succeeded server-side, and a blind resubmit risks duplicate billing.
func (s *Service) submit(ctx context.Context, cred Credential, path string, opts callOptions) (string, error) {
	resp, err := s.client.call(ctx, http.MethodPost, path, cred, opts)
	if err != nil {
		return "", err
	}

	var data struct {
		AIGCData aigcData `json:"aigc_data"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return "", wrapError(KindSubmission, err, "decode submission response")
	}

	historyID := strings.TrimSpace(data.AIGCData.HistoryRecordID)
	if historyID == "" {
		logrus.WithFields(logrus.Fields{
			"path": path,
			"body": logSnippet(string(resp.Data)),
		}).Error("jimeng_submit_missing_record_id")
		return "", newError(KindSubmission, "submission response carries no history_record_id")
	}

	logrus.WithFields(logrus.Fields{
		"history_id": historyID,
		"path":       path,
	}).Info("jimeng_submit_accepted")
	return historyID, nil
}
