package jimeng

import (
	"strings"

	"github.com/google/uuid"
)

// videoIntent 视频任务意图。与图像路径刻意不合并：后端的视频 schema 结构上
// 完全不同（时长毫秒化、首尾帧整对象内嵌、commerce benefit 字段）。
type videoIntent struct {
	Prompt          string
	Ratio           string
	Resolution      string
	DurationSeconds int
	Model           ModelSelection
}

// videoFrame 首帧/尾帧的完整描述对象。后端不接受裸 uri。
type videoFrame struct {
	Format   string `json:"format"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	ImageURI string `json:"image_uri"`
	URI      string `json:"uri"`
}

// quantizeDuration maps a requested duration in seconds to the effective
// duration in milliseconds, per model family. The backend silently drops
// unsupported durations, so quantizing client-side is the only way to keep
// the applied value predictable.
func quantizeDuration(internalModel string, requestedSeconds int) int {
	switch {
	case strings.Contains(internalModel, "veo3"):
		return 8000
	case strings.Contains(internalModel, "sora2"):
		switch requestedSeconds {
		case 12:
			return 12000
		case 8:
			return 8000
		default:
			return 4000
		}
	case strings.Contains(internalModel, "3.5_pro"):
		switch requestedSeconds {
		case 12:
			return 12000
		case 10:
			return 10000
		default:
			return 5000
		}
	default:
		if requestedSeconds == 10 {
			return 10000
		}
		return 5000
	}
}

// includeVideoResolution reports whether the resolution field goes into the
// payload. Only the non-pro vgfm_3.0 family accepts it; every other model
// rejects the field or ignores it, so it is omitted and the backend infers a
// default.
func includeVideoResolution(internalModel string) bool {
	return strings.Contains(internalModel, "vgfm_3.0") && !strings.Contains(internalModel, "_pro")
}

// benefitType derives the commerce benefit string from the model key. These
// values come from observing the web client; there is no published list.
func benefitType(internalModel string) string {
	switch {
	case strings.Contains(internalModel, "veo3"):
		return "basic_video_operation_veo3"
	case strings.Contains(internalModel, "sora2"):
		return "basic_video_operation_sora2"
	case strings.Contains(internalModel, "_pro"):
		return "basic_video_operation_vgfm_v_three"
	default:
		return "basic_video_operation_vgfm_lite"
	}
}

// buildVideoRequest produces the video submission envelope. firstFrame and
// endFrame may be nil; a nil endFrame just omits the slot.
func buildVideoRequest(intent videoIntent, region RegionInfo, firstFrame, endFrame *videoFrame) map[string]any {
	ratio := strings.TrimSpace(intent.Ratio)
	if ratio == "" {
		ratio = "16:9"
	}

	genInput := map[string]any{
		"prompt":      intent.Prompt,
		"video_mode":  2,
		"fps":         24,
		"duration_ms": quantizeDuration(intent.Model.InternalModel, intent.DurationSeconds),
	}
	if includeVideoResolution(intent.Model.InternalModel) {
		resolution := strings.TrimSpace(intent.Resolution)
		if resolution == "" {
			resolution = "720p"
		}
		genInput["resolution"] = resolution
	}
	if firstFrame != nil {
		genInput["first_frame_image"] = firstFrame
	}
	if endFrame != nil {
		genInput["end_frame_image"] = endFrame
	}

	return map[string]any{
		"submit_id": uuid.NewString(),
		"task_extra": buildVideoTaskExtra(intent),
		"http_common_info": map[string]any{
			"aid": region.AssistantID,
		},
		"input": map[string]any{
			"video_aspect_ratio": ratio,
			"seed":               nextSeed(),
			"video_gen_inputs":   []any{genInput},
			"priority":           0,
			"model_req_key":      intent.Model.InternalModel,
			"benefit_type":       benefitType(intent.Model.InternalModel),
		},
	}
}

func buildVideoTaskExtra(intent videoIntent) string {
	// 与图像侧的 metrics_extra 同类：后端要求存在但不影响生成
	return `{"promptSource":"custom","originSubmitId":"` + uuid.NewString() +
		`","isDefaultSeed":1,"originTemplateId":"","imageNameMapping":{},"isUseAiGenPrompt":false,"batchNumber":1}`
}
