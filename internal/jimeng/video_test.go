package jimeng

import (
	"encoding/json"
	"testing"
)

func TestQuantizeDuration(t *testing.T) {
	tests := []struct {
		name      string
		model     string
		requested int
		want      int
	}{
		{name: "veo3固定8秒", model: "dreamina_veo3_generate_video", requested: 5, want: 8000},
		{name: "veo3忽略请求值", model: "dreamina_veo3_generate_video", requested: 12, want: 8000},
		{name: "sora2取12秒", model: "dreamina_sora2_generate_video", requested: 12, want: 12000},
		{name: "sora2取8秒", model: "dreamina_sora2_generate_video", requested: 8, want: 8000},
		{name: "sora2其余归4秒", model: "dreamina_sora2_generate_video", requested: 10, want: 4000},
		{name: "sora2零值归4秒", model: "dreamina_sora2_generate_video", requested: 0, want: 4000},
		{name: "3.5pro取12秒", model: "dreamina_ic_generate_video_model_vgfm_3.5_pro", requested: 12, want: 12000},
		{name: "3.5pro取10秒", model: "dreamina_ic_generate_video_model_vgfm_3.5_pro", requested: 10, want: 10000},
		{name: "3.5pro其余归5秒", model: "dreamina_ic_generate_video_model_vgfm_3.5_pro", requested: 8, want: 5000},
		{name: "默认族取10秒", model: "dreamina_ic_generate_video_model_vgfm_3.0", requested: 10, want: 10000},
		{name: "默认族其余归5秒", model: "dreamina_ic_generate_video_model_vgfm_lite", requested: 7, want: 5000},
		{name: "默认族零值归5秒", model: "dreamina_ic_generate_video_model_vgfm_3.0", requested: 0, want: 5000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := quantizeDuration(tt.model, tt.requested); got != tt.want {
				t.Errorf("quantizeDuration(%q, %d) = %d, want %d", tt.model, tt.requested, got, tt.want)
			}
		})
	}
}

func TestIncludeVideoResolution(t *testing.T) {
	tests := []struct {
		model string
		want  bool
	}{
		{model: "dreamina_ic_generate_video_model_vgfm_3.0", want: true},
		{model: "dreamina_ic_generate_video_model_vgfm_3.0_fast", want: true},
		{model: "dreamina_ic_generate_video_model_vgfm_3.0_pro", want: false},
		{model: "dreamina_ic_generate_video_model_vgfm_3.5_pro", want: false},
		{model: "dreamina_ic_generate_video_model_vgfm_lite", want: false},
		{model: "dreamina_veo3_generate_video", want: false},
	}
	for _, tt := range tests {
		if got := includeVideoResolution(tt.model); got != tt.want {
			t.Errorf("includeVideoResolution(%q) = %v, want %v", tt.model, got, tt.want)
		}
	}
}

func TestBenefitType(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{model: "dreamina_veo3_generate_video", want: "basic_video_operation_veo3"},
		{model: "dreamina_veo3.1_generate_video", want: "basic_video_operation_veo3"},
		{model: "dreamina_sora2_generate_video", want: "basic_video_operation_sora2"},
		{model: "dreamina_ic_generate_video_model_vgfm_3.5_pro", want: "basic_video_operation_vgfm_v_three"},
		{model: "dreamina_ic_generate_video_model_vgfm_3.0_pro", want: "basic_video_operation_vgfm_v_three"},
		{model: "dreamina_ic_generate_video_model_vgfm_3.0", want: "basic_video_operation_vgfm_lite"},
		{model: "dreamina_ic_generate_video_model_vgfm_lite", want: "basic_video_operation_vgfm_lite"},
	}
	for _, tt := range tests {
		if got := benefitType(tt.model); got != tt.want {
			t.Errorf("benefitType(%q) = %q, want %q", tt.model, got, tt.want)
		}
	}
}

func TestBuildVideoRequest(t *testing.T) {
	intl, _ := ResolveRegion("us:s")
	intent := videoIntent{
		Prompt:          "a cat running",
		Ratio:           "",
		Resolution:      "",
		DurationSeconds: 10,
		Model: ModelSelection{
			UserModel:     "jimeng-video-3.0",
			InternalModel: "dreamina_ic_generate_video_model_vgfm_3.0",
			Outcome:       OutcomeResolved,
		},
	}
	first := &videoFrame{Format: "png", Width: 1024, Height: 1024, ImageURI: "tos/abc", URI: "tos/abc"}

	body := buildVideoRequest(intent, intl.Region, first, nil)
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	var decoded struct {
		SubmitID string `json:"submit_id"`
		Input    struct {
			VideoAspectRatio string `json:"video_aspect_ratio"`
			Seed             int64  `json:"seed"`
			ModelReqKey      string `json:"model_req_key"`
			BenefitType      string `json:"benefit_type"`
			VideoGenInputs   []struct {
				Prompt     string `json:"prompt"`
				DurationMs int    `json:"duration_ms"`
				Resolution string `json:"resolution"`
				FirstFrame *struct {
					ImageURI string `json:"image_uri"`
				} `json:"first_frame_image"`
				EndFrame *struct {
					ImageURI string `json:"image_uri"`
				} `json:"end_frame_image"`
			} `json:"video_gen_inputs"`
		} `json:"input"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode request: %v", err)
	}

	if decoded.SubmitID == "" {
		t.Error("submit_id is empty")
	}
	if decoded.Input.VideoAspectRatio != "16:9" {
		t.Errorf("aspect ratio = %q, want default 16:9", decoded.Input.VideoAspectRatio)
	}
	if decoded.Input.Seed < seedBase || decoded.Input.Seed >= seedBase+seedOffset {
		t.Errorf("seed %d outside [%d, %d)", decoded.Input.Seed, seedBase, int64(seedBase)+seedOffset)
	}
	if decoded.Input.ModelReqKey != intent.Model.InternalModel {
		t.Errorf("model_req_key = %q, want %q", decoded.Input.ModelReqKey, intent.Model.InternalModel)
	}
	if decoded.Input.BenefitType != "basic_video_operation_vgfm_lite" {
		t.Errorf("benefit_type = %q", decoded.Input.BenefitType)
	}
	if len(decoded.Input.VideoGenInputs) != 1 {
		t.Fatalf("video_gen_inputs length = %d, want 1", len(decoded.Input.VideoGenInputs))
	}
	genInput := decoded.Input.VideoGenInputs[0]
	if genInput.DurationMs != 10000 {
		t.Errorf("duration_ms = %d, want 10000", genInput.DurationMs)
	}
	if genInput.Resolution != "720p" {
		t.Errorf("resolution = %q, want default 720p for vgfm_3.0", genInput.Resolution)
	}
	if genInput.FirstFrame == nil || genInput.FirstFrame.ImageURI != "tos/abc" {
		t.Errorf("first frame not carried: %+v", genInput.FirstFrame)
	}
	if genInput.EndFrame != nil {
		t.Errorf("end frame should be omitted, got %+v", genInput.EndFrame)
	}
}

func TestBuildVideoRequestOmitsResolutionForPro(t *testing.T) {
	intl, _ := ResolveRegion("us:s")
	intent := videoIntent{
		Prompt:          "sunset timelapse",
		Resolution:      "1080p",
		DurationSeconds: 5,
		Model: ModelSelection{
			UserModel:     "jimeng-video-3.5-pro",
			InternalModel: "dreamina_ic_generate_video_model_vgfm_3.5_pro",
		},
	}

	body := buildVideoRequest(intent, intl.Region, nil, nil)
	raw, _ := json.Marshal(body)

	var decoded struct {
		Input struct {
			VideoGenInputs []map[string]any `json:"video_gen_inputs"`
		} `json:"input"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if len(decoded.Input.VideoGenInputs) != 1 {
		t.Fatalf("video_gen_inputs length = %d, want 1", len(decoded.Input.VideoGenInputs))
	}
	if _, ok := decoded.Input.VideoGenInputs[0]["resolution"]; ok {
		t.Error("resolution must be omitted for pro models")
	}
}
