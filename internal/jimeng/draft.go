package jimeng

import (
	"encoding/json"
	"math/rand"
	"net/url"

	"github.com/google/uuid"
)

// generateMode 草稿的生成模式
type generateMode string

const (
	modeGenerate generateMode = "generate" // 纯文生图
	modeBlend    generateMode = "blend"    // 图像合成（参考图）
)

// taskIntent 规范化后的任务意图，payload 构造的唯一输入。每次请求新建，
// 不跨请求复用（seed 必须不同）。
type taskIntent struct {
	Mode             generateMode
	Prompt           string
	NegativePrompt   string
	SampleStrength   float64
	Count            int
	IntelligentRatio bool
	Model            ModelSelection
	Resolution       ResolutionSpec
}

// ---- wire structures -------------------------------------------------------
//
// The draft is a nested component graph. Every node repeats {type,id}; the
// backend rejects drafts with missing ids even where it ignores the value.

type largeImageInfo struct {
	Type           string `json:"type"`
	ID             string `json:"id"`
	Height         int    `json:"height"`
	Width          int    `json:"width"`
	ResolutionType string `json:"resolution_type"`
}

type coreParam struct {
	Type             string         `json:"type"`
	ID               string         `json:"id"`
	Model            string         `json:"model"`
	Prompt           string         `json:"prompt"`
	NegativePrompt   string         `json:"negative_prompt"`
	Seed             int64          `json:"seed"`
	SampleStrength   float64        `json:"sample_strength"`
	ImageRatio       int            `json:"image_ratio"`
	LargeImageInfo   largeImageInfo `json:"large_image_info"`
	IntelligentRatio bool           `json:"intelligent_ratio"`
}

type historyOption struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type abilityImage struct {
	Type         string `json:"type"`
	ID           string `json:"id"`
	SourceFrom   string `json:"source_from"`
	PlatformType int    `json:"platform_type"`
	Name         string `json:"name"`
	ImageURI     string `json:"image_uri"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Format       string `json:"format"`
	URI          string `json:"uri"`
}

type blendAbility struct {
	Type         string         `json:"type"`
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	ImageURIList []string       `json:"image_uri_list"`
	ImageList    []abilityImage `json:"image_list"`
	Strength     float64        `json:"strength"`
}

type promptPlaceholder struct {
	Type         string `json:"type"`
	ID           string `json:"id"`
	AbilityIndex int    `json:"ability_index"`
}

type posteditParam struct {
	Type         string `json:"type"`
	ID           string `json:"id"`
	GenerateType int    `json:"generate_type"`
}

type generateAbility struct {
	Type          string        `json:"type"`
	ID            string        `json:"id"`
	CoreParam     coreParam     `json:"core_param"`
	HistoryOption historyOption `json:"history_option"`
}

type blendAbilityBlock struct {
	Type                      string              `json:"type"`
	ID                        string              `json:"id"`
	CoreParam                 coreParam           `json:"core_param"`
	AbilityList               []blendAbility      `json:"ability_list"`
	PromptPlaceholderInfoList []promptPlaceholder `json:"prompt_placeholder_info_list"`
	PosteditParam             posteditParam       `json:"postedit_param"`
	HistoryOption             historyOption       `json:"history_option"`
}

type componentAbilities struct {
	Type     string             `json:"type"`
	ID       string             `json:"id"`
	Generate *generateAbility   `json:"generate,omitempty"`
	Blend    *blendAbilityBlock `json:"blend,omitempty"`
}

type draftComponent struct {
	Type       string             `json:"type"`
	ID         string             `json:"id"`
	MinVersion string             `json:"min_version"`
	AIGCMode   string             `json:"aigc_mode"`
	Abilities  componentAbilities `json:"abilities"`
}

type draftContent struct {
	Type            string           `json:"type"`
	ID              string           `json:"id"`
	MinVersion      string           `json:"min_version"`
	MinFeatures     []string         `json:"min_features"`
	IsFromTSN       bool             `json:"is_from_tsn"`
	Version         string           `json:"version"`
	MainComponentID string           `json:"main_component_id"`
	ComponentList   []draftComponent `json:"component_list"`
}

// ---- builders --------------------------------------------------------------

func newNodeID() string {
	return uuid.NewString()
}

// nextSeed draws a fresh seed per submission; callers never control it.
func nextSeed() int64 {
	return seedBase + rand.Int63n(seedOffset)
}

// buildCoreParam assembles the canonical intent node shared by both modes.
func buildCoreParam(intent taskIntent) coreParam {
	strength := intent.SampleStrength
	if strength <= 0 || strength > 1 {
		strength = 0.5
	}
	return coreParam{
		Type:           "",
		ID:             newNodeID(),
		Model:          intent.Model.InternalModel,
		Prompt:         intent.Prompt,
		NegativePrompt: intent.NegativePrompt,
		Seed:           nextSeed(),
		SampleStrength: strength,
		ImageRatio:     intent.Resolution.RatioCode,
		LargeImageInfo: largeImageInfo{
			ID:             newNodeID(),
			Height:         intent.Resolution.Height,
			Width:          intent.Resolution.Width,
			ResolutionType: intent.Resolution.ResolutionType,
		},
		IntelligentRatio: intent.IntelligentRatio,
	}
}

// buildMetricsExtra builds the telemetry envelope the backend insists on.
// Functionally inert for generation, but requests without it get rejected.
func buildMetricsExtra(intent taskIntent, imageURIs []string) string {
	count := intent.Count
	if count <= 0 {
		count = 1
	}
	extra := map[string]any{
		"promptSource":    "custom",
		"generateCount":   count,
		"enterFrom":       "click",
		"generateId":      uuid.NewString(),
		"isRegenerate":    false,
		"templateId":      "",
		"scene":           sceneTag(intent.Mode),
		"resolution_type": intent.Resolution.ResolutionType,
	}
	if intent.Mode == modeBlend {
		abilities := make([]map[string]any, 0, len(imageURIs))
		for idx, uri := range imageURIs {
			abilities = append(abilities, map[string]any{
				"name":      "byte_edit",
				"index":     idx,
				"image_uri": uri,
			})
		}
		extra["abilityList"] = abilities
	}
	raw, _ := json.Marshal(extra)
	return string(raw)
}

func sceneTag(mode generateMode) string {
	if mode == modeBlend {
		return "image_blend"
	}
	return "text_to_image"
}

// buildDraftContent wraps the core param in the component graph for the mode.
// Blend mode emits one ability entry and one prompt-placeholder entry per
// uploaded image, in upload order.
func buildDraftContent(intent taskIntent, core coreParam, imageURIs []string) draftContent {
	componentID := newNodeID()
	component := draftComponent{
		Type:       "image_base_component",
		ID:         componentID,
		MinVersion: draftMinVersion,
		AIGCMode:   "workbench",
		Abilities:  componentAbilities{ID: newNodeID()},
	}

	if intent.Mode == modeBlend {
		abilityList := make([]blendAbility, 0, len(imageURIs))
		placeholders := make([]promptPlaceholder, 0, len(imageURIs))
		for idx, uri := range imageURIs {
			abilityList = append(abilityList, blendAbility{
				ID:           newNodeID(),
				Name:         "byte_edit",
				ImageURIList: []string{uri},
				ImageList: []abilityImage{{
					Type:       "image",
					ID:         newNodeID(),
					SourceFrom: "upload",
					// platform_type 固定为 1，取其它值后端静默丢弃参考图
					PlatformType: 1,
					ImageURI:     uri,
					URI:          uri,
				}},
				Strength: core.SampleStrength,
			})
			placeholders = append(placeholders, promptPlaceholder{
				ID:           newNodeID(),
				AbilityIndex: idx,
			})
		}
		component.Abilities.Blend = &blendAbilityBlock{
			ID:                        newNodeID(),
			CoreParam:                 core,
			AbilityList:               abilityList,
			PromptPlaceholderInfoList: placeholders,
			PosteditParam:             posteditParam{ID: newNodeID(), GenerateType: 0},
			HistoryOption:             historyOption{ID: newNodeID()},
		}
	} else {
		component.Abilities.Generate = &generateAbility{
			ID:            newNodeID(),
			CoreParam:     core,
			HistoryOption: historyOption{ID: newNodeID()},
		}
	}

	return draftContent{
		Type:            "draft",
		ID:              newNodeID(),
		MinVersion:      draftMinVersion,
		MinFeatures:     []string{},
		IsFromTSN:       true,
		Version:         draftVersion,
		MainComponentID: componentID,
		ComponentList:   []draftComponent{component},
	}
}

// buildGenerateRequest wraps draft and metrics into the final submission
// envelope plus the babi routing query parameter.
func buildGenerateRequest(intent taskIntent, draft draftContent, metricsExtra string, region RegionInfo) (url.Values, map[string]any, error) {
	draftRaw, err := json.Marshal(draft)
	if err != nil {
		return nil, nil, wrapError(KindValidation, err, "marshal draft content")
	}

	babi, _ := json.Marshal(map[string]string{
		"scenario":                "image_video_generation",
		"feature_key":             "aigc_to_image",
		"feature_entrance":        "to_image",
		"feature_entrance_detail": "to_image-" + intent.Model.InternalModel,
	})
	params := url.Values{}
	params.Set("babi_param", string(babi))

	body := map[string]any{
		"extend": map[string]any{
			"root_model":  intent.Model.InternalModel,
			"template_id": "",
		},
		"submit_id":     uuid.NewString(),
		"metrics_extra": metricsExtra,
		"draft_content": string(draftRaw),
		"http_common_info": map[string]any{
			"aid": region.AssistantID,
		},
	}
	return params, body, nil
}
