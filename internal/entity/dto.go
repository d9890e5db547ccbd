package entity

// ImageGenerationRequest 文生图请求
type ImageGenerationRequest struct {
	Model            string  `json:"model"`
	Prompt           string  `json:"prompt" binding:"required"`
	NegativePrompt   string  `json:"negative_prompt"`
	Resolution       string  `json:"resolution"`
	Ratio            string  `json:"ratio"`
	SampleStrength   float64 `json:"sample_strength"`
	Count            int     `json:"count"`
	IntelligentRatio bool    `json:"intelligent_ratio"`
}

// CompositionRequest 图像合成请求，images 支持 URL、本地路径或 base64/data URL
type CompositionRequest struct {
	ImageGenerationRequest
	Images []string `json:"images" binding:"required"`
}

// VideoGenerationRequest 视频生成请求，images 最多两张：首帧与尾帧
type VideoGenerationRequest struct {
	Model           string   `json:"model"`
	Prompt          string   `json:"prompt" binding:"required"`
	Ratio           string   `json:"ratio"`
	Resolution      string   `json:"resolution"`
	DurationSeconds int      `json:"duration_seconds"`
	Images          []string `json:"images"`
}

// TaskCreatedResponse 任务受理响应
type TaskCreatedResponse struct {
	HistoryID string `json:"history_id"`
	Kind      string `json:"kind"`
	Status    string `json:"status"`
}

// TaskStatusResponse 任务状态查询响应
type TaskStatusResponse struct {
	HistoryID    string   `json:"history_id"`
	Kind         string   `json:"kind"`
	Status       string   `json:"status"`
	FailCode     string   `json:"fail_code,omitempty"`
	Results      []string `json:"results"`
	VideoURL     string   `json:"video_url,omitempty"`
	ArchivedURLs []string `json:"archived_urls,omitempty"`
}

// CreditsResponse 积分余额响应
type CreditsResponse struct {
	Total    float64 `json:"total"`
	Gift     float64 `json:"gift"`
	Purchase float64 `json:"purchase"`
	VIP      float64 `json:"vip"`
}

// GenerationRecordQuery 生成记录列表查询参数
type GenerationRecordQuery struct {
	BaseParams
	Kind   string `json:"kind" form:"kind"`
	Status string `json:"status" form:"status"`
	Model  string `json:"model" form:"model"`
}
