package jimeng

// API 基础地址
const (
	baseURLDomestic      = "https://jimeng.jianying.com"
	baseURLInternational = "https://mweb-api-sg.capcut.com"

	commerceURLDomestic      = "https://jimeng.jianying.com"
	commerceURLInternational = "https://commerce-api-sg.capcut.com"
)

// 助手ID：路由到生成后端的 aid
const (
	assistantIDDomestic      = 513695
	assistantIDInternational = 513641
)

const (
	platformCode = "7"
	versionCode  = "8.4.0"

	draftVersion    = "3.3.8"
	draftMinVersion = "3.0.2"
)

// 默认模型：未知别名回退使用
const (
	DefaultImageModel = "jimeng-4.0"
	DefaultVideoModel = "jimeng-video-3.5-pro"
)

// Seed range. Each submission draws base + [0, offset) so seeds differ
// without caller control.
const (
	seedBase   = 2500000000
	seedOffset = 100000000
)

// Composition/video input bounds, enforced before any upload happens.
const (
	minBlendImages = 1
	maxBlendImages = 10
	maxVideoFrames = 2
)

// imageModelsDomestic 国内站图像模型映射
var imageModelsDomestic = map[string]string{
	"jimeng-4.5":     "high_aes_general_v40l",
	"jimeng-4.1":     "high_aes_general_v41",
	"jimeng-4.0":     "high_aes_general_v40",
	"jimeng-3.1":     "high_aes_general_v30l_art_fangzhou:general_v3.0_18b",
	"jimeng-3.0":     "high_aes_general_v30l:general_v3.0_18b",
	"jimeng-2.1":     "high_aes_general_v21_L:general_v2.1_L",
	"jimeng-2.0-pro": "high_aes_general_v20_L:general_v2.0_L",
	"jimeng-2.0":     "high_aes_general_v20:general_v2.0",
	"jimeng-1.4":     "high_aes_general_v14:general_v1.4",
	"jimeng-xl-pro":  "text2img_xl_sft",
}

// imageModelsInternational 国际站图像模型映射
var imageModelsInternational = map[string]string{
	"jimeng-4.5":     "high_aes_general_v40l",
	"jimeng-4.1":     "high_aes_general_v41",
	"jimeng-4.0":     "high_aes_general_v40",
	"jimeng-3.1":     "high_aes_general_v30l_art_fangzhou:general_v3.0_18b",
	"jimeng-3.0":     "high_aes_general_v30l:general_v3.0_18b",
	"jimeng-2.1":     "high_aes_general_v21_L:general_v2.1_L",
	"jimeng-2.0-pro": "high_aes_general_v20_L:general_v2.0_L",
	"jimeng-2.0":     "high_aes_general_v20:general_v2.0",
	"jimeng-1.4":     "high_aes_general_v14:general_v1.4",
	"jimeng-xl-pro":  "text2img_xl_sft",
	"nanobanana":     "external_model_gemini_flash_image_v25",
	"nanobananapro":  "dreamina_image_lib_1",
}

// videoModelsDomestic 国内站视频模型映射
var videoModelsDomestic = map[string]string{
	"jimeng-video-4.0-pro":  "dreamina_seedance_40_pro",
	"jimeng-video-4.0":      "dreamina_seedance_40",
	"jimeng-video-3.5-pro":  "dreamina_ic_generate_video_model_vgfm_3.5_pro",
	"jimeng-video-3.0-pro":  "dreamina_ic_generate_video_model_vgfm_3.0_pro",
	"jimeng-video-3.0":      "dreamina_ic_generate_video_model_vgfm_3.0",
	"jimeng-video-3.0-fast": "dreamina_ic_generate_video_model_vgfm_3.0_fast",
	"jimeng-video-2.0-pro":  "dreamina_ic_generate_video_model_vgfm1.0",
	"jimeng-video-2.0":      "dreamina_ic_generate_video_model_vgfm_lite",
}

// videoModelsInternational 国际站视频模型映射（含 veo3/sora2 渠道）
var videoModelsInternational = map[string]string{
	"jimeng-video-veo3":     "dreamina_veo3_generate_video",
	"jimeng-video-veo3.1":   "dreamina_veo3.1_generate_video",
	"jimeng-video-sora2":    "dreamina_sora2_generate_video",
	"jimeng-video-3.5-pro":  "dreamina_ic_generate_video_model_vgfm_3.5_pro",
	"jimeng-video-3.0-pro":  "dreamina_ic_generate_video_model_vgfm_3.0_pro",
	"jimeng-video-3.0":      "dreamina_ic_generate_video_model_vgfm_3.0",
	"jimeng-video-3.0-fast": "dreamina_ic_generate_video_model_vgfm_3.0_fast",
	"jimeng-video-2.0-pro":  "dreamina_ic_generate_video_model_vgfm1.0",
	"jimeng-video-2.0":      "dreamina_ic_generate_video_model_vgfm_lite",
}

// Raw history status codes observed on the wire. The vendor never documented
// these; 42/45 have only been seen as transient post-processing states.
const (
	rawStatusSuccess        = 10
	rawStatusProcessing     = 20
	rawStatusFailed         = 30
	rawStatusPostProcessing = 42
	rawStatusFinalizing     = 45
	rawStatusCompleted      = 50
)

// resolutionEntry 单个比例档位的具体像素
type resolutionEntry struct {
	Width     int
	Height    int
	RatioCode int
}

// resolutionTiers 支持的分辨率档位与比例
var resolutionTiers = map[string]map[string]resolutionEntry{
	"1k": {
		"1:1":  {Width: 1328, Height: 1328, RatioCode: 1},
		"4:3":  {Width: 1472, Height: 1104, RatioCode: 4},
		"3:4":  {Width: 1104, Height: 1472, RatioCode: 2},
		"16:9": {Width: 1664, Height: 936, RatioCode: 3},
		"9:16": {Width: 936, Height: 1664, RatioCode: 5},
		"3:2":  {Width: 1584, Height: 1056, RatioCode: 7},
		"2:3":  {Width: 1056, Height: 1584, RatioCode: 6},
		"21:9": {Width: 2016, Height: 864, RatioCode: 8},
	},
	"2k": {
		"1:1":  {Width: 2048, Height: 2048, RatioCode: 1},
		"4:3":  {Width: 2304, Height: 1728, RatioCode: 4},
		"3:4":  {Width: 1728, Height: 2304, RatioCode: 2},
		"16:9": {Width: 2560, Height: 1440, RatioCode: 3},
		"9:16": {Width: 1440, Height: 2560, RatioCode: 5},
		"3:2":  {Width: 2496, Height: 1664, RatioCode: 7},
		"2:3":  {Width: 1664, Height: 2496, RatioCode: 6},
		"21:9": {Width: 3024, Height: 1296, RatioCode: 8},
	},
	"4k": {
		"1:1":  {Width: 4096, Height: 4096, RatioCode: 1},
		"4:3":  {Width: 4693, Height: 3520, RatioCode: 4},
		"3:4":  {Width: 3520, Height: 4693, RatioCode: 2},
		"16:9": {Width: 5404, Height: 3040, RatioCode: 3},
		"9:16": {Width: 3040, Height: 5404, RatioCode: 5},
		"3:2":  {Width: 4992, Height: 3328, RatioCode: 7},
		"2:3":  {Width: 3328, Height: 4992, RatioCode: 6},
		"21:9": {Width: 6197, Height: 2656, RatioCode: 8},
	},
}

// tierRank orders tiers from smallest to largest for clamping.
var tierRank = map[string]int{"1k": 1, "2k": 2, "4k": 3}

// modelMaxTier 各用户模型允许的最大分辨率档位。表中没有的模型按 1k 处理。
var modelMaxTier = map[string]string{
	"jimeng-4.5":    "4k",
	"jimeng-4.1":    "4k",
	"jimeng-4.0":    "4k",
	"jimeng-3.1":    "2k",
	"jimeng-3.0":    "2k",
	"nanobananapro": "2k",
}

// modelDefaultTier 未指定分辨率时使用的档位。表中没有的模型默认 1k。
var modelDefaultTier = map[string]string{
	"jimeng-4.5": "2k",
	"jimeng-4.1": "2k",
	"jimeng-4.0": "2k",
}

// longWebpSizePriority orders the long-lived encoded URL size keys; the first
// key present in the record's size map wins.
var longWebpSizePriority = []string{"2400", "1080", "720", "480", "360"}
