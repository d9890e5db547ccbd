package jimeng

import (
	"strings"
)

// RegionClass 地区分类：国内站走剪映域名，国际站走 capcut 域名
type RegionClass string

const (
	RegionDomestic      RegionClass = "domestic"
	RegionInternational RegionClass = "international"
)

// regionCodes maps the marker embedded in a credential to its classification.
var regionCodes = map[string]RegionClass{
	"cn": RegionDomestic,
	"us": RegionInternational,
	"hk": RegionInternational,
	"jp": RegionInternational,
	"sg": RegionInternational,
}

// RegionInfo 由凭证推导出的路由信息。不可变，每次调用重新推导，不做缓存。
type RegionInfo struct {
	Class       RegionClass
	Code        string
	AssistantID int
	BaseURL     string
	CommerceURL string
}

// Credential 拆开的调用凭证：地区标记 + 会话ID
type Credential struct {
	SessionID string
	Region    RegionInfo
}

// ResolveRegion parses a credential of the form "<region>:<sessionid>" and
// derives routing info from its region marker. The credential itself stays
// opaque beyond the marker; a missing or unknown marker fails with
// KindCredentialMalformed.
func ResolveRegion(credential string) (Credential, error) {
	trimmed := strings.TrimSpace(credential)
	if trimmed == "" {
		return Credential{}, newError(KindCredentialMalformed, "credential is empty")
	}

	marker, session, found := strings.Cut(trimmed, ":")
	if !found {
		return Credential{}, newError(KindCredentialMalformed, "credential has no region marker")
	}

	code := strings.ToLower(strings.TrimSpace(marker))
	class, ok := regionCodes[code]
	if !ok {
		return Credential{}, newError(KindCredentialMalformed, "unknown region marker %q", code)
	}

	session = strings.TrimSpace(session)
	if session == "" {
		return Credential{}, newError(KindCredentialMalformed, "credential has no session id")
	}

	info := RegionInfo{
		Class:       class,
		Code:        code,
		AssistantID: assistantIDInternational,
		BaseURL:     baseURLInternational,
		CommerceURL: commerceURLInternational,
	}
	if class == RegionDomestic {
		info.AssistantID = assistantIDDomestic
		info.BaseURL = baseURLDomestic
		info.CommerceURL = commerceURLDomestic
	}

	return Credential{SessionID: session, Region: info}, nil
}

// ResolveOutcome distinguishes "used exactly what was asked" from the
// documented best-effort substitutions.
type ResolveOutcome int

const (
	OutcomeResolved ResolveOutcome = iota
	OutcomeClamped
	OutcomeDefaulted
)

func (o ResolveOutcome) String() string {
	switch o {
	case OutcomeClamped:
		return "clamped"
	case OutcomeDefaulted:
		return "defaulted"
	default:
		return "resolved"
	}
}

// TaskKind 任务类型
type TaskKind string

const (
	TaskKindImage TaskKind = "image"
	TaskKindVideo TaskKind = "video"
)

// ModelSelection 用户别名与后端内部模型 key 的解析结果
type ModelSelection struct {
	UserModel     string
	InternalModel string
	Outcome       ResolveOutcome
}

// ResolveModel maps a user-facing alias to the vendor's internal model key for
// the credential's region. Unknown aliases fall back to the documented default
// for the task kind instead of failing, so older callers keep working; the
// outcome records the substitution.
func ResolveModel(alias string, region RegionInfo, kind TaskKind) ModelSelection {
	table := modelTable(region.Class, kind)
	fallback := DefaultImageModel
	if kind == TaskKindVideo {
		fallback = DefaultVideoModel
	}

	name := strings.TrimSpace(alias)
	if internal, ok := table[name]; ok {
		return ModelSelection{UserModel: name, InternalModel: internal, Outcome: OutcomeResolved}
	}

	return ModelSelection{
		UserModel:     fallback,
		InternalModel: table[fallback],
		Outcome:       OutcomeDefaulted,
	}
}

func modelTable(class RegionClass, kind TaskKind) map[string]string {
	if kind == TaskKindVideo {
		if class == RegionDomestic {
			return videoModelsDomestic
		}
		return videoModelsInternational
	}
	if class == RegionDomestic {
		return imageModelsDomestic
	}
	return imageModelsInternational
}
