package jimeng

import (
	"strings"
)

// ResolutionSpec 解析定型后的输出尺寸。Outcome 记录是否发生降档或使用默认值。
type ResolutionSpec struct {
	Width          int
	Height         int
	Ratio          string
	RatioCode      int
	ResolutionType string
	Outcome        ResolveOutcome
}

// ResolveResolution maps (model, region, resolution, ratio) to concrete pixel
// dimensions. A tier above the model's capability clamps down to the largest
// supported tier and reports OutcomeClamped; an unknown tier or ratio string
// fails closed rather than silently defaulting. The returned spec always
// reflects what will actually be sent.
func ResolveResolution(userModel string, region RegionInfo, resolution, ratio string) (ResolutionSpec, error) {
	outcome := OutcomeResolved

	tier := strings.ToLower(strings.TrimSpace(resolution))
	if tier == "" {
		tier = defaultTierFor(userModel)
		outcome = OutcomeDefaulted
	}
	if _, ok := resolutionTiers[tier]; !ok {
		return ResolutionSpec{}, newError(KindValidation, "unsupported resolution %q", resolution)
	}

	if maxTier := maxTierFor(userModel); tierRank[tier] > tierRank[maxTier] {
		tier = maxTier
		outcome = OutcomeClamped
	}

	ratioKey := strings.TrimSpace(ratio)
	if ratioKey == "" {
		ratioKey = "1:1"
		if outcome == OutcomeResolved {
			outcome = OutcomeDefaulted
		}
	}
	entry, ok := resolutionTiers[tier][ratioKey]
	if !ok {
		return ResolutionSpec{}, newError(KindValidation, "unsupported aspect ratio %q", ratio)
	}

	return ResolutionSpec{
		Width:          entry.Width,
		Height:         entry.Height,
		Ratio:          ratioKey,
		RatioCode:      entry.RatioCode,
		ResolutionType: tier,
		Outcome:        outcome,
	}, nil
}

func maxTierFor(userModel string) string {
	if tier, ok := modelMaxTier[userModel]; ok {
		return tier
	}
	return "1k"
}

func defaultTierFor(userModel string) string {
	if tier, ok := modelDefaultTier[userModel]; ok {
		return tier
	}
	return "1k"
}
