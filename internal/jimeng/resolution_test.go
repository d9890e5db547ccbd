package jimeng

import (
	"testing"
)

func TestResolveResolution(t *testing.T) {
	domestic, _ := ResolveRegion("cn:s")

	tests := []struct {
		name        string
		model       string
		resolution  string
		ratio       string
		wantWidth   int
		wantHeight  int
		wantType    string
		wantCode    int
		wantOutcome ResolveOutcome
		wantErr     bool
	}{
		{
			name:        "显式档位与比例",
			model:       "jimeng-4.0",
			resolution:  "2k",
			ratio:       "16:9",
			wantWidth:   2560,
			wantHeight:  1440,
			wantType:    "2k",
			wantCode:    3,
			wantOutcome: OutcomeResolved,
		},
		{
			name:        "旗舰模型默认2k",
			model:       "jimeng-4.0",
			resolution:  "",
			ratio:       "1:1",
			wantWidth:   2048,
			wantHeight:  2048,
			wantType:    "2k",
			wantCode:    1,
			wantOutcome: OutcomeDefaulted,
		},
		{
			name:        "老模型默认1k",
			model:       "jimeng-2.1",
			resolution:  "",
			ratio:       "1:1",
			wantWidth:   1328,
			wantHeight:  1328,
			wantType:    "1k",
			wantCode:    1,
			wantOutcome: OutcomeDefaulted,
		},
		{
			name:        "超出能力降档",
			model:       "jimeng-3.0",
			resolution:  "4k",
			ratio:       "1:1",
			wantWidth:   2048,
			wantHeight:  2048,
			wantType:    "2k",
			wantCode:    1,
			wantOutcome: OutcomeClamped,
		},
		{
			name:        "比例缺省为1:1",
			model:       "jimeng-3.0",
			resolution:  "1k",
			ratio:       "",
			wantWidth:   1328,
			wantHeight:  1328,
			wantType:    "1k",
			wantCode:    1,
			wantOutcome: OutcomeDefaulted,
		},
		{name: "未知档位报错", model: "jimeng-4.0", resolution: "8k", ratio: "1:1", wantErr: true},
		{name: "未知比例报错", model: "jimeng-4.0", resolution: "1k", ratio: "7:5", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := ResolveResolution(tt.model, domestic.Region, tt.resolution, tt.ratio)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", spec)
				}
				if !IsKind(err, KindValidation) {
					t.Errorf("expected KindValidation, got %v", KindOf(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if spec.Width != tt.wantWidth || spec.Height != tt.wantHeight {
				t.Errorf("size = %dx%d, want %dx%d", spec.Width, spec.Height, tt.wantWidth, tt.wantHeight)
			}
			if spec.ResolutionType != tt.wantType {
				t.Errorf("resolution type = %q, want %q", spec.ResolutionType, tt.wantType)
			}
			if spec.RatioCode != tt.wantCode {
				t.Errorf("ratio code = %d, want %d", spec.RatioCode, tt.wantCode)
			}
			if spec.Outcome != tt.wantOutcome {
				t.Errorf("outcome = %s, want %s", spec.Outcome, tt.wantOutcome)
			}
		})
	}
}

func TestResolveResolutionAllTiersComplete(t *testing.T) {
	// 每个档位必须覆盖全部 8 种比例，否则降档会在某些比例下失败
	for tier, ratios := range resolutionTiers {
		if len(ratios) != 8 {
			t.Errorf("tier %s has %d ratios, want 8", tier, len(ratios))
		}
		for ratio, entry := range ratios {
			if entry.Width <= 0 || entry.Height <= 0 {
				t.Errorf("tier %s ratio %s has invalid size %dx%d", tier, ratio, entry.Width, entry.Height)
			}
		}
	}
}
