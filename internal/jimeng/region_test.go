package jimeng

import (
	"testing"
)

func TestResolveRegion(t *testing.T) {
	tests := []struct {
		name       string
		credential string
		wantClass  RegionClass
		wantSID    string
		wantErr    bool
	}{
		{name: "国内凭证", credential: "cn:abc123session", wantClass: RegionDomestic, wantSID: "abc123session"},
		{name: "国际凭证", credential: "us:def456session", wantClass: RegionInternational, wantSID: "def456session"},
		{name: "新加坡凭证", credential: "sg:xyz789", wantClass: RegionInternational, wantSID: "xyz789"},
		{name: "大写地区标记", credential: "CN:abc123", wantClass: RegionDomestic, wantSID: "abc123"},
		{name: "带空白", credential: "  cn:abc123  ", wantClass: RegionDomestic, wantSID: "abc123"},
		{name: "缺少地区标记", credential: "abc123session", wantErr: true},
		{name: "未知地区", credential: "fr:abc123", wantErr: true},
		{name: "空会话ID", credential: "cn:", wantErr: true},
		{name: "空凭证", credential: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cred, err := ResolveRegion(tt.credential)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", cred)
				}
				if !IsKind(err, KindCredentialMalformed) {
					t.Errorf("expected KindCredentialMalformed, got %v", KindOf(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cred.Region.Class != tt.wantClass {
				t.Errorf("class = %s, want %s", cred.Region.Class, tt.wantClass)
			}
			if cred.SessionID != tt.wantSID {
				t.Errorf("session id = %q, want %q", cred.SessionID, tt.wantSID)
			}
		})
	}
}

func TestResolveRegionRouting(t *testing.T) {
	domestic, err := ResolveRegion("cn:s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if domestic.Region.AssistantID != 513695 {
		t.Errorf("domestic aid = %d, want 513695", domestic.Region.AssistantID)
	}
	if domestic.Region.BaseURL != domestic.Region.CommerceURL {
		t.Errorf("domestic commerce should share the base host, got %s / %s",
			domestic.Region.BaseURL, domestic.Region.CommerceURL)
	}

	intl, err := ResolveRegion("hk:s2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if intl.Region.AssistantID != 513641 {
		t.Errorf("international aid = %d, want 513641", intl.Region.AssistantID)
	}
	if intl.Region.BaseURL == intl.Region.CommerceURL {
		t.Errorf("international commerce must use its own host, got %s for both", intl.Region.BaseURL)
	}
}

func TestResolveModel(t *testing.T) {
	domestic, _ := ResolveRegion("cn:s")
	intl, _ := ResolveRegion("us:s")

	tests := []struct {
		name         string
		alias        string
		region       RegionInfo
		kind         TaskKind
		wantInternal string
		wantOutcome  ResolveOutcome
	}{
		{
			name:         "已知图像别名",
			alias:        "jimeng-4.0",
			region:       domestic.Region,
			kind:         TaskKindImage,
			wantInternal: "high_aes_general_v40",
			wantOutcome:  OutcomeResolved,
		},
		{
			name:         "未知图像别名回退默认",
			alias:        "jimeng-99",
			region:       domestic.Region,
			kind:         TaskKindImage,
			wantInternal: "high_aes_general_v40",
			wantOutcome:  OutcomeDefaulted,
		},
		{
			name:         "空别名回退默认",
			alias:        "",
			region:       intl.Region,
			kind:         TaskKindVideo,
			wantInternal: "dreamina_ic_generate_video_model_vgfm_3.5_pro",
			wantOutcome:  OutcomeDefaulted,
		},
		{
			name:         "国际站专属视频模型",
			alias:        "jimeng-video-veo3",
			region:       intl.Region,
			kind:         TaskKindVideo,
			wantInternal: "dreamina_veo3_generate_video",
			wantOutcome:  OutcomeResolved,
		},
		{
			name:         "国际站模型在国内站回退",
			alias:        "jimeng-video-veo3",
			region:       domestic.Region,
			kind:         TaskKindVideo,
			wantInternal: "dreamina_ic_generate_video_model_vgfm_3.5_pro",
			wantOutcome:  OutcomeDefaulted,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := ResolveModel(tt.alias, tt.region, tt.kind)
			if sel.InternalModel != tt.wantInternal {
				t.Errorf("internal model = %q, want %q", sel.InternalModel, tt.wantInternal)
			}
			if sel.Outcome != tt.wantOutcome {
				t.Errorf("outcome = %s, want %s", sel.Outcome, tt.wantOutcome)
			}
		})
	}
}
