package service

import (
	"context"
	"strings"
	"testing"

	"github.com/jackystd/jimeng-api/internal/entity"
	"github.com/jackystd/jimeng-api/internal/jimeng"
)

func TestNewGenerationService(t *testing.T) {
	svc := NewGenerationService(nil, nil, nil)

	if svc == nil {
		t.Fatal("expected service to be created")
	}
	if svc.jm == nil {
		t.Error("expected a default jimeng service when nil is passed")
	}
	if svc.repo != nil {
		t.Error("expected repo to be nil")
	}
	if svc.storage != nil {
		t.Error("expected storage to be nil")
	}
}

func TestResolveCredential(t *testing.T) {
	tests := []struct {
		name        string
		header      string
		defaultCred string
		expected    string
		wantErr     bool
	}{
		{
			name:        "请求头优先",
			header:      "us:header-session",
			defaultCred: "cn:default-session",
			expected:    "us:header-session",
		},
		{
			name:        "请求头为空回退默认凭证",
			header:      "",
			defaultCred: "cn:default-session",
			expected:    "cn:default-session",
		},
		{
			name:        "请求头只有空白视为未提供",
			header:      "   ",
			defaultCred: "cn:default-session",
			expected:    "cn:default-session",
		},
		{
			name:    "两者都缺失报凭证错误",
			header:  "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewGenerationService(nil, nil, nil)
			svc.SetDefaultCredential(tt.defaultCred)

			got, err := svc.ResolveCredential(tt.header)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !jimeng.IsKind(err, jimeng.KindCredentialMalformed) {
					t.Errorf("expected credential error kind, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestResolveCredentialPool(t *testing.T) {
	svc := NewGenerationService(nil, nil, nil)
	svc.SetDefaultCredential("cn:session-a, us:session-b ,")

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		got, err := svc.ResolveCredential("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "cn:session-a" && got != "us:session-b" {
			t.Fatalf("unexpected credential %q", got)
		}
		seen[got] = true
	}
	if len(seen) != 2 {
		t.Errorf("expected both pool entries to be picked, saw %v", seen)
	}
}

func TestToImageInputs(t *testing.T) {
	rawBase64 := strings.Repeat("iVBORw0KGgoAAAANSUhEUg", 16)

	tests := []struct {
		name       string
		values     []string
		wantCount  int
		wantInline []bool
		wantErr    bool
	}{
		{
			name:      "空列表返回空",
			values:    nil,
			wantCount: 0,
		},
		{
			name:       "URL 透传",
			values:     []string{"https://example.com/a.png"},
			wantCount:  1,
			wantInline: []bool{false},
		},
		{
			name:       "本地路径透传",
			values:     []string{"./inputs/frame.png"},
			wantCount:  1,
			wantInline: []bool{false},
		},
		{
			name:       "data URL 解码为字节",
			values:     []string{"data:image/png;base64," + rawBase64},
			wantCount:  1,
			wantInline: []bool{true},
		},
		{
			name:       "裸 base64 解码为字节",
			values:     []string{rawBase64},
			wantCount:  1,
			wantInline: []bool{true},
		},
		{
			name:       "混合输入保持顺序",
			values:     []string{"https://example.com/a.png", "data:image/png;base64," + rawBase64},
			wantCount:  2,
			wantInline: []bool{false, true},
		},
		{
			name:    "空白项报错",
			values:  []string{"https://example.com/a.png", "  "},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inputs, err := toImageInputs(tt.values)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(inputs) != tt.wantCount {
				t.Fatalf("expected %d inputs, got %d", tt.wantCount, len(inputs))
			}
			for i, inline := range tt.wantInline {
				if inline && len(inputs[i].Data) == 0 {
					t.Errorf("input %d: expected decoded bytes", i)
				}
				if inline && inputs[i].Source != "" {
					t.Errorf("input %d: inline payload should not keep a source", i)
				}
				if !inline && inputs[i].Source == "" {
					t.Errorf("input %d: expected pass-through source", i)
				}
			}
		})
	}
}

func TestShortDigest(t *testing.T) {
	digest := shortDigest("data:image/png;base64,AAAA")
	if len(digest) != 12 {
		t.Errorf("expected 12 hex chars, got %d", len(digest))
	}
	if digest != shortDigest("data:image/png;base64,AAAA") {
		t.Error("expected stable digest for identical payload")
	}
	if digest == shortDigest("data:image/png;base64,BBBB") {
		t.Error("expected distinct digests for distinct payloads")
	}
}

func TestBuildArchiveBaseName(t *testing.T) {
	tests := []struct {
		name       string
		modelName  string
		idx        int
		wantPrefix string
	}{
		{
			name:       "正常模型名",
			modelName:  "jimeng-4.0",
			idx:        0,
			wantPrefix: "jimeng-4.0_",
		},
		{
			name:       "空模型名",
			modelName:  "",
			idx:        1,
			wantPrefix: "model_",
		},
		{
			name:       "超长模型名截断到32字符",
			modelName:  "this-is-a-very-long-model-name-that-exceeds-32-characters",
			idx:        2,
			wantPrefix: "this-is-a-very-long-model-name-t_",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := buildArchiveBaseName(tt.modelName, tt.idx)
			if !strings.HasPrefix(result, tt.wantPrefix) {
				t.Errorf("expected prefix %q, got %q", tt.wantPrefix, result)
			}
		})
	}
}

type fakeRepo struct {
	records map[string]*entity.DbGenerationRecord
	updates map[string]entity.GenerationRecordUpdates
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		records: map[string]*entity.DbGenerationRecord{},
		updates: map[string]entity.GenerationRecordUpdates{},
	}
}

func (f *fakeRepo) CreateGenerationRecord(_ context.Context, record *entity.DbGenerationRecord) error {
	f.records[record.HistoryID] = record
	return nil
}

func (f *fakeRepo) UpdateGenerationRecord(_ context.Context, historyID string, updates entity.GenerationRecordUpdates) error {
	f.updates[historyID] = updates
	return nil
}

func (f *fakeRepo) GetGenerationRecordByHistoryID(_ context.Context, historyID string) (*entity.DbGenerationRecord, error) {
	return f.records[historyID], nil
}

func (f *fakeRepo) ListGenerationRecords(_ context.Context, _ *entity.GenerationRecordQuery) ([]entity.DbGenerationRecord, *entity.Meta, error) {
	return nil, &entity.Meta{}, nil
}

func (f *fakeRepo) DeleteGenerationRecord(_ context.Context, historyID string) error {
	delete(f.records, historyID)
	return nil
}

func TestDeleteRecord(t *testing.T) {
	t.Run("删除已有记录", func(t *testing.T) {
		repo := newFakeRepo()
		repo.records["h-del"] = &entity.DbGenerationRecord{HistoryID: "h-del"}

		svc := NewGenerationService(nil, repo, nil)
		if err := svc.DeleteRecord(context.Background(), "h-del"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := repo.records["h-del"]; ok {
			t.Error("record should be gone after delete")
		}
	})

	t.Run("记录不存在报 not found", func(t *testing.T) {
		svc := NewGenerationService(nil, newFakeRepo(), nil)
		err := svc.DeleteRecord(context.Background(), "missing")
		if !jimeng.IsKind(err, jimeng.KindRecordNotFound) {
			t.Errorf("expected record-not-found kind, got %v", err)
		}
	})

	t.Run("未配置数据库直接报错", func(t *testing.T) {
		svc := NewGenerationService(nil, nil, nil)
		if err := svc.DeleteRecord(context.Background(), "h-any"); err == nil {
			t.Fatal("expected error without a repository")
		}
	})
}

func TestSyncRecordStatusTransition(t *testing.T) {
	repo := newFakeRepo()
	repo.records["h1"] = &entity.DbGenerationRecord{
		HistoryID: "h1",
		Kind:      entity.TaskKindImage,
		Status:    entity.TaskStatusProcessing,
	}

	svc := NewGenerationService(nil, repo, nil)
	archived := svc.syncRecord("h1", &entity.TaskStatusResponse{
		HistoryID: "h1",
		Kind:      entity.TaskKindImage,
		Status:    entity.TaskStatusCompleted,
		Results:   []string{"https://p9.example.com/result.png"},
	})

	if len(archived) != 0 {
		t.Errorf("expected no archived keys without storage, got %v", archived)
	}

	updates, ok := repo.updates["h1"]
	if !ok {
		t.Fatal("expected an update to be written")
	}
	if updates.Status == nil || *updates.Status != entity.TaskStatusCompleted {
		t.Error("expected status update to completed")
	}
	if updates.ResultURLs == nil || len(*updates.ResultURLs) != 1 {
		t.Error("expected result urls to be recorded")
	}
}

func TestSyncRecordNoChangeNoUpdate(t *testing.T) {
	repo := newFakeRepo()
	repo.records["h2"] = &entity.DbGenerationRecord{
		HistoryID: "h2",
		Kind:      entity.TaskKindVideo,
		Status:    entity.TaskStatusProcessing,
	}

	svc := NewGenerationService(nil, repo, nil)
	svc.syncRecord("h2", &entity.TaskStatusResponse{
		HistoryID: "h2",
		Kind:      entity.TaskKindVideo,
		Status:    entity.TaskStatusProcessing,
	})

	if _, ok := repo.updates["h2"]; ok {
		t.Error("expected no update for an unchanged record")
	}
}

func TestSyncRecordSkipsRearchive(t *testing.T) {
	repo := newFakeRepo()
	repo.records["h3"] = &entity.DbGenerationRecord{
		HistoryID:    "h3",
		Kind:         entity.TaskKindImage,
		Status:       entity.TaskStatusCompleted,
		ArchivedKeys: entity.StringArray{"images/2026/01/old.png"},
	}

	svc := NewGenerationService(nil, repo, nil)
	svc.SetArchiveResults(true)

	archived := svc.syncRecord("h3", &entity.TaskStatusResponse{
		HistoryID: "h3",
		Kind:      entity.TaskKindImage,
		Status:    entity.TaskStatusCompleted,
		Results:   []string{"https://p9.example.com/fresh.png"},
	})

	if len(archived) != 1 || archived[0] != "images/2026/01/old.png" {
		t.Errorf("expected previously archived keys to be returned, got %v", archived)
	}
}

func TestSyncRecordMissingRecord(t *testing.T) {
	svc := NewGenerationService(nil, newFakeRepo(), nil)

	archived := svc.syncRecord("unknown", &entity.TaskStatusResponse{
		HistoryID: "unknown",
		Status:    entity.TaskStatusCompleted,
	})
	if archived != nil {
		t.Errorf("expected nil archived keys for an unjournaled task, got %v", archived)
	}
}
