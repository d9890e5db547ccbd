package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jackystd/jimeng-api/internal/entity"
	"github.com/jackystd/jimeng-api/internal/jimeng"
	"github.com/jackystd/jimeng-api/internal/model"
	"github.com/jackystd/jimeng-api/internal/storage"
	"github.com/jackystd/jimeng-api/internal/utils"
)

// GenerationService 生成任务编排层：提交任务、查询状态、落库归档
type GenerationService struct {
	jm      *jimeng.Service
	repo    model.Repository
	storage storage.Storage

	defaultCredentials []string
	archiveResults     bool
	creditFloor        float64
}

// NewGenerationService 创建生成服务实例。repo 和 store 可为 nil，对应功能退化
// 为纯透传模式。
func NewGenerationService(jm *jimeng.Service, repo model.Repository, store storage.Storage) *GenerationService {
	if jm == nil {
		jm = jimeng.NewService(nil, nil)
	}
	return &GenerationService{
		jm:      jm,
		repo:    repo,
		storage: store,
	}
}

// SetDefaultCredential 设置无请求头凭证时的默认凭证池，逗号分隔
func (s *GenerationService) SetDefaultCredential(credential string) {
	s.defaultCredentials = nil
	for _, part := range strings.Split(credential, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			s.defaultCredentials = append(s.defaultCredentials, trimmed)
		}
	}
}

// SetArchiveResults 开启结果归档
func (s *GenerationService) SetArchiveResults(enabled bool) {
	s.archiveResults = enabled
}

// SetCreditFloor 设置自动领取每日积分的触发阈值
func (s *GenerationService) SetCreditFloor(floor float64) {
	s.creditFloor = floor
}

// ResolveCredential picks the per-request credential over the configured
// default. Neither present is a credential error, not a validation error.
func (s *GenerationService) ResolveCredential(headerValue string) (string, error) {
	if trimmed := strings.TrimSpace(headerValue); trimmed != "" {
		return trimmed, nil
	}
	switch len(s.defaultCredentials) {
	case 0:
		_, err := jimeng.ResolveRegion("")
		return "", err
	case 1:
		return s.defaultCredentials[0], nil
	default:
		return s.defaultCredentials[rand.Intn(len(s.defaultCredentials))], nil
	}
}

// ensureCreditsForSubmit 提交前按需领取每日积分，失败不阻塞提交
func (s *GenerationService) ensureCreditsForSubmit(ctx context.Context, credential string) {
	if s.creditFloor <= 0 {
		return
	}
	if _, err := s.jm.EnsureCredits(ctx, credential, s.creditFloor); err != nil {
		logrus.WithError(err).Warn("credit check before submit failed")
	}
}

// CreateImageTask submits a text-to-image task and journals it.
func (s *GenerationService) CreateImageTask(ctx context.Context, credential string, req entity.ImageGenerationRequest) (*entity.TaskCreatedResponse, error) {
	s.ensureCreditsForSubmit(ctx, credential)

	historyID, err := s.jm.CreateImageGenerationTask(ctx, credential, jimeng.ImageGenerationInput{
		Model:            req.Model,
		Prompt:           req.Prompt,
		NegativePrompt:   req.NegativePrompt,
		Resolution:       req.Resolution,
		Ratio:            req.Ratio,
		SampleStrength:   req.SampleStrength,
		Count:            req.Count,
		IntelligentRatio: req.IntelligentRatio,
	})
	if err != nil {
		return nil, err
	}

	s.journalTask(ctx, credential, entity.TaskKindImage, historyID, req.Model, req.Prompt, req.Ratio, req.Resolution, nil)
	return &entity.TaskCreatedResponse{
		HistoryID: historyID,
		Kind:      entity.TaskKindImage,
		Status:    entity.TaskStatusProcessing,
	}, nil
}

// CreateCompositionTask submits an image-composition task. Inline payloads are
// decoded here; URLs and local paths pass through for the upload pipeline to
// fetch.
func (s *GenerationService) CreateCompositionTask(ctx context.Context, credential string, req entity.CompositionRequest) (*entity.TaskCreatedResponse, error) {
	images, err := toImageInputs(req.Images)
	if err != nil {
		return nil, err
	}
	s.ensureCreditsForSubmit(ctx, credential)

	historyID, err := s.jm.CreateImageCompositionTask(ctx, credential, jimeng.CompositionInput{
		ImageGenerationInput: jimeng.ImageGenerationInput{
			Model:            req.Model,
			Prompt:           req.Prompt,
			NegativePrompt:   req.NegativePrompt,
			Resolution:       req.Resolution,
			Ratio:            req.Ratio,
			SampleStrength:   req.SampleStrength,
			Count:            req.Count,
			IntelligentRatio: req.IntelligentRatio,
		},
		Images: images,
	})
	if err != nil {
		return nil, err
	}

	s.journalTask(ctx, credential, entity.TaskKindImage, historyID, req.Model, req.Prompt, req.Ratio, req.Resolution, req.Images)
	return &entity.TaskCreatedResponse{
		HistoryID: historyID,
		Kind:      entity.TaskKindImage,
		Status:    entity.TaskStatusProcessing,
	}, nil
}

// CreateVideoTask submits a text/image-to-video task and journals it.
func (s *GenerationService) CreateVideoTask(ctx context.Context, credential string, req entity.VideoGenerationRequest) (*entity.TaskCreatedResponse, error) {
	images, err := toImageInputs(req.Images)
	if err != nil {
		return nil, err
	}
	s.ensureCreditsForSubmit(ctx, credential)

	historyID, err := s.jm.CreateVideoGenerationTask(ctx, credential, jimeng.VideoGenerationInput{
		Model:           req.Model,
		Prompt:          req.Prompt,
		Ratio:           req.Ratio,
		Resolution:      req.Resolution,
		DurationSeconds: req.DurationSeconds,
		Images:          images,
	})
	if err != nil {
		return nil, err
	}

	s.journalTask(ctx, credential, entity.TaskKindVideo, historyID, req.Model, req.Prompt, req.Ratio, req.Resolution, req.Images)
	return &entity.TaskCreatedResponse{
		HistoryID: historyID,
		Kind:      entity.TaskKindVideo,
		Status:    entity.TaskStatusProcessing,
	}, nil
}

// QueryTask normalizes one task's state and keeps the journal in sync. On
// completion the result URLs are archived to configured storage, at most once
// per record.
func (s *GenerationService) QueryTask(ctx context.Context, credential, historyID, kind string) (*entity.TaskStatusResponse, error) {
	var status *jimeng.NormalizedStatus
	var err error

	switch kind {
	case entity.TaskKindVideo:
		status, err = s.jm.QueryVideoTaskStatus(ctx, credential, historyID)
		if err == nil && status.Status == jimeng.StatusCompleted && status.VideoURL != "" {
			// 完成后尝试换取下载画质地址，失败时保留播放地址
			if downloadURL := s.jm.QueryVideoDownloadURL(ctx, credential, historyID); downloadURL != "" {
				status.VideoURL = downloadURL
				status.Results = []string{downloadURL}
			}
		}
	case "", entity.TaskKindImage:
		status, err = s.jm.QueryImageTaskStatus(ctx, credential, historyID)
	default:
		return nil, fmt.Errorf("unknown task kind %q", kind)
	}
	if err != nil {
		return nil, err
	}

	resp := &entity.TaskStatusResponse{
		HistoryID: status.HistoryID,
		Kind:      kind,
		Status:    string(status.Status),
		FailCode:  status.FailCode,
		Results:   status.Results,
		VideoURL:  status.VideoURL,
	}
	if resp.Kind == "" {
		resp.Kind = entity.TaskKindImage
	}
	if resp.Results == nil {
		resp.Results = []string{}
	}

	archived := s.syncRecord(historyID, resp)
	resp.ArchivedURLs = archived
	return resp, nil
}

// Credits returns the account balance, claiming the daily grant beforehand
// when the floor is configured and the balance sits below it.
func (s *GenerationService) Credits(ctx context.Context, credential string) (*entity.CreditsResponse, error) {
	var credits *jimeng.Credits
	var err error
	if s.creditFloor > 0 {
		credits, err = s.jm.EnsureCredits(ctx, credential, s.creditFloor)
	} else {
		credits, err = s.jm.QueryCredits(ctx, credential)
	}
	if err != nil {
		return nil, err
	}
	return &entity.CreditsResponse{
		Total:    credits.Total,
		Gift:     credits.Gift,
		Purchase: credits.Purchase,
		VIP:      credits.VIP,
	}, nil
}

// ListRecords 分页查询生成记录
func (s *GenerationService) ListRecords(ctx context.Context, params *entity.GenerationRecordQuery) ([]entity.DbGenerationRecord, *entity.Meta, error) {
	if s.repo == nil {
		return []entity.DbGenerationRecord{}, &entity.Meta{}, nil
	}
	return s.repo.ListGenerationRecords(ctx, params)
}

// DeleteRecord 删除一条本地流水记录，不触碰后端任务本身
func (s *GenerationService) DeleteRecord(ctx context.Context, historyID string) error {
	if s.repo == nil {
		return fmt.Errorf("no database configured")
	}
	record, err := s.repo.GetGenerationRecordByHistoryID(ctx, historyID)
	if err != nil {
		return err
	}
	if record == nil {
		return &jimeng.Error{Kind: jimeng.KindRecordNotFound, Message: fmt.Sprintf("record %s not found", historyID)}
	}
	return s.repo.DeleteGenerationRecord(ctx, historyID)
}

// journalTask writes the accepted task into the journal. Journal failures are
// logged and swallowed: the task was already accepted upstream and billing has
// started, so the caller must get the history id regardless.
func (s *GenerationService) journalTask(ctx context.Context, credential, kind, historyID, userModel, prompt, ratio, resolution string, inputImages []string) {
	if s.repo == nil {
		return
	}

	record := &entity.DbGenerationRecord{
		Kind:       kind,
		HistoryID:  historyID,
		Model:      userModel,
		Prompt:     prompt,
		Ratio:      ratio,
		Resolution: resolution,
		Status:     entity.TaskStatusProcessing,
	}
	if cred, err := jimeng.ResolveRegion(credential); err == nil {
		record.Region = cred.Region.Code

		taskKind := jimeng.TaskKindImage
		if kind == entity.TaskKindVideo {
			taskKind = jimeng.TaskKindVideo
		}
		selection := jimeng.ResolveModel(userModel, cred.Region, taskKind)
		record.InternalModel = selection.InternalModel
		if selection.Outcome != jimeng.OutcomeResolved {
			record.ResolveNote = fmt.Sprintf("model %s -> %s (%s)", userModel, selection.UserModel, selection.Outcome)
			record.Model = selection.UserModel
		}
	}
	if len(inputImages) > 0 {
		// 内联 base64 不落库，只记录来源形态
		sources := make([]string, 0, len(inputImages))
		for _, img := range inputImages {
			if utils.IsInlinePayload(img) {
				sources = append(sources, "inline:"+shortDigest(img))
				continue
			}
			sources = append(sources, img)
		}
		record.InputImages = entity.StringArray(sources)
	}

	dbCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.repo.CreateGenerationRecord(dbCtx, record); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"history_id": historyID,
			"kind":       kind,
		}).Error("failed to journal generation record")
	}
}

// syncRecord updates the journal from a fresh status snapshot and returns any
// previously archived keys. Archiving runs inline on first completion.
func (s *GenerationService) syncRecord(historyID string, status *entity.TaskStatusResponse) []string {
	if s.repo == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	record, err := s.repo.GetGenerationRecordByHistoryID(ctx, historyID)
	if err != nil {
		logrus.WithError(err).WithField("history_id", historyID).Warn("failed to load generation record")
		return nil
	}
	if record == nil {
		return nil
	}
	if len(record.ArchivedKeys) > 0 {
		// 已归档过，不重复下载
		s.applyStatusUpdate(ctx, historyID, record, status, nil)
		return record.ArchivedKeys.ToSlice()
	}

	var archivedKeys []string
	if s.archiveResults && s.storage != nil && status.Status == entity.TaskStatusCompleted && len(status.Results) > 0 {
		archivedKeys = s.archiveMedia(ctx, status.Results, record.Model, status.Kind)
	}

	s.applyStatusUpdate(ctx, historyID, record, status, archivedKeys)
	return archivedKeys
}

func (s *GenerationService) applyStatusUpdate(ctx context.Context, historyID string, record *entity.DbGenerationRecord, status *entity.TaskStatusResponse, archivedKeys []string) {
	updates := entity.GenerationRecordUpdates{}
	changed := false

	if record.Status != status.Status {
		updates.Status = &status.Status
		changed = true
	}
	if status.FailCode != "" && record.FailCode != status.FailCode {
		updates.FailCode = &status.FailCode
		changed = true
	}
	if len(status.Results) > 0 {
		results := entity.StringArray(status.Results)
		updates.ResultURLs = &results
		changed = true
	}
	if len(archivedKeys) > 0 {
		keys := entity.StringArray(archivedKeys)
		updates.ArchivedKeys = &keys
		changed = true
	}
	if !changed {
		return
	}

	if err := s.repo.UpdateGenerationRecord(ctx, historyID, updates); err != nil {
		logrus.WithError(err).WithField("history_id", historyID).Error("failed to update generation record")
	}
}

// archiveMedia downloads the short-lived vendor URLs and persists them to
// configured storage. Per-item failures are logged and skipped.
func (s *GenerationService) archiveMedia(ctx context.Context, urls []string, modelName, kind string) []string {
	archiveCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	category := "images"
	if kind == entity.TaskKindVideo {
		category = "videos"
	}

	keys := make([]string, 0, len(urls))
	for idx, rawURL := range urls {
		data, ext, err := utils.FetchMedia(archiveCtx, rawURL)
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"index":    idx,
				"category": category,
			}).Warn("failed to archive result media")
			continue
		}

		key, err := s.storage.Save(archiveCtx, data, storage.SaveOptions{
			Category:  category,
			Extension: ext,
			BaseName:  buildArchiveBaseName(modelName, idx),
		})
		if err != nil {
			logrus.WithError(err).WithField("index", idx).Warn("failed to save archived media")
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

// toImageInputs normalizes the mixed request formats into upload inputs.
func toImageInputs(values []string) ([]jimeng.ImageInput, error) {
	if len(values) == 0 {
		return nil, nil
	}
	inputs := make([]jimeng.ImageInput, 0, len(values))
	for idx, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return nil, fmt.Errorf("image %d is empty", idx)
		}
		if utils.IsInlinePayload(trimmed) {
			data, _, err := utils.DecodeMediaPayload(utils.EnsureDataURL(trimmed))
			if err != nil {
				return nil, fmt.Errorf("image %d: %w", idx, err)
			}
			inputs = append(inputs, jimeng.ImageInput{Data: data})
			continue
		}
		inputs = append(inputs, jimeng.ImageInput{Source: trimmed})
	}
	return inputs, nil
}

func shortDigest(payload string) string {
	sum := md5.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])[:12]
}

// buildArchiveBaseName 构建归档文件的基础名称
func buildArchiveBaseName(modelName string, idx int) string {
	token := storage.SanitizeToken(modelName)
	if token == "" {
		token = "model"
	}
	if len(token) > 32 {
		token = token[:32]
	}
	suffix := time.Now().UTC().UnixNano()
	return fmt.Sprintf("%s_%d_%d", token, suffix, idx)
}
