package sql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/jackystd/jimeng-api/internal/entity"
)

// GormRepository implements Repository using GORM
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new repository instance
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// calculatePagination calculates pagination metrics
func (r *GormRepository) calculatePagination(totalCount int64, page, pageSize int64) *entity.Meta {
	if pageSize <= 0 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}

	return &entity.Meta{
		Total:    totalCount,
		Page:     page,
		PageSize: pageSize,
	}
}

// CreateGenerationRecord inserts a new generation record into the database.
func (r *GormRepository) CreateGenerationRecord(ctx context.Context, record *entity.DbGenerationRecord) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if record == nil {
		return fmt.Errorf("record is nil")
	}
	return r.db.WithContext(ctx).Create(record).Error
}

// UpdateGenerationRecord applies the set fields onto the record keyed by its
// history id.
func (r *GormRepository) UpdateGenerationRecord(ctx context.Context, historyID string, updates entity.GenerationRecordUpdates) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	historyID = strings.TrimSpace(historyID)
	if historyID == "" {
		return fmt.Errorf("invalid history id")
	}
	changes := updates.Changes()
	if len(changes) == 0 {
		return fmt.Errorf("no updates provided")
	}
	return r.db.WithContext(ctx).
		Model(&entity.DbGenerationRecord{}).
		Where("history_id = ?", historyID).
		Updates(changes).Error
}

// GetGenerationRecordByHistoryID fetches one record; a missing record yields
// (nil, nil) so callers can treat absence as a domain condition.
func (r *GormRepository) GetGenerationRecordByHistoryID(ctx context.Context, historyID string) (*entity.DbGenerationRecord, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	historyID = strings.TrimSpace(historyID)
	if historyID == "" {
		return nil, fmt.Errorf("invalid history id")
	}

	var record entity.DbGenerationRecord
	err := r.db.WithContext(ctx).Where("history_id = ?", historyID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// ListGenerationRecords retrieves paginated generation records.
func (r *GormRepository) ListGenerationRecords(ctx context.Context, params *entity.GenerationRecordQuery) ([]entity.DbGenerationRecord, *entity.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}

	query := r.db.WithContext(ctx).Model(&entity.DbGenerationRecord{})
	if params != nil {
		if trimmed := strings.TrimSpace(params.Kind); trimmed != "" {
			query = query.Where("kind = ?", trimmed)
		}
		if trimmed := strings.TrimSpace(params.Status); trimmed != "" {
			query = query.Where("status = ?", trimmed)
		}
		if trimmed := strings.TrimSpace(params.Model); trimmed != "" {
			query = query.Where("model = ?", trimmed)
		}
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return nil, nil, err
	}

	var page, pageSize int64 = 1, 20
	if params != nil {
		if params.Page > 0 {
			page = params.Page
		}
		if params.PageSize > 0 {
			pageSize = params.PageSize
		}
	}

	order := "created_at DESC"
	if params != nil && strings.TrimSpace(params.SortBy) != "" {
		direction := "ASC"
		if params.SortDesc {
			direction = "DESC"
		}
		switch params.SortBy {
		case "created_at", "updated_at", "status", "model", "kind":
			order = params.SortBy + " " + direction
		}
	}

	var records []entity.DbGenerationRecord
	err := query.Order(order).
		Offset(int((page - 1) * pageSize)).
		Limit(int(pageSize)).
		Find(&records).Error
	if err != nil {
		return nil, nil, err
	}

	return records, r.calculatePagination(totalCount, page, pageSize), nil
}

// DeleteGenerationRecord removes one record by history id.
func (r *GormRepository) DeleteGenerationRecord(ctx context.Context, historyID string) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	historyID = strings.TrimSpace(historyID)
	if historyID == "" {
		return fmt.Errorf("invalid history id")
	}
	return r.db.WithContext(ctx).
		Where("history_id = ?", historyID).
		Delete(&entity.DbGenerationRecord{}).Error
}
