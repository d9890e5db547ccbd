package model

import (
	"context"

	"github.com/jackystd/jimeng-api/internal/entity"
)

// Repository 定义数据库操作接口
type Repository interface {
	// 生成记录
	CreateGenerationRecord(ctx context.Context, record *entity.DbGenerationRecord) error
	UpdateGenerationRecord(ctx context.Context, historyID string, updates entity.GenerationRecordUpdates) error
	GetGenerationRecordByHistoryID(ctx context.Context, historyID string) (*entity.DbGenerationRecord, error)
	ListGenerationRecords(ctx context.Context, params *entity.GenerationRecordQuery) ([]entity.DbGenerationRecord, *entity.Meta, error)
	DeleteGenerationRecord(ctx context.Context, historyID string) error
}
