package entity

import (
	"time"

	"github.com/jackystd/jimeng-api/internal/entity/common"
)

// 通用类型别名
type StringArray = common.StringArray
type Response = common.Response
type ResponseItems = common.ResponseItems
type Meta = common.Meta
type BaseParams = common.BaseParams

// 任务类型
const (
	TaskKindImage = "image"
	TaskKindVideo = "video"
)

// 任务状态（对外归一化后的值）
const (
	TaskStatusProcessing = "processing"
	TaskStatusCompleted  = "completed"
	TaskStatusFailed     = "failed"
)

// DbGenerationRecord 一次生成任务的流水记录。HistoryID 是后端受理后返回的
// 任务标识，后续所有状态查询都以它为键。
type DbGenerationRecord struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Kind      string `gorm:"column:kind;type:varchar(16);index" json:"kind"`
	HistoryID string `gorm:"column:history_id;type:varchar(64);uniqueIndex" json:"history_id"`
	SubmitID  string `gorm:"column:submit_id;type:varchar(64)" json:"submit_id"`

	Model         string `gorm:"column:model;type:varchar(64)" json:"model"`
	InternalModel string `gorm:"column:internal_model;type:varchar(128)" json:"internal_model"`
	Region        string `gorm:"column:region;type:varchar(8)" json:"region"`
	Prompt        string `gorm:"column:prompt;type:text" json:"prompt"`
	Ratio         string `gorm:"column:ratio;type:varchar(16)" json:"ratio"`
	Resolution    string `gorm:"column:resolution;type:varchar(16)" json:"resolution"`
	// ResolveNote 记录模型或分辨率发生回退/降档时实际使用的值
	ResolveNote string `gorm:"column:resolve_note;type:varchar(255)" json:"resolve_note,omitempty"`

	Status   string `gorm:"column:status;type:varchar(16);index" json:"status"`
	FailCode string `gorm:"column:fail_code;type:varchar(64)" json:"fail_code,omitempty"`

	InputImages  common.StringArray `gorm:"column:input_images;type:json" json:"input_images"`
	ResultURLs   common.StringArray `gorm:"column:result_urls;type:json" json:"result_urls"`
	ArchivedKeys common.StringArray `gorm:"column:archived_keys;type:json" json:"archived_keys"`

	ErrorMessage string `gorm:"column:error_message;type:text" json:"error_message,omitempty"`
}

// TableName 指定表名
func (DbGenerationRecord) TableName() string {
	return "generation_records"
}
