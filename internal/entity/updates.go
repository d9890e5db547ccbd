package entity

import "github.com/jackystd/jimeng-api/internal/entity/common"

// GenerationRecordUpdates 生成记录可更新字段，nil 表示不更新
type GenerationRecordUpdates struct {
	Status       *string
	FailCode     *string
	ResultURLs   *common.StringArray
	ArchivedKeys *common.StringArray
	ErrorMessage *string
	ResolveNote  *string
}

// Changes flattens the set fields into a gorm update map.
func (u GenerationRecordUpdates) Changes() map[string]interface{} {
	changes := map[string]interface{}{}
	if u.Status != nil {
		changes["status"] = *u.Status
	}
	if u.FailCode != nil {
		changes["fail_code"] = *u.FailCode
	}
	if u.ResultURLs != nil {
		changes["result_urls"] = *u.ResultURLs
	}
	if u.ArchivedKeys != nil {
		changes["archived_keys"] = *u.ArchivedKeys
	}
	if u.ErrorMessage != nil {
		changes["error_message"] = *u.ErrorMessage
	}
	if u.ResolveNote != nil {
		changes["resolve_note"] = *u.ResolveNote
	}
	return changes
}
