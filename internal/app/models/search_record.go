package models

import (
	"fmt"
	"time"
)

// SearchRecord 已完成的秘塔搜索
type SearchRecord struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement;comment:主键" json:"id"`
	CorrelationID  string    `gorm:"size:64;not null;uniqueIndex;comment:采集关联ID" json:"correlation_id"`
	ConversationID string    `gorm:"size:100;default:null;comment:秘塔会话ID" json:"conversation_id"`
	Query          string    `gorm:"size:1000;not null;comment:原始问题" json:"query"`
	Model          string    `gorm:"size:50;not null;comment:模型" json:"model"`
	Markdown       string    `gorm:"type:mediumtext;comment:渲染后的回答" json:"markdown"`
	ReferenceCount int       `gorm:"not null;default:0;comment:引用数" json:"reference_count"`
	ImageCount     int       `gorm:"not null;default:0;comment:图片数" json:"image_count"`
	CreatedAt      time.Time `gorm:"type:datetime;not null;default:CURRENT_TIMESTAMP;comment:记录创建时间" json:"created_at"`
}

// TableName 指定表名
func (SearchRecord) TableName() string {
	return "search_record"
}

// Validate 验证模型数据
func (r *SearchRecord) Validate() error {
	if r.Query == "" {
		return fmt.Errorf("问题不能为空")
	}
	if r.CorrelationID == "" {
		return fmt.Errorf("关联ID不能为空")
	}
	return nil
}

// NewSearchRecord 从搜索结果生成记录
func NewSearchRecord(correlationID string, result *SearchResult) *SearchRecord {
	return &SearchRecord{
		CorrelationID:  correlationID,
		ConversationID: result.Meta.ConversationID,
		Query:          result.Meta.Query,
		Model:          result.Meta.Model,
		Markdown:       result.Markdown,
		ReferenceCount: len(result.References),
		ImageCount:     len(result.Images),
		CreatedAt:      time.Unix(result.Meta.Timestamp, 0),
	}
}
