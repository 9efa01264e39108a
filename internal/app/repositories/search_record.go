package repositories

import (
	"gorm.io/gorm"

	"search-server/internal/app/models"
	"search-server/internal/pkg/storage"
)

type SearchRecordRepository struct {
	db *gorm.DB
}

func NewSearchRecordRepository() *SearchRecordRepository {
	return &SearchRecordRepository{db: storage.DB}
}

// Create 创建搜索记录
func (r *SearchRecordRepository) Create(record *models.SearchRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	return r.db.Create(record).Error
}

// GetByCorrelationID 根据关联ID获取记录
func (r *SearchRecordRepository) GetByCorrelationID(correlationID string) (*models.SearchRecord, error) {
	var record models.SearchRecord
	err := r.db.Where("correlation_id = ?", correlationID).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// List 获取搜索记录列表, 新的在前
func (r *SearchRecordRepository) List(limit, offset int) ([]models.SearchRecord, error) {
	var records []models.SearchRecord
	err := r.db.Order("id desc").Limit(limit).Offset(offset).Find(&records).Error
	return records, err
}

// AutoMigrate 建表
func (r *SearchRecordRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&models.SearchRecord{})
}
