package services

import (
	"search-server/internal/app/models"
	"search-server/internal/app/repositories"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type ISearchRecord interface {
	CreateSearchRecord(record *models.SearchRecord) error
	GetSearchRecord(correlationID string) (*models.SearchRecord, error)
	ListSearchRecords(limit, offset int) ([]models.SearchRecord, error)
}

type SearchRecordService struct {
	repo *repositories.SearchRecordRepository
}

func NewSearchRecordService() (ISearchRecord, error) {
	repo := repositories.NewSearchRecordRepository()
	if err := repo.AutoMigrate(); err != nil {
		return nil, err
	}
	return &SearchRecordService{repo: repo}, nil
}

func (s *SearchRecordService) CreateSearchRecord(record *models.SearchRecord) error {
	return s.repo.Create(record)
}

func (s *SearchRecordService) GetSearchRecord(correlationID string) (*models.SearchRecord, error) {
	return s.repo.GetByCorrelationID(correlationID)
}

func (s *SearchRecordService) ListSearchRecords(limit, offset int) ([]models.SearchRecord, error) {
	limit, offset = normalizePage(limit, offset)
	return s.repo.List(limit, offset)
}

// normalizePage 分页参数兜底
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
