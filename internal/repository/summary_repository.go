package repository

import (
	"errors"

	"gorm.io/gorm"

	"quiz_web/internal/models"
	"quiz_web/internal/storage"
)

type SummaryRepository interface {
	Create(summary *models.GameSummary) error
	FindByRoomID(roomID string) (*models.GameSummary, error)
	FindRecent(limit int) ([]models.GameSummary, error)
	ExistsByRoomID(roomID string) (bool, error)
}

type summaryRepository struct {
	db *storage.PostgresDB
}

func NewSummaryRepository(db *storage.PostgresDB) SummaryRepository {
	return &summaryRepository{db: db}
}

func (r *summaryRepository) Create(summary *models.GameSummary) error {
	return r.db.Create(summary).Error
}

func (r *summaryRepository) FindByRoomID(roomID string) (*models.GameSummary, error) {
	var summary models.GameSummary
	err := r.db.Where("room_id = ?", roomID).First(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *summaryRepository) FindRecent(limit int) ([]models.GameSummary, error) {
	var summaries []models.GameSummary
	err := r.db.Order("created_at DESC").Limit(limit).Find(&summaries).Error
	return summaries, err
}

func (r *summaryRepository) ExistsByRoomID(roomID string) (bool, error) {
	var summary models.GameSummary
	err := r.db.Where("room_id = ?", roomID).First(&summary).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
