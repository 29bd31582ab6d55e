package repository

import (
	"gorm.io/gorm"

	"quiz_web/internal/models"
	"quiz_web/internal/storage"
)

type StudySetRepository interface {
	Create(set *models.StudySet) error
	FindByID(id uint) (*models.StudySet, error)
	FindByOwner(ownerID uint) ([]models.StudySet, error)
	Delete(id uint) error
}

type studySetRepository struct {
	db *storage.PostgresDB
}

func NewStudySetRepository(db *storage.PostgresDB) StudySetRepository {
	return &studySetRepository{db: db}
}

func (r *studySetRepository) Create(set *models.StudySet) error {
	return r.db.Create(set).Error
}

// FindByID 載入題目集，題目依 Position 排序
func (r *studySetRepository) FindByID(id uint) (*models.StudySet, error) {
	var set models.StudySet
	err := r.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc")
	}).First(&set, id).Error
	if err != nil {
		return nil, err
	}
	return &set, nil
}

// FindByOwner 查詢用戶的題目集列表，不含題目內容
func (r *studySetRepository) FindByOwner(ownerID uint) ([]models.StudySet, error) {
	var sets []models.StudySet
	err := r.db.Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&sets).Error
	return sets, err
}

func (r *studySetRepository) Delete(id uint) error {
	return r.db.Delete(&models.StudySet{}, id).Error
}
