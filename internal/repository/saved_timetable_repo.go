package repository

import (
	"context"

	"gorm.io/gorm"

	"timetable-planner/backend/internal/model"
)

// SavedTimetableRepository 保存方案数据访问接口
type SavedTimetableRepository interface {
	Create(ctx context.Context, st *model.SavedTimetable) error
	ListByOwner(ctx context.Context, ownerID string) ([]model.SavedTimetable, error)
	GetByID(ctx context.Context, ownerID, id string) (*model.SavedTimetable, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type savedTimetableRepo struct {
	db *gorm.DB
}

// NewSavedTimetableRepo 创建 SavedTimetableRepository 实例
func NewSavedTimetableRepo(db *gorm.DB) SavedTimetableRepository {
	return &savedTimetableRepo{db: db}
}

func (r *savedTimetableRepo) Create(ctx context.Context, st *model.SavedTimetable) error {
	return r.db.WithContext(ctx).Create(st).Error
}

func (r *savedTimetableRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.SavedTimetable, error) {
	var list []model.SavedTimetable
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *savedTimetableRepo) GetByID(ctx context.Context, ownerID, id string) (*model.SavedTimetable, error) {
	var st model.SavedTimetable
	err := r.db.WithContext(ctx).
		Where("saved_timetable_id = ? AND owner_id = ?", id, ownerID).
		First(&st).Error
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *savedTimetableRepo) Delete(ctx context.Context, ownerID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.SavedTimetable{}).
			Where("saved_timetable_id = ? AND owner_id = ?", id, ownerID).
			Update("deleted_by", ownerID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("saved_timetable_id = ?", id).Delete(&model.SavedTimetable{}).Error
	})
}
