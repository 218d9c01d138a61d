package repository

import (
	"context"

	"gorm.io/gorm"

	"timetable-planner/backend/internal/model"
)

// SlotRepository 开课时段只读访问接口
// 所有查询都按课程所属 owner 限定范围
type SlotRepository interface {
	GetByID(ctx context.Context, ownerID, id string) (*model.Slot, error)
	ListByIDs(ctx context.Context, ownerID string, ids []string) ([]model.Slot, error)
	ListByCourse(ctx context.Context, ownerID, courseID string) ([]model.Slot, error)
}

type slotRepo struct {
	db *gorm.DB
}

// NewSlotRepo 创建 SlotRepository 实例
func NewSlotRepo(db *gorm.DB) SlotRepository {
	return &slotRepo{db: db}
}

func (r *slotRepo) ownerScope(ctx context.Context, ownerID string) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Course").
		Joins("JOIN courses ON courses.course_id = slots.course_id").
		Where("courses.owner_id = ?", ownerID)
}

func (r *slotRepo) GetByID(ctx context.Context, ownerID, id string) (*model.Slot, error) {
	var slot model.Slot
	err := r.ownerScope(ctx, ownerID).
		Where("slots.slot_id = ?", id).
		First(&slot).Error
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *slotRepo) ListByIDs(ctx context.Context, ownerID string, ids []string) ([]model.Slot, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var slots []model.Slot
	err := r.ownerScope(ctx, ownerID).
		Where("slots.slot_id IN ?", ids).
		Order("slots.slot_id ASC").
		Find(&slots).Error
	return slots, err
}

func (r *slotRepo) ListByCourse(ctx context.Context, ownerID, courseID string) ([]model.Slot, error) {
	var slots []model.Slot
	err := r.ownerScope(ctx, ownerID).
		Where("slots.course_id = ?", courseID).
		Order("slots.slot_code ASC, slots.slot_id ASC").
		Find(&slots).Error
	return slots, err
}
