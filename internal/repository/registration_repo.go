package repository

import (
	"context"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"timetable-planner/backend/internal/model"
	pkgerrors "timetable-planner/backend/pkg/errors"
)

// RegistrationRepository 选课登记数据访问接口
type RegistrationRepository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]model.Registration, error)
	GetByID(ctx context.Context, ownerID, id string) (*model.Registration, error)
	Create(ctx context.Context, reg *model.Registration) error
	// UpdateSlot 乐观锁更新登记指向的 slot
	UpdateSlot(ctx context.Context, reg *model.Registration, newSlotID string) error
	Delete(ctx context.Context, ownerID, id string) error
	DeleteByIDs(ctx context.Context, ownerID string, ids []string) (int64, error)
	// ReplaceByOwner 在事务中全量替换 owner 的登记：
	// 锁定目标 slot → 校验存在且未满 → 删除旧登记 → 批量插入新登记
	ReplaceByOwner(ctx context.Context, ownerID string, slotIDs []string) ([]model.Registration, error)
	// WithOwnerLock 在持有 owner 级锁的事务中执行 fn
	// fn 收到的仓储绑定该事务，读取基线、冲突校验与写入须全部经由它完成
	WithOwnerLock(ctx context.Context, ownerID string, fn func(tx RegistrationRepository) error) error
}

type registrationRepo struct {
	db *gorm.DB
}

// NewRegistrationRepo 创建 RegistrationRepository 实例
func NewRegistrationRepo(db *gorm.DB) RegistrationRepository {
	return &registrationRepo{db: db}
}

// lockOwner 同一 owner 的登记写入串行执行，事务结束自动释放
func lockOwner(tx *gorm.DB, ownerID string) error {
	return tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", ownerID).Error
}

func (r *registrationRepo) WithOwnerLock(ctx context.Context, ownerID string, fn func(tx RegistrationRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOwner(tx, ownerID); err != nil {
			return err
		}
		return fn(&registrationRepo{db: tx})
	})
}

func (r *registrationRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Registration, error) {
	var regs []model.Registration
	err := r.db.WithContext(ctx).
		Preload("Slot.Course").
		Where("owner_id = ?", ownerID).
		Order("created_at ASC, registration_id ASC").
		Find(&regs).Error
	return regs, err
}

func (r *registrationRepo) GetByID(ctx context.Context, ownerID, id string) (*model.Registration, error) {
	var reg model.Registration
	err := r.db.WithContext(ctx).
		Preload("Slot.Course").
		Where("registration_id = ? AND owner_id = ?", id, ownerID).
		First(&reg).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *registrationRepo) Create(ctx context.Context, reg *model.Registration) error {
	return r.db.WithContext(ctx).Create(reg).Error
}

func (r *registrationRepo) UpdateSlot(ctx context.Context, reg *model.Registration, newSlotID string) error {
	oldVersion := reg.Version
	result := r.db.WithContext(ctx).
		Model(&model.Registration{}).
		Where("registration_id = ? AND owner_id = ? AND version = ?", reg.RegistrationID, reg.OwnerID, oldVersion).
		Updates(map[string]interface{}{
			"slot_id":    newSlotID,
			"updated_by": reg.OwnerID,
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	reg.SlotID = newSlotID
	reg.Version = oldVersion + 1
	return nil
}

func (r *registrationRepo) Delete(ctx context.Context, ownerID, id string) error {
	result := r.db.WithContext(ctx).
		Where("registration_id = ? AND owner_id = ?", id, ownerID).
		Delete(&model.Registration{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *registrationRepo) DeleteByIDs(ctx context.Context, ownerID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("owner_id = ? AND registration_id IN ?", ownerID, ids).
		Delete(&model.Registration{})
	return result.RowsAffected, result.Error
}

func (r *registrationRepo) ReplaceByOwner(ctx context.Context, ownerID string, slotIDs []string) ([]model.Registration, error) {
	regs := lo.Map(slotIDs, func(id string, _ int) model.Registration {
		return model.Registration{
			OwnerID:        ownerID,
			SlotID:         id,
			VersionedModel: model.VersionedModel{
				BaseModel: model.BaseModel{CreatedBy: &ownerID, UpdatedBy: &ownerID},
				Version:   1,
			},
		}
	})

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOwner(tx, ownerID); err != nil {
			return err
		}

		// 行锁：与并发的余量变更串行化；只锁 owner 自己目录下的 slot
		var slots []model.Slot
		if len(slotIDs) > 0 {
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "slots"}}).
				Joins("JOIN courses ON courses.course_id = slots.course_id").
				Where("courses.owner_id = ? AND slots.slot_id IN ?", ownerID, slotIDs).
				Find(&slots).Error; err != nil {
				return err
			}
		}

		byID := lo.KeyBy(slots, func(s model.Slot) string { return s.SlotID })
		var unavailable []pkgerrors.SlotUnavailable
		for _, id := range slotIDs {
			s, ok := byID[id]
			switch {
			case !ok:
				unavailable = append(unavailable, pkgerrors.SlotUnavailable{SlotID: id, Reason: pkgerrors.ReasonSlotNotFound})
			case s.IsFull():
				unavailable = append(unavailable, pkgerrors.SlotUnavailable{SlotID: id, Reason: pkgerrors.ReasonSlotFull})
			}
		}
		if len(unavailable) > 0 {
			return &pkgerrors.SlotUnavailableError{Slots: unavailable}
		}

		// 硬删除旧登记（替换场景，无需保留）
		if err := tx.Where("owner_id = ?", ownerID).Delete(&model.Registration{}).Error; err != nil {
			return err
		}
		if len(regs) > 0 {
			if err := tx.Create(&regs).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return regs, nil
}
