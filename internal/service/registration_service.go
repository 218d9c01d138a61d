package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"timetable-planner/backend/config"
	"timetable-planner/backend/internal/clash"
	"timetable-planner/backend/internal/dto"
	"timetable-planner/backend/internal/model"
	"timetable-planner/backend/internal/repository"
	"timetable-planner/backend/internal/timegrid"
	pkgerrors "timetable-planner/backend/pkg/errors"
)

// ── 选课登记业务错误 ──

var (
	ErrRegistrationNotFound    = errors.New("登记不存在")
	ErrSlotNotFound            = errors.New("时段不存在")
	ErrSlotFull                = errors.New("时段已满")
	ErrCourseAlreadyRegistered = errors.New("该课程已登记")
	ErrCourseMismatch          = errors.New("只能更换为同一课程的其他时段")
	ErrDuplicateCourse         = errors.New("同一课程只能选择一个时段")
	ErrPlanClash               = errors.New("所选时段之间存在时间冲突")
	ErrSlotClash               = errors.New("与已登记课程时间冲突")
)

// ClashError 登记 / 更换时与已有登记冲突，携带冲突明细
type ClashError struct {
	Result dto.ClashResult
}

func (e *ClashError) Error() string {
	codes := lo.Map(e.Result.Clashing, func(c dto.ClashEntry, _ int) string { return c.CourseCode })
	return fmt.Sprintf("%s: %s", ErrSlotClash.Error(), strings.Join(codes, ","))
}

// Is 使 errors.Is(err, ErrSlotClash) 成立
func (e *ClashError) Is(target error) bool {
	return target == ErrSlotClash
}

// RegistrationService 选课登记业务接口
type RegistrationService interface {
	List(ctx context.Context, ownerID string) (*dto.RegistrationListResponse, error)
	Credits(ctx context.Context, ownerID string) (*dto.CreditSummaryResponse, error)
	Register(ctx context.Context, ownerID string, req *dto.RegisterRequest) (*dto.RegistrationResponse, error)
	// Update 原地更换登记的 slot，冲突检测时排除被更换的登记本身
	Update(ctx context.Context, ownerID, id string, req *dto.UpdateRegistrationRequest) (*dto.RegistrationResponse, error)
	Delete(ctx context.Context, ownerID, id string) error
	BulkDelete(ctx context.Context, ownerID string, req *dto.BulkDeleteRequest) (*dto.BulkDeleteResponse, error)
	CheckClash(ctx context.Context, ownerID string, req *dto.CheckClashRequest) (*dto.ClashResult, error)
	CheckClashBatch(ctx context.Context, ownerID string, req *dto.CheckClashBatchRequest) (*dto.CheckClashBatchResponse, error)
	// Apply 以方案全量替换当前登记（单事务）
	Apply(ctx context.Context, ownerID string, req *dto.ApplyRequest) (*dto.ApplyResponse, error)
}

type registrationService struct {
	cfg    config.RegistrationConfig
	repo   *repository.Repository
	logger *zap.Logger
}

// NewRegistrationService 创建 RegistrationService 实例
func NewRegistrationService(cfg config.RegistrationConfig, repo *repository.Repository, logger *zap.Logger) RegistrationService {
	return &registrationService{cfg: cfg, repo: repo, logger: logger}
}

// held 已有登记 → 冲突检测基线（登记需预加载 Slot.Course）
func held(regs []model.Registration) []clash.Held {
	return lo.FilterMap(regs, func(r model.Registration, _ int) (clash.Held, bool) {
		if r.Slot == nil {
			return clash.Held{}, false
		}
		h := clash.Held{
			RegistrationID: r.RegistrationID,
			SlotID:         r.SlotID,
			SlotCode:       r.Slot.SlotCode,
			Cells:          timegrid.Decode(r.Slot.SlotCode).Cells,
		}
		if r.Slot.Course != nil {
			h.CourseCode = r.Slot.Course.Code
		}
		return h, true
	})
}

func toClashResult(r clash.Result) dto.ClashResult {
	return dto.ClashResult{
		HasClash: r.HasClash,
		Clashing: lo.Map(r.Conflicts, func(c clash.Conflict, _ int) dto.ClashEntry {
			return dto.ClashEntry{
				RegistrationID: c.RegistrationID,
				CourseCode:     c.CourseCode,
				SlotCode:       c.SlotCode,
			}
		}),
	}
}

// ────────────────────── List ──────────────────────

func (s *registrationService) List(ctx context.Context, ownerID string) (*dto.RegistrationListResponse, error) {
	regs, err := s.repo.Registration.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("列出登记失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}

	list := lo.Map(regs, func(r model.Registration, _ int) dto.RegistrationResponse {
		return toRegistrationResponse(&r, r.Slot)
	})
	return &dto.RegistrationListResponse{
		Registrations: list,
		TotalCredits:  lo.SumBy(list, func(r dto.RegistrationResponse) int { return r.Credits }),
		CourseCount:   len(lo.UniqBy(list, func(r dto.RegistrationResponse) string { return r.CourseID })),
	}, nil
}

// ────────────────────── Credits ──────────────────────

func (s *registrationService) Credits(ctx context.Context, ownerID string) (*dto.CreditSummaryResponse, error) {
	list, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return &dto.CreditSummaryResponse{
		TotalCredits: list.TotalCredits,
		MinCredits:   s.cfg.MinCredits,
		MaxCredits:   s.cfg.MaxCredits,
		CourseCount:  list.CourseCount,
	}, nil
}

// ────────────────────── Register ──────────────────────

func (s *registrationService) Register(ctx context.Context, ownerID string, req *dto.RegisterRequest) (*dto.RegistrationResponse, error) {
	slot, err := s.getSlot(ctx, ownerID, req.SlotID)
	if err != nil {
		return nil, err
	}
	if slot.IsFull() {
		return nil, ErrSlotFull
	}

	reg := &model.Registration{OwnerID: ownerID, SlotID: slot.SlotID}
	reg.Version = 1
	reg.CreatedBy = &ownerID
	reg.UpdatedBy = &ownerID

	// 基线读取、冲突校验与写入在同一 owner 锁内完成
	err = s.repo.Registration.WithOwnerLock(ctx, ownerID, func(tx repository.RegistrationRepository) error {
		regs, err := tx.ListByOwner(ctx, ownerID)
		if err != nil {
			return err
		}
		if lo.ContainsBy(regs, func(r model.Registration) bool {
			return r.Slot != nil && r.Slot.CourseID == slot.CourseID
		}) {
			return ErrCourseAlreadyRegistered
		}
		if res := clash.CheckSingle(timegrid.Decode(slot.SlotCode).Cells, held(regs)); res.HasClash {
			return &ClashError{Result: toClashResult(res)}
		}
		return tx.Create(ctx, reg)
	})
	if err != nil {
		if !isRegistrationRejection(err) {
			s.logger.Error("创建登记失败", zap.String("owner_id", ownerID), zap.String("slot_id", slot.SlotID), zap.Error(err))
		}
		return nil, err
	}

	resp := toRegistrationResponse(reg, slot)
	return &resp, nil
}

// ────────────────────── Update ──────────────────────

func (s *registrationService) Update(ctx context.Context, ownerID, id string, req *dto.UpdateRegistrationRequest) (*dto.RegistrationResponse, error) {
	reg, err := s.repo.Registration.GetByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRegistrationNotFound
		}
		s.logger.Error("查询登记失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if req.Version != nil && *req.Version != reg.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}
	if reg.SlotID == req.SlotID {
		resp := toRegistrationResponse(reg, reg.Slot)
		return &resp, nil
	}

	slot, err := s.getSlot(ctx, ownerID, req.SlotID)
	if err != nil {
		return nil, err
	}
	if reg.Slot == nil || slot.CourseID != reg.Slot.CourseID {
		return nil, ErrCourseMismatch
	}
	if slot.IsFull() {
		return nil, ErrSlotFull
	}

	// 重新读取登记与基线并在锁内写入；锁外读到的版本在此期间变化即视为并发修改
	err = s.repo.Registration.WithOwnerLock(ctx, ownerID, func(tx repository.RegistrationRepository) error {
		current, err := tx.GetByID(ctx, ownerID, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRegistrationNotFound
			}
			return err
		}
		if current.Version != reg.Version {
			return pkgerrors.ErrOptimisticLock
		}

		regs, err := tx.ListByOwner(ctx, ownerID)
		if err != nil {
			return err
		}
		results := clash.CheckBatch(
			[]clash.Candidate{{SlotID: slot.SlotID, Cells: timegrid.Decode(slot.SlotCode).Cells}},
			held(regs),
			reg.RegistrationID,
		)
		if res := results[slot.SlotID]; res.HasClash {
			return &ClashError{Result: toClashResult(res)}
		}
		return tx.UpdateSlot(ctx, reg, slot.SlotID)
	})
	if err != nil {
		if !isRegistrationRejection(err) {
			s.logger.Error("更换登记时段失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	resp := toRegistrationResponse(reg, slot)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *registrationService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.repo.Registration.Delete(ctx, ownerID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRegistrationNotFound
		}
		s.logger.Error("删除登记失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *registrationService) BulkDelete(ctx context.Context, ownerID string, req *dto.BulkDeleteRequest) (*dto.BulkDeleteResponse, error) {
	n, err := s.repo.Registration.DeleteByIDs(ctx, ownerID, lo.Uniq(req.RegistrationIDs))
	if err != nil {
		s.logger.Error("批量删除登记失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}
	return &dto.BulkDeleteResponse{Deleted: n}, nil
}

// ────────────────────── CheckClash ──────────────────────

func (s *registrationService) CheckClash(ctx context.Context, ownerID string, req *dto.CheckClashRequest) (*dto.ClashResult, error) {
	slot, err := s.getSlot(ctx, ownerID, req.SlotID)
	if err != nil {
		return nil, err
	}
	regs, err := s.repo.Registration.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("列出登记失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}

	occ := s.decode(slot)
	res := toClashResult(clash.CheckSingle(occ.Cells, held(regs)))
	return &res, nil
}

// ════════════════════════════════════════════════════════════
// CheckClashBatch：一次基线，多候选
// ════════════════════════════════════════════════════════════
//
// 基线由当前登记构成；ExcludeRegistrationID 对应的登记不计入基线，
// 用于"编辑某门课时，同课程其他时段是否可选"的场景。

func (s *registrationService) CheckClashBatch(ctx context.Context, ownerID string, req *dto.CheckClashBatchRequest) (*dto.CheckClashBatchResponse, error) {
	ids := lo.Uniq(req.SlotIDs)
	slots, err := s.listSlots(ctx, ownerID, ids)
	if err != nil {
		return nil, err
	}
	regs, err := s.repo.Registration.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("列出登记失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}

	candidates := lo.Map(slots, func(sl model.Slot, _ int) clash.Candidate {
		return clash.Candidate{SlotID: sl.SlotID, Cells: s.decode(&sl).Cells}
	})
	results := clash.CheckBatch(candidates, held(regs), req.ExcludeRegistrationID)

	return &dto.CheckClashBatchResponse{
		Results: lo.MapValues(results, func(r clash.Result, _ string) dto.ClashResult {
			return toClashResult(r)
		}),
	}, nil
}

// ════════════════════════════════════════════════════════════
// Apply：方案落地
// ════════════════════════════════════════════════════════════
//
// 1. 校验：每门课一个、两两无冲突（400），只针对仍存在的 slot
// 2. 事务：锁定 slot → 已删除 / 已满则整体中止（409，逐个 slot 报告）→ 删除旧登记 → 插入新登记

func (s *registrationService) Apply(ctx context.Context, ownerID string, req *dto.ApplyRequest) (*dto.ApplyResponse, error) {
	ids := req.SlotIDs
	if len(lo.Uniq(ids)) != len(ids) {
		return nil, fmt.Errorf("%w: slot 重复", ErrDuplicateCourse)
	}

	// 生成之后被删除的 slot 在此缺席，交由事务按 not_found 报告
	slots, err := s.repo.Slot.ListByIDs(ctx, ownerID, ids)
	if err != nil {
		s.logger.Error("查询时段失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}

	byCourse := lo.GroupBy(slots, func(sl model.Slot) string { return sl.CourseID })
	for courseID, group := range byCourse {
		if len(group) > 1 {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCourse, courseID)
		}
	}

	var occupied timegrid.CellSet
	for i := range slots {
		cells := s.decode(&slots[i]).Cells
		if clash.Clashes(occupied, cells) {
			return nil, fmt.Errorf("%w: %s", ErrPlanClash, slots[i].SlotCode)
		}
		occupied = occupied.Union(cells)
	}

	regs, err := s.repo.Registration.ReplaceByOwner(ctx, ownerID, ids)
	if err != nil {
		var unavailable *pkgerrors.SlotUnavailableError
		if errors.As(err, &unavailable) {
			s.logger.Warn("应用方案时时段已不可用",
				zap.String("owner_id", ownerID),
				zap.Any("slots", unavailable.Slots),
			)
			return nil, err
		}
		s.logger.Error("应用方案失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("应用方案", zap.String("owner_id", ownerID), zap.Int("registrations", len(regs)))
	return &dto.ApplyResponse{RegistrationCount: len(regs)}, nil
}

// ── 内部工具 ──

// isRegistrationRejection 业务拒绝（冲突 / 重复 / 并发修改），无需按系统错误记录
func isRegistrationRejection(err error) bool {
	var ce *ClashError
	return errors.As(err, &ce) ||
		errors.Is(err, ErrCourseAlreadyRegistered) ||
		errors.Is(err, ErrRegistrationNotFound) ||
		errors.Is(err, pkgerrors.ErrOptimisticLock)
}

func (s *registrationService) getSlot(ctx context.Context, ownerID, id string) (*model.Slot, error) {
	slot, err := s.repo.Slot.GetByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSlotNotFound
		}
		s.logger.Error("查询时段失败", zap.String("slot_id", id), zap.Error(err))
		return nil, err
	}
	return slot, nil
}

// listSlots 按 id 查询 slot，任何 id 不存在即返回 ErrSlotNotFound
// 返回顺序与 ids 一致
func (s *registrationService) listSlots(ctx context.Context, ownerID string, ids []string) ([]model.Slot, error) {
	found, err := s.repo.Slot.ListByIDs(ctx, ownerID, ids)
	if err != nil {
		s.logger.Error("查询时段失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}

	byID := lo.KeyBy(found, func(sl model.Slot) string { return sl.SlotID })
	missing := lo.Filter(ids, func(id string, _ int) bool {
		_, ok := byID[id]
		return !ok
	})
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrSlotNotFound, strings.Join(missing, ","))
	}

	return lo.Map(ids, func(id string, _ int) model.Slot { return byID[id] }), nil
}

func (s *registrationService) decode(slot *model.Slot) timegrid.Occupancy {
	occ := timegrid.Decode(slot.SlotCode)
	if n := occ.Warnings(); n > 0 {
		s.logger.Warn("slot code 含无法识别的 token",
			zap.String("slot_id", slot.SlotID),
			zap.String("slot_code", slot.SlotCode),
			zap.Int("count", n),
		)
	}
	return occ
}

func toRegistrationResponse(reg *model.Registration, slot *model.Slot) dto.RegistrationResponse {
	resp := dto.RegistrationResponse{
		RegistrationID: reg.RegistrationID,
		SlotID:         reg.SlotID,
		Version:        reg.Version,
		CreatedAt:      reg.CreatedAt,
	}
	if slot != nil {
		s := toSuggestionSlot(slot)
		resp.SlotCode = s.SlotCode
		resp.CourseID = s.CourseID
		resp.CourseCode = s.CourseCode
		resp.CourseName = s.CourseName
		resp.Faculty = s.Faculty
		resp.Venue = s.Venue
		resp.Credits = s.Credits
	}
	return resp
}
