package service

import (
	"context"
	"errors"

	"github.com/lib/pq"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"timetable-planner/backend/internal/dto"
	"timetable-planner/backend/internal/model"
	"timetable-planner/backend/internal/repository"
	pkgerrors "timetable-planner/backend/pkg/errors"
)

// ── 保存方案业务错误 ──

var (
	ErrSavedTimetableNotFound = errors.New("保存的方案不存在")
)

// SavedTimetableService 保存方案业务接口
// 保存只记录方案快照，不影响当前登记
type SavedTimetableService interface {
	Save(ctx context.Context, ownerID string, req *dto.SaveTimetableRequest) (*dto.SaveTimetableResponse, error)
	List(ctx context.Context, ownerID string) ([]dto.SavedTimetableResponse, error)
	Get(ctx context.Context, ownerID, id string) (*dto.SavedTimetableDetailResponse, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type savedTimetableService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSavedTimetableService 创建 SavedTimetableService 实例
func NewSavedTimetableService(repo *repository.Repository, logger *zap.Logger) SavedTimetableService {
	return &savedTimetableService{repo: repo, logger: logger}
}

// ────────────────────── Save ──────────────────────

func (s *savedTimetableService) Save(ctx context.Context, ownerID string, req *dto.SaveTimetableRequest) (*dto.SaveTimetableResponse, error) {
	ids := lo.Uniq(req.SlotIDs)

	slots, err := s.repo.Slot.ListByIDs(ctx, ownerID, ids)
	if err != nil {
		s.logger.Error("查询时段失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}

	// 与 Apply 相同：已删除或已满的时段不允许保存
	byID := lo.KeyBy(slots, func(sl model.Slot) string { return sl.SlotID })
	var unavailable []pkgerrors.SlotUnavailable
	for _, id := range ids {
		sl, ok := byID[id]
		switch {
		case !ok:
			unavailable = append(unavailable, pkgerrors.SlotUnavailable{SlotID: id, Reason: pkgerrors.ReasonSlotNotFound})
		case sl.IsFull():
			unavailable = append(unavailable, pkgerrors.SlotUnavailable{SlotID: id, Reason: pkgerrors.ReasonSlotFull})
		}
	}
	if len(unavailable) > 0 {
		return nil, &pkgerrors.SlotUnavailableError{Slots: unavailable}
	}

	st := &model.SavedTimetable{
		OwnerID:      ownerID,
		Name:         req.Name,
		SlotIDs:      pq.StringArray(ids),
		TotalCredits: req.TotalCredits,
		CourseCount:  req.CourseCount,
	}
	st.CreatedBy = &ownerID
	st.UpdatedBy = &ownerID

	if err := s.repo.SavedTimetable.Create(ctx, st); err != nil {
		s.logger.Error("保存方案失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}

	return &dto.SaveTimetableResponse{ID: st.SavedTimetableID}, nil
}

// ────────────────────── List ──────────────────────

func (s *savedTimetableService) List(ctx context.Context, ownerID string) ([]dto.SavedTimetableResponse, error) {
	list, err := s.repo.SavedTimetable.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("列出保存的方案失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}
	return lo.Map(list, func(st model.SavedTimetable, _ int) dto.SavedTimetableResponse {
		return toSavedTimetableResponse(&st)
	}), nil
}

// ────────────────────── Get ──────────────────────

func (s *savedTimetableService) Get(ctx context.Context, ownerID, id string) (*dto.SavedTimetableDetailResponse, error) {
	st, err := s.repo.SavedTimetable.GetByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSavedTimetableNotFound
		}
		s.logger.Error("查询保存的方案失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	slots, err := s.repo.Slot.ListByIDs(ctx, ownerID, st.SlotIDs)
	if err != nil {
		s.logger.Error("查询时段失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}
	byID := lo.KeyBy(slots, func(sl model.Slot) string { return sl.SlotID })

	detail := &dto.SavedTimetableDetailResponse{
		SavedTimetableResponse: toSavedTimetableResponse(st),
		Slots:                  make([]dto.SuggestionSlot, 0, len(st.SlotIDs)),
		MissingSlotIDs:         []string{},
	}
	for _, slotID := range st.SlotIDs {
		sl, ok := byID[slotID]
		if !ok {
			detail.MissingSlotIDs = append(detail.MissingSlotIDs, slotID)
			continue
		}
		detail.Slots = append(detail.Slots, toSuggestionSlot(&sl))
	}
	return detail, nil
}

// ────────────────────── Delete ──────────────────────

func (s *savedTimetableService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.repo.SavedTimetable.Delete(ctx, ownerID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSavedTimetableNotFound
		}
		s.logger.Error("删除保存的方案失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func toSavedTimetableResponse(st *model.SavedTimetable) dto.SavedTimetableResponse {
	return dto.SavedTimetableResponse{
		ID:           st.SavedTimetableID,
		Name:         st.Name,
		SlotIDs:      []string(st.SlotIDs),
		TotalCredits: st.TotalCredits,
		CourseCount:  st.CourseCount,
		CreatedAt:    st.CreatedAt,
	}
}
