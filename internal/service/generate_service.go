package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"timetable-planner/backend/config"
	"timetable-planner/backend/internal/dto"
	"timetable-planner/backend/internal/engine"
	"timetable-planner/backend/internal/model"
	"timetable-planner/backend/internal/repository"
	"timetable-planner/backend/internal/timegrid"
)

// ── 方案生成业务错误 ──

var (
	ErrUnknownCourse    = errors.New("课程不存在")
	ErrInvalidReference = errors.New("参考方案无效")
)

// GenerateService 方案生成业务接口
type GenerateService interface {
	// Courses 列出可参与生成的课程
	Courses(ctx context.Context, ownerID string) ([]dto.AvailableCourseResponse, error)
	Suggest(ctx context.Context, ownerID string, req *dto.SuggestRequest) (*dto.SuggestionsResponse, error)
	More(ctx context.Context, ownerID string, req *dto.MoreRequest) (*dto.SuggestionsResponse, error)
	Similar(ctx context.Context, ownerID string, req *dto.SimilarRequest) (*dto.SuggestionsResponse, error)
	Count(ctx context.Context, ownerID string, req *dto.CountRequest) (*dto.CountResponse, error)
	Random(ctx context.Context, ownerID string, req *dto.RandomRequest) (*dto.SuggestionsResponse, error)
}

type generateService struct {
	cfg    config.EngineConfig
	repo   *repository.Repository
	eng    *engine.Engine
	logger *zap.Logger
}

// NewGenerateService 创建 GenerateService 实例
func NewGenerateService(cfg config.EngineConfig, repo *repository.Repository, eng *engine.Engine, logger *zap.Logger) GenerateService {
	return &generateService{cfg: cfg, repo: repo, eng: eng, logger: logger}
}

// catalog 本次请求涉及的课程与全部 slot（含已满），用于还原展示字段
type catalog struct {
	courses map[string]*model.Course
	slots   map[string]*model.Slot
	// unknownTokens 候选 slot code 中无法识别的 token 总数
	unknownTokens int
}

// ════════════════════════════════════════════════════════════
// buildProblem：课程目录 → 引擎输入
// ════════════════════════════════════════════════════════════
//
// 课程顺序沿用请求顺序（去重后）；已满的 slot 默认不进入候选池。
// slot code 中无法识别的 token 不占格子，只记一条告警。

func (s *generateService) buildProblem(ctx context.Context, ownerID string, req *dto.GenerateRequest) (engine.Problem, *catalog, error) {
	prefs, err := dto.ParsePreferences(req.Preferences)
	if err != nil {
		return engine.Problem{}, nil, err
	}

	ids := lo.Uniq(req.CourseIDs)
	courses, err := s.repo.Course.ListByIDs(ctx, ownerID, ids)
	if err != nil {
		s.logger.Error("查询课程失败", zap.String("owner_id", ownerID), zap.Error(err))
		return engine.Problem{}, nil, err
	}

	byID := lo.KeyBy(courses, func(c model.Course) string { return c.CourseID })
	missing := lo.Filter(ids, func(id string, _ int) bool {
		_, ok := byID[id]
		return !ok
	})
	if len(missing) > 0 {
		return engine.Problem{}, nil, fmt.Errorf("%w: %s", ErrUnknownCourse, strings.Join(missing, ","))
	}

	cat := &catalog{
		courses: make(map[string]*model.Course, len(ids)),
		slots:   make(map[string]*model.Slot),
	}
	problem := engine.Problem{
		Courses: make([]engine.Course, 0, len(ids)),
		Preferences: engine.Preferences{
			AvoidEarlyMorning: prefs.AvoidEarlyMorning,
			AvoidLateEvening:  prefs.AvoidLateEvening,
			TimeMode:          engine.TimeMode(prefs.TimeMode),
			FacultyRank:       prefs.FacultyRank,
			ExcludeSlots:      prefs.ExcludeSlots,
			AvoidFaculties:    prefs.AvoidFaculties,
		},
	}

	for _, id := range ids {
		c := byID[id]
		cat.courses[id] = &c

		ec := engine.Course{CourseID: c.CourseID, Code: c.Code, Credits: c.Credits}
		for i := range c.Slots {
			slot := &c.Slots[i]
			cat.slots[slot.SlotID] = slot
			if slot.IsFull() && !req.IncludeFull {
				continue
			}
			ec.Candidates = append(ec.Candidates, s.candidate(c.CourseID, slot, cat))
		}
		problem.Courses = append(problem.Courses, ec)
	}

	return problem, cat, nil
}

func (s *generateService) candidate(courseID string, slot *model.Slot, cat *catalog) engine.Candidate {
	occ := timegrid.Decode(slot.SlotCode)
	if n := occ.Warnings(); n > 0 {
		cat.unknownTokens += n
		s.logger.Warn("slot code 含无法识别的 token",
			zap.String("slot_id", slot.SlotID),
			zap.String("slot_code", slot.SlotCode),
			zap.Strings("unknown", occ.Unknown),
			zap.Int("count", n),
		)
	}
	return engine.Candidate{
		SlotID:   slot.SlotID,
		CourseID: courseID,
		SlotCode: slot.SlotCode,
		Faculty:  slot.FacultyName(),
		Venue:    slot.Venue,
		Cells:    occ.Cells,
	}
}

// clampLimit 0 取默认值，超过上限按上限截断
func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	return limit
}

// ────────────────────── Courses ──────────────────────

func (s *generateService) Courses(ctx context.Context, ownerID string) ([]dto.AvailableCourseResponse, error) {
	courses, err := s.repo.Course.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("列出课程失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}

	return lo.Map(courses, func(c model.Course, _ int) dto.AvailableCourseResponse {
		return dto.AvailableCourseResponse{
			CourseID:  c.CourseID,
			Code:      c.Code,
			Name:      c.Name,
			Lecture:   c.Lecture,
			Tutorial:  c.Tutorial,
			Practical: c.Practical,
			Project:   c.Project,
			Credits:   c.Credits,
			Category:  c.Category,
			SlotCount: len(c.Slots),
			OpenSlotCount: lo.CountBy(c.Slots, func(sl model.Slot) bool {
				return !sl.IsFull()
			}),
			Faculties: lo.Uniq(lo.Map(c.Slots, func(sl model.Slot, _ int) string {
				return sl.FacultyName()
			})),
		}
	}), nil
}

// ────────────────────── Suggest ──────────────────────

func (s *generateService) Suggest(ctx context.Context, ownerID string, req *dto.SuggestRequest) (*dto.SuggestionsResponse, error) {
	limit := clampLimit(req.Limit, s.cfg.DefaultLimit, s.cfg.MaxLimit)
	return s.page(ctx, ownerID, &req.GenerateRequest, 0, limit)
}

// ────────────────────── More ──────────────────────

func (s *generateService) More(ctx context.Context, ownerID string, req *dto.MoreRequest) (*dto.SuggestionsResponse, error) {
	limit := clampLimit(req.Limit, s.cfg.DefaultLimit, s.cfg.MaxLimit)
	return s.page(ctx, ownerID, &req.GenerateRequest, req.Offset, limit)
}

func (s *generateService) page(ctx context.Context, ownerID string, req *dto.GenerateRequest, offset, limit int) (*dto.SuggestionsResponse, error) {
	problem, cat, err := s.buildProblem(ctx, ownerID, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	page := s.eng.Enumerate(problem, offset, limit)
	s.logger.Info("生成方案",
		zap.String("owner_id", ownerID),
		zap.Int("courses", len(problem.Courses)),
		zap.Int("offset", offset),
		zap.Int("limit", limit),
		zap.Int("found", page.Found),
		zap.Bool("truncated", page.Truncated),
		zap.Bool("relaxed", page.Relaxed),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &dto.SuggestionsResponse{
		Suggestions:        materialize(page.Results, cat),
		RelaxedConstraints: page.Relaxed,
		HasMore:            page.HasMore,
		Truncated:          page.Truncated,
		Offset:             offset,
		UnknownTokens:      cat.unknownTokens,
	}, nil
}

// ────────────────────── Similar ──────────────────────

func (s *generateService) Similar(ctx context.Context, ownerID string, req *dto.SimilarRequest) (*dto.SuggestionsResponse, error) {
	problem, cat, err := s.buildProblem(ctx, ownerID, &req.GenerateRequest)
	if err != nil {
		return nil, err
	}

	reference, err := s.reference(problem, cat, req.ReferenceSlotIDs)
	if err != nil {
		return nil, err
	}

	seen := lo.Map(req.Seen, func(ids []string, _ int) string { return engine.Signature(ids) })
	limit := clampLimit(req.Limit, s.cfg.SimilarLimit, s.cfg.MaxLimit)

	res, err := s.eng.Similar(problem, reference, seen, limit)
	if err != nil {
		if errors.Is(err, engine.ErrReferenceMismatch) {
			return nil, ErrInvalidReference
		}
		return nil, err
	}

	return &dto.SuggestionsResponse{
		Suggestions:        materialize(res.Results, cat),
		RelaxedConstraints: res.Relaxed,
		UnknownTokens:      cat.unknownTokens,
	}, nil
}

// reference 将参考 slot id 还原为与课程一一对应的方案
// 参考 slot 可以已满，但必须属于请求中的课程且每门课恰好一个
func (s *generateService) reference(problem engine.Problem, cat *catalog, slotIDs []string) (engine.Assignment, error) {
	byCourse := make(map[string]engine.Candidate, len(slotIDs))
	for _, id := range slotIDs {
		slot, ok := cat.slots[id]
		if !ok {
			return nil, fmt.Errorf("%w: slot %s 不属于所选课程", ErrInvalidReference, id)
		}
		if _, dup := byCourse[slot.CourseID]; dup {
			return nil, fmt.Errorf("%w: 课程 %s 出现多个 slot", ErrInvalidReference, slot.CourseID)
		}
		byCourse[slot.CourseID] = s.candidate(slot.CourseID, slot, &catalog{})
	}

	ref := make(engine.Assignment, len(problem.Courses))
	for i, c := range problem.Courses {
		cand, ok := byCourse[c.CourseID]
		if !ok {
			return nil, fmt.Errorf("%w: 课程 %s 缺少参考 slot", ErrInvalidReference, c.CourseID)
		}
		ref[i] = cand
	}
	return ref, nil
}

// ────────────────────── Count ──────────────────────

func (s *generateService) Count(ctx context.Context, ownerID string, req *dto.CountRequest) (*dto.CountResponse, error) {
	problem, _, err := s.buildProblem(ctx, ownerID, &req.GenerateRequest)
	if err != nil {
		return nil, err
	}

	mode := engine.CountMode(req.Mode)
	if mode == "" {
		mode = engine.CountStandard
	}

	res := s.eng.Count(problem, mode)
	return &dto.CountResponse{
		Count:              res.Count,
		Capped:             res.Capped,
		Truncated:          res.Truncated,
		RelaxedConstraints: res.Relaxed,
		Mode:               string(mode),
	}, nil
}

// ────────────────────── Random ──────────────────────

func (s *generateService) Random(ctx context.Context, ownerID string, req *dto.RandomRequest) (*dto.SuggestionsResponse, error) {
	problem, cat, err := s.buildProblem(ctx, ownerID, &req.GenerateRequest)
	if err != nil {
		return nil, err
	}

	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}
	limit := clampLimit(req.Limit, s.cfg.DefaultLimit, s.cfg.MaxLimit)

	page := s.eng.Sample(problem, seed, limit)
	return &dto.SuggestionsResponse{
		Suggestions:        materialize(page.Results, cat),
		RelaxedConstraints: page.Relaxed,
		Truncated:          page.Truncated,
		UnknownTokens:      cat.unknownTokens,
		Seed:               &seed,
	}, nil
}

// ════════════════════════════════════════════════════════════
// materialize：引擎方案 → 展示结构
// ════════════════════════════════════════════════════════════

func materialize(results []engine.Ranked, cat *catalog) []dto.Suggestion {
	out := make([]dto.Suggestion, 0, len(results))
	for _, r := range results {
		sug := dto.Suggestion{
			Slots:     make([]dto.SuggestionSlot, 0, len(r.Assignment)),
			SlotIDs:   r.Assignment.SlotIDs(),
			Score:     r.Score.Total,
			Signature: r.Assignment.Signature(),
			Details: dto.SuggestionDetails{
				FacultyMatches: r.Score.FacultyMatches,
				SaturdayCells:  r.Score.SaturdayCells,
			},
		}
		for _, c := range r.Assignment {
			slot := dto.SuggestionSlot{
				CourseID: c.CourseID,
				SlotID:   c.SlotID,
				SlotCode: c.SlotCode,
				Faculty:  c.Faculty,
				Venue:    c.Venue,
			}
			if course, ok := cat.courses[c.CourseID]; ok {
				slot.CourseCode = course.Code
				slot.CourseName = course.Name
				slot.Credits = course.Credits
			}
			sug.TotalCredits += slot.Credits
			sug.Slots = append(sug.Slots, slot)
		}
		out = append(out, sug)
	}
	return out
}

// toSuggestionSlot 单个 slot 的展示结构（slot 需预加载 Course）
func toSuggestionSlot(slot *model.Slot) dto.SuggestionSlot {
	out := dto.SuggestionSlot{
		CourseID: slot.CourseID,
		SlotID:   slot.SlotID,
		SlotCode: slot.SlotCode,
		Faculty:  slot.FacultyName(),
		Venue:    slot.Venue,
	}
	if slot.Course != nil {
		out.CourseCode = slot.Course.Code
		out.CourseName = slot.Course.Name
		out.Credits = slot.Course.Credits
	}
	return out
}
