package service

import (
	"context"
	"errors"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"timetable-planner/backend/internal/dto"
	"timetable-planner/backend/internal/model"
	"timetable-planner/backend/internal/repository"
)

// courseSearchLimit 单次检索最多返回的课程数
const courseSearchLimit = 20

var ErrCourseNotFound = errors.New("课程不存在")

// CourseService 课程目录只读浏览
type CourseService interface {
	// Search 关键字为空时返回空列表
	Search(ctx context.Context, ownerID, keyword string) ([]dto.CourseResponse, error)
	Get(ctx context.Context, ownerID, id string) (*dto.CourseResponse, error)
	// Slots 课程的全部时段（含已满），供登记 / 冲突检测取得 slot_id
	Slots(ctx context.Context, ownerID, id string) (*dto.CourseSlotsResponse, error)
}

type courseService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCourseService 创建 CourseService 实例
func NewCourseService(repo *repository.Repository, logger *zap.Logger) CourseService {
	return &courseService{repo: repo, logger: logger}
}

func (s *courseService) Search(ctx context.Context, ownerID, keyword string) ([]dto.CourseResponse, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return []dto.CourseResponse{}, nil
	}
	courses, err := s.repo.Course.Search(ctx, ownerID, keyword, courseSearchLimit)
	if err != nil {
		s.logger.Error("检索课程失败", zap.String("owner_id", ownerID), zap.String("q", keyword), zap.Error(err))
		return nil, err
	}
	return lo.Map(courses, func(c model.Course, _ int) dto.CourseResponse {
		return toCourseResponse(&c)
	}), nil
}

func (s *courseService) Get(ctx context.Context, ownerID, id string) (*dto.CourseResponse, error) {
	course, err := s.getCourse(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	resp := toCourseResponse(course)
	return &resp, nil
}

func (s *courseService) Slots(ctx context.Context, ownerID, id string) (*dto.CourseSlotsResponse, error) {
	course, err := s.getCourse(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	slots, err := s.repo.Slot.ListByCourse(ctx, ownerID, course.CourseID)
	if err != nil {
		s.logger.Error("列出课程时段失败", zap.String("course_id", id), zap.Error(err))
		return nil, err
	}

	return &dto.CourseSlotsResponse{
		Course: toCourseResponse(course),
		Slots: lo.Map(slots, func(sl model.Slot, _ int) dto.CourseSlotResponse {
			return dto.CourseSlotResponse{
				SlotID:         sl.SlotID,
				SlotCode:       sl.SlotCode,
				Faculty:        sl.FacultyName(),
				Venue:          sl.Venue,
				TotalSeats:     sl.TotalSeats,
				AvailableSeats: sl.AvailableSeats,
				IsFull:         sl.IsFull(),
			}
		}),
	}, nil
}

func (s *courseService) getCourse(ctx context.Context, ownerID, id string) (*model.Course, error) {
	course, err := s.repo.Course.GetByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("course_id", id), zap.Error(err))
		return nil, err
	}
	return course, nil
}

func toCourseResponse(c *model.Course) dto.CourseResponse {
	return dto.CourseResponse{
		CourseID:  c.CourseID,
		Code:      c.Code,
		Name:      c.Name,
		Lecture:   c.Lecture,
		Tutorial:  c.Tutorial,
		Practical: c.Practical,
		Project:   c.Project,
		Credits:   c.Credits,
		Category:  c.Category,
	}
}
