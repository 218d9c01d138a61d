package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"timetable-planner/backend/internal/model"
)

// CourseRepository 课程目录只读访问接口
type CourseRepository interface {
	// ListByOwner 列出 owner 的全部课程（含 slot）
	ListByOwner(ctx context.Context, ownerID string) ([]model.Course, error)
	// ListByIDs 按 id 查询 owner 的课程（含 slot），不存在的 id 直接缺席
	ListByIDs(ctx context.Context, ownerID string, ids []string) ([]model.Course, error)
	// Search 按课程代码或名称模糊匹配（不区分大小写）
	Search(ctx context.Context, ownerID, keyword string, limit int) ([]model.Course, error)
	GetByID(ctx context.Context, ownerID, id string) (*model.Course, error)
}

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo 创建 CourseRepository 实例
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

// preloadSlots slot 按 slot_id 排序，保证枚举顺序稳定
func preloadSlots(db *gorm.DB) *gorm.DB {
	return db.Order("slot_id ASC")
}

func (r *courseRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Preload("Slots", preloadSlots).
		Where("owner_id = ?", ownerID).
		Order("code ASC").
		Find(&courses).Error
	return courses, err
}

func (r *courseRepo) ListByIDs(ctx context.Context, ownerID string, ids []string) ([]model.Course, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Preload("Slots", preloadSlots).
		Where("owner_id = ? AND course_id IN ?", ownerID, ids).
		Find(&courses).Error
	return courses, err
}

// likeEscaper 转义 LIKE 通配符，关键字按字面匹配
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func (r *courseRepo) Search(ctx context.Context, ownerID, keyword string, limit int) ([]model.Course, error) {
	pattern := "%" + likeEscaper.Replace(keyword) + "%"
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Where("code ILIKE ? OR name ILIKE ?", pattern, pattern).
		Order("code ASC").
		Limit(limit).
		Find(&courses).Error
	return courses, err
}

func (r *courseRepo) GetByID(ctx context.Context, ownerID, id string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND course_id = ?", ownerID, id).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}
