package service

import (
	"go.uber.org/zap"

	"timetable-planner/backend/config"
	"timetable-planner/backend/internal/engine"
	"timetable-planner/backend/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Course         CourseService
	Generate       GenerateService
	Registration   RegistrationService
	SavedTimetable SavedTimetableService
	Export         ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	eng *engine.Engine,
	logger *zap.Logger,
) *Service {
	return &Service{
		Course:         NewCourseService(repo, logger),
		Generate:       NewGenerateService(cfg.Engine, repo, eng, logger),
		Registration:   NewRegistrationService(cfg.Registration, repo, logger),
		SavedTimetable: NewSavedTimetableService(repo, logger),
		Export:         NewExportService(cfg.Export, repo, logger),
	}
}
