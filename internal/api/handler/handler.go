package handler

import "timetable-planner/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Course         *CourseHandler
	Generate       *GenerateHandler
	Registration   *RegistrationHandler
	SavedTimetable *SavedTimetableHandler
	Export         *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Course:         NewCourseHandler(svc.Course),
		Generate:       NewGenerateHandler(svc.Generate),
		Registration:   NewRegistrationHandler(svc.Registration),
		SavedTimetable: NewSavedTimetableHandler(svc.SavedTimetable),
		Export:         NewExportHandler(svc.Export),
	}
}
