package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Course         CourseRepository
	Slot           SlotRepository
	Registration   RegistrationRepository
	SavedTimetable SavedTimetableRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Course:         NewCourseRepo(db),
		Slot:           NewSlotRepo(db),
		Registration:   NewRegistrationRepo(db),
		SavedTimetable: NewSavedTimetableRepo(db),
	}
}
