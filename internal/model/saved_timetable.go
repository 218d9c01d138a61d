package model

import "github.com/lib/pq"

// SavedTimetable 保存的课表方案 — 对应 saved_timetables
// 只由用户显式保存产生，与实时登记无关
type SavedTimetable struct {
	SavedTimetableID string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"saved_timetable_id"`
	OwnerID          string         `gorm:"type:uuid;not null;index"                       json:"owner_id"`
	Name             string         `gorm:"type:varchar(200);not null"                     json:"name"`
	SlotIDs          pq.StringArray `gorm:"type:text[];not null"                           json:"slot_ids"`
	TotalCredits     int            `gorm:"not null;default:0"                             json:"total_credits"`
	CourseCount      int            `gorm:"not null;default:0"                             json:"course_count"`
	SoftDeleteModel
}

// TableName 指定表名
func (SavedTimetable) TableName() string { return "saved_timetables" }
