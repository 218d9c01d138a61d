package model

import "strings"

// FacultyTBA 未指定教师时的展示名
const FacultyTBA = "TBA"

// Slot 开课时段表 — 对应 slots
// SlotCode 由一个或多个 token 以 '+' 连接，例如 "A11+A12"
type Slot struct {
	SlotID         string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"slot_id"`
	CourseID       string  `gorm:"type:uuid;not null;index"                       json:"course_id"`
	SlotCode       string  `gorm:"type:varchar(100);not null"                     json:"slot_code"`
	Venue          string  `gorm:"type:varchar(100)"                              json:"venue"`
	Faculty        *string `gorm:"type:varchar(100)"                              json:"faculty,omitempty"`
	TotalSeats     int     `gorm:"not null;default:0"                             json:"total_seats"`
	AvailableSeats int     `gorm:"not null;default:0"                             json:"available_seats"`
	BaseModel

	// 关联
	Course *Course `gorm:"foreignKey:CourseID;references:CourseID" json:"course,omitempty"`
}

// TableName 指定表名
func (Slot) TableName() string { return "slots" }

// IsFull 余量 ≤ 0 视为已满
func (s *Slot) IsFull() bool { return s.AvailableSeats <= 0 }

// FacultyName 教师展示名，空值返回 TBA
func (s *Slot) FacultyName() string {
	if s.Faculty == nil || strings.TrimSpace(*s.Faculty) == "" {
		return FacultyTBA
	}
	return strings.TrimSpace(*s.Faculty)
}
