package dto

import "time"

// SaveTimetableRequest 保存方案
type SaveTimetableRequest struct {
	Name         string   `json:"name" binding:"required,max=200"`
	SlotIDs      []string `json:"slot_ids" binding:"required,min=1,max=30,dive,uuid"`
	TotalCredits int      `json:"total_credits" binding:"min=0,max=200"`
	CourseCount  int      `json:"course_count" binding:"min=0,max=30"`
}

// SaveTimetableResponse 保存结果
type SaveTimetableResponse struct {
	ID string `json:"id"`
}

// SavedTimetableResponse 保存的方案
type SavedTimetableResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	SlotIDs      []string  `json:"slot_ids"`
	TotalCredits int       `json:"total_credits"`
	CourseCount  int       `json:"course_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// SavedTimetableDetailResponse 方案详情（slot 按当前目录解析）
type SavedTimetableDetailResponse struct {
	SavedTimetableResponse
	Slots []SuggestionSlot `json:"slots"`
	// MissingSlotIDs 目录中已不存在的 slot
	MissingSlotIDs []string `json:"missing_slot_ids"`
}
