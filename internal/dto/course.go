package dto

// CourseSearchQuery 课程检索参数
type CourseSearchQuery struct {
	Q string `form:"q" binding:"max=100"`
}

// CourseResponse 课程信息
type CourseResponse struct {
	CourseID  string `json:"course_id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Lecture   int    `json:"lecture"`
	Tutorial  int    `json:"tutorial"`
	Practical int    `json:"practical"`
	Project   int    `json:"project"`
	Credits   int    `json:"credits"`
	Category  string `json:"category,omitempty"`
}

// CourseSlotResponse 课程下的一个开课时段
type CourseSlotResponse struct {
	SlotID         string `json:"slot_id"`
	SlotCode       string `json:"slot_code"`
	Faculty        string `json:"faculty"`
	Venue          string `json:"venue"`
	TotalSeats     int    `json:"total_seats"`
	AvailableSeats int    `json:"available_seats"`
	IsFull         bool   `json:"is_full"`
}

// CourseSlotsResponse 课程及其全部时段
type CourseSlotsResponse struct {
	Course CourseResponse       `json:"course"`
	Slots  []CourseSlotResponse `json:"slots"`
}
