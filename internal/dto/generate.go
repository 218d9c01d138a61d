package dto

// ── 生成请求 ──

// GenerateRequest 生成类接口的公共字段
type GenerateRequest struct {
	CourseIDs   []string               `json:"course_ids" binding:"required,min=1,max=30,dive,uuid"`
	Preferences map[string]interface{} `json:"preferences"`
	// IncludeFull 为 true 时候选池包含已满的 slot
	IncludeFull bool `json:"include_full"`
}

// SuggestRequest 首屏推荐
type SuggestRequest struct {
	GenerateRequest
	Limit int `json:"limit" binding:"omitempty,min=0"`
}

// MoreRequest 加载更多
type MoreRequest struct {
	GenerateRequest
	Offset int `json:"offset" binding:"min=0,max=100000"`
	Limit  int `json:"limit" binding:"omitempty,min=0"`
}

// SimilarRequest 相似方案
type SimilarRequest struct {
	GenerateRequest
	ReferenceSlotIDs []string `json:"reference_slot_ids" binding:"required,min=1,max=30,dive,uuid"`
	// Seen 调用方已展示过的方案（每项为一组 slot id）
	Seen  [][]string `json:"seen" binding:"omitempty,max=500"`
	Limit int        `json:"limit" binding:"omitempty,min=0"`
}

// CountRequest 方案计数
type CountRequest struct {
	GenerateRequest
	Mode string `json:"mode" binding:"omitempty,oneof=standard distinct pattern"`
}

// RandomRequest 随机方案
type RandomRequest struct {
	GenerateRequest
	// Seed 为空时由服务端生成并在响应中返回，便于复现
	Seed  *int64 `json:"seed"`
	Limit int    `json:"limit" binding:"omitempty,min=0"`
}

// ── 生成响应 ──

// SuggestionSlot 方案中的一门课
type SuggestionSlot struct {
	CourseID   string `json:"course_id"`
	CourseCode string `json:"course_code"`
	CourseName string `json:"course_name"`
	SlotID     string `json:"slot_id"`
	SlotCode   string `json:"slot_code"`
	Faculty    string `json:"faculty"`
	Venue      string `json:"venue"`
	Credits    int    `json:"credits"`
}

// SuggestionDetails 评分明细
type SuggestionDetails struct {
	FacultyMatches int `json:"faculty_matches"`
	SaturdayCells  int `json:"saturday_cells"`
}

// Suggestion 对外展示的方案
type Suggestion struct {
	Slots        []SuggestionSlot  `json:"slots"`
	SlotIDs      []string          `json:"slot_ids"`
	TotalCredits int               `json:"total_credits"`
	Score        int               `json:"score"`
	Details      SuggestionDetails `json:"details"`
	Signature    string            `json:"signature"`
}

// SuggestionsResponse suggest / more / similar / random 的响应
type SuggestionsResponse struct {
	Suggestions        []Suggestion `json:"suggestions"`
	RelaxedConstraints bool         `json:"relaxed_constraints"`
	HasMore            bool         `json:"has_more"`
	Truncated          bool         `json:"truncated"`
	Offset             int          `json:"offset"`
	// UnknownTokens 候选 slot code 中无法识别的 token 数
	UnknownTokens int    `json:"unknown_tokens"`
	Seed          *int64 `json:"seed,omitempty"`
}

// CountResponse 计数响应
type CountResponse struct {
	Count              int    `json:"count"`
	Capped             bool   `json:"capped"`
	Truncated          bool   `json:"truncated"`
	RelaxedConstraints bool   `json:"relaxed_constraints"`
	Mode               string `json:"mode"`
}

// AvailableCourseResponse 可参与生成的课程
type AvailableCourseResponse struct {
	CourseID      string   `json:"course_id"`
	Code          string   `json:"code"`
	Name          string   `json:"name"`
	Lecture       int      `json:"lecture"`
	Tutorial      int      `json:"tutorial"`
	Practical     int      `json:"practical"`
	Project       int      `json:"project"`
	Credits       int      `json:"credits"`
	Category      string   `json:"category,omitempty"`
	SlotCount     int      `json:"slot_count"`
	OpenSlotCount int      `json:"open_slot_count"`
	Faculties     []string `json:"faculties"`
}
