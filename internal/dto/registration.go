package dto

import "time"

// ── 选课登记请求 ──

// RegisterRequest 登记单个 slot
type RegisterRequest struct {
	SlotID string `json:"slot_id" binding:"required,uuid"`
}

// UpdateRegistrationRequest 原地更换登记的 slot（同一课程）
type UpdateRegistrationRequest struct {
	SlotID string `json:"slot_id" binding:"required,uuid"`
	// Version 客户端看到的版本号，不一致时返回乐观锁冲突
	Version *int `json:"version" binding:"omitempty,min=1"`
}

// BulkDeleteRequest 批量删除登记
type BulkDeleteRequest struct {
	RegistrationIDs []string `json:"registration_ids" binding:"required,min=1,max=100,dive,uuid"`
}

// CheckClashRequest 单个 slot 冲突检测
type CheckClashRequest struct {
	SlotID string `json:"slot_id" binding:"required,uuid"`
}

// CheckClashBatchRequest 批量冲突检测
type CheckClashBatchRequest struct {
	SlotIDs []string `json:"slot_ids" binding:"required,min=1,max=200,dive,uuid"`
	// ExcludeRegistrationID 正在编辑的登记，不计入冲突基线
	ExcludeRegistrationID string `json:"exclude_registration_id" binding:"omitempty,uuid"`
}

// ApplyRequest 以方案全量替换当前登记
type ApplyRequest struct {
	SlotIDs []string `json:"slot_ids" binding:"required,min=1,max=30,dive,uuid"`
}

// ── 选课登记响应 ──

// ClashEntry 冲突的已有登记
type ClashEntry struct {
	RegistrationID string `json:"registration_id"`
	CourseCode     string `json:"course_code"`
	SlotCode       string `json:"slot_code"`
}

// ClashResult 冲突检测结果
type ClashResult struct {
	HasClash bool         `json:"has_clash"`
	Clashing []ClashEntry `json:"clashing"`
}

// CheckClashBatchResponse 批量冲突检测响应（slot_id → 结果）
type CheckClashBatchResponse struct {
	Results map[string]ClashResult `json:"results"`
}

// ApplyResponse 应用方案响应
type ApplyResponse struct {
	RegistrationCount int `json:"registration_count"`
}

// RegistrationResponse 登记详情
type RegistrationResponse struct {
	RegistrationID string    `json:"registration_id"`
	SlotID         string    `json:"slot_id"`
	SlotCode       string    `json:"slot_code"`
	CourseID       string    `json:"course_id"`
	CourseCode     string    `json:"course_code"`
	CourseName     string    `json:"course_name"`
	Faculty        string    `json:"faculty"`
	Venue          string    `json:"venue"`
	Credits        int       `json:"credits"`
	Version        int       `json:"version"`
	CreatedAt      time.Time `json:"created_at"`
}

// RegistrationListResponse 当前登记列表
type RegistrationListResponse struct {
	Registrations []RegistrationResponse `json:"registrations"`
	TotalCredits  int                    `json:"total_credits"`
	CourseCount   int                    `json:"course_count"`
}

// CreditSummaryResponse 学分汇总
type CreditSummaryResponse struct {
	TotalCredits int `json:"total_credits"`
	MinCredits   int `json:"min_credits"`
	MaxCredits   int `json:"max_credits"`
	CourseCount  int `json:"course_count"`
}

// BulkDeleteResponse 批量删除响应
type BulkDeleteResponse struct {
	Deleted int64 `json:"deleted"`
}

// ── 导出 ──

// ExportRegistrationsRequest 导出当前登记
type ExportRegistrationsRequest struct {
	Format string `form:"format" binding:"omitempty,oneof=xlsx ics"`
	// StartDate ICS 第一周的任意一天（YYYY-MM-DD），为空时取下周一
	StartDate string `form:"start_date" binding:"omitempty,datetime=2006-01-02"`
	Weeks     int    `form:"weeks" binding:"omitempty,min=1,max=52"`
}
