package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"timetable-planner/backend/internal/dto"
	"timetable-planner/backend/internal/service"
	pkgerrors "timetable-planner/backend/pkg/errors"
	"timetable-planner/backend/pkg/response"
)

// RegistrationHandler 选课登记模块 HTTP 处理器
type RegistrationHandler struct {
	registrationSvc service.RegistrationService
}

// NewRegistrationHandler 创建 RegistrationHandler
func NewRegistrationHandler(registrationSvc service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrationSvc: registrationSvc}
}

// List 当前登记 + 学分汇总
// GET /api/v1/registrations
func (h *RegistrationHandler) List(c *gin.Context) {
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}

	result, err := h.registrationSvc.List(c.Request.Context(), ownerID)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}
	response.OK(c, result)
}

// Credits 学分汇总
// GET /api/v1/registrations/credits
func (h *RegistrationHandler) Credits(c *gin.Context) {
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}

	result, err := h.registrationSvc.Credits(c.Request.Context(), ownerID)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}
	response.OK(c, result)
}

// Register 登记单个 slot
// POST /api/v1/registrations
func (h *RegistrationHandler) Register(c *gin.Context) {
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 21001, "参数校验失败", err.Error())
		return
	}

	result, err := h.registrationSvc.Register(c.Request.Context(), ownerID, &req)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}
	response.Created(c, result)
}

// Update 更换登记的 slot
// PUT /api/v1/registrations/:id
func (h *RegistrationHandler) Update(c *gin.Context) {
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}
	id, ok := mustUUIDParam(c, "id", 21001)
	if !ok {
		return
	}
	var req dto.UpdateRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 21001, "参数校验失败", err.Error())
		return
	}

	result, err := h.registrationSvc.Update(c.Request.Context(), ownerID, id, &req)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}
	response.OK(c, result)
}

// Delete 删除登记
// DELETE /api/v1/registrations/:id
func (h *RegistrationHandler) Delete(c *gin.Context) {
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}
	id, ok := mustUUIDParam(c, "id", 21001)
	if !ok {
		return
	}

	if err := h.registrationSvc.Delete(c.Request.Context(), ownerID, id); err != nil {
		h.handleRegistrationError(c, err)
		return
	}
	response.OK(c, nil)
}

// BulkDelete 批量删除登记
// POST /api/v1/registrations/bulk-delete
func (h *RegistrationHandler) BulkDelete(c *gin.Context) {
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}
	var req dto.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 21001, "参数校验失败", err.Error())
		return
	}

	result, err := h.registrationSvc.BulkDelete(c.Request.Context(), ownerID, &req)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}
	response.OK(c, result)
}

// CheckClash 单个 slot 冲突检测
// POST /api/v1/registrations/check-clash
func (h *RegistrationHandler) CheckClash(c *gin.Context) {
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}
	var req dto.CheckClashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 21001, "参数校验失败", err.Error())
		return
	}

	result, err := h.registrationSvc.CheckClash(c.Request.Context(), ownerID, &req)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}
	response.OK(c, result)
}

// CheckClashBatch 批量冲突检测
// POST /api/v1/registrations/check-clash-batch
func (h *RegistrationHandler) CheckClashBatch(c *gin.Context) {
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}
	var req dto.CheckClashBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 21001, "参数校验失败", err.Error())
		return
	}

	result, err := h.registrationSvc.CheckClashBatch(c.Request.Context(), ownerID, &req)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}
	response.OK(c, result)
}

// Apply 以方案全量替换当前登记
// POST /api/v1/registrations/apply
func (h *RegistrationHandler) Apply(c *gin.Context) {
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}
	var req dto.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 21001, "参数校验失败", err.Error())
		return
	}

	result, err := h.registrationSvc.Apply(c.Request.Context(), ownerID, &req)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}
	response.OK(c, result)
}

func (h *RegistrationHandler) handleRegistrationError(c *gin.Context, err error) {
	var clashErr *service.ClashError
	var unavailable *pkgerrors.SlotUnavailableError

	switch {
	case errors.As(err, &clashErr):
		response.ErrorWithData(c, http.StatusConflict, 21101, "与已登记课程时间冲突", clashErr.Result)
	case errors.As(err, &unavailable):
		response.ErrorWithData(c, http.StatusConflict, 21102, "部分时段已不可用", unavailable.Slots)
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 21103, "登记已被修改，请刷新后重试")
	case errors.Is(err, service.ErrSlotFull):
		response.Conflict(c, 21104, "时段已满")
	case errors.Is(err, service.ErrCourseAlreadyRegistered):
		response.Conflict(c, 21105, "该课程已登记")
	case errors.Is(err, service.ErrRegistrationNotFound):
		response.NotFound(c, 21201, "登记不存在")
	case errors.Is(err, service.ErrSlotNotFound):
		response.ErrorWithDetails(c, http.StatusBadRequest, 21002, "时段不存在", err.Error())
	case errors.Is(err, service.ErrCourseMismatch):
		response.BadRequest(c, 21003, "只能更换为同一课程的其他时段")
	case errors.Is(err, service.ErrDuplicateCourse):
		response.ErrorWithDetails(c, http.StatusBadRequest, 21004, "同一课程只能选择一个时段", err.Error())
	case errors.Is(err, service.ErrPlanClash):
		response.ErrorWithDetails(c, http.StatusBadRequest, 21005, "所选时段之间存在时间冲突", err.Error())
	default:
		response.InternalError(c)
	}
}
