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

// SavedTimetableHandler 保存方案模块 HTTP 处理器
type SavedTimetableHandler struct {
	savedSvc service.SavedTimetableService
}

// NewSavedTimetableHandler 创建 SavedTimetableHandler
func NewSavedTimetableHandler(savedSvc service.SavedTimetableService) *SavedTimetableHandler {
	return &SavedTimetableHandler{savedSvc: savedSvc}
}

// Save 保存方案
// POST /api/v1/saved-timetables
func (h *SavedTimetableHandler) Save(c *gin.Context) {
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}
	var req dto.SaveTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 22001, "参数校验失败", err.Error())
		return
	}

	result, err := h.savedSvc.Save(c.Request.Context(), ownerID, &req)
	if err != nil {
		h.handleSavedError(c, err)
		return
	}
	response.Created(c, result)
}

// List 保存的方案列表
// GET /api/v1/saved-timetables
func (h *SavedTimetableHandler) List(c *gin.Context) {
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}

	list, err := h.savedSvc.List(c.Request.Context(), ownerID)
	if err != nil {
		h.handleSavedError(c, err)
		return
	}
	response.OKList(c, list)
}

// Get 方案详情
// GET /api/v1/saved-timetables/:id
func (h *SavedTimetableHandler) Get(c *gin.Context) {
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}
	id, ok := mustUUIDParam(c, "id", 22001)
	if !ok {
		return
	}

	result, err := h.savedSvc.Get(c.Request.Context(), ownerID, id)
	if err != nil {
		h.handleSavedError(c, err)
		return
	}
	response.OK(c, result)
}

// Delete 删除方案
// DELETE /api/v1/saved-timetables/:id
func (h *SavedTimetableHandler) Delete(c *gin.Context) {
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}
	id, ok := mustUUIDParam(c, "id", 22001)
	if !ok {
		return
	}

	if err := h.savedSvc.Delete(c.Request.Context(), ownerID, id); err != nil {
		h.handleSavedError(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *SavedTimetableHandler) handleSavedError(c *gin.Context, err error) {
	var unavailable *pkgerrors.SlotUnavailableError

	switch {
	case errors.As(err, &unavailable):
		response.ErrorWithData(c, http.StatusConflict, 22101, "部分时段已不可用", unavailable.Slots)
	case errors.Is(err, service.ErrSavedTimetableNotFound):
		response.NotFound(c, 22201, "保存的方案不存在")
	default:
		response.InternalError(c)
	}
}
