package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"timetable-planner/backend/internal/dto"
	"timetable-planner/backend/internal/service"
	"timetable-planner/backend/pkg/response"
)

// GenerateHandler 方案生成模块 HTTP 处理器
type GenerateHandler struct {
	generateSvc service.GenerateService
}

// NewGenerateHandler 创建 GenerateHandler
func NewGenerateHandler(generateSvc service.GenerateService) *GenerateHandler {
	return &GenerateHandler{generateSvc: generateSvc}
}

// Courses 可参与生成的课程
// GET /api/v1/generate/courses
func (h *GenerateHandler) Courses(c *gin.Context) {
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}

	list, err := h.generateSvc.Courses(c.Request.Context(), ownerID)
	if err != nil {
		h.handleGenerateError(c, err)
		return
	}
	response.OKList(c, list)
}

// Suggest 首屏推荐
// POST /api/v1/generate/suggest
func (h *GenerateHandler) Suggest(c *gin.Context) {
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}
	var req dto.SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 20001, "参数校验失败", err.Error())
		return
	}

	result, err := h.generateSvc.Suggest(c.Request.Context(), ownerID, &req)
	if err != nil {
		h.handleGenerateError(c, err)
		return
	}
	response.OK(c, result)
}

// More 加载更多
// POST /api/v1/generate/more
func (h *GenerateHandler) More(c *gin.Context) {
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}
	var req dto.MoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 20001, "参数校验失败", err.Error())
		return
	}

	result, err := h.generateSvc.More(c.Request.Context(), ownerID, &req)
	if err != nil {
		h.handleGenerateError(c, err)
		return
	}
	response.OK(c, result)
}

// Similar 相似方案
// POST /api/v1/generate/similar
func (h *GenerateHandler) Similar(c *gin.Context) {
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}
	var req dto.SimilarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 20001, "参数校验失败", err.Error())
		return
	}

	result, err := h.generateSvc.Similar(c.Request.Context(), ownerID, &req)
	if err != nil {
		h.handleGenerateError(c, err)
		return
	}
	response.OK(c, result)
}

// Count 方案计数
// POST /api/v1/generate/count
func (h *GenerateHandler) Count(c *gin.Context) {
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}
	var req dto.CountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 20001, "参数校验失败", err.Error())
		return
	}

	result, err := h.generateSvc.Count(c.Request.Context(), ownerID, &req)
	if err != nil {
		h.handleGenerateError(c, err)
		return
	}
	response.OK(c, result)
}

// Random 随机方案（可复现种子）
// POST /api/v1/generate/random
func (h *GenerateHandler) Random(c *gin.Context) {
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}
	var req dto.RandomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 20001, "参数校验失败", err.Error())
		return
	}

	result, err := h.generateSvc.Random(c.Request.Context(), ownerID, &req)
	if err != nil {
		h.handleGenerateError(c, err)
		return
	}
	response.OK(c, result)
}

func (h *GenerateHandler) handleGenerateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dto.ErrInvalidPreferences):
		response.ErrorWithDetails(c, http.StatusBadRequest, 20002, "偏好参数无效", err.Error())
	case errors.Is(err, service.ErrUnknownCourse):
		response.ErrorWithDetails(c, http.StatusBadRequest, 20003, "课程不存在", err.Error())
	case errors.Is(err, service.ErrInvalidReference):
		response.ErrorWithDetails(c, http.StatusBadRequest, 20004, "参考方案无效", err.Error())
	default:
		response.InternalError(c)
	}
}
