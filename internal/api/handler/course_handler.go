package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"timetable-planner/backend/internal/dto"
	"timetable-planner/backend/internal/service"
	"timetable-planner/backend/pkg/response"
)

// CourseHandler 课程目录 HTTP 处理器
type CourseHandler struct {
	courseSvc service.CourseService
}

// NewCourseHandler 创建 CourseHandler
func NewCourseHandler(courseSvc service.CourseService) *CourseHandler {
	return &CourseHandler{courseSvc: courseSvc}
}

// Search 按代码或名称检索课程
// GET /api/v1/courses?q=
func (h *CourseHandler) Search(c *gin.Context) {
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}
	var q dto.CourseSearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 24001, "参数校验失败", err.Error())
		return
	}

	list, err := h.courseSvc.Search(c.Request.Context(), ownerID, q.Q)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}
	response.OKList(c, list)
}

// Get 课程详情
// GET /api/v1/courses/:id
func (h *CourseHandler) Get(c *gin.Context) {
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}
	id, ok := mustUUIDParam(c, "id", 24001)
	if !ok {
		return
	}

	result, err := h.courseSvc.Get(c.Request.Context(), ownerID, id)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}
	response.OK(c, result)
}

// Slots 课程的全部开课时段
// GET /api/v1/courses/:id/slots
func (h *CourseHandler) Slots(c *gin.Context) {
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}
	id, ok := mustUUIDParam(c, "id", 24001)
	if !ok {
		return
	}

	result, err := h.courseSvc.Slots(c.Request.Context(), ownerID, id)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}
	response.OK(c, result)
}

func (h *CourseHandler) handleCourseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 24201, "课程不存在")
	default:
		response.InternalError(c)
	}
}
