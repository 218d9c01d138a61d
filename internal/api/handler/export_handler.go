package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"timetable-planner/backend/internal/dto"
	"timetable-planner/backend/internal/service"
	"timetable-planner/backend/pkg/response"
)

var exportContentTypes = map[string]string{
	service.ExportFormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	service.ExportFormatICS:  "text/calendar; charset=utf-8",
}

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportRegistrations 导出当前登记
// GET /api/v1/export/registrations?format=xlsx|ics&start_date=2026-01-05&weeks=16
func (h *ExportHandler) ExportRegistrations(c *gin.Context) {
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}
	var req dto.ExportRegistrationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 23001, "参数校验失败", err.Error())
		return
	}
	if req.Format == "" {
		req.Format = service.ExportFormatXLSX
	}

	buf, filename, err := h.exportSvc.ExportRegistrations(c.Request.Context(), ownerID, &req)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	contentType := exportContentTypes[req.Format]
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoRegistrations):
		response.NotFound(c, 23101, "当前没有任何登记")
	case errors.Is(err, service.ErrExportInvalidDate):
		response.BadRequest(c, 23002, "start_date 格式无效")
	default:
		response.InternalError(c)
	}
}
