package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"timetable-planner/backend/pkg/response"
)

// MustGetOwnerID 从 Gin 上下文中安全提取 owner_id。
// 如果 OwnerScope 中间件未注入 owner_id，返回 false 并写入 400 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetOwnerID(c *gin.Context) (string, bool) {
	v, exists := c.Get("owner_id")
	if !exists {
		response.BadRequest(c, 10002, "缺少 X-Owner-ID 请求头")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.BadRequest(c, 10002, "缺少 X-Owner-ID 请求头")
		return "", false
	}
	return s, true
}

// mustUUIDParam 读取路径参数并校验为 UUID
func mustUUIDParam(c *gin.Context, name string, code int) (string, bool) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		response.BadRequest(c, code, name+" 不是合法的 UUID")
		return "", false
	}
	return id.String(), true
}
