package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"timetable-planner/backend/pkg/response"
)

// OwnerHeader 标识数据归属的请求头
const OwnerHeader = "X-Owner-ID"

const ownerIDKey = "owner_id"

// OwnerScope 数据归属中间件
// 从 X-Owner-ID 读取 owner 并校验为 UUID，注入上下文后所有查询按 owner 限定
func OwnerScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(OwnerHeader)
		if raw == "" {
			response.BadRequest(c, 10002, "缺少 X-Owner-ID 请求头")
			c.Abort()
			return
		}

		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, 10002, "X-Owner-ID 不是合法的 UUID")
			c.Abort()
			return
		}

		c.Set(ownerIDKey, id.String())
		c.Next()
	}
}
