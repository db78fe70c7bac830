package middleware

import (
	"strings"

	"later-go/pkg/log"
	"later-go/pkg/token"

	"github.com/gin-gonic/gin"
)

// UserIDKey 是存放在 Gin 上下文里的用户 ID 键。
const UserIDKey = "userID"

// Identity 创建一个 Gin 中间件，从请求里解析用户身份。
// 令牌由外部认证服务签发，这里只做校验；没有令牌时退回 X-User-Id 头。
// 身份是可选的：解析不出用户时请求照常放行，由需要身份的接口自行拒绝。
func Identity(jwtManager *token.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		const bearerPrefix = "Bearer "
		if strings.HasPrefix(authHeader, bearerPrefix) {
			tokenString := strings.TrimPrefix(authHeader, bearerPrefix)
			claims, err := jwtManager.VerifyToken(tokenString)
			if err == nil && claims.UserID != "" {
				c.Set(UserIDKey, claims.UserID)
				c.Next()
				return
			}
			log.Warnf("身份令牌校验失败: %v", err)
		}

		// 内部调用方直接带用户 ID 头
		if userID := c.GetHeader("X-User-Id"); userID != "" {
			c.Set(UserIDKey, userID)
		}
		c.Next()
	}
}

// UserID 从 Gin 上下文中取出用户 ID，没有身份时返回空串。
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
