package api

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
)

const credentialHeader = "X-Jimeng-Credential"

// AuthMiddleware 访问令牌校验。令牌池为空时放行所有请求。
func (h *HTTPHandler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(h.tokens) == 0 {
			c.Next()
			return
		}

		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(401, APIError{
				Code:    ErrCodeUnauthorized,
				Message: "missing bearer token",
			})
			return
		}

		for _, candidate := range h.tokens {
			if subtle.ConstantTimeCompare([]byte(candidate), []byte(token)) == 1 {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(401, APIError{
			Code:    ErrCodeUnauthorized,
			Message: "invalid token",
		})
	}
}

func bearerToken(header string) string {
	trimmed := strings.TrimSpace(header)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(trimmed), "bearer ") {
		return strings.TrimSpace(trimmed[len("bearer "):])
	}
	return trimmed
}
