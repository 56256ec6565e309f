package tenant

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/DominikK03/GiftCardSystem-sub001/pkg/logger"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/response"
)

// GinMiddleware 解析 Bearer JWT，取出租户声明并写入请求 context。
// 没有合法租户的请求一律拒绝，后续处理器可以假定租户已经设置。
func GinMiddleware(jwtSecret string, tenantClaim string) gin.HandlerFunc {
	if tenantClaim == "" {
		tenantClaim = "tenant_id"
	}

	return func(c *gin.Context) {
		tokenString, err := bearerToken(c)
		if err != nil {
			response.ErrorWithStatus(c, http.StatusUnauthorized, err)
			c.Abort()
			return
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid {
			logger.Warn(c.Request.Context(), "invalid token", "error", err)
			response.ErrorWithStatus(c, http.StatusUnauthorized, errors.New("invalid token"))
			c.Abort()
			return
		}

		raw, ok := claims[tenantClaim].(string)
		if !ok || raw == "" {
			response.ErrorWithStatus(c, http.StatusForbidden, ErrTenantContextNotSet)
			c.Abort()
			return
		}

		id, err := NewID(raw)
		if err != nil {
			response.ErrorWithStatus(c, http.StatusForbidden, err)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(WithTenant(c.Request.Context(), id))
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("malformed authorization header")
	}
	return parts[1], nil
}
