package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/colisselect-api/pkg/config"
)

const adminRequestKey = "admin_request"

// AdminMarker flags requests that take the operator creation path. The marker header must be truthy
// and the caller must hold a staff token, unless the config trusts the header on its own.
// It expects OptionalJWT or JWT to run first.
func AdminMarker(cfg config.AdminConfig) gin.HandlerFunc {
	header := cfg.RequestHeader
	if header == "" {
		header = "X-Admin-Request"
	}
	return func(c *gin.Context) {
		marked, _ := strconv.ParseBool(strings.TrimSpace(c.GetHeader(header)))
		if marked {
			if cfg.TrustHeader {
				c.Set(adminRequestKey, true)
			} else if claims, ok := Claims(c); ok && claims.Role.IsStaff() {
				c.Set(adminRequestKey, true)
			}
		}
		c.Next()
	}
}

// IsAdminRequest reports whether AdminMarker flagged the request.
func IsAdminRequest(c *gin.Context) bool {
	return c.GetBool(adminRequestKey)
}
