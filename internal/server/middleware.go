package server

import (
	"strings"

	"github.com/futautah-hue/balo-website/internal/usercontext"
	"github.com/gin-gonic/gin"
)

const userIDHeader = "X-User-ID"

// RequireUser installs the caller identity from the gateway-provided header
// into the request context. Requests without one are rejected.
func (s *Server) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(userIDHeader))
		if userID == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := usercontext.WithUserID(c.Request.Context(), userID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
