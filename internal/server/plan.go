package server

import (
	"net/http"

	entitlementdomain "github.com/futautah-hue/balo-website/internal/entitlement/domain"
	"github.com/futautah-hue/balo-website/internal/usercontext"
	"github.com/gin-gonic/gin"
)

const defaultActivationDays = 30

func (s *Server) GetPlanStatus(c *gin.Context) {
	userID, ok := usercontext.UserIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	plan := entitlementdomain.NormalizePlan(c.Param("plan"))
	verdict := s.entitlementSvc.Resolve(c.Request.Context(), userID, plan)

	c.JSON(http.StatusOK, verdict)
}

type activatePlanRequest struct {
	Days int `json:"days"`
}

// ActivatePlan extends the caller's plan window. Invoked by billing success
// callbacks through the gateway.
func (s *Server) ActivatePlan(c *gin.Context) {
	userID, ok := usercontext.UserIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req activatePlanRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}
	if req.Days <= 0 {
		req.Days = defaultActivationDays
	}

	plan := entitlementdomain.NormalizePlan(c.Param("plan"))
	if err := s.entitlementSvc.MarkPlanActive(c.Request.Context(), userID, plan, req.Days); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"plan":   plan,
		"days":   req.Days,
	})
}
