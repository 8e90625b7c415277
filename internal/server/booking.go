package server

import (
	"net/http"

	bookingdomain "github.com/futautah-hue/balo-website/internal/booking/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) CompleteBooking(c *gin.Context) {
	resp, err := s.bookingSvc.Confirm(c.Request.Context(), bookingdomain.ConfirmRequest{
		Kind:      c.Param("kind"),
		BookingID: c.Param("id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
