package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	bookingdomain "github.com/hanapark/hanapark/internal/booking/domain"
)

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, strings.TrimSpace(value))
}

type createBookingRequest struct {
	SpotID      string `json:"spot_id" binding:"required"`
	RequesterID string `json:"requester_id" binding:"required"`
	StartTime   string `json:"start_time" binding:"required"`
	EndTime     string `json:"end_time" binding:"required"`
}

func (s *Server) HandleCreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	start, err := parseTime(req.StartTime)
	if err != nil {
		AbortWithError(c, bookingdomain.ErrInvalidInterval)
		return
	}
	end, err := parseTime(req.EndTime)
	if err != nil {
		AbortWithError(c, bookingdomain.ErrInvalidInterval)
		return
	}

	booking, err := s.bookingSvc.Create(c.Request.Context(), bookingdomain.CreateBookingRequest{
		SpotID:      req.SpotID,
		RequesterID: req.RequesterID,
		StartTime:   start,
		EndTime:     end,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

func (s *Server) HandleGetBooking(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || id == 0 {
		AbortWithError(c, bookingdomain.ErrInvalidBooking)
		return
	}

	booking, err := s.bookingSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if booking == nil {
		AbortWithError(c, bookingdomain.ErrBookingNotFound)
		return
	}
	c.JSON(http.StatusOK, booking)
}

type cancelBookingRequest struct {
	RequesterID string `json:"requester_id" binding:"required"`
}

func (s *Server) HandleCancelBooking(c *gin.Context) {
	var req cancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.bookingSvc.Cancel(c.Request.Context(), c.Param("id"), req.RequesterID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}
