package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/hanapark/hanapark/internal/payment/domain"
)

type initiatePaymentRequest struct {
	BookingID   string `json:"booking_id" binding:"required"`
	RequesterID string `json:"requester_id" binding:"required"`
}

func (s *Server) HandleInitiatePayment(c *gin.Context) {
	var req initiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	payment, err := s.paymentSvc.Initiate(c.Request.Context(), req.BookingID, req.RequesterID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

func (s *Server) HandleGetPayment(c *gin.Context) {
	payment, err := s.paymentSvc.GetByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if payment == nil {
		AbortWithError(c, paymentdomain.ErrPaymentNotFound)
		return
	}
	c.JSON(http.StatusOK, payment)
}

type pollPaymentRequest struct {
	MaxAttempts int `json:"max_attempts"`
}

func (s *Server) HandlePollPayment(c *gin.Context) {
	var req pollPaymentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
	}

	status, err := s.paymentSvc.PollUntilTerminal(c.Request.Context(), c.Param("reference"), req.MaxAttempts)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}
