package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	spotdomain "github.com/hanapark/hanapark/internal/spot/domain"
)

type registerSpotRequest struct {
	OwnerID      string `json:"owner_id" binding:"required"`
	Name         string `json:"name" binding:"required"`
	Address      string `json:"address"`
	PricePerHour int64  `json:"price_per_hour" binding:"required"`
	Currency     string `json:"currency"`
}

func (s *Server) HandleRegisterSpot(c *gin.Context) {
	var req registerSpotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	spot, err := s.spotSvc.Register(c.Request.Context(), spotdomain.RegisterSpotRequest{
		OwnerID:      req.OwnerID,
		Name:         req.Name,
		Address:      req.Address,
		PricePerHour: req.PricePerHour,
		Currency:     req.Currency,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, spot)
}

func (s *Server) HandleGetSpot(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || id == 0 {
		AbortWithError(c, spotdomain.ErrInvalidSpot)
		return
	}

	spot, err := s.spotSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if spot == nil {
		AbortWithError(c, spotdomain.ErrSpotNotFound)
		return
	}
	c.JSON(http.StatusOK, spot)
}

func (s *Server) HandleApproveSpot(c *gin.Context) {
	if err := s.spotSvc.Approve(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "approved"})
}
