package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hanapark/hanapark/internal/payment/webhook"
	"go.uber.org/zap"
)

// HandlePaymentWebhook acknowledges everything the ingester handled, even
// no-ops and unmatched events; only undecodable bodies get a 400 and only
// storage failures get a retryable 500.
func (s *Server) HandlePaymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.webhookSvc.Ingest(c.Request.Context(), payload); err != nil {
		if errors.Is(err, webhook.ErrMalformedPayload) {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		s.log.Error("webhook ingestion failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"status": "retry"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
