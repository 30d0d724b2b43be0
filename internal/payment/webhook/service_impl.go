// Package webhook ingests gateway callbacks. Everything decodable is
// acknowledged; only malformed JSON bubbles up as an error so the gateway
// retries it.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hanapark/hanapark/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ErrMalformedPayload marks bodies that could not be decoded at all; the
// delivery layer answers those with 400 instead of acknowledging.
var ErrMalformedPayload = errors.New("malformed_webhook_payload")

type gatewayEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		ExternalID string `json:"external_id"`
		Status     string `json:"status"`
	} `json:"data"`
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Payments domain.Service
}

type Service struct {
	log      *zap.Logger
	payments domain.Service
}

func NewService(p Params) *Service {
	return &Service{
		log:      p.Log.Named("payment.webhook"),
		payments: p.Payments,
	}
}

// Ingest decodes and reconciles one callback payload.
func (s *Service) Ingest(ctx context.Context, payload []byte) error {
	var event gatewayEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	log := s.log.With(
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
		zap.String("external_id", event.Data.ExternalID),
	)

	if strings.TrimSpace(event.ID) == "" || strings.TrimSpace(event.Data.ExternalID) == "" {
		log.Warn("webhook event missing identifiers, acknowledging without action")
		return nil
	}

	rawStatus := event.Data.Status
	if rawStatus == "" {
		rawStatus = event.Type
	}
	status, ok := domain.MapGatewayStatus(rawStatus)
	if !ok {
		log.Warn("unrecognized webhook status, acknowledging without action",
			zap.String("raw_status", rawStatus),
		)
		return nil
	}

	result, err := s.payments.Reconcile(ctx, domain.ReconcileInput{
		Source:     domain.SourceWebhook,
		EventID:    event.ID,
		EventType:  event.Type,
		ExternalID: event.Data.ExternalID,
		Status:     status,
		RawPayload: payload,
	})
	if err != nil {
		// Storage errors mean the event was not recorded; not acknowledging
		// lets the gateway redeliver it.
		log.Error("webhook reconciliation failed", zap.Error(err))
		return err
	}

	log.Info("webhook event handled", zap.String("outcome", string(result.Outcome)))
	return nil
}
