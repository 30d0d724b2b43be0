package service

import (
	"context"
	"errors"
	"time"

	"github.com/hanapark/hanapark/internal/payment/domain"
	"go.uber.org/zap"
)

// PollUntilTerminal asks the gateway for the payment status until it reaches a
// terminal state or attempts run out. PENDING responses back off exponentially
// capped by config; transient gateway failures retry on a fixed short delay
// without advancing the backoff. Both count toward maxAttempts. Exhaustion returns ErrPollTimeout and leaves
// the payment untouched.
func (s *Service) PollUntilTerminal(ctx context.Context, referenceNo string, maxAttempts int) (domain.PaymentStatus, error) {
	cfg := s.holder.Get()
	if maxAttempts <= 0 {
		maxAttempts = cfg.PollMaxAttempts
	}
	backoffCap := time.Duration(cfg.PollBackoffCapSeconds) * time.Second
	transientRetry := time.Duration(cfg.TransientRetrySeconds) * time.Second

	payment, err := s.GetByReference(ctx, referenceNo)
	if err != nil {
		return "", err
	}
	if payment == nil {
		return "", domain.ErrPaymentNotFound
	}
	if payment.Status.Terminal() {
		return payment.Status, nil
	}
	if payment.ExternalID == nil || *payment.ExternalID == "" {
		return "", domain.ErrInvalidReference
	}
	externalID := *payment.ExternalID

	log := s.log.With(
		zap.String("reference_no", referenceNo),
		zap.String("external_id", externalID),
	)

	// Transient failures retry on the fixed delay without touching the
	// exponent, so the schedule resumes where the last PENDING left it.
	var delay time.Duration
	var exponent int
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if err := s.sleeper.Sleep(ctx, delay); err != nil {
				return "", err
			}
		}

		charge, err := s.gateway.GetCharge(ctx, externalID)
		if err != nil {
			if errors.Is(err, domain.ErrGatewayUnavailable) {
				s.metrics.RecordPollAttempt("transient_error")
				log.Warn("gateway unavailable, retrying", zap.Int("attempt", attempt+1), zap.Error(err))
				delay = transientRetry
				continue
			}
			return "", err
		}

		status, ok := domain.MapGatewayStatus(charge.Status)
		if !ok {
			s.metrics.RecordPollAttempt("unknown_status")
			log.Warn("unrecognized gateway status, treating as pending",
				zap.Int("attempt", attempt+1),
				zap.String("raw_status", charge.Status),
			)
			delay = pollBackoff(exponent, backoffCap)
			exponent++
			continue
		}

		if status == domain.PaymentStatusPending {
			s.metrics.RecordPollAttempt("pending")
			delay = pollBackoff(exponent, backoffCap)
			exponent++
			continue
		}

		s.metrics.RecordPollAttempt(string(status))
		if _, err := s.Reconcile(ctx, domain.ReconcileInput{
			Source:      domain.SourcePoll,
			ReferenceNo: referenceNo,
			ExternalID:  externalID,
			Status:      status,
		}); err != nil {
			return "", err
		}
		return status, nil
	}

	log.Warn("poll attempts exhausted", zap.Int("max_attempts", maxAttempts))
	return "", domain.ErrPollTimeout
}

// pollBackoff grows min(2^exponent, max) seconds: 1s, 2s, 4s, ... capped.
func pollBackoff(exponent int, max time.Duration) time.Duration {
	if exponent >= 31 {
		return max
	}
	d := time.Duration(1<<uint(exponent)) * time.Second
	if d > max {
		return max
	}
	return d
}
