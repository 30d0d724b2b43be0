package domain

import "strings"

// MapGatewayStatus normalizes the gateway's status vocabulary onto ours. The
// second return is false for statuses we do not recognize; callers log and
// drop those instead of failing the request.
func MapGatewayStatus(raw string) (PaymentStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "paid", "succeeded", "payment.paid", "payment_paid":
		return PaymentStatusSucceeded, true
	case "failed", "payment.failed", "payment_failed", "expired":
		return PaymentStatusFailed, true
	case "cancelled", "canceled", "voided", "payment.cancelled":
		return PaymentStatusCancelled, true
	case "pending", "processing", "awaiting_payment_method", "awaiting_next_action":
		return PaymentStatusPending, true
	}
	return "", false
}
