package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapGatewayStatus(t *testing.T) {
	for raw, want := range map[string]PaymentStatus{
		"paid":       PaymentStatusSucceeded,
		"PAID":       PaymentStatusSucceeded,
		"failed":     PaymentStatusFailed,
		"expired":    PaymentStatusFailed,
		"cancelled":  PaymentStatusCancelled,
		"canceled":   PaymentStatusCancelled,
		"pending":    PaymentStatusPending,
		"processing": PaymentStatusPending,
	} {
		got, ok := MapGatewayStatus(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	_, ok := MapGatewayStatus("refunded")
	assert.False(t, ok)
	_, ok = MapGatewayStatus("")
	assert.False(t, ok)
}
