package domain

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTotalPriceFor(t *testing.T) {
	base := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	t.Run("whole hour", func(t *testing.T) {
		price := TotalPriceFor(10000, base, base.Add(time.Hour))
		assert.Equal(t, int64(10000), price)
	})

	t.Run("ninety minutes", func(t *testing.T) {
		price := TotalPriceFor(10000, base, base.Add(90*time.Minute))
		assert.Equal(t, int64(15000), price)
	})

	t.Run("rounds up to next centavo", func(t *testing.T) {
		price := TotalPriceFor(10000, base, base.Add(time.Hour+time.Second))
		assert.Equal(t, int64(10003), price)
	})

	t.Run("single second", func(t *testing.T) {
		price := TotalPriceFor(3600, base, base.Add(time.Second))
		assert.Equal(t, int64(1), price)
	})

	t.Run("empty interval", func(t *testing.T) {
		assert.Equal(t, int64(0), TotalPriceFor(10000, base, base))
	})
}

func TestOverlaps(t *testing.T) {
	base := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	at := func(h int) time.Time { return base.Add(time.Duration(h) * time.Hour) }

	assert.True(t, Overlaps(at(0), at(2), at(1), at(3)))
	assert.True(t, Overlaps(at(1), at(3), at(0), at(2)))
	assert.True(t, Overlaps(at(0), at(4), at(1), at(2)))

	// Half-open: touching endpoints never overlap.
	assert.False(t, Overlaps(at(0), at(1), at(1), at(2)))
	assert.False(t, Overlaps(at(1), at(2), at(0), at(1)))
	assert.False(t, Overlaps(at(0), at(1), at(2), at(3)))
}

func TestOverlapsSymmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 500; i++ {
		s1 := base.Add(time.Duration(rng.Intn(240)) * time.Minute)
		e1 := s1.Add(time.Duration(1+rng.Intn(120)) * time.Minute)
		s2 := base.Add(time.Duration(rng.Intn(240)) * time.Minute)
		e2 := s2.Add(time.Duration(1+rng.Intn(120)) * time.Minute)

		assert.Equal(t, Overlaps(s1, e1, s2, e2), Overlaps(s2, e2, s1, e1))
	}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(BookingStatusPending, BookingStatusConfirmed))
	assert.True(t, CanTransition(BookingStatusPending, BookingStatusCancelled))
	assert.True(t, CanTransition(BookingStatusConfirmed, BookingStatusCancelled))
	assert.True(t, CanTransition(BookingStatusConfirmed, BookingStatusCompleted))

	assert.False(t, CanTransition(BookingStatusPending, BookingStatusCompleted))
	assert.False(t, CanTransition(BookingStatusCancelled, BookingStatusConfirmed))
	assert.False(t, CanTransition(BookingStatusCompleted, BookingStatusCancelled))
	assert.False(t, CanTransition(BookingStatusConfirmed, BookingStatusPending))
}
