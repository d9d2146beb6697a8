package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSearchRange(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		wait time.Duration
		want int
	}{
		{"just joined", 0, 100},
		{"under first step", 29 * time.Second, 100},
		{"first step boundary", 30 * time.Second, 150},
		{"65 seconds widens twice", 65 * time.Second, 200},
		{"five minutes", 5 * time.Minute, 600},
		{"clock skew never shrinks below base", -3 * time.Second, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SearchRange(now.Add(-tt.wait), now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearchRangeGrowsInDiscreteSteps(t *testing.T) {
	now := time.Now()
	prev := SearchRange(now, now)
	for wait := time.Second; wait <= 3*time.Minute; wait += time.Second {
		got := SearchRange(now.Add(-wait), now)
		assert.GreaterOrEqual(t, got, prev, "range must never shrink while waiting")
		assert.Contains(t, []int{0, RangeStep}, got-prev, "range grows only in whole steps")
		prev = got
	}
}
