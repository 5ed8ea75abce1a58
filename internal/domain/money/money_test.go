package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRound_HalfAwayFromZero(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"187.5", "187.5"},
		{"187.505", "187.51"},
		{"187.504", "187.5"},
		{"0.005", "0.01"},
		{"-0.005", "-0.01"},
		{"2500", "2500"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Round(decimal.RequireFromString(tt.in))
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got),
				"Round(%s) = %s, want %s", tt.in, got, tt.want)
		})
	}
}

func TestPercent(t *testing.T) {
	// 7.5% of 2500 is exactly 187.5; no intermediate rounding.
	got := Percent(decimal.NewFromInt(2500), decimal.RequireFromString("7.5"))
	assert.True(t, decimal.RequireFromString("187.5").Equal(got))

	// Repeated application does not drift.
	for i := 0; i < 100; i++ {
		again := Percent(decimal.NewFromInt(2500), decimal.RequireFromString("7.5"))
		assert.True(t, got.Equal(again))
	}
}

func TestFloorAtZero(t *testing.T) {
	assert.True(t, decimal.Zero.Equal(FloorAtZero(decimal.NewFromInt(-5))))
	assert.True(t, decimal.NewFromInt(5).Equal(FloorAtZero(decimal.NewFromInt(5))))
}

func TestRoundRating(t *testing.T) {
	// 11/3 = 3.666... rounds to 3.7 at one decimal place.
	avg := decimal.NewFromInt(11).Div(decimal.NewFromInt(3))
	assert.Equal(t, "3.7", RoundRating(avg).String())
}
