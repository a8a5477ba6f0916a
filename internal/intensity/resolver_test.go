package intensity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoundHalfHour(t *testing.T) {
	day := func(h, m, s int) time.Time {
		return time.Date(2024, 3, 4, h, m, s, 0, time.UTC)
	}

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{name: "on the hour stays", in: day(9, 0, 0), want: day(9, 0, 0)},
		{name: "on the half hour stays", in: day(9, 30, 0), want: day(9, 30, 0)},
		{name: "minute 29 rounds back to the hour", in: day(9, 29, 59), want: day(9, 0, 0)},
		{name: "minute 15 rounds back to the hour", in: day(9, 15, 0), want: day(9, 0, 0)},
		{name: "minute 31 rounds forward to the next hour", in: day(9, 31, 0), want: day(10, 0, 0)},
		{name: "minute 45 rounds forward to the next hour", in: day(9, 45, 30), want: day(10, 0, 0)},
		{name: "minute 59 rounds forward to the next hour", in: day(9, 59, 59), want: day(10, 0, 0)},
		{name: "seconds dropped on the half hour", in: day(9, 30, 45), want: day(9, 30, 0)},
		{name: "late evening rolls into the next day", in: day(23, 45, 0), want: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundHalfHour(tt.in)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
			assert.Zero(t, got.Second())
			assert.Contains(t, []int{0, 30}, got.Minute())
		})
	}
}
