package clock

import (
	"math"
	"testing"
	"time"
)

func TestElapsed(t *testing.T) {
	tests := []struct {
		name     string
		now      Ticks
		since    Ticks
		interval time.Duration
		want     bool
	}{
		{
			name:     "exactly elapsed",
			now:      5000,
			since:    0,
			interval: 5 * time.Second,
			want:     true,
		},
		{
			name:     "one tick short",
			now:      4999,
			since:    0,
			interval: 5 * time.Second,
			want:     false,
		},
		{
			name:     "zero interval is always elapsed",
			now:      42,
			since:    42,
			interval: 0,
			want:     true,
		},
		{
			name:     "negative interval clamps to zero",
			now:      42,
			since:    42,
			interval: -time.Second,
			want:     true,
		},
		{
			name:     "wrapped counter with elapsed interval",
			now:      900, // counter wrapped; 1000 ticks really passed
			since:    math.MaxUint32 - 99,
			interval: time.Second,
			want:     true,
		},
		{
			name:     "now before since triggers fail-safe",
			now:      100,
			since:    math.MaxUint32 - 99,
			interval: time.Hour,
			want:     true,
		},
		{
			name:     "interval longer than counter period saturates",
			now:      1000,
			since:    0,
			interval: 60 * 24 * time.Hour,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := elapsed(tt.now, tt.since, tt.interval); got != tt.want {
				t.Errorf("elapsed(%d, %d, %v) = %v, want %v",
					tt.now, tt.since, tt.interval, got, tt.want)
			}
		})
	}
}

func TestFakeAdvanceWraps(t *testing.T) {
	f := &Fake{Ticks: math.MaxUint32 - 499}
	f.Advance(time.Second)

	if got := f.Now(); got != 500 {
		t.Errorf("Now() after wrap = %d, want 500", got)
	}
}

func TestElapsedWithClock(t *testing.T) {
	f := &Fake{}
	start := f.Now()

	f.Advance(30 * time.Second)
	if !Elapsed(f, start, 30*time.Second) {
		t.Error("Elapsed() = false after advancing the full interval")
	}
	if Elapsed(f, start, 31*time.Second) {
		t.Error("Elapsed() = true before the interval passed")
	}
}

func TestMonotonicStartsNearZero(t *testing.T) {
	m := NewMonotonic()
	if got := m.Now(); got > 1000 {
		t.Errorf("fresh Monotonic Now() = %d, want near zero", got)
	}
}
