package slots

import (
	"errors"
	"testing"
	"time"
)

func TestDeriveEndTime(t *testing.T) {
	date := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		start    string
		duration int
		expected time.Time
	}{
		{
			name:     "same day",
			start:    "15:00",
			duration: 2,
			expected: time.Date(2025, 3, 7, 17, 0, 0, 0, time.UTC),
		},
		{
			name:     "rolls over midnight",
			start:    "23:30",
			duration: 2,
			expected: time.Date(2025, 3, 8, 1, 30, 0, 0, time.UTC),
		},
		{
			name:     "single hour",
			start:    "10:30",
			duration: 1,
			expected: time.Date(2025, 3, 7, 11, 30, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			end, err := DeriveEndTime(date, tt.start, tt.duration)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !end.Equal(tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, end)
			}
		})
	}
}

func TestDeriveEndTimeErrors(t *testing.T) {
	date := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		date     time.Time
		start    string
		duration int
		sentinel error
	}{
		{"zero date", time.Time{}, "15:00", 2, ErrNoStartTime},
		{"empty start", date, "", 2, ErrNoStartTime},
		{"zero duration", date, "15:00", 0, ErrInvalidDuration},
		{"negative duration", date, "15:00", -1, ErrInvalidDuration},
		{"excessive duration", date, "15:00", 13, ErrInvalidDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			end, err := DeriveEndTime(tt.date, tt.start, tt.duration)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("expected %v, got %v", tt.sentinel, err)
			}
			if !end.IsZero() {
				t.Error("failed derivation must yield zero time")
			}
		})
	}

	// Malformed clock strings fail parsing, not silently.
	for _, bad := range []string{"25:00", "aa:bb", "15", "15:60"} {
		if _, err := DeriveEndTime(date, bad, 2); err == nil {
			t.Errorf("expected parse error for %q", bad)
		}
	}
}
