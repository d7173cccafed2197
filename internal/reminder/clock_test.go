package reminder

import (
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		hour    int
		minute  int
		wantErr bool
	}{
		{"9:00 AM", 9, 0, false},
		{"9:30 pm", 21, 30, false},
		{"12:00 AM", 0, 0, false},
		{"12:15 PM", 12, 15, false},
		{" 11:59 PM ", 23, 59, false},
		{"13:00 PM", 0, 0, true},
		{"9:60 AM", 0, 0, true},
		{"0:30 AM", 0, 0, true},
		{"nine am", 0, 0, true},
		{"", 0, 0, true},
	}
	for _, tt := range tests {
		hour, minute, err := ParseClock(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseClock(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseClock(%q) error = %v", tt.in, err)
		}
		if hour != tt.hour || minute != tt.minute {
			t.Fatalf("ParseClock(%q) = (%d, %d), want (%d, %d)", tt.in, hour, minute, tt.hour, tt.minute)
		}
	}
}

func TestAtPlacesClockOnRefDay(t *testing.T) {
	ref := time.Date(2026, 8, 24, 15, 30, 0, 0, time.UTC)
	got, err := At(ref, "9:00 AM")
	if err != nil {
		t.Fatalf("At() error = %v", err)
	}
	want := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("At() = %v, want %v", got, want)
	}

	if _, err := At(ref, "bogus"); err == nil {
		t.Fatalf("At() expected error for invalid clock")
	}
}
