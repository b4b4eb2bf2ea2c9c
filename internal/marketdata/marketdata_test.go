package marketdata

import (
	"testing"
	"time"
)

func TestParseTimestamp_Formats(t *testing.T) {
	// FIX transact time
	got, err := ParseTimestamp("20240115-14:30:00.123456")
	if err != nil {
		t.Fatalf("FIX format: %v", err)
	}
	want := time.Date(2024, 1, 15, 14, 30, 0, 123456000, time.UTC)
	if !got.Equal(want) {
		t.Errorf("FIX format: expected %v, got %v", want, got)
	}

	// Nanoseconds since epoch (SIP style)
	got, err = ParseTimestamp("1705329000123456789")
	if err != nil {
		t.Fatalf("ns format: %v", err)
	}
	if got.UnixNano() != 1705329000123456789 {
		t.Errorf("ns format: got %v", got)
	}

	// RFC3339
	got, err = ParseTimestamp("2024-01-15T14:30:00Z")
	if err != nil {
		t.Fatalf("RFC3339: %v", err)
	}
	if got.Hour() != 14 || got.Minute() != 30 {
		t.Errorf("RFC3339: got %v", got)
	}

	if _, err := ParseTimestamp("yesterday"); err == nil {
		t.Error("expected error for junk timestamp")
	}
	if _, err := ParseTimestamp(""); err == nil {
		t.Error("expected error for empty timestamp")
	}
}

func TestInMarketHours(t *testing.T) {
	cases := []struct {
		hhmm string
		want bool
	}{
		{"09:29", false},
		{"09:30", true},
		{"09:45", true},
		{"12:00", true},
		{"15:59", true},
		{"16:00", true}, // boundary minute included
		{"16:01", false},
		{"08:00", false},
		{"20:15", false},
	}

	for _, c := range cases {
		ts, err := time.Parse("15:04", c.hhmm)
		if err != nil {
			t.Fatal(err)
		}
		if got := InMarketHours(ts); got != c.want {
			t.Errorf("InMarketHours(%s): expected %v, got %v", c.hhmm, c.want, got)
		}
	}
}
