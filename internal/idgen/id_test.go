package idgen

import (
	"testing"
	"time"
)

func TestNewIDShape(t *testing.T) {
	id := NewID()
	if err := Validate(id); err != nil {
		t.Fatalf("Validate(%q): %v", id, err)
	}
}

func TestNewIDMonotonicSameMillisecond(t *testing.T) {
	ids := make([]string, 100)
	for i := range ids {
		ids[i] = NewID()
	}
	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			t.Fatalf("id[%d]=%q is not strictly greater than id[%d]=%q", i, ids[i], i-1, ids[i-1])
		}
	}
}

func TestNowSortsChronologically(t *testing.T) {
	a := Now()
	time.Sleep(2 * time.Millisecond)
	b := Now()
	if !(a < b) {
		t.Fatalf("Now() not chronologically increasing: %q then %q", a, b)
	}
}

func TestFormatTimeMillisecondPrecision(t *testing.T) {
	tm := time.Date(2026, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	got := FormatTime(tm)
	want := "2026-01-02T03:04:05.006Z"
	if got != want {
		t.Errorf("FormatTime = %q, want %q", got, want)
	}
}
