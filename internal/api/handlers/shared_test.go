package handlers

import (
	"testing"
	"time"
)

func mustDay(t *testing.T, day string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02", day)
	if err != nil {
		t.Fatalf("Failed to parse day %q: %v", day, err)
	}
	return ts.UTC()
}
