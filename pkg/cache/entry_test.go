package cache

import (
	"testing"
	"time"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusIdle, "idle"},
		{StatusLoading, "loading"},
		{StatusSuccess, "success"},
		{StatusError, "error"},
		{Status(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.status.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEntry_Freshness(t *testing.T) {
	tests := []struct {
		name      string
		entry     Entry
		wantFresh bool
	}{
		{
			name:      "never fetched",
			entry:     Entry{},
			wantFresh: false,
		},
		{
			name:      "fetched",
			entry:     Entry{hasValue: true},
			wantFresh: true,
		},
		{
			name:      "fetched then invalidated",
			entry:     Entry{hasValue: true, Stale: true},
			wantFresh: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.IsFresh(); got != tt.wantFresh {
				t.Errorf("IsFresh() = %v, want %v", got, tt.wantFresh)
			}
		})
	}
}

func TestEntry_Age(t *testing.T) {
	if got := (Entry{}).Age(); got != 0 {
		t.Errorf("Age() without value = %v, want 0", got)
	}

	e := Entry{hasValue: true, FetchedAt: time.Now().Add(-time.Minute)}
	if got := e.Age(); got < 59*time.Second || got > 61*time.Second {
		t.Errorf("Age() = %v, want about 1m", got)
	}
}
