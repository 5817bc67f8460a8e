package hub

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/LeonardoBeccarini/esp32_smart_system/internal/model"
	"github.com/LeonardoBeccarini/esp32_smart_system/internal/model/messages"
)

func snapAt(v int, ts time.Time) messages.SnapshotReported {
	return messages.SnapshotReported{Snapshot: model.SensorSnapshot{AnalogInput: v}, Source: model.SourceDevice, Timestamp: ts}
}

func TestHistory_RingWraps(t *testing.T) {
	base := time.Now()
	h := NewHistory(3)
	for i := 1; i <= 5; i++ {
		h.Add(snapAt(i, base.Add(time.Duration(i)*time.Second)))
	}

	got := h.Latest(10, time.Time{})
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	for i, want := range []int{5, 4, 3} {
		if got[i].Snapshot.AnalogInput != want {
			t.Errorf("entry %d: got %d, want %d", i, got[i].Snapshot.AnalogInput, want)
		}
	}
}

func TestHistory_Limit(t *testing.T) {
	h := NewHistory(10)
	now := time.Now()
	for i := 0; i < 4; i++ {
		h.Add(snapAt(i, now))
	}
	if got := h.Latest(2, time.Time{}); len(got) != 2 {
		t.Errorf("expected 2 entries, got %d", len(got))
	}
}

func TestHistory_Since(t *testing.T) {
	now := time.Now()
	h := NewHistory(10)
	h.Add(snapAt(1, now.Add(-2*time.Hour)))
	h.Add(snapAt(2, now.Add(-30*time.Minute)))
	h.Add(snapAt(3, now.Add(-time.Minute)))

	got := h.Latest(10, now.Add(-time.Hour))
	if len(got) != 2 || got[0].Snapshot.AnalogInput != 3 || got[1].Snapshot.AnalogInput != 2 {
		t.Errorf("unexpected entries %+v", got)
	}
}

func TestHistory_Empty(t *testing.T) {
	h := NewHistory(0)
	if got := h.Latest(5, time.Time{}); len(got) != 0 {
		t.Errorf("expected no entries, got %+v", got)
	}
}

func TestParseHistory(t *testing.T) {
	tests := []struct {
		query       string
		wantLimit   int
		wantMinutes int
	}{
		{"", defaultHistoryLimit, defaultHistoryMinutes},
		{"?limit=10&minutes=5", 10, 5},
		{"?limit=0&minutes=-3", 1, 1},
		{"?limit=100000&minutes=99999999", maxHistoryLimit, maxHistoryMinutes},
		{"?limit=abc&minutes=", defaultHistoryLimit, defaultHistoryMinutes},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			p := parseHistory(httptest.NewRequest("GET", "/esp/history"+tt.query, nil))
			if p.Limit != tt.wantLimit || p.Minutes != tt.wantMinutes {
				t.Errorf("got %+v, want limit=%d minutes=%d", p, tt.wantLimit, tt.wantMinutes)
			}
		})
	}
}
