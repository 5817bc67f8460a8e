package hub

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/LeonardoBeccarini/esp32_smart_system/internal/model/messages"
)

const (
	defaultHistoryLimit   = 50
	maxHistoryLimit       = 500
	defaultHistoryMinutes = 60
	maxHistoryMinutes     = 7 * 24 * 60
)

// History is a fixed-size ring of the latest device reports.
type History struct {
	mu   sync.RWMutex
	buf  []messages.SnapshotReported
	next int
	full bool
}

func NewHistory(size int) *History {
	if size < 1 {
		size = 1
	}
	return &History{buf: make([]messages.SnapshotReported, size)}
}

func (h *History) Add(evt messages.SnapshotReported) {
	h.mu.Lock()
	h.buf[h.next] = evt
	h.next = (h.next + 1) % len(h.buf)
	if h.next == 0 {
		h.full = true
	}
	h.mu.Unlock()
}

// Latest returns up to limit reports newer than since, newest first.
func (h *History) Latest(limit int, since time.Time) []messages.SnapshotReported {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := h.next
	if h.full {
		n = len(h.buf)
	}
	out := make([]messages.SnapshotReported, 0, min(limit, n))
	for i := 0; i < n && len(out) < limit; i++ {
		idx := (h.next - 1 - i + len(h.buf)) % len(h.buf)
		evt := h.buf[idx]
		if evt.Timestamp.Before(since) {
			break
		}
		out = append(out, evt)
	}
	return out
}

type historyParams struct {
	Limit   int
	Minutes int
}

func parseHistory(r *http.Request) historyParams {
	q := r.URL.Query()
	get := func(k string, def, lo, hi int) int {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return max(lo, min(n, hi))
			}
		}
		return def
	}
	return historyParams{
		Limit:   get("limit", defaultHistoryLimit, 1, maxHistoryLimit),
		Minutes: get("minutes", defaultHistoryMinutes, 1, maxHistoryMinutes),
	}
}

// GET /esp/history?limit=50&minutes=60
// Influx first when configured, in-memory ring otherwise.
func (h *Hub) handleHistory(w http.ResponseWriter, r *http.Request) {
	p := parseHistory(r)

	if h.cfg.Recorder != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		list, err := h.cfg.Recorder.QuerySnapshots(ctx, p.Minutes, p.Limit)
		if err == nil {
			w.Header().Set("X-Data-Source", "influx")
			writeJSON(w, http.StatusOK, list)
			return
		}
		log.Printf("hub: history from influx failed, serving cache: %v", err)
	}

	since := time.Now().Add(-time.Duration(p.Minutes) * time.Minute)
	w.Header().Set("X-Data-Source", "cache")
	writeJSON(w, http.StatusOK, h.history.Latest(p.Limit, since))
}
