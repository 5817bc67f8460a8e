package hub

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/thiefmaster/eventsource"
)

const eventsChannel = "esp"

type sseEvent struct {
	id, kind, data string
}

func (e sseEvent) Id() string    { return e.id }
func (e sseEvent) Event() string { return e.kind }
func (e sseEvent) Data() string  { return e.data }

// Events is the Server-Sent Events feed used by the control panel page.
// Each event carries the bare record, named "snapshot" or "control".
type Events struct {
	srv *eventsource.Server
	seq atomic.Uint64

	// publishing to a closed server blocks forever; mu keeps Close from
	// running while a Publish is in flight
	mu     sync.RWMutex
	closed bool
}

func NewEvents() *Events {
	return &Events{srv: eventsource.NewServer()}
}

func (e *Events) Handler() http.HandlerFunc {
	return e.srv.Handler(eventsChannel)
}

func (e *Events) Publish(kind string, v any) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("hub: events marshal %s: %v", kind, err)
		return
	}
	id := strconv.FormatUint(e.seq.Add(1), 10)
	e.srv.Publish([]string{eventsChannel}, sseEvent{id: id, kind: kind, data: string(b)})
}

// Close ends every subscription. Publish is a no-op afterwards.
func (e *Events) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		e.srv.Close()
	}
}
