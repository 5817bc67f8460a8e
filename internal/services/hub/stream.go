package hub

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/LeonardoBeccarini/esp32_smart_system/internal/model/messages"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true }, // same policy as CORS
}

// clientQueue is how many envelopes a slow client may fall behind before it is dropped.
const clientQueue = 32

type streamClient struct {
	conn *websocket.Conn
	send chan []byte
	// goingAway makes the writer send a going-away close frame on exit
	goingAway bool
}

// writeLoop owns every write to the connection.
func (c *streamClient) writeLoop() {
	defer c.conn.Close()
	for b := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Printf("hub: stream client %s: %v", c.conn.RemoteAddr(), err)
			return
		}
	}
	if c.goingAway {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "hub shutting down"),
			time.Now().Add(time.Second))
	}
}

// Stream pushes every record change to connected websocket clients.
type Stream struct {
	mu      sync.Mutex
	clients map[*streamClient]struct{}

	// initial returns the envelopes sent to a client right after it connects.
	initial func() []messages.Envelope
}

func NewStream() *Stream {
	return &Stream{clients: make(map[*streamClient]struct{})}
}

// Clients returns the number of connected clients.
func (s *Stream) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Broadcast queues v for every client without waiting on the network.
// Clients whose queue is full are dropped.
func (s *Stream) Broadcast(kind string, v any) {
	env, err := messages.Wrap(kind, v)
	if err != nil {
		log.Printf("hub: stream marshal %s: %v", kind, err)
		return
	}
	b, err := json.Marshal(env)
	if err != nil {
		log.Printf("hub: stream marshal envelope: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- b:
		default:
			log.Printf("hub: dropping slow stream client %s", c.conn.RemoteAddr())
			s.remove(c)
		}
	}
}

// remove must be called with s.mu held.
func (s *Stream) remove(c *streamClient) {
	if _, ok := s.clients[c]; !ok {
		return
	}
	delete(s.clients, c)
	close(c.send)
}

func (s *Stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("hub: stream upgrade failure: %v", err)
		return
	}
	c := &streamClient{conn: conn, send: make(chan []byte, clientQueue)}

	// Queue the initial state and register under one lock so no broadcast lands before it.
	s.mu.Lock()
	if s.initial != nil {
		for _, env := range s.initial() {
			b, err := json.Marshal(env)
			if err != nil {
				continue
			}
			c.send <- b
		}
	}
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	go c.writeLoop()

	// Clients never send anything meaningful; reading detects the close.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				break
			}
		}
		s.mu.Lock()
		s.remove(c)
		s.mu.Unlock()
	}()
}

// Close disconnects every client.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		c.goingAway = true
		s.remove(c)
	}
}
