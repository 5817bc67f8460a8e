package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/LeonardoBeccarini/esp32_smart_system/internal/model/messages"
)

// StreamURL turns the hub base URL into its websocket stream endpoint.
func StreamURL(base string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path += "/esp/stream"
	return u.String(), nil
}

// Follow subscribes to the hub stream and calls fn with the updated status after
// every event, until ctx is done or the hub closes the connection.
func Follow(ctx context.Context, base string, fn func(Status)) error {
	target, err := StreamURL(base)
	if err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", target, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	var st Status
	for {
		var env messages.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("stream read: %w", err)
		}
		if err := apply(&st, env); err != nil {
			log.Printf("dashboard: skipping stream event: %v", err)
			continue
		}
		fn(st)
	}
}

func apply(st *Status, env messages.Envelope) error {
	switch env.Kind {
	case messages.KindSnapshot:
		var evt messages.SnapshotReported
		if err := json.Unmarshal(env.Payload, &evt); err != nil {
			return err
		}
		st.Data = evt.Snapshot
		st.Message = fmt.Sprintf("snapshot from %s", sourceOr(string(evt.Source)))
	case messages.KindControl:
		var evt messages.ControlChanged
		if err := json.Unmarshal(env.Payload, &evt); err != nil {
			return err
		}
		st.Control = evt.Control
		st.Message = fmt.Sprintf("control from %s", sourceOr(string(evt.Source)))
	default:
		return fmt.Errorf("unknown kind %q", env.Kind)
	}
	return nil
}

func sourceOr(s string) string {
	if s == "" {
		return "hub"
	}
	return s
}
