package messages

import "encoding/json"

// Kinds carried by Envelope.
const (
	KindSnapshot = "snapshot"
	KindControl  = "control"
)

// Envelope wraps events pushed on the websocket stream.
type Envelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Wrap marshals v and tags it with kind.
func Wrap(kind string, v any) (Envelope, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Kind: kind, Payload: b}, nil
}
