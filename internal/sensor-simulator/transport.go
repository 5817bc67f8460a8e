package sensor_simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/LeonardoBeccarini/esp32_smart_system/internal/model"
	"github.com/LeonardoBeccarini/esp32_smart_system/pkg/broker"
)

// Transport is how the simulated board talks to the hub.
type Transport interface {
	Report(ctx context.Context, snap model.SensorSnapshot) error
	Commands(ctx context.Context) (model.ControlState, error)
}

// StatusError is a non-2xx answer from the hub.
type StatusError struct {
	Code int
	Path string
}

func (e *StatusError) Error() string { return fmt.Sprintf("%s -> %d", e.Path, e.Code) }

// Permanent reports whether retrying cannot help.
func (e *StatusError) Permanent() bool { return e.Code >= 400 && e.Code < 500 }

// HTTPTransport uses the same endpoints as the firmware.
type HTTPTransport struct {
	base   string
	client *http.Client
}

func NewHTTPTransport(base string, timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		base:   strings.TrimRight(strings.TrimSpace(base), "/"),
		client: &http.Client{Timeout: timeout},
	}
}

func (t *HTTPTransport) Report(ctx context.Context, snap model.SensorSnapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.base+"/esp/update", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return &StatusError{Code: res.StatusCode, Path: "/esp/update"}
	}
	return nil
}

func (t *HTTPTransport) Commands(ctx context.Context) (model.ControlState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.base+"/esp/control", nil)
	if err != nil {
		return model.ControlState{}, err
	}
	res, err := t.client.Do(req)
	if err != nil {
		return model.ControlState{}, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return model.ControlState{}, &StatusError{Code: res.StatusCode, Path: "/esp/control"}
	}
	var c model.ControlState
	if err := json.NewDecoder(res.Body).Decode(&c); err != nil {
		return model.ControlState{}, fmt.Errorf("decode control: %w", err)
	}
	return c, nil
}

// MQTTTransport publishes reports on the update topic and keeps the latest
// retained control state received on the control topic.
type MQTTTransport struct {
	publisher broker.IPublisher
	consumer  broker.IConsumer

	mu      sync.RWMutex
	control model.ControlState
}

func NewMQTTTransport(client mqtt.Client, updateTopic, controlTopic string) *MQTTTransport {
	t := &MQTTTransport{publisher: broker.NewPublisher(client, updateTopic, 0, false)}
	t.consumer = broker.NewConsumer(client, t.handleControl, controlTopic)
	return t
}

// Listen consumes control updates until ctx is done.
func (t *MQTTTransport) Listen(ctx context.Context) {
	t.consumer.ConsumeMessage(ctx)
}

func (t *MQTTTransport) handleControl(_ string, msg mqtt.Message) error {
	var c model.ControlState
	if err := json.Unmarshal(msg.Payload(), &c); err != nil {
		return fmt.Errorf("invalid control state: %w", err)
	}
	t.mu.Lock()
	t.control = c
	t.mu.Unlock()
	return nil
}

func (t *MQTTTransport) Report(_ context.Context, snap model.SensorSnapshot) error {
	return t.publisher.PublishJSON(snap)
}

func (t *MQTTTransport) Commands(context.Context) (model.ControlState, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.control, nil
}
