// Package dashboard is a terminal client for the hub: it polls the device record,
// renders it and pushes control commands.
package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/LeonardoBeccarini/esp32_smart_system/internal/model"
)

// ErrStatus is returned for non-2xx responses.
var ErrStatus = errors.New("unexpected status")

type statusError struct{ code int }

func (e *statusError) Error() string { return fmt.Sprintf("%d", e.code) }
func (e *statusError) Unwrap() error { return ErrStatus }

// Status is what a refresh or an update leaves on screen.
type Status struct {
	Data    model.SensorSnapshot
	Control model.ControlState
	Message string
}

type BreakerSettings struct {
	Failures uint32        // consecutive failures before opening
	OpenFor  time.Duration // how long the breaker stays open
	Interval time.Duration // closed-state counter reset
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{Failures: 3, OpenFor: 10 * time.Second, Interval: 30 * time.Second}
}

// Client talks to one hub. Each route has its own breaker so a failing
// command endpoint does not stop the telemetry polling.
type Client struct {
	base string
	http *http.Client

	dataCB    *gobreaker.CircuitBreaker
	controlCB *gobreaker.CircuitBreaker
	updateCB  *gobreaker.CircuitBreaker
}

func mkCB(name string, s BreakerSettings) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     name,
		Interval: s.Interval,
		Timeout:  s.OpenFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= s.Failures
		},
		// a 4xx means the hub is up and rejected the request
		IsSuccessful: func(err error) bool {
			var se *statusError
			if errors.As(err, &se) {
				return se.code < 500
			}
			return err == nil
		},
	})
}

func NewClient(base string, timeout time.Duration, bs BreakerSettings) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		base:      strings.TrimRight(strings.TrimSpace(base), "/"),
		http:      &http.Client{Timeout: timeout},
		dataCB:    mkCB("esp-data", bs),
		controlCB: mkCB("esp-control", bs),
		updateCB:  mkCB("esp-control-update", bs),
	}
}

func (c *Client) BaseURL() string { return c.base }

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &statusError{code: res.StatusCode}
	}
	return json.NewDecoder(res.Body).Decode(out)
}

// Data fetches the latest sensor snapshot.
func (c *Client) Data(ctx context.Context) (model.SensorSnapshot, error) {
	res, err := c.dataCB.Execute(func() (interface{}, error) {
		var s model.SensorSnapshot
		if err := c.getJSON(ctx, "/esp/data", &s); err != nil {
			return nil, err
		}
		return s, nil
	})
	if err != nil {
		return model.SensorSnapshot{}, err
	}
	return res.(model.SensorSnapshot), nil
}

// Control fetches the current control commands.
func (c *Client) Control(ctx context.Context) (model.ControlState, error) {
	res, err := c.controlCB.Execute(func() (interface{}, error) {
		var s model.ControlState
		if err := c.getJSON(ctx, "/esp/control", &s); err != nil {
			return nil, err
		}
		return s, nil
	})
	if err != nil {
		return model.ControlState{}, err
	}
	return res.(model.ControlState), nil
}

// Refresh reads both records. A non-2xx answer shows zero values, a transport
// failure is reported in the message; either way whatever succeeded is kept.
func (c *Client) Refresh(ctx context.Context) Status {
	var (
		st   Status
		errs []string
	)
	data, err := c.Data(ctx)
	switch {
	case err == nil:
		st.Data = data
	case !errors.Is(err, ErrStatus):
		errs = append(errs, err.Error())
	}

	ctrl, err := c.Control(ctx)
	switch {
	case err == nil:
		st.Control = ctrl
	case !errors.Is(err, ErrStatus):
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		st.Message = "Exception: " + strings.Join(errs, "; ")
	} else {
		st.Message = "Data refreshed successfully"
	}
	return st
}

// Update posts ctrl with levels clamped to 0..255 and returns the status line.
func (c *Client) Update(ctx context.Context, ctrl model.ControlState) (string, error) {
	body, err := json.Marshal(ctrl.Clamped())
	if err != nil {
		return "", err
	}
	_, err = c.updateCB.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/esp/control", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		res, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer res.Body.Close()
		if res.StatusCode != http.StatusOK {
			return nil, &statusError{code: res.StatusCode}
		}
		return nil, nil
	})
	switch {
	case err == nil:
		return "Control commands sent successfully", nil
	case errors.Is(err, ErrStatus):
		return "Error sending control data: " + err.Error(), err
	default:
		return "Exception: " + err.Error(), err
	}
}
