package hub

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/LeonardoBeccarini/esp32_smart_system/internal/model"
)

// ErrInvalidData is returned for bodies that are not a non-empty JSON object.
var ErrInvalidData = errors.New("invalid data")

const maxBodyBytes = 64 << 10

// decodeObject reads a JSON object keeping numbers as json.Number.
func decodeObject(body io.Reader) (map[string]any, error) {
	raw, err := io.ReadAll(io.LimitReader(body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", ErrInvalidData)
	}
	if len(m) == 0 {
		return nil, ErrInvalidData
	}
	return m, nil
}

// DecodeSnapshot parses a device report. Missing keys keep their zero value;
// keys present with the wrong JSON type are rejected.
func DecodeSnapshot(body io.Reader) (model.SensorSnapshot, error) {
	m, err := decodeObject(body)
	if err != nil {
		return model.SensorSnapshot{}, err
	}
	var s model.SensorSnapshot
	if s.AnalogInput, err = numberAsInt(m, "analog_input"); err != nil {
		return model.SensorSnapshot{}, err
	}
	if s.FanPot, err = numberAsInt(m, "fan_pot"); err != nil {
		return model.SensorSnapshot{}, err
	}
	if s.Temperature, err = numberAsFloat(m, "temperature"); err != nil {
		return model.SensorSnapshot{}, err
	}
	if v, ok := m["button"]; ok && v != nil {
		b, isBool := v.(bool)
		if !isBool {
			return model.SensorSnapshot{}, fmt.Errorf("%w: button must be a boolean", ErrInvalidData)
		}
		s.Button = b
	}
	return s, nil
}

// DecodeControl parses a control command with loose typing:
// booleans follow truthiness, levels accept numbers and numeric strings.
func DecodeControl(body io.Reader) (model.ControlState, error) {
	m, err := decodeObject(body)
	if err != nil {
		return model.ControlState{}, err
	}
	var c model.ControlState
	c.LED = truthy(m["led"])
	c.Fan = truthy(m["fan"])
	if c.AnalogOutput, err = looseInt(m, "analog_output"); err != nil {
		return model.ControlState{}, err
	}
	if c.FanSpeed, err = looseInt(m, "fan_speed"); err != nil {
		return model.ControlState{}, err
	}
	return c, nil
}

// DecodeControlForm reads the HTML control panel: checkboxes are on when present,
// blank or missing levels are 0.
func DecodeControlForm(w http.ResponseWriter, r *http.Request) (model.ControlState, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return model.ControlState{}, fmt.Errorf("parse form: %w", err)
	}
	var (
		c   model.ControlState
		err error
	)
	_, c.LED = r.PostForm["led"]
	_, c.Fan = r.PostForm["fan"]
	if c.AnalogOutput, err = formInt(r, "analog_output"); err != nil {
		return model.ControlState{}, err
	}
	if c.FanSpeed, err = formInt(r, "fan_speed"); err != nil {
		return model.ControlState{}, err
	}
	return c, nil
}

func formInt(r *http.Request, key string) (int, error) {
	v := strings.TrimSpace(r.PostForm.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", key, v)
	}
	return n, nil
}

func numberAsInt(m map[string]any, key string) (int, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return 0, nil
	}
	n, isNum := v.(json.Number)
	if !isNum {
		return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidData, key)
	}
	return numberToInt(key, n)
}

func numberAsFloat(m map[string]any, key string) (float64, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return 0, nil
	}
	n, isNum := v.(json.Number)
	if !isNum {
		return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidData, key)
	}
	f, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidData, key, err)
	}
	return f, nil
}

func numberToInt(key string, n json.Number) (int, error) {
	if i, err := n.Int64(); err == nil {
		return int(i), nil
	}
	f, err := n.Float64()
	if err != nil || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%w: %s out of range", ErrInvalidData, key)
	}
	return int(math.Trunc(f)), nil
}

// looseInt accepts numbers (truncated), booleans and numeric strings.
// A missing key is 0; null or anything else is rejected.
func looseInt(m map[string]any, key string) (int, error) {
	v, ok := m[key]
	if !ok {
		return 0, nil
	}
	switch x := v.(type) {
	case json.Number:
		return numberToInt(key, x)
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %q is not an integer", ErrInvalidData, key, x)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: %s must be an integer", ErrInvalidData, key)
	}
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	default:
		return true
	}
}
