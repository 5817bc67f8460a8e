package dashboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/LeonardoBeccarini/esp32_smart_system/internal/model"
)

// ParseSet applies "led=on,analog_output=120,fan=off,fan_speed=30" on top of base.
// Fields not named keep their base value.
func ParseSet(expr string, base model.ControlState) (model.ControlState, error) {
	out := base
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			return base, fmt.Errorf("set: %q is not key=value", part)
		}
		key, val = strings.ToLower(strings.TrimSpace(key)), strings.TrimSpace(val)

		var err error
		switch key {
		case "led":
			out.LED, err = parseSwitch(val)
		case "fan":
			out.Fan, err = parseSwitch(val)
		case "analog_output", "brightness":
			out.AnalogOutput, err = parseLevel(val)
		case "fan_speed":
			out.FanSpeed, err = parseLevel(val)
		default:
			return base, fmt.Errorf("set: unknown field %q", key)
		}
		if err != nil {
			return base, fmt.Errorf("set %s: %w", key, err)
		}
	}
	return out, nil
}

func parseSwitch(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	}
	return false, fmt.Errorf("%q is not on/off", v)
}

func parseLevel(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", v)
	}
	return model.ClampLevel(n), nil
}
