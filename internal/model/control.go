package model

// ControlState holds the commands the device pulls and applies.
// Levels are meant to be 0..255 but the hub stores whatever it receives.
type ControlState struct {
	LED          bool `json:"led"`
	AnalogOutput int  `json:"analog_output"` // LED brightness (PWM duty)
	Fan          bool `json:"fan"`
	FanSpeed     int  `json:"fan_speed"`
}

const (
	LevelMin = 0
	LevelMax = 255
)

// ClampLevel bounds a PWM level to LevelMin..LevelMax.
func ClampLevel(v int) int {
	if v < LevelMin {
		return LevelMin
	}
	if v > LevelMax {
		return LevelMax
	}
	return v
}

// Clamped returns a copy with both levels bounded.
func (c ControlState) Clamped() ControlState {
	c.AnalogOutput = ClampLevel(c.AnalogOutput)
	c.FanSpeed = ClampLevel(c.FanSpeed)
	return c
}
