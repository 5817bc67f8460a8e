package messages

import (
	"time"

	"github.com/LeonardoBeccarini/esp32_smart_system/internal/model"
)

// ControlChanged is published every time the control commands are overwritten.
type ControlChanged struct {
	Control   model.ControlState `json:"control"`
	Source    model.Source       `json:"source"`
	Timestamp time.Time          `json:"timestamp"`
}
