package messages

import (
	"time"

	"github.com/LeonardoBeccarini/esp32_smart_system/internal/model"
)

// SnapshotReported is published every time the device reports new readings.
type SnapshotReported struct {
	Snapshot  model.SensorSnapshot `json:"snapshot"`
	Source    model.Source         `json:"source"`
	Timestamp time.Time            `json:"timestamp"`
}
