package hub

import (
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/LeonardoBeccarini/esp32_smart_system/internal/model"
	"github.com/LeonardoBeccarini/esp32_smart_system/internal/model/messages"
)

func TestSnapshotPoint(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p := SnapshotPoint("esp32-lab", messages.SnapshotReported{
		Snapshot:  model.SensorSnapshot{AnalogInput: 512, Button: true, Temperature: 21.5, FanPot: 100},
		Source:    model.SourceDevice,
		Timestamp: ts,
	})
	line := write.PointToLineProtocol(p, time.Nanosecond)

	if !strings.HasPrefix(line, "esp_snapshot,device_id=esp32-lab,source=device ") {
		t.Errorf("unexpected measurement/tags: %q", line)
	}
	for _, want := range []string{"analog_input=512i", "button=true", "temperature=21.5", "fan_pot=100i"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
	if !p.Time().Equal(ts) {
		t.Errorf("unexpected time %v", p.Time())
	}
}

func TestControlPoint(t *testing.T) {
	p := ControlPoint("esp32", messages.ControlChanged{
		Control:   model.ControlState{LED: true, AnalogOutput: 120, FanSpeed: 30},
		Source:    model.SourceForm,
		Timestamp: time.Now(),
	})
	line := write.PointToLineProtocol(p, time.Nanosecond)

	if !strings.HasPrefix(line, "esp_control,device_id=esp32,source=form ") {
		t.Errorf("unexpected measurement/tags: %q", line)
	}
	for _, want := range []string{"led=true", "analog_output=120i", "fan=false", "fan_speed=30i"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
}

func TestBuildSnapshotFlux(t *testing.T) {
	q := buildSnapshotFlux("esp32", "lab", 90, 25)
	for _, want := range []string{
		`from(bucket: "esp32")`,
		`range(start: -90m)`,
		`r._measurement == "esp_snapshot" and r.device_id == "lab"`,
		`pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")`,
		`sort(columns: ["_time"], desc: true)`,
		`limit(n: 25)`,
	} {
		if !strings.Contains(q, want) {
			t.Errorf("query missing %q:\n%s", want, q)
		}
	}
}

func TestNewRecorder_RequiresConfig(t *testing.T) {
	if _, err := NewRecorder(InfluxConfig{URL: "http://localhost:8086"}); err == nil {
		t.Error("expected an error without org and bucket")
	}
}

func TestAsFloat(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{float64(1.5), 1.5},
		{int64(7), 7},
		{uint64(3), 3},
		{"x", 0},
		{nil, 0},
	}
	for _, tt := range tests {
		if got := asFloat(tt.in); got != tt.want {
			t.Errorf("asFloat(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
