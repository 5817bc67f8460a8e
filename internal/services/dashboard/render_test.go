package dashboard

import (
	"strings"
	"testing"

	"github.com/LeonardoBeccarini/esp32_smart_system/internal/model"
)

func TestRender(t *testing.T) {
	var b strings.Builder
	err := Render(&b, Status{
		Data:    model.SensorSnapshot{AnalogInput: 512, Button: true, Temperature: 21, FanPot: 100},
		Control: model.ControlState{LED: true, AnalogOutput: 120, FanSpeed: 30},
		Message: "Data refreshed successfully",
	})
	if err != nil {
		t.Fatal(err)
	}
	want := `ESP Data
-----------------------------
Temperature: 21.0 °C
Brightness Level: 512
Motion Detected: Yes
Potentiometer Fan Speed: 100

Controls
-----------------------------
LED Power: ON
LED Brightness: 120
Fan Power: OFF
Fan Speed: 30

Data refreshed successfully
`
	if got := b.String(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestRender_NoMessage(t *testing.T) {
	var b strings.Builder
	_ = Render(&b, Status{})
	if !strings.HasSuffix(b.String(), "Fan Speed: 0\n") {
		t.Errorf("unexpected tail %q", b.String())
	}
}

func TestParseSet(t *testing.T) {
	base := model.ControlState{LED: true, AnalogOutput: 50, Fan: true, FanSpeed: 60}
	tests := []struct {
		expr    string
		want    model.ControlState
		wantErr bool
	}{
		{expr: "", want: base},
		{expr: "led=off", want: model.ControlState{AnalogOutput: 50, Fan: true, FanSpeed: 60}},
		{
			expr: "led=on, analog_output=120 ,fan=off,fan_speed=30",
			want: model.ControlState{LED: true, AnalogOutput: 120, FanSpeed: 30},
		},
		{expr: "brightness=999", want: model.ControlState{LED: true, AnalogOutput: 255, Fan: true, FanSpeed: 60}},
		{expr: "FAN_SPEED=-3", want: model.ControlState{LED: true, AnalogOutput: 50, Fan: true}},
		{expr: "led", wantErr: true},
		{expr: "led=maybe", wantErr: true},
		{expr: "fan_speed=fast", wantErr: true},
		{expr: "buzzer=on", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ParseSet(tt.expr, base)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				if got != base {
					t.Errorf("base must be returned on error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
