package sensor_simulator

import (
	"testing"

	"github.com/LeonardoBeccarini/esp32_smart_system/internal/model"
)

func TestNext_Ranges(t *testing.T) {
	g := NewDataGenerator(22, 1)
	g.ApplyControl(model.ControlState{LED: true, AnalogOutput: 255})
	for i := 0; i < 1000; i++ {
		s := g.Next()
		if s.AnalogInput < 0 || s.AnalogInput > adcMax {
			t.Fatalf("analog_input out of range: %d", s.AnalogInput)
		}
		if s.FanPot < 0 || s.FanPot > adcMax {
			t.Fatalf("fan_pot out of range: %d", s.FanPot)
		}
		if s.Temperature < minTemp || s.Temperature > maxTemp {
			t.Fatalf("temperature out of range: %v", s.Temperature)
		}
	}
}

func TestNext_Reproducible(t *testing.T) {
	a, b := NewDataGenerator(20, 42), NewDataGenerator(20, 42)
	for i := 0; i < 20; i++ {
		if sa, sb := a.Next(), b.Next(); sa != sb {
			t.Fatalf("step %d: %+v != %+v", i, sa, sb)
		}
	}
}

func TestNext_FanCools(t *testing.T) {
	still, cooled := NewDataGenerator(25, 7), NewDataGenerator(25, 7)
	cooled.ApplyControl(model.ControlState{Fan: true, FanSpeed: 255})

	var a, b model.SensorSnapshot
	for i := 0; i < 30; i++ {
		a, b = still.Next(), cooled.Next()
	}
	if b.Temperature >= a.Temperature-1 {
		t.Errorf("fan at full speed should cool: still=%v cooled=%v", a.Temperature, b.Temperature)
	}
}

func TestNext_LEDBrightens(t *testing.T) {
	dark, lit := NewDataGenerator(22, 3), NewDataGenerator(22, 3)
	lit.ApplyControl(model.ControlState{LED: true, AnalogOutput: 100})

	a, b := dark.Next(), lit.Next()
	if want := min(adcMax, a.AnalogInput+100*ledGain); b.AnalogInput != want {
		t.Errorf("lit brightness %d, want %d", b.AnalogInput, want)
	}
}

func TestApplyControl_Clamps(t *testing.T) {
	g := NewDataGenerator(22, 1)
	g.ApplyControl(model.ControlState{Fan: true, FanSpeed: 10000})
	if g.control.FanSpeed != model.LevelMax {
		t.Errorf("fan speed not clamped: %d", g.control.FanSpeed)
	}
}
