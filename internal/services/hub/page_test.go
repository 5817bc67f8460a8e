package hub

import (
	"bytes"
	"strings"
	"testing"

	"github.com/LeonardoBeccarini/esp32_smart_system/internal/model"
)

func TestRenderPage(t *testing.T) {
	var buf bytes.Buffer
	err := renderPage(&buf, PageData{
		Data:     model.SensorSnapshot{Temperature: 30.125},
		Commands: model.ControlState{Fan: true, FanSpeed: 255},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `<span id="temperature">30.125 °C</span>`) {
		t.Error("temperature not rendered")
	}
	if !strings.Contains(out, `name="fan" checked`) {
		t.Error("fan checkbox not checked")
	}
	if !strings.Contains(out, `<form action="/control" method="post">`) {
		t.Error("form target missing")
	}
}
