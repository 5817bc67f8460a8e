package dashboard

import (
	"fmt"
	"io"
	"strings"

	"github.com/LeonardoBeccarini/esp32_smart_system/internal/model"
)

const rule = "-----------------------------"

// Render prints the status panel.
func Render(w io.Writer, st Status) error {
	var b strings.Builder
	d, c := st.Data, st.Control

	fmt.Fprintf(&b, "ESP Data\n%s\n", rule)
	fmt.Fprintf(&b, "Temperature: %s °C\n", model.FormatTemperature(d.Temperature))
	fmt.Fprintf(&b, "Brightness Level: %d\n", d.AnalogInput)
	fmt.Fprintf(&b, "Motion Detected: %s\n", model.YesNo(d.Button))
	fmt.Fprintf(&b, "Potentiometer Fan Speed: %d\n", d.FanPot)

	fmt.Fprintf(&b, "\nControls\n%s\n", rule)
	fmt.Fprintf(&b, "LED Power: %s\n", model.OnOff(c.LED))
	fmt.Fprintf(&b, "LED Brightness: %d\n", c.AnalogOutput)
	fmt.Fprintf(&b, "Fan Power: %s\n", model.OnOff(c.Fan))
	fmt.Fprintf(&b, "Fan Speed: %d\n", c.FanSpeed)

	if st.Message != "" {
		fmt.Fprintf(&b, "\n%s\n", st.Message)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
