package model

// SensorSnapshot is the last set of readings reported by the ESP32.
// Every report replaces the whole snapshot.
type SensorSnapshot struct {
	AnalogInput int     `json:"analog_input"` // light sensor (brightness level)
	Button      bool    `json:"button"`       // motion / push button
	Temperature float64 `json:"temperature"`  // °C
	FanPot      int     `json:"fan_pot"`      // potentiometer driving the fan
}
