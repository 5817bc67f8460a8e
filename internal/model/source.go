// Package model holds the two records shared by the hub, the dashboard and the device.
package model

// Source tells who caused a change.
type Source string

const (
	SourceDevice Source = "device" // ESP32 report over HTTP
	SourceForm   Source = "form"   // HTML control panel
	SourceAPI    Source = "api"    // JSON API (dashboard)
	SourceMQTT   Source = "mqtt"   // MQTT bridge
)
