package hub

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/LeonardoBeccarini/esp32_smart_system/internal/model/messages"
)

// Metrics exposes request counters and the current value of every field.
type Metrics struct {
	requests *prometheus.CounterVec
	updates  *prometheus.CounterVec
	sensor   *prometheus.GaugeVec
	control  *prometheus.GaugeVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "esp_hub",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"route", "code"}),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "esp_hub",
			Name:      "updates_total",
			Help:      "Record overwrites by record and source.",
		}, []string{"record", "source"}),
		sensor: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "esp_hub",
			Name:      "sensor_value",
			Help:      "Last value reported by the device.",
		}, []string{"field"}),
		control: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "esp_hub",
			Name:      "control_value",
			Help:      "Current control command.",
		}, []string{"field"}),
	}
	reg.MustRegister(m.requests, m.updates, m.sensor, m.control)
	return m
}

func (m *Metrics) ObserveSnapshot(evt messages.SnapshotReported) {
	m.updates.WithLabelValues("snapshot", string(evt.Source)).Inc()
	s := evt.Snapshot
	m.sensor.WithLabelValues("analog_input").Set(float64(s.AnalogInput))
	m.sensor.WithLabelValues("button").Set(boolGauge(s.Button))
	m.sensor.WithLabelValues("temperature").Set(s.Temperature)
	m.sensor.WithLabelValues("fan_pot").Set(float64(s.FanPot))
}

func (m *Metrics) ObserveControl(evt messages.ControlChanged) {
	m.updates.WithLabelValues("control", string(evt.Source)).Inc()
	c := evt.Control
	m.control.WithLabelValues("led").Set(boolGauge(c.LED))
	m.control.WithLabelValues("analog_output").Set(float64(c.AnalogOutput))
	m.control.WithLabelValues("fan").Set(boolGauge(c.Fan))
	m.control.WithLabelValues("fan_speed").Set(float64(c.FanSpeed))
}

// Instrument counts every request by the pattern the mux matched.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, strconv.Itoa(rec.code)).Inc()
	})
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

type statusRecorder struct {
	http.ResponseWriter
	code        int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.wroteHeader {
		s.code = code
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(code)
}

// Hijack keeps websocket upgrades working through the recorder.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	s.code = http.StatusSwitchingProtocols
	s.wroteHeader = true
	return hj.Hijack()
}

func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// CloseNotify is still required by the SSE handler.
func (s *statusRecorder) CloseNotify() <-chan bool {
	//nolint:staticcheck
	if cn, ok := s.ResponseWriter.(http.CloseNotifier); ok {
		return cn.CloseNotify()
	}
	return make(chan bool)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }
