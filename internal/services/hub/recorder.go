package hub

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/LeonardoBeccarini/esp32_smart_system/internal/model"
	"github.com/LeonardoBeccarini/esp32_smart_system/internal/model/messages"
)

const (
	measurementSnapshot = "esp_snapshot"
	measurementControl  = "esp_control"
)

type InfluxConfig struct {
	URL      string
	Token    string
	Org      string
	Bucket   string
	DeviceID string // tag value, lets several hubs share a bucket

	BatchSize     uint
	FlushInterval time.Duration
}

// Recorder writes every change to InfluxDB and reads the snapshot history back.
type Recorder struct {
	client   influxdb2.Client
	write    api.WriteAPI
	query    api.QueryAPI
	bucket   string
	deviceID string

	mu      sync.RWMutex
	lastErr time.Time
	points  int64
}

func NewRecorder(cfg InfluxConfig) (*Recorder, error) {
	if cfg.URL == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("influx config incomplete")
	}
	opts := influxdb2.DefaultOptions()
	if cfg.BatchSize > 0 {
		opts.SetBatchSize(cfg.BatchSize)
	}
	if cfg.FlushInterval > 0 {
		opts.SetFlushInterval(uint(cfg.FlushInterval.Milliseconds()))
	}
	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, opts)
	return newRecorder(client, cfg), nil
}

func newRecorder(client influxdb2.Client, cfg InfluxConfig) *Recorder {
	if cfg.DeviceID == "" {
		cfg.DeviceID = "esp32"
	}
	r := &Recorder{
		client:   client,
		write:    client.WriteAPI(cfg.Org, cfg.Bucket),
		query:    client.QueryAPI(cfg.Org),
		bucket:   cfg.Bucket,
		deviceID: cfg.DeviceID,
		lastErr:  time.Now().Add(-24 * time.Hour),
	}
	go func() {
		for err := range r.write.Errors() {
			if err != nil {
				r.mu.Lock()
				r.lastErr = time.Now()
				r.mu.Unlock()
				log.Printf("hub: influx write error: %v", err)
			}
		}
	}()
	return r
}

// SnapshotPoint maps a device report to an Influx point.
func SnapshotPoint(deviceID string, evt messages.SnapshotReported) *write.Point {
	s := evt.Snapshot
	return influxdb2.NewPoint(measurementSnapshot,
		map[string]string{"device_id": deviceID, "source": string(evt.Source)},
		map[string]interface{}{
			"analog_input": int64(s.AnalogInput),
			"button":       s.Button,
			"temperature":  s.Temperature,
			"fan_pot":      int64(s.FanPot),
		},
		evt.Timestamp)
}

// ControlPoint maps a control change to an Influx point.
func ControlPoint(deviceID string, evt messages.ControlChanged) *write.Point {
	c := evt.Control
	return influxdb2.NewPoint(measurementControl,
		map[string]string{"device_id": deviceID, "source": string(evt.Source)},
		map[string]interface{}{
			"led":           c.LED,
			"analog_output": int64(c.AnalogOutput),
			"fan":           c.Fan,
			"fan_speed":     int64(c.FanSpeed),
		},
		evt.Timestamp)
}

func (r *Recorder) RecordSnapshot(evt messages.SnapshotReported) {
	r.write.WritePoint(SnapshotPoint(r.deviceID, evt))
	r.mark()
}

func (r *Recorder) RecordControl(evt messages.ControlChanged) {
	r.write.WritePoint(ControlPoint(r.deviceID, evt))
	r.mark()
}

func (r *Recorder) mark() {
	r.mu.Lock()
	r.points++
	r.mu.Unlock()
}

// LastErrorAge reports how long ago the last asynchronous write failed.
func (r *Recorder) LastErrorAge() time.Duration {
	if r == nil {
		return 99999 * time.Hour
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return time.Since(r.lastErr)
}

// Ping checks that the server answers.
func (r *Recorder) Ping(ctx context.Context) bool {
	ok, err := r.client.Ping(ctx)
	return err == nil && ok
}

func buildSnapshotFlux(bucket, deviceID string, minutes, limit int) string {
	return fmt.Sprintf(`
from(bucket: %q)
  |> range(start: -%dm)
  |> filter(fn: (r) => r._measurement == %q and r.device_id == %q)
  |> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")
  |> group()
  |> sort(columns: ["_time"], desc: true)
  |> limit(n: %d)
`, bucket, minutes, measurementSnapshot, deviceID, limit)
}

// QuerySnapshots returns the latest reports stored in Influx, newest first.
func (r *Recorder) QuerySnapshots(ctx context.Context, minutes, limit int) ([]messages.SnapshotReported, error) {
	res, err := r.query.Query(ctx, buildSnapshotFlux(r.bucket, r.deviceID, minutes, limit))
	if err != nil {
		return nil, fmt.Errorf("influx query: %w", err)
	}
	defer res.Close()

	out := make([]messages.SnapshotReported, 0, limit)
	for res.Next() {
		rec := res.Record()
		src, _ := rec.ValueByKey("source").(string)
		out = append(out, messages.SnapshotReported{
			Snapshot: model.SensorSnapshot{
				AnalogInput: int(asFloat(rec.ValueByKey("analog_input"))),
				Button:      asBool(rec.ValueByKey("button")),
				Temperature: asFloat(rec.ValueByKey("temperature")),
				FanPot:      int(asFloat(rec.ValueByKey("fan_pot"))),
			},
			Source:    model.Source(src),
			Timestamp: rec.Time().UTC(),
		})
	}
	if res.Err() != nil {
		return nil, fmt.Errorf("influx iterate: %w", res.Err())
	}
	return out, nil
}

// Close flushes pending points and releases the client.
func (r *Recorder) Close() {
	r.write.Flush()
	r.client.Close()
}

func asFloat(v interface{}) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	case uint64:
		return float64(x)
	case int:
		return float64(x)
	}
	return 0
}

func asBool(v interface{}) bool {
	b, _ := v.(bool)
	return b
}
