package sensor_simulator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/LeonardoBeccarini/esp32_smart_system/internal/model"
)

type SensorSimulator struct {
	mu        sync.Mutex
	transport Transport
	generator *DataGenerator
	control   model.ControlState
	retries   uint64
	newBO     func() backoff.BackOff
}

func NewSensorSimulator(transport Transport, gen *DataGenerator) *SensorSimulator {
	return &SensorSimulator{
		transport: transport,
		generator: gen,
		retries:   3,
		newBO: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.InitialInterval = 200 * time.Millisecond
			bo.MaxInterval = 2 * time.Second
			return bo
		},
	}
}

// Start reports a snapshot and pulls the commands every interval until ctx is done.
func (s *SensorSimulator) Start(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if err := s.Tick(ctx); err != nil && ctx.Err() == nil {
			log.Printf("sim: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// Tick runs one report/pull cycle.
func (s *SensorSimulator) Tick(ctx context.Context) error {
	snap := s.generator.Next()
	log.Printf("sim: report temperature=%s analog_input=%d button=%t fan_pot=%d",
		model.FormatTemperature(snap.Temperature), snap.AnalogInput, snap.Button, snap.FanPot)

	err := backoff.Retry(func() error {
		err := s.transport.Report(ctx, snap)
		var se *StatusError
		if errors.As(err, &se) && se.Permanent() {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(s.newBO(), s.retries), ctx))
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}

	ctrl, err := s.transport.Commands(ctx)
	if err != nil {
		return fmt.Errorf("pull control: %w", err)
	}
	s.apply(ctrl)
	return nil
}

func (s *SensorSimulator) apply(ctrl model.ControlState) {
	s.mu.Lock()
	prev := s.control
	s.control = ctrl
	s.mu.Unlock()

	if ctrl != prev {
		log.Printf("sim: control led=%s analog_output=%d fan=%s fan_speed=%d",
			model.OnOff(ctrl.LED), ctrl.AnalogOutput, model.OnOff(ctrl.Fan), ctrl.FanSpeed)
	}
	s.generator.ApplyControl(ctrl)
}

// Control returns the last commands pulled from the hub.
func (s *SensorSimulator) Control() model.ControlState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.control
}
