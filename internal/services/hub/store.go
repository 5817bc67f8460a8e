package hub

import (
	"sync"
	"time"

	"github.com/LeonardoBeccarini/esp32_smart_system/internal/model"
	"github.com/LeonardoBeccarini/esp32_smart_system/internal/model/messages"
)

// Listener is notified after a record has been overwritten.
// Exactly one of the two pointers is set.
type Listener func(snap *messages.SnapshotReported, ctrl *messages.ControlChanged)

// Store keeps the two process-wide records. Last write wins.
// Listeners see writes in the order they were applied.
type Store struct {
	// wmu is held by a writer from the state update through notification;
	// listeners must not write to the store
	wmu sync.Mutex

	mu        sync.RWMutex
	snapshot  model.SensorSnapshot
	control   model.ControlState
	snapAt    time.Time
	controlAt time.Time

	lmu       sync.RWMutex
	listeners []Listener

	now func() time.Time
}

func NewStore() *Store {
	return &Store{now: time.Now}
}

// Subscribe registers l for every future change.
func (s *Store) Subscribe(l Listener) {
	s.lmu.Lock()
	s.listeners = append(s.listeners, l)
	s.lmu.Unlock()
}

func (s *Store) Snapshot() model.SensorSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

func (s *Store) Control() model.ControlState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.control
}

// Both returns the two records read under the same lock.
func (s *Store) Both() (model.SensorSnapshot, model.ControlState) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot, s.control
}

// UpdatedAt returns when each record was last written (zero if never).
func (s *Store) UpdatedAt() (snapshot, control time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapAt, s.controlAt
}

// ReportSnapshot replaces the sensor snapshot.
func (s *Store) ReportSnapshot(snap model.SensorSnapshot, src model.Source) messages.SnapshotReported {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	now := s.now()
	s.mu.Lock()
	s.snapshot = snap
	s.snapAt = now
	s.mu.Unlock()

	evt := messages.SnapshotReported{Snapshot: snap, Source: src, Timestamp: now}
	s.notify(&evt, nil)
	return evt
}

// SetControl replaces the control commands.
func (s *Store) SetControl(ctrl model.ControlState, src model.Source) messages.ControlChanged {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	now := s.now()
	s.mu.Lock()
	s.control = ctrl
	s.controlAt = now
	s.mu.Unlock()

	evt := messages.ControlChanged{Control: ctrl, Source: src, Timestamp: now}
	s.notify(nil, &evt)
	return evt
}

func (s *Store) notify(snap *messages.SnapshotReported, ctrl *messages.ControlChanged) {
	s.lmu.RLock()
	ls := append([]Listener(nil), s.listeners...)
	s.lmu.RUnlock()
	for _, l := range ls {
		l(snap, ctrl)
	}
}
