package hub

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/LeonardoBeccarini/esp32_smart_system/internal/model"
)

type fakeNotifier struct {
	mu       sync.Mutex
	subjects []string
	err      error
}

func (f *fakeNotifier) Notify(_ context.Context, subject, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects = append(f.subjects, subject)
	return f.err
}

func (f *fakeNotifier) Subjects() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.subjects...)
}

func TestAlerter_EdgeTriggered(t *testing.T) {
	n := &fakeNotifier{}
	a := NewAlerter(n, 30, 2)

	for _, temp := range []float64{25, 29.9, 30, 31, 35, 29, 28.5} {
		a.Check(temp)
	}
	a.Wait()
	if got := n.Subjects(); len(got) != 1 {
		t.Fatalf("expected a single alert while above and inside hysteresis, got %v", got)
	}
	if !a.Alarmed() {
		t.Error("expected alarmed state")
	}

	a.Check(27.9)
	a.Wait()
	got := n.Subjects()
	if len(got) != 2 || got[1] != "ESP32 temperature back to normal" {
		t.Fatalf("expected recovery notice, got %v", got)
	}
	if a.Alarmed() {
		t.Error("expected alarm cleared")
	}

	a.Check(30.5)
	a.Wait()
	if got := n.Subjects(); len(got) != 3 {
		t.Errorf("expected a new alert after recovery, got %v", got)
	}
}

func TestAlerter_NotifierErrorKeepsState(t *testing.T) {
	n := &fakeNotifier{err: errors.New("smtp down")}
	a := NewAlerter(n, 30, -1)
	if a.Hysteresis != 0 {
		t.Errorf("negative hysteresis must be clamped, got %v", a.Hysteresis)
	}
	a.Check(40)
	a.Wait()
	if !a.Alarmed() {
		t.Error("a failed delivery must not reset the alarm")
	}
}

func TestHub_DispatchChecksAlerter(t *testing.T) {
	n := &fakeNotifier{}
	a := NewAlerter(n, 30, 1)
	h := New(Config{Alerter: a})

	h.Store().ReportSnapshot(model.SensorSnapshot{Temperature: 22}, model.SourceDevice)
	h.Store().ReportSnapshot(model.SensorSnapshot{Temperature: 33.5}, model.SourceDevice)
	a.Wait()
	if got := n.Subjects(); len(got) != 1 || got[0] != "ESP32 temperature alert" {
		t.Errorf("unexpected alerts %v", got)
	}
}
