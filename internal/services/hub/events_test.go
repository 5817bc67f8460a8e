package hub

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/LeonardoBeccarini/esp32_smart_system/internal/model"
)

func TestEvents_PushesRecords(t *testing.T) {
	h := newTestHub(t)
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()
	defer h.Events().Close()

	// keep writing until the subscriber sees something; registration is asynchronous
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		tk := time.NewTicker(50 * time.Millisecond)
		defer tk.Stop()
		for {
			h.Store().SetControl(model.ControlState{LED: true, FanSpeed: 40}, model.SourceForm)
			select {
			case <-stop:
				return
			case <-tk.C:
			}
		}
	}()

	res, err := http.Get(srv.URL + "/esp/events")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if ct := res.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("unexpected content type %q", ct)
	}

	lines := make(chan string, 16)
	go func() {
		sc := bufio.NewScanner(res.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	var event, data string
	deadline := time.After(2 * time.Second)
	for data == "" {
		select {
		case l, ok := <-lines:
			if !ok {
				t.Fatal("stream closed")
			}
			if v, found := strings.CutPrefix(l, "event: "); found {
				event = v
			}
			if v, found := strings.CutPrefix(l, "data: "); found {
				data = v
			}
		case <-deadline:
			t.Fatal("no event received")
		}
	}

	if event != "control" {
		t.Errorf("unexpected event name %q", event)
	}
	var got model.ControlState
	if err := json.Unmarshal([]byte(data), &got); err != nil {
		t.Fatalf("bad data %q: %v", data, err)
	}
	if got != (model.ControlState{LED: true, FanSpeed: 40}) {
		t.Errorf("unexpected control %+v", got)
	}
}

func TestEvents_PublishAfterCloseIsNoop(t *testing.T) {
	e := NewEvents()
	e.Close()
	e.Close()
	e.Publish("snapshot", model.SensorSnapshot{})
}

func TestEvents_CloseDuringPublish(t *testing.T) {
	e := NewEvents()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			e.Publish("control", model.ControlState{FanSpeed: i})
		}
	}()
	e.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked after close")
	}
}
