package dashboard

import (
	"context"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/LeonardoBeccarini/esp32_smart_system/internal/model"
	"github.com/LeonardoBeccarini/esp32_smart_system/internal/services/hub"
)

func TestStreamURL(t *testing.T) {
	tests := map[string]string{
		"http://localhost:5000":   "ws://localhost:5000/esp/stream",
		"http://localhost:5000/":  "ws://localhost:5000/esp/stream",
		"https://hub.local/panel": "wss://hub.local/panel/esp/stream",
	}
	for in, want := range tests {
		got, err := StreamURL(in)
		if err != nil || got != want {
			t.Errorf("StreamURL(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := StreamURL("ftp://hub"); err == nil {
		t.Error("expected error for ftp scheme")
	}
}

func TestFollow(t *testing.T) {
	_, srv := newHubServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan Status, 8)
	done := make(chan error, 1)
	go func() {
		done <- Follow(ctx, srv.URL, func(st Status) { updates <- st })
	}()

	next := func() Status {
		t.Helper()
		select {
		case st := <-updates:
			return st
		case <-time.After(2 * time.Second):
			t.Fatal("no stream update")
		}
		return Status{}
	}

	next() // initial snapshot
	next() // initial control

	res, err := http.Post(srv.URL+"/esp/control", "application/json", strings.NewReader(`{"fan":true,"fan_speed":90}`))
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()

	st := next()
	if st.Control != (model.ControlState{Fan: true, FanSpeed: 90}) {
		t.Errorf("unexpected control %+v", st.Control)
	}
	if st.Message != "control from api" {
		t.Errorf("unexpected message %q", st.Message)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Follow returned %v after cancel", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Follow did not return after cancel")
	}
}

func TestProbe(t *testing.T) {
	h := hub.New(hub.Config{})
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = hub.ServeGRPCHealth(ctx, lis, h, time.Second) }()

	pctx, pcancel := context.WithTimeout(ctx, 3*time.Second)
	defer pcancel()
	res, err := Probe(pctx, lis.Addr().String(), hub.GRPCServiceName)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if res.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("expected SERVING, got %v", res.GetStatus())
	}

	if _, err := Probe(pctx, lis.Addr().String(), "unknown.Service"); err == nil {
		t.Error("expected NotFound for an unregistered service")
	}
}
