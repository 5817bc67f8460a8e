package hub

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// GRPCServiceName is the service name reported by the gRPC health server.
const GRPCServiceName = "esp.Hub"

// Dependencies reports the state of the optional collaborators.
type Dependencies struct {
	MQTTConfigured   bool
	MQTTConnected    bool
	InfluxConfigured bool
	InfluxOK         bool
}

func (d Dependencies) Ready() bool {
	return (!d.MQTTConfigured || d.MQTTConnected) && (!d.InfluxConfigured || d.InfluxOK)
}

func (h *Hub) Dependencies(ctx context.Context) Dependencies {
	d := Dependencies{
		MQTTConfigured:   h.cfg.MQTT != nil,
		InfluxConfigured: h.cfg.Recorder != nil,
	}
	if d.MQTTConfigured {
		d.MQTTConnected = h.cfg.MQTT.IsConnectionOpen()
	}
	if d.InfluxConfigured {
		d.InfluxOK = h.cfg.Recorder.Ping(ctx) && h.cfg.Recorder.LastErrorAge() > 30*time.Second
	}
	return d
}

type healthHandler struct{ hub *Hub }

func NewHealthHandler(h *Hub) http.Handler { return &healthHandler{hub: h} }

func (h *healthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type status struct {
		Status         string   `json:"status"`
		MQTTConnected  *bool    `json:"mqtt_connected,omitempty"`
		InfluxOK       *bool    `json:"influx_ok,omitempty"`
		SnapshotAgeSec *float64 `json:"snapshot_age_sec"`
		ControlAgeSec  *float64 `json:"control_age_sec"`
		StreamClients  int      `json:"stream_clients"`
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	deps := h.hub.Dependencies(ctx)

	st := status{Status: "ok", StreamClients: h.hub.stream.Clients()}
	if deps.MQTTConfigured {
		st.MQTTConnected = &deps.MQTTConnected
	}
	if deps.InfluxConfigured {
		st.InfluxOK = &deps.InfluxOK
	}
	if !deps.Ready() {
		st.Status = "degraded"
	}
	snapAt, ctrlAt := h.hub.store.UpdatedAt()
	st.SnapshotAgeSec = ageSeconds(snapAt)
	st.ControlAgeSec = ageSeconds(ctrlAt)

	writeJSON(w, http.StatusOK, st)
}

// ageSeconds is nil for records never written.
func ageSeconds(t time.Time) *float64 {
	if t.IsZero() {
		return nil
	}
	s := time.Since(t).Seconds()
	return &s
}

// /readyz: 200 only when every configured dependency is up.
type readyHandler struct{ hub *Hub }

func NewReadyHandler(h *Hub) http.Handler { return &readyHandler{hub: h} }

func (h *readyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	ready := h.hub.Dependencies(ctx).Ready()
	code := http.StatusOK
	if !ready {
		code = http.StatusServiceUnavailable
	}
	type resp struct {
		Ready bool `json:"ready"`
	}
	writeJSON(w, code, resp{Ready: ready})
}

// ServeGRPCHealth serves grpc.health.v1 on lis and keeps the status in sync with
// the hub dependencies until ctx is done.
func ServeGRPCHealth(ctx context.Context, lis net.Listener, h *Hub, every time.Duration) error {
	if every <= 0 {
		every = 5 * time.Second
	}
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	update := func() {
		cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		st := healthpb.HealthCheckResponse_SERVING
		if !h.Dependencies(cctx).Ready() {
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
		hs.SetServingStatus("", st)
		hs.SetServingStatus(GRPCServiceName, st)
	}
	update()

	go func() {
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				hs.Shutdown()
				srv.GracefulStop()
				return
			case <-t.C:
				update()
			}
		}
	}()

	log.Printf("hub: gRPC health listening on %s", lis.Addr())
	if err := srv.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return err
	}
	return nil
}
