package hub

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LeonardoBeccarini/esp32_smart_system/internal/model"
)

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHTTPMux registers the control panel, the device API and the operational endpoints.
func NewHTTPMux(h *Hub) *http.ServeMux {
	mux := http.NewServeMux()

	// control panel
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("POST /control", h.handleControlForm)

	// device / dashboard API
	mux.HandleFunc("POST /esp/update", h.handleESPUpdate)
	mux.HandleFunc("GET /esp/control", h.handleGetControl)
	mux.HandleFunc("POST /esp/control", h.handleSetControl)
	mux.HandleFunc("GET /esp/data", h.handleGetData)
	mux.HandleFunc("GET /esp/history", h.handleHistory)
	mux.HandleFunc("GET /esp/stream", h.stream.ServeHTTP)
	mux.HandleFunc("GET /esp/events", h.events.Handler())

	// ops
	mux.Handle("GET /healthz", NewHealthHandler(h))
	mux.Handle("GET /readyz", NewReadyHandler(h))
	mux.Handle("GET /metrics", promhttp.HandlerFor(h.cfg.Registry, promhttp.HandlerOpts{}))

	return mux
}

// Handler is the full HTTP stack: CORS, request ids and metrics around the mux.
func (h *Hub) Handler() http.Handler {
	return withCORS(withRequestID(h.metrics.Instrument(NewHTTPMux(h))))
}

func (h *Hub) handleIndex(w http.ResponseWriter, _ *http.Request) {
	h.writePage(w)
}

func (h *Hub) handleControlForm(w http.ResponseWriter, r *http.Request) {
	ctrl, err := DecodeControlForm(w, r)
	if err != nil {
		log.Printf("hub: rejected control form: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.store.SetControl(ctrl, model.SourceForm)
	h.writePage(w)
}

func (h *Hub) writePage(w http.ResponseWriter) {
	data, cmds := h.store.Both()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderPage(w, PageData{Data: data, Commands: cmds}); err != nil {
		log.Printf("hub: render page: %v", err)
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

func (h *Hub) handleESPUpdate(w http.ResponseWriter, r *http.Request) {
	snap, err := DecodeSnapshot(r.Body)
	if err != nil {
		log.Printf("hub: rejected device update: %v", err)
		writeInvalid(w, err)
		return
	}
	h.store.ReportSnapshot(snap, model.SourceDevice)
	writeJSON(w, http.StatusOK, statusResponse{Status: "success"})
}

func (h *Hub) handleGetControl(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Control())
}

func (h *Hub) handleSetControl(w http.ResponseWriter, r *http.Request) {
	ctrl, err := DecodeControl(r.Body)
	if err != nil {
		log.Printf("hub: rejected control update: %v", err)
		writeInvalid(w, err)
		return
	}
	h.store.SetControl(ctrl, model.SourceAPI)
	writeJSON(w, http.StatusOK, statusResponse{Status: "success"})
}

func (h *Hub) handleGetData(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

func writeInvalid(w http.ResponseWriter, err error) {
	msg := "Invalid data"
	if !errors.Is(err, ErrInvalidData) {
		msg = err.Error()
	}
	writeJSON(w, http.StatusBadRequest, statusResponse{Status: "error", Message: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
