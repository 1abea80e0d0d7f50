// Package frontend is the RPC surface clients talk to: it asks the
// selector for a backend, forwards the request verbatim, and returns the
// backend's reply unchanged.
package frontend

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"google.golang.org/grpc/codes"

	"github.com/prequal-project/prequal/contracts"
	"github.com/prequal-project/prequal/internal/probe"
	"github.com/prequal-project/prequal/internal/rpcerr"
	"github.com/prequal-project/prequal/internal/selector"
	"github.com/prequal-project/prequal/internal/telemetry"
)

// Frontend terminates client RPCs and forwards them to the backend the
// Selector picks.
type Frontend struct {
	selector *selector.Selector
	pool     *probe.Pool
	logger   *slog.Logger
}

// New returns a Frontend reading sel for routing decisions and pool for
// its own observability GetMetrics endpoint.
func New(sel *selector.Selector, pool *probe.Pool, logger *slog.Logger) *Frontend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Frontend{selector: sel, pool: pool, logger: logger}
}

// Router builds the gorilla/mux router exposing SayHello, the
// observability GetMetrics, a health check, and Prometheus metrics.
func (f *Frontend) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/say-hello", f.handleSayHello).Methods(http.MethodPost)
	r.HandleFunc("/metrics-summary", f.handleGetMetrics).Methods(http.MethodGet)
	r.HandleFunc("/healthz", f.handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", telemetry.Handler()).Methods(http.MethodGet)
	return r
}

func (f *Frontend) handleSayHello(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()
	logger := f.logger.With("request_id", requestID)

	var req contracts.HelloRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	ch, err := f.selector.Select()
	if err != nil {
		logger.Warn("no usable backend", "error", err)
		telemetry.FrontendRequestsTotal.WithLabelValues("internal").Inc()
		http.Error(w, "no usable backend available", http.StatusInternalServerError)
		return
	}

	reply, err := ch.SayHello(r.Context(), req)
	if err != nil {
		logger.Error("forward failed", "backend", ch.Address(), "error", err)
		telemetry.FrontendRequestsTotal.WithLabelValues("internal").Inc()
		writeForwardedError(w, err)
		return
	}

	telemetry.FrontendRequestsTotal.WithLabelValues("ok").Inc()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(reply); err != nil {
		logger.Error("encode reply", "error", err)
	}
}

func (f *Frontend) handleGetMetrics(w http.ResponseWriter, r *http.Request) {
	latency, rif := f.pool.MedianLatencyAndRif()
	resp := contracts.MetricsResponse{Rif: rif, LatencyNanos: latency}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (f *Frontend) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeForwardedError(w http.ResponseWriter, err error) {
	switch rpcerr.Code(err) {
	case codes.Unavailable:
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

