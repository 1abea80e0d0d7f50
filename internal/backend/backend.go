// Package backend implements the Greeter-style backend agent: a
// requests-in-flight counter and a streaming-median latency aggregator,
// served over HTTP so the balancer (and any probe) can reach it with a
// plain JSON POST/GET.
package backend

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prequal-project/prequal/contracts"
	"github.com/prequal-project/prequal/internal/median"
	"github.com/prequal-project/prequal/internal/telemetry"
)

// Agent is one backend's local metric aggregator and RPC surface. The
// zero value is not usable; construct with New.
type Agent struct {
	id string

	rif       atomic.Uint32
	latencies *median.StreamingMedian
	mu        sync.Mutex // guards latencies, which is not itself safe for concurrent use

	minDelay, maxDelay time.Duration
}

// New returns an Agent identifying itself as id in every greeting reply.
// minDelay/maxDelay bound a simulated per-request work delay; pass 0, 0
// for no simulated delay.
func New(id string, minDelay, maxDelay time.Duration) *Agent {
	return &Agent{
		id:        id,
		latencies: median.New(),
		minDelay:  minDelay,
		maxDelay:  maxDelay,
	}
}

// SayHello answers the demonstration greeting RPC, tracking rif and
// latency around the simulated work.
func (a *Agent) SayHello(req contracts.HelloRequest) contracts.HelloReply {
	a.rif.Add(1)
	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		a.mu.Lock()
		a.latencies.Add(uint64(elapsed.Nanoseconds()))
		a.mu.Unlock()
		a.rif.Add(^uint32(0)) // decrement; unconditional, runs even if the work body panics
	}()

	a.simulateWork()

	return contracts.HelloReply{
		Message: fmt.Sprintf("Hello %s! from server %s", req.Name, a.id),
	}
}

func (a *Agent) simulateWork() {
	if a.maxDelay <= a.minDelay {
		return
	}
	span := a.maxDelay - a.minDelay
	d := a.minDelay + time.Duration(rand.Int64N(int64(span)))
	time.Sleep(d)
}

// GetMetrics reports the current rif and latency median. It is not
// counted as an in-flight RPC itself.
func (a *Agent) GetMetrics() contracts.MetricsResponse {
	latency, ok := a.latencyMedian()
	if !ok {
		latency = 0
	}
	return contracts.MetricsResponse{
		Rif:          a.rif.Load(),
		LatencyNanos: latency,
	}
}

func (a *Agent) latencyMedian() (uint64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.latencies.Median()
}

// Handler returns an http.Handler serving POST /say-hello and GET
// /metrics, suitable for mounting on any router (cmd/backend mounts it
// directly, tests may mount it on an httptest.Server).
func (a *Agent) Handler(logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /say-hello", func(w http.ResponseWriter, r *http.Request) {
		telemetry.BackendRequestsTotal.WithLabelValues(a.id).Inc()

		var req contracts.HelloRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		reply := a.SayHello(req)
		telemetry.BackendRif.WithLabelValues(a.id).Set(float64(a.rif.Load()))

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(reply); err != nil {
			logger.Error("encode say-hello reply", "error", err, "backend", a.id)
		}
	})

	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, r *http.Request) {
		resp := a.GetMetrics()
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.Error("encode metrics reply", "error", err, "backend", a.id)
		}
	})

	return mux
}
