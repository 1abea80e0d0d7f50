package scheduler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prequal-project/prequal/contracts"
	"github.com/prequal-project/prequal/internal/backend"
	"github.com/prequal-project/prequal/internal/probe"
	"github.com/prequal-project/prequal/internal/registry"
)

func TestTickPopulatesPoolOnSuccess(t *testing.T) {
	srv := httptest.NewServer(backend.New("1", 0, 0).Handler(nil))
	defer srv.Close()

	reg := registry.New()
	if err := reg.Add(context.Background(), srv.URL); err != nil {
		t.Fatalf("Add: %v", err)
	}
	pool := probe.New()

	s := New(reg, pool, nil, 10*time.Millisecond, DefaultK)
	s.tick(context.Background())

	if len(pool.Snapshot()) != 1 {
		t.Fatalf("expected one sample in the pool after a successful probe")
	}
}

// TestHardFailureInactivatesBackend is scenario 5 from the spec: a
// non-Unavailable probe failure drops the sample and inactivates the
// backend, which is skipped until a later reconnect.
func TestHardFailureInactivatesBackend(t *testing.T) {
	state := 0
	mux := http.NewServeMux()
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, r *http.Request) {
		state++
		if state == 1 {
			// succeed once, so Registry.Add's reachability check passes
			_ = json.NewEncoder(w).Encode(contracts.MetricsResponse{Rif: 1, LatencyNanos: 1})
			return
		}
		http.Error(w, "forbidden", http.StatusForbidden)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	reg := registry.New()
	if err := reg.Add(context.Background(), srv.URL); err != nil {
		t.Fatalf("Add: %v", err)
	}
	pool := probe.New()
	s := New(reg, pool, nil, 10*time.Millisecond, DefaultK)

	s.tick(context.Background())

	if len(pool.Snapshot()) != 0 {
		t.Fatalf("expected sample dropped after a hard probe failure")
	}
	if len(reg.ActiveBackends()) != 0 {
		t.Fatalf("expected backend inactivated after a hard probe failure")
	}
}

func TestTransientUnavailableDropsSampleOnly(t *testing.T) {
	state := 0
	mux := http.NewServeMux()
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, r *http.Request) {
		state++
		if state <= 2 {
			// succeed for Registry.Add's reachability check and the first tick's probe
			_ = json.NewEncoder(w).Encode(contracts.MetricsResponse{Rif: 1, LatencyNanos: 5})
			return
		}
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	reg := registry.New()
	if err := reg.Add(context.Background(), srv.URL); err != nil {
		t.Fatalf("Add: %v", err)
	}
	pool := probe.New()
	s := New(reg, pool, nil, 10*time.Millisecond, DefaultK)

	s.tick(context.Background())
	if len(pool.Snapshot()) != 1 {
		t.Fatalf("expected a sample after the first successful probe")
	}

	s.tick(context.Background())
	if len(pool.Snapshot()) != 0 {
		t.Fatalf("expected the sample dropped after a transient failure")
	}
	if len(reg.ActiveBackends()) != 1 {
		t.Fatalf("transient unavailability must not inactivate the backend")
	}
}

func TestReconnectReactivatesInactiveBackend(t *testing.T) {
	srv := httptest.NewServer(backend.New("1", 0, 0).Handler(nil))
	defer srv.Close()

	reg := registry.New()
	if err := reg.Add(context.Background(), srv.URL); err != nil {
		t.Fatalf("Add: %v", err)
	}
	reg.MarkInactive(srv.URL)

	pool := probe.New()
	s := New(reg, pool, nil, 10*time.Millisecond, DefaultK)
	s.reconnectInactive(context.Background())

	if len(reg.ActiveBackends()) != 1 {
		t.Fatalf("expected backend reactivated on successful reconnect")
	}
}
