package selector

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/prequal-project/prequal/internal/backend"
	"github.com/prequal-project/prequal/internal/probe"
	"github.com/prequal-project/prequal/internal/registry"
)

func newActiveBackend(t *testing.T, reg *registry.Registry, id string) string {
	t.Helper()
	srv := httptest.NewServer(backend.New(id, 0, 0).Handler(nil))
	t.Cleanup(srv.Close)
	if err := reg.Add(context.Background(), srv.URL); err != nil {
		t.Fatalf("Add: %v", err)
	}
	return srv.URL
}

// TestAllColdMinLatencyWins is scenario 2 from the spec.
func TestAllColdMinLatencyWins(t *testing.T) {
	reg := registry.New()
	pool := probe.New()

	urls := []string{newActiveBackend(t, reg, "1"), newActiveBackend(t, reg, "2"), newActiveBackend(t, reg, "3")}
	pool.ObserveRif(100)
	pool.Upsert(probe.Sample{Server: urls[0], Rif: 1, Latency: 10})
	pool.Upsert(probe.Sample{Server: urls[1], Rif: 5, Latency: 3})
	pool.Upsert(probe.Sample{Server: urls[2], Rif: 2, Latency: 7})

	sel := New(pool, reg, 0.8)
	ch, err := sel.Select()
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if ch.Address() != urls[1] {
		t.Fatalf("expected backend with lat=3 selected, got %s", ch.Address())
	}
}

// TestAllHotMinRifWins is scenario 3 from the spec.
func TestAllHotMinRifWins(t *testing.T) {
	reg := registry.New()
	pool := probe.New()

	urls := []string{newActiveBackend(t, reg, "1"), newActiveBackend(t, reg, "2"), newActiveBackend(t, reg, "3")}
	pool.ObserveRif(100)
	pool.Upsert(probe.Sample{Server: urls[0], Rif: 90, Latency: 3})
	pool.Upsert(probe.Sample{Server: urls[1], Rif: 95, Latency: 2})
	pool.Upsert(probe.Sample{Server: urls[2], Rif: 88, Latency: 9})

	sel := New(pool, reg, 0.8)
	ch, err := sel.Select()
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if ch.Address() != urls[2] {
		t.Fatalf("expected backend with rif=88 selected, got %s", ch.Address())
	}
}

func TestEmptyPoolReturnsNoProbeFound(t *testing.T) {
	reg := registry.New()
	pool := probe.New()
	sel := New(pool, reg, 0.8)
	if _, err := sel.Select(); err == nil {
		t.Fatalf("expected NoProbeFound for empty pool")
	}
}

// TestInactiveBackendNeverSelected is P6: the selector never returns a
// backend whose active flag is false.
func TestInactiveBackendNeverSelected(t *testing.T) {
	reg := registry.New()
	pool := probe.New()

	inactiveURL := newActiveBackend(t, reg, "1")
	activeURL := newActiveBackend(t, reg, "2")
	reg.MarkInactive(inactiveURL)

	pool.ObserveRif(10)
	pool.Upsert(probe.Sample{Server: inactiveURL, Rif: 1, Latency: 1})
	pool.Upsert(probe.Sample{Server: activeURL, Rif: 5, Latency: 50})

	sel := New(pool, reg, 0.8)
	ch, err := sel.Select()
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if ch.Address() != activeURL {
		t.Fatalf("expected fallthrough to the active backend, got %s", ch.Address())
	}
}
