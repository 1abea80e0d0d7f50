package frontend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/prequal-project/prequal/contracts"
	"github.com/prequal-project/prequal/internal/backend"
	"github.com/prequal-project/prequal/internal/probe"
	"github.com/prequal-project/prequal/internal/registry"
	"github.com/prequal-project/prequal/internal/selector"
)

var serverIDPattern = regexp.MustCompile(`server (\S+)`)

// TestColdStartSingleBackend is scenario 1 from the spec.
func TestColdStartSingleBackend(t *testing.T) {
	backendSrv := httptest.NewServer(backend.New("0", 0, 0).Handler(nil))
	defer backendSrv.Close()

	reg := registry.New()
	if err := reg.Add(context.Background(), backendSrv.URL); err != nil {
		t.Fatalf("Add: %v", err)
	}
	pool := probe.New()
	pool.ObserveRif(1)
	pool.Upsert(probe.Sample{Server: backendSrv.URL, Rif: 0, Latency: 0})

	sel := selector.New(pool, reg, 0.8)
	fe := New(sel, pool, nil)
	srv := httptest.NewServer(fe.Router())
	defer srv.Close()

	body, _ := json.Marshal(contracts.HelloRequest{Name: "Rustacean"})
	resp, err := srv.Client().Post(srv.URL+"/say-hello", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /say-hello: %v", err)
	}
	defer resp.Body.Close()

	var reply contracts.HelloReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if !serverIDPattern.MatchString(reply.Message) {
		t.Fatalf("reply %q missing server identifier", reply.Message)
	}
}

func TestSayHelloFailsInternalWithNoBackends(t *testing.T) {
	reg := registry.New()
	pool := probe.New()
	sel := selector.New(pool, reg, 0.8)
	fe := New(sel, pool, nil)
	srv := httptest.NewServer(fe.Router())
	defer srv.Close()

	body, _ := json.Marshal(contracts.HelloRequest{Name: "x"})
	resp, err := srv.Client().Post(srv.URL+"/say-hello", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /say-hello: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 500 {
		t.Fatalf("expected 500 Internal, got %d", resp.StatusCode)
	}
}

func TestGetMetricsEmptyPoolReturnsZeroZero(t *testing.T) {
	reg := registry.New()
	pool := probe.New()
	sel := selector.New(pool, reg, 0.8)
	fe := New(sel, pool, nil)
	srv := httptest.NewServer(fe.Router())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/metrics-summary")
	if err != nil {
		t.Fatalf("GET /metrics-summary: %v", err)
	}
	defer resp.Body.Close()

	var out contracts.MetricsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Rif != 0 || out.LatencyNanos != 0 {
		t.Fatalf("expected {0,0} for empty pool, got %+v", out)
	}
}
