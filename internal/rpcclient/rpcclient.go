// Package rpcclient is the balancer-side half of the HTTP/JSON transport:
// a reusable Channel per backend, dialed once by the registry and cloned
// freely by the selector, so a forwarded call never needs the balancer
// lock held across network I/O.
package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prequal-project/prequal/contracts"
	"github.com/prequal-project/prequal/internal/rpcerr"
)

// Channel is a lightweight, concurrency-safe handle to one backend's HTTP
// endpoint. Its zero value is not usable; construct with Dial.
type Channel struct {
	address string
	client  *http.Client
}

// Dial establishes a Channel to address. It performs a cheap reachability
// probe (GetMetrics) so Registry.Add can report
// UnableToEstablishConnectivity before inserting the backend, mirroring
// the eager GreeterClient::connect of the original implementation.
func Dial(ctx context.Context, address string) (*Channel, error) {
	ch := &Channel{
		address: address,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
	if _, err := ch.GetMetrics(ctx); err != nil {
		return nil, rpcerr.UnableToEstablishConnectivity(address, err)
	}
	return ch, nil
}

// Address returns the backend address this channel was dialed to.
func (c *Channel) Address() string {
	return c.address
}

// SayHello forwards the greeting RPC verbatim, including ctx's deadline.
func (c *Channel) SayHello(ctx context.Context, req contracts.HelloRequest) (contracts.HelloReply, error) {
	var reply contracts.HelloReply
	err := c.doJSON(ctx, http.MethodPost, "/say-hello", req, &reply)
	return reply, err
}

// GetMetrics queries the backend's current rif and latency median. This
// call is not itself subject to rif accounting on the backend side.
func (c *Channel) GetMetrics(ctx context.Context) (contracts.MetricsResponse, error) {
	var resp contracts.MetricsResponse
	err := c.doJSON(ctx, http.MethodGet, "/metrics", nil, &resp)
	return resp, err
}

func (c *Channel) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return rpcerr.Internal(c.address, err)
		}
		reader = *bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.address+path, &reader)
	if err != nil {
		return rpcerr.Internal(c.address, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return rpcerr.Unavailable(c.address, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return rpcerr.Internal(c.address, err)
		}
		return nil
	case http.StatusServiceUnavailable:
		return rpcerr.Unavailable(c.address, fmt.Errorf("status %d", resp.StatusCode))
	case http.StatusForbidden:
		return rpcerr.PermissionDenied(c.address, fmt.Errorf("status %d", resp.StatusCode))
	default:
		return rpcerr.Internal(c.address, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
}
