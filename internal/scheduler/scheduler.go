// Package scheduler runs the periodic background job that reconnects
// inactive backends, samples a few active ones, and refreshes the probe
// pool and registry from what it learns.
package scheduler

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/prequal-project/prequal/internal/probe"
	"github.com/prequal-project/prequal/internal/registry"
	"github.com/prequal-project/prequal/internal/rpcclient"
	"github.com/prequal-project/prequal/internal/rpcerr"
	"github.com/prequal-project/prequal/internal/telemetry"
)

// DefaultInterval is the reference tick cadence.
const DefaultInterval = 100 * time.Millisecond

// DefaultK is the reference probe batch size.
const DefaultK = 2

// Scheduler periodically reconnects inactive backends and probes a
// sample of active ones.
type Scheduler struct {
	registry *registry.Registry
	pool     *probe.Pool
	logger   *slog.Logger

	interval   time.Duration
	k          int
	probeDelay time.Duration
}

// New returns a Scheduler driving reg and pool, ticking every interval
// and sampling k active backends per tick.
func New(reg *registry.Registry, pool *probe.Pool, logger *slog.Logger, interval time.Duration, k int) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		registry:   reg,
		pool:       pool,
		logger:     logger,
		interval:   interval,
		k:          k,
		probeDelay: interval / 2,
	}
}

// Run ticks until ctx is cancelled. It does not return until its current
// tick (if any) finishes, so the caller can rely on Run returning only
// after background work has stopped — satisfying P7 (bounded shutdown).
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	s.reconnectInactive(ctx)
	s.probeSample(ctx)
}

func (s *Scheduler) reconnectInactive(ctx context.Context) {
	for _, entry := range s.registry.AllBackends() {
		if entry.Active() {
			continue
		}
		ch, err := rpcclient.Dial(ctx, entry.Address)
		if err != nil {
			s.logger.Debug("reconnect failed", "backend", entry.Address, "error", err)
			continue
		}
		s.registry.MarkActive(entry.Address, ch)
		s.logger.Info("backend reactivated", "backend", entry.Address)
	}
}

func (s *Scheduler) probeSample(ctx context.Context) {
	active := s.registry.ActiveBackends()
	if len(active) == 0 {
		return
	}

	sample := sampleWithoutReplacement(active, s.k)
	for _, entry := range sample {
		s.probeOne(ctx, entry)
	}
}

func (s *Scheduler) probeOne(ctx context.Context, entry registry.Entry) {
	probeCtx, cancel := context.WithTimeout(ctx, s.probeDelay)
	defer cancel()

	resp, err := entry.Channel.GetMetrics(probeCtx)
	if err == nil {
		s.pool.ObserveRif(resp.Rif)
		s.pool.Upsert(probe.Sample{
			Server:  entry.Address,
			Rif:     resp.Rif,
			Latency: resp.LatencyNanos,
		})
		telemetry.ProbeOutcomesTotal.WithLabelValues("success").Inc()
		return
	}

	if rpcerr.IsUnavailable(err) {
		s.pool.Drop(entry.Address)
		telemetry.ProbeOutcomesTotal.WithLabelValues("transient").Inc()
		s.logger.Debug("probe transiently unavailable", "backend", entry.Address, "error", err)
		return
	}

	s.pool.Drop(entry.Address)
	s.registry.MarkInactive(entry.Address)
	telemetry.ProbeOutcomesTotal.WithLabelValues("failure").Inc()
	s.logger.Warn("probe failed, inactivating backend", "backend", entry.Address, "error", err)
}

// sampleWithoutReplacement picks up to k entries uniformly at random
// without replacement. If fewer than k entries exist, it returns all of
// them.
func sampleWithoutReplacement(entries []registry.Entry, k int) []registry.Entry {
	if k >= len(entries) {
		return entries
	}
	shuffled := append([]registry.Entry{}, entries...)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:k]
}
