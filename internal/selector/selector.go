// Package selector implements the two-tier backend selection policy:
// minimum latency among cold backends when any exist, otherwise minimum
// rif among the whole pool.
package selector

import (
	"github.com/prequal-project/prequal/internal/probe"
	"github.com/prequal-project/prequal/internal/registry"
	"github.com/prequal-project/prequal/internal/rpcclient"
	"github.com/prequal-project/prequal/internal/rpcerr"
)

// Selector chooses a backend for each inbound request from a Pool
// snapshot and a Registry's active set.
type Selector struct {
	pool     *probe.Pool
	registry *registry.Registry
	qRif     float64
}

// New returns a Selector reading pool and registry, using qRif as the
// hot/cold threshold.
func New(pool *probe.Pool, reg *registry.Registry, qRif float64) *Selector {
	return &Selector{pool: pool, registry: reg, qRif: qRif}
}

// Select returns the chosen backend's channel, or NoProbeFound if no
// usable sample exists. The returned channel is safe to use without any
// lock held.
func (s *Selector) Select() (*rpcclient.Channel, error) {
	snapshot := s.pool.Snapshot()
	active := s.registry.ActiveBackends()

	activeSet := make(map[string]*registry.Entry, len(active))
	for i := range active {
		activeSet[active[i].Address] = &active[i]
	}

	var cold, hot []probe.Sample
	for _, sample := range snapshot {
		if probe.IsHot(sample.NormalizedRif, s.qRif) {
			hot = append(hot, sample)
		} else {
			cold = append(cold, sample)
		}
	}

	if len(cold) > 0 {
		if entry, sample, ok := pickUsable(cold, activeSet, minLatency); ok {
			return s.commit(entry, sample)
		}
	}

	all := append(append([]probe.Sample{}, cold...), hot...)
	if entry, sample, ok := pickUsable(all, activeSet, minRif); ok {
		return s.commit(entry, sample)
	}

	return nil, rpcerr.NoProbeFound()
}

func (s *Selector) commit(entry *registry.Entry, sample probe.Sample) (*rpcclient.Channel, error) {
	s.pool.IncrementTimesUsed(sample.Server)
	return entry.Channel, nil
}

// pickUsable orders candidates by less, then returns the first whose
// backend is in the active set, implementing "fall through to the
// next-best within the same tier" on an unusable pick.
func pickUsable(candidates []probe.Sample, active map[string]*registry.Entry, less func(a, b probe.Sample) bool) (*registry.Entry, probe.Sample, bool) {
	ordered := append([]probe.Sample{}, candidates...)
	stableSortByFirstSeen(ordered, less)

	for _, sample := range ordered {
		if entry, ok := active[sample.Server]; ok {
			return entry, sample, true
		}
	}
	return nil, probe.Sample{}, false
}

// stableSortByFirstSeen sorts ordered by less, preserving the relative
// order of equal elements (their original first-seen order in the
// snapshot) as the tie-break.
func stableSortByFirstSeen(ordered []probe.Sample, less func(a, b probe.Sample) bool) {
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && less(ordered[j], ordered[j-1]); j-- {
			ordered[j-1], ordered[j] = ordered[j], ordered[j-1]
		}
	}
}

func minLatency(a, b probe.Sample) bool { return a.Latency < b.Latency }
func minRif(a, b probe.Sample) bool     { return a.Rif < b.Rif }
