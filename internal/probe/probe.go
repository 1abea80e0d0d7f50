// Package probe holds the live load signal the selector reads: a
// per-backend sample of requests-in-flight and latency, normalized
// against the fleet-wide maximum ever observed.
package probe

import (
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// Sample is one backend's most recently probed load signal.
type Sample struct {
	Server        string
	Rif           uint32
	Latency       uint64
	TimesUsed     uint64
	NormalizedRif float64
}

// Pool is the set of current samples plus the fleet-wide maxRif, safe for
// concurrent use.
type Pool struct {
	mu      sync.Mutex
	order   []string          // insertion order, for first-seen tie-breaks
	samples map[string]*Sample
	maxRif  uint32
}

// New returns an empty Pool.
func New() *Pool {
	return &Pool{samples: make(map[string]*Sample)}
}

// ObserveRif folds rif into the fleet-wide maximum. If rif raises the
// maximum, every existing sample is renormalized first, so the invariant
// holds before the caller's own upsert of the triggering sample.
func (p *Pool) ObserveRif(rif uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observeRifLocked(rif)
}

func (p *Pool) observeRifLocked(rif uint32) {
	if rif <= p.maxRif {
		return
	}
	p.maxRif = rif
	for _, s := range p.samples {
		s.NormalizedRif = normalize(s.Rif, p.maxRif)
	}
}

// Upsert stores sample, normalizing it against the current maxRif. A
// sample for a server already in the pool replaces the old one in its
// existing first-seen position; a new server is appended. Callers are
// expected to call ObserveRif first so the maxRif used here already
// reflects this sample's rif.
func (p *Pool) Upsert(sample Sample) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sample.NormalizedRif = normalize(sample.Rif, p.maxRif)
	if _, exists := p.samples[sample.Server]; !exists {
		p.order = append(p.order, sample.Server)
	}
	p.samples[sample.Server] = &sample
}

// Drop removes any sample for server.
func (p *Pool) Drop(server string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.samples[server]; !ok {
		return
	}
	delete(p.samples, server)
	for i, s := range p.order {
		if s == server {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// IncrementTimesUsed bumps the TimesUsed counter on server's sample, if
// it still exists. Selection calls this after choosing a sample.
func (p *Pool) IncrementTimesUsed(server string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.samples[server]; ok {
		s.TimesUsed++
	}
}

// Snapshot returns an immutable copy of the pool in first-seen order.
func (p *Pool) Snapshot() []Sample {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Sample, 0, len(p.order))
	for _, server := range p.order {
		out = append(out, *p.samples[server])
	}
	return out
}

// MaxRif returns the fleet-wide observed maximum rif.
func (p *Pool) MaxRif() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxRif
}

// MeanNormalizedRif reports the fleet's mean normalized rif across the
// current snapshot, an observability-only statistic not consulted by the
// selector.
func (p *Pool) MeanNormalizedRif() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.samples) == 0 {
		return 0
	}
	values := make([]float64, 0, len(p.samples))
	for _, s := range p.samples {
		values = append(values, s.NormalizedRif)
	}
	return stat.Mean(values, nil)
}

// MedianLatencyAndRif computes the standard lower/upper-middle average
// of the snapshot's latencies and rifs, for the frontend's observability
// GetMetrics endpoint. Returns (0, 0) for an empty pool.
func (p *Pool) MedianLatencyAndRif() (latency uint64, rif uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.order)
	if n == 0 {
		return 0, 0
	}

	latencies := make([]uint64, 0, n)
	rifs := make([]uint32, 0, n)
	for _, server := range p.order {
		s := p.samples[server]
		latencies = append(latencies, s.Latency)
		rifs = append(rifs, s.Rif)
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	sort.Slice(rifs, func(i, j int) bool { return rifs[i] < rifs[j] })

	return middle64(latencies), uint32(middle64(toUint64(rifs)))
}

// IsHot reports whether a normalized rif meets or exceeds qRif.
func IsHot(normalizedRif, qRif float64) bool {
	return normalizedRif >= qRif
}

func normalize(rif, maxRif uint32) float64 {
	if maxRif == 0 {
		return 0
	}
	return float64(rif) / float64(maxRif)
}

func toUint64(xs []uint32) []uint64 {
	out := make([]uint64, len(xs))
	for i, x := range xs {
		out[i] = uint64(x)
	}
	return out
}

// middle64 returns the lower/upper-middle average of a sorted slice: the
// middle element for odd lengths, the floor of the mean of the two
// middle elements for even lengths.
func middle64(sorted []uint64) uint64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	lo, hi := sorted[n/2-1], sorted[n/2]
	return lo + (hi-lo)/2
}
