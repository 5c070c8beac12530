// Package pipelinecache implements an adaptive cache mapping uint64 keys
// to (latency, tokens) value records. Capacity is partitioned across
// three eviction policies — FIFO, approximate-LRU, and cost-ordered —
// and the split is continuously re-tuned by six shadow ("ghost") caches
// that score counterfactual partitions against a sampled baseline.
//
// The cache is single-threaded and non-reentrant: the host must
// serialize every call (Get, Set, Contains, PopOne, Clear, Adapt) on
// one instance. There is no internal goroutine, no lock, and Adapt is
// purely reactive — the host decides its cadence.
package pipelinecache

import (
	"fmt"

	"github.com/benbjohnson/clock"

	"github.com/nkeren/pipelinecache/internal/assertx"
	"github.com/nkeren/pipelinecache/internal/block"
	"github.com/nkeren/pipelinecache/internal/pconfig"
	"github.com/nkeren/pipelinecache/internal/pipeline"
	"github.com/nkeren/pipelinecache/internal/sampling"
	"github.com/nkeren/pipelinecache/internal/telemetry"
)

// shifts lists the six ordered (src, dst) block pairs the ghosts
// represent, in the fixed order spec'd: (0,1),(0,2),(1,0),(1,2),(2,0),(2,1).
var shifts = [6][2]block.Kind{
	{block.FIFO, block.ALRU},
	{block.FIFO, block.Cost},
	{block.ALRU, block.FIFO},
	{block.ALRU, block.Cost},
	{block.Cost, block.FIFO},
	{block.Cost, block.ALRU},
}

// Cache is the top-level adaptive pipeline cache.
type Cache struct {
	main       *pipeline.Cache
	sampled    *pipeline.Proxy
	ghosts     [6]*pipeline.Proxy
	sampleMask uint64

	clock     clock.Clock
	telemetry *telemetry.Recorder
}

// New builds a Cache from cfg. cfg is validated before anything is
// allocated; an invalid config (quantum doesn't divide capacity, or
// capacity doesn't split evenly into three) is a normal error here —
// the one boundary check in the core that isn't a panic.
func New(cfg pconfig.Config, opts ...Option) (*Cache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pipelinecache: %w", err)
	}

	c := &Cache{sampleMask: cfg.SampleMask, clock: clock.New()}
	for _, opt := range opts {
		opt(c)
	}

	c.main = pipeline.NewCache(cfg.Capacity, cfg.QuantumSize, c.clock)
	c.sampled = pipeline.NewProxy(c.main.Clone())
	for i, shift := range shifts {
		g := pipeline.NewProxy(c.sampled.Cache().Clone())
		if g.CanAdapt(shift[0], shift[1]) {
			g.MoveQuantum(shift[0], shift[1])
		} else {
			g.MakeDummy()
		}
		c.ghosts[i] = g
	}
	return c, nil
}

// Get returns the value stored under key, refreshing its recency
// metadata. If key is sampled, the same lookup is replayed against the
// sampled cache and all six ghosts for their access-order side
// effects; the host only ever observes main's result.
func (c *Cache) Get(key uint64) (Value, bool) {
	e, ok := c.main.GetItem(key)
	if !ok {
		return Value{}, false
	}
	if sampling.ShouldSample(key, c.sampleMask) {
		c.sampled.GetItem(key)
		for _, g := range c.ghosts {
			g.GetItem(key)
		}
	}
	return Value{Latency: e.Latency, Tokens: e.Tokens}, true
}

// mirror is the subset of pipeline.Cache's and pipeline.Proxy's surface
// Set needs to drive main, sampled, and the ghosts identically.
type mirror interface {
	Contains(key uint64) bool
	InsertItem(key uint64, latency float64, tokens uint64)
	ShouldEvict() bool
	EvictItem() (block.Entry, bool)
}

// setOne inserts key into m and evicts one entry if that insertion was
// the one that pushed an already-full m over capacity. A key already
// present is an overwrite-in-place and never triggers eviction; a new
// key only needs one immediately after it if m was already full before
// this insert — reaching exactly full for the first time (as the last
// of a cache's worth of distinct keys lands) needs no eviction at all.
func setOne(m mirror, key uint64, latency float64, tokens uint64) {
	wasFull := !m.Contains(key) && m.ShouldEvict()
	m.InsertItem(key, latency, tokens)
	if wasFull {
		m.EvictItem()
	}
}

// Set inserts or overwrites key with v. If main was already full, the
// entry that insertion pushes out is evicted immediately — Set never
// leaves the cache over-capacity. The same insert (and any resulting
// eviction) is mirrored into the sampled cache and all six ghosts when
// key is sampled.
func (c *Cache) Set(key uint64, v Value) {
	setOne(c.main, key, v.Latency, v.Tokens)

	if !sampling.ShouldSample(key, c.sampleMask) {
		return
	}
	setOne(c.sampled, key, v.Latency, v.Tokens)
	for _, g := range c.ghosts {
		setOne(g, key, v.Latency, v.Tokens)
	}
}

// Contains reports whether key is present in the main cache.
func (c *Cache) Contains(key uint64) bool { return c.main.Contains(key) }

// PopOne evicts and returns one entry chosen by the eviction policy.
// Requires the cache to be full (ShouldEvict); calling it otherwise is
// a precondition violation.
func (c *Cache) PopOne() (uint64, Value, bool) {
	assertx.Require(c.main.ShouldEvict(), "pipelinecache: pop_one requires a full cache")
	e, ok := c.main.EvictItem()
	if !ok {
		return 0, Value{}, false
	}
	return e.ID, Value{Latency: e.Latency, Tokens: e.Tokens}, true
}

// Len returns the number of entries currently stored.
func (c *Cache) Len() int { return c.main.Len() }

// MaxSize returns the cache's fixed total capacity.
func (c *Cache) MaxSize() int { return int(c.main.TotalCapacity()) }

// Empty reports whether the cache holds no entries.
func (c *Cache) Empty() bool { return c.main.Len() == 0 }

// Clear empties the main cache, the sampled cache, and all six ghosts.
func (c *Cache) Clear() {
	c.main.Clear()
	c.sampled.Cache().Clear()
	for _, g := range c.ghosts {
		g.Cache().Clear()
	}
}

// Keys returns every live key. Stable within one call; order
// unspecified across calls.
func (c *Cache) Keys() []uint64 { return c.main.Keys() }

// Values returns every live value. Stable within one call; order
// unspecified across calls.
func (c *Cache) Values() []Value {
	entries := c.main.Values()
	values := make([]Value, len(entries))
	for i, e := range entries {
		values[i] = Value{Latency: e.Latency, Tokens: e.Tokens}
	}
	return values
}

// Adapt compares the main cache's timeframe cost against the six
// ghosts'. If the best-performing ghost beat main, its (src, dst)
// quantum shift is applied to both main and the sampled cache, and all
// six ghosts are re-seeded from the post-shift sampled baseline — each
// either re-armed with its own labelled shift (if still feasible) or
// marked dummy. The host decides how often to call Adapt; it never
// runs on a schedule of its own.
func (c *Cache) Adapt() {
	mainCost := c.main.GetTimeframeAggregatedCost()
	c.main.ResetTimeframeStats()

	var ghostCosts [6]float64
	for i, g := range c.ghosts {
		ghostCosts[i] = g.GetTimeframeAggregatedCost()
		g.ResetTimeframeStats()
	}

	best := 0
	for i := 1; i < len(ghostCosts); i++ {
		if ghostCosts[i] < ghostCosts[best] {
			best = i
		}
	}

	applied := ghostCosts[best] < mainCost
	ghostIndex := -1
	src, dst := shifts[best][0], shifts[best][1]

	if applied {
		ghostIndex = best
		c.main.MoveQuantum(src, dst)
		c.sampled.MoveQuantum(src, dst)
		c.reseedGhosts()
	}

	partition := c.main.Partition()
	c.telemetry.RecordAdapt(telemetry.AdaptEvent{
		GhostIndex:     ghostIndex,
		SourceKind:     src.String(),
		DestKind:       dst.String(),
		SourceCapacity: partition[src],
		DestCapacity:   partition[dst],
		SampledCost:    mainCost,
		GhostCost:      ghostCosts[best],
		Applied:        applied,
	})
}

// reseedGhosts reseeds every ghost from the post-shift sampled baseline
// and re-arms it with its own labelled shift if that shift is feasible
// against the sampled cache it was just cloned from. Feasibility is
// tested against sampled rather than the ghost itself: the ghost may
// still carry a dummy flag from a previous round, and Proxy.CanAdapt
// short-circuits to false while dummy — checking the ghost there would
// leave a once-dummy ghost permanently unable to re-arm even once a
// later shift restores the partition that made its own shift feasible
// again.
func (c *Cache) reseedGhosts() {
	for i, g := range c.ghosts {
		g.CloneFrom(c.sampled.Cache())
		gi, gj := shifts[i][0], shifts[i][1]
		if c.sampled.CanAdapt(gi, gj) {
			g.MakeNonDummy()
			g.MoveQuantum(gi, gj)
		} else {
			g.MakeDummy()
		}
	}
}

// String describes the current partition as (q_FIFO, q_ALRU, q_COST).
func (c *Cache) String() string {
	p := c.main.Partition()
	return fmt.Sprintf("AdaptiveCache(fifo=%d, alru=%d, cost=%d)", p[block.FIFO], p[block.ALRU], p[block.Cost])
}
