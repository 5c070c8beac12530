package pipeline

import (
	"math"

	"github.com/nkeren/pipelinecache/internal/block"
)

// Proxy wraps a Cache with a runtime-flippable dummy flag. Non-dummy, it
// forwards every operation to the wrapped cache. Dummy, it turns every
// operation into a no-op reporting the "infeasible" degenerate value
// (cost = +Inf, size = 0) — this is how the adapter represents a
// counterfactual shift that would violate CanAdapt, without
// special-casing infeasibility at the comparison site.
type Proxy struct {
	cache *Cache
	dummy bool
}

// NewProxy wraps c in a non-dummy proxy.
func NewProxy(c *Cache) *Proxy { return &Proxy{cache: c} }

// IsDummy reports the proxy's current flag.
func (p *Proxy) IsDummy() bool { return p.dummy }

// MakeDummy flips the proxy into its degenerate, all-no-op state.
func (p *Proxy) MakeDummy() { p.dummy = true }

// MakeNonDummy flips the proxy back to forwarding. Valid only
// immediately after CloneFrom has just reseeded this proxy from a real
// cache — calling it on a proxy whose wrapped cache has since diverged
// on its own (there is no such path in this engine) would be a misuse.
func (p *Proxy) MakeNonDummy() { p.dummy = false }

// CloneFrom replaces this proxy's wrapped cache with a deep copy of
// src, the value-assignment reseeding spec.md's design notes call for
// (ghost reseeding via value assignment): the cost of the deep copy is
// explicit here rather than hidden behind an implicit copy constructor.
func (p *Proxy) CloneFrom(src *Cache) { p.cache = src.Clone() }

// Cache returns the wrapped cache, e.g. to read its Partition() for
// telemetry or to pass it to CloneFrom elsewhere. Present regardless of
// the dummy flag — inspecting the partition is not one of the
// operations spec.md §4.4 degrades when dummy.
func (p *Proxy) Cache() *Cache { return p.cache }

func (p *Proxy) InsertItem(key uint64, latency float64, tokens uint64) {
	if p.dummy {
		return
	}
	p.cache.InsertItem(key, latency, tokens)
}

func (p *Proxy) GetItem(key uint64) (block.Entry, bool) {
	if p.dummy {
		return block.Entry{}, false
	}
	return p.cache.GetItem(key)
}

func (p *Proxy) Contains(key uint64) bool {
	if p.dummy {
		return false
	}
	return p.cache.Contains(key)
}

func (p *Proxy) ShouldEvict() bool {
	if p.dummy {
		return false
	}
	return p.cache.ShouldEvict()
}

func (p *Proxy) EvictItem() (block.Entry, bool) {
	if p.dummy {
		return block.Entry{}, false
	}
	return p.cache.EvictItem()
}

func (p *Proxy) CanAdapt(src, dst block.Kind) bool {
	if p.dummy {
		return false
	}
	return p.cache.CanAdapt(src, dst)
}

func (p *Proxy) MoveQuantum(src, dst block.Kind) []block.Relocated {
	if p.dummy {
		return nil
	}
	return p.cache.MoveQuantum(src, dst)
}

func (p *Proxy) GetTimeframeAggregatedCost() float64 {
	if p.dummy {
		return math.Inf(1)
	}
	return p.cache.GetTimeframeAggregatedCost()
}

func (p *Proxy) ResetTimeframeStats() {
	if p.dummy {
		return
	}
	p.cache.ResetTimeframeStats()
}

func (p *Proxy) Len() int {
	if p.dummy {
		return 0
	}
	return p.cache.Len()
}

func (p *Proxy) Partition() [3]uint64 { return p.cache.Partition() }
