// Package pipeline implements the pipeline cache: three policy blocks
// (FIFO, ALRU, cost) addressed through one key index, plus the proxy
// wrapper the adaptive layer uses to represent counterfactual shifts.
package pipeline

import (
	"github.com/benbjohnson/clock"

	"github.com/nkeren/pipelinecache/internal/assertx"
	"github.com/nkeren/pipelinecache/internal/block"
)

// location is a key index record: which block holds the entry and at
// what position within that block's ring buffer.
type location struct {
	kind     block.Kind
	position int
}

// blockOrder is the fixed scan order evict_item and the three-block
// array are indexed by.
var blockOrder = [3]block.Kind{block.FIFO, block.ALRU, block.Cost}

// Cache composes the three policy blocks into one addressable store:
// a shared key index, equal initial quanta across blocks, and a
// timeframe cost accumulator. Not safe for concurrent use — the host
// serializes all calls, per the single-threaded contract the whole
// engine carries.
type Cache struct {
	blocks        [3]block.Block
	index         map[uint64]location
	totalCapacity uint64
	quantumSize   uint64
	timeframeCost float64
	clock         clock.Clock
}

// NewCache builds a cache of totalCapacity entries split into equal
// quanta of quantumSize across the three blocks. totalCapacity must be
// an exact multiple of 3*quantumSize; this is a construction-time
// programmer contract, enforced by assertx like every other
// precondition in the core (config-level validation lives in pconfig,
// the boundary that turns this into a normal error for a host).
func NewCache(totalCapacity, quantumSize uint64, clk clock.Clock) *Cache {
	assertx.Require(quantumSize > 0, "pipeline: quantum_size must be positive")
	assertx.Require(totalCapacity%quantumSize == 0, "pipeline: capacity %d not a multiple of quantum_size %d", totalCapacity, quantumSize)
	quanta := totalCapacity / quantumSize
	assertx.Require(quanta%3 == 0, "pipeline: capacity %d / quantum_size %d = %d quanta, must split evenly across 3 blocks", totalCapacity, quantumSize, quanta)

	perBlock := totalCapacity / 3
	return &Cache{
		blocks: [3]block.Block{
			block.FIFO: block.NewFIFOBlock(int(totalCapacity), int(perBlock)),
			block.ALRU: block.NewALRUBlock(int(totalCapacity), int(perBlock)),
			block.Cost: block.NewCostBlock(int(totalCapacity), int(perBlock)),
		},
		index:         make(map[uint64]location),
		totalCapacity: totalCapacity,
		quantumSize:   quantumSize,
		clock:         clk,
	}
}

func (c *Cache) now() uint64 { return uint64(c.clock.Now().UnixMilli()) }

// InsertItem inserts or overwrites key with (latency, tokens). An
// existing key is overwritten in place — same block, same position,
// timestamp refreshed — without rerouting or resorting; a new key is
// routed to whichever block has spare quota, in fixed block order, or
// to the FIFO block if all three are full (the caller is then expected
// to call EvictItem).
func (c *Cache) InsertItem(key uint64, latency float64, tokens uint64) {
	now := c.now()
	if loc, ok := c.index[key]; ok {
		c.blocks[loc.kind].SetEntry(loc.position, block.Entry{
			ID:             key,
			Latency:        latency,
			Tokens:         tokens,
			LastAccessTime: now,
		})
		return
	}

	target := block.FIFO
	for _, kind := range blockOrder {
		if c.blocks[kind].Size() < c.blocks[kind].Capacity() {
			target = kind
			break
		}
	}

	relocs := c.blocks[target].Append(block.Entry{
		ID:             key,
		Latency:        latency,
		Tokens:         tokens,
		LastAccessTime: now,
	})
	for _, r := range relocs {
		c.index[r.ID] = location{kind: target, position: r.Position}
	}
}

// GetItem returns the entry stored under key, refreshing its
// last-access timestamp, or false if key is absent.
func (c *Cache) GetItem(key uint64) (block.Entry, bool) {
	loc, ok := c.index[key]
	if !ok {
		return block.Entry{}, false
	}
	return c.blocks[loc.kind].Touch(loc.position, c.now()), true
}

// Contains reports whether key is present, without touching it.
func (c *Cache) Contains(key uint64) bool {
	_, ok := c.index[key]
	return ok
}

// ShouldEvict reports whether the cache is at total capacity.
func (c *Cache) ShouldEvict() bool { return uint64(len(c.index)) == c.totalCapacity }

// EvictItem evicts one entry: the first block, in fixed order (FIFO,
// ALRU, Cost), at or over its curr_max_capacity. In steady state every
// block sits at exactly its capacity when the cache is full; the ">="
// (rather than strict equality) also catches the FIFO block in the one
// moment it is allowed to exceed its quota by one — InsertItem's
// fallback route for a new key when every block already has spare-free
// quota, which always lands in FIFO and is corrected by the very next
// EvictItem call. Popping the head moves every remaining entry of that
// block down one position, so their index records are rewritten. The
// evicted entry's latency is folded into the timeframe cost accumulator.
// Returns false if no block is full.
func (c *Cache) EvictItem() (block.Entry, bool) {
	for _, kind := range blockOrder {
		blk := c.blocks[kind]
		if blk.Size() < blk.Capacity() {
			continue
		}
		evicted, reloc, moved := blk.EvictHead()
		delete(c.index, evicted.ID)
		if moved {
			c.index[reloc.ID] = location{kind: kind, position: reloc.Position}
		}
		for i := 0; i < blk.Size(); i++ {
			c.index[blk.GetEntry(i).ID] = location{kind: kind, position: i}
		}
		c.timeframeCost += evicted.Latency
		return evicted, true
	}
	return block.Entry{}, false
}

// GetTimeframeAggregatedCost returns the accumulated eviction cost since
// the last ResetTimeframeStats.
func (c *Cache) GetTimeframeAggregatedCost() float64 { return c.timeframeCost }

// ResetTimeframeStats zeroes the timeframe cost accumulator.
func (c *Cache) ResetTimeframeStats() { c.timeframeCost = 0 }

// CanAdapt reports whether moving one quantum from src to dst would
// leave src with at least one quantum and not push dst over the
// cache's total capacity.
func (c *Cache) CanAdapt(src, dst block.Kind) bool {
	return uint64(c.blocks[src].Capacity()) >= 2*c.quantumSize &&
		uint64(c.blocks[dst].Capacity())+c.quantumSize <= c.totalCapacity
}

// MoveQuantum shifts one quantum of capacity from src to dst. Requires
// CanAdapt(src, dst). Rotates both blocks, asks src to donate a
// quantum to dst, and rewrites the index both for the entries the move
// relocated into dst and for every entry left behind in src — donating
// re-linearizes src, which shifts every surviving entry's position
// down by one quantum.
func (c *Cache) MoveQuantum(src, dst block.Kind) []block.Relocated {
	assertx.Require(c.CanAdapt(src, dst), "pipeline: move_quantum(%s, %s) is infeasible", src, dst)
	c.blocks[src].Rotate()
	c.blocks[dst].Rotate()
	moved, survivors := c.blocks[src].MoveQuantaTo(c.blocks[dst], int(c.quantumSize))
	for _, r := range survivors {
		c.index[r.ID] = location{kind: src, position: r.Position}
	}
	for _, r := range moved {
		c.index[r.ID] = location{kind: dst, position: r.Position}
	}
	return moved
}

// Keys returns every live key. Stable within one call; order
// unspecified across calls.
func (c *Cache) Keys() []uint64 {
	keys := make([]uint64, 0, len(c.index))
	for k := range c.index {
		keys = append(keys, k)
	}
	return keys
}

// Values returns every live entry. Stable within one call; order
// unspecified across calls.
func (c *Cache) Values() []block.Entry {
	values := make([]block.Entry, 0, len(c.index))
	for k, loc := range c.index {
		e := c.blocks[loc.kind].GetEntry(loc.position)
		assertx.Require(e.ID == k, "pipeline: index corruption for key %d", k)
		values = append(values, e)
	}
	return values
}

// Clear empties every block and the key index.
func (c *Cache) Clear() {
	for _, blk := range c.blocks {
		blk.Clear()
	}
	c.index = make(map[uint64]location)
}

// Len returns the number of live entries.
func (c *Cache) Len() int { return len(c.index) }

// Partition returns the current (FIFO, ALRU, Cost) quantum allocation.
func (c *Cache) Partition() [3]uint64 {
	return [3]uint64{
		uint64(c.blocks[block.FIFO].Capacity()),
		uint64(c.blocks[block.ALRU].Capacity()),
		uint64(c.blocks[block.Cost].Capacity()),
	}
}

// TotalCapacity returns the cache's fixed total capacity.
func (c *Cache) TotalCapacity() uint64 { return c.totalCapacity }

// QuantumSize returns the fixed quantum size.
func (c *Cache) QuantumSize() uint64 { return c.quantumSize }

// Clone returns a deep, independent copy: its own blocks, its own index,
// same accumulated cost and clock reference. Used to reseed ghost
// caches from the sampled baseline.
func (c *Cache) Clone() *Cache {
	blocks := [3]block.Block{}
	for i, blk := range c.blocks {
		blocks[i] = blk.Clone()
	}
	index := make(map[uint64]location, len(c.index))
	for k, v := range c.index {
		index[k] = v
	}
	return &Cache{
		blocks:        blocks,
		index:         index,
		totalCapacity: c.totalCapacity,
		quantumSize:   c.quantumSize,
		timeframeCost: c.timeframeCost,
		clock:         c.clock,
	}
}
