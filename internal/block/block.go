// Package block implements the three eviction-policy variants a pipeline
// cache composes: FIFO, approximate-LRU (ALRU), and cost-ordered. All
// three share one ring buffer of Entry plus the bookkeeping a single
// eviction policy needs (cache_max_capacity, curr_max_capacity), and
// expose insert/evict/touch in policy terms plus the bulk quantum
// transfer the adapter uses to shift capacity between blocks.
package block

import (
	"github.com/nkeren/pipelinecache/internal/assertx"
	"github.com/nkeren/pipelinecache/internal/ring"
)

// Kind names one of the three closed eviction-policy variants.
type Kind int

const (
	FIFO Kind = iota
	ALRU
	Cost
)

func (k Kind) String() string {
	switch k {
	case FIFO:
		return "fifo"
	case ALRU:
		return "alru"
	case Cost:
		return "cost"
	default:
		return "unknown"
	}
}

// Entry is a single cached record: the key, the stored value (latency and
// tokens), and the last-access timestamp used by the ALRU and cost
// policies.
type Entry struct {
	ID             uint64
	Latency        float64
	Tokens         uint64
	LastAccessTime uint64
}

// Relocated records that the entry identified by ID now lives at Position
// within the block the caller is inspecting. A single Append or a quantum
// transfer may relocate more than one entry (the cost block's ordered
// insert shifts everything it passes); callers use this to keep a key
// index in sync.
type Relocated struct {
	ID       uint64
	Position int
}

// Block is the shared contract all three eviction-policy variants
// implement. The variant set is closed: Block's unexported methods seal
// it to this package.
type Block interface {
	Kind() Kind
	Size() int
	Capacity() int
	CacheMaxCapacity() int
	IsFull() bool
	Clear()
	GetEntry(pos int) Entry
	SetEntry(pos int, e Entry) Entry
	Touch(pos int, now uint64) Entry
	Append(e Entry) []Relocated
	EvictHead() (evicted Entry, relocated Relocated, moved bool)
	Rotate()
	MoveQuantaTo(dst Block, quantumSize int) (moved, survivors []Relocated)
	// Clone returns a deep, independent copy of this block: its own ring
	// buffer storage, same kind and capacities. Used to reseed ghost
	// caches from the sampled baseline.
	Clone() Block

	ringBuf() *ring.Buffer[Entry]
	growCapacity(by int)
	shrinkCapacity(by int)
}

// base implements everything common to FIFO, ALRU and cost blocks. Each
// concrete block type embeds base and supplies only Append/EvictHead/Clone.
type base struct {
	kind             Kind
	ringBuffer       *ring.Buffer[Entry]
	cacheMaxCapacity int
	currMaxCapacity  int
}

func newBase(kind Kind, cacheMaxCapacity, currMaxCapacity int) base {
	assertx.Require(currMaxCapacity <= cacheMaxCapacity,
		"block: initial capacity %d exceeds cache_max_capacity %d", currMaxCapacity, cacheMaxCapacity)
	return base{
		kind:             kind,
		ringBuffer:       ring.New[Entry](cacheMaxCapacity),
		cacheMaxCapacity: cacheMaxCapacity,
		currMaxCapacity:  currMaxCapacity,
	}
}

func (b *base) Kind() Kind             { return b.kind }
func (b *base) Size() int              { return b.ringBuffer.Len() }
func (b *base) Capacity() int          { return b.currMaxCapacity }
func (b *base) CacheMaxCapacity() int  { return b.cacheMaxCapacity }
func (b *base) IsFull() bool           { return b.Size() == b.currMaxCapacity }
func (b *base) Clear()                 { b.ringBuffer.Clear() }
func (b *base) GetEntry(pos int) Entry { return b.ringBuffer.At(pos) }

// SetEntry overwrites the entry at pos wholesale — used by insert_item's
// overwrite-in-place path, which the spec requires even for the cost
// block, at the cost of possibly leaving that one entry briefly
// out of cost order until it is next evicted or shifted.
func (b *base) SetEntry(pos int, e Entry) Entry { return b.ringBuffer.Replace(pos, e) }

// Touch refreshes an entry's last-access timestamp in place. It never
// reorders the buffer — the ALRU policy is an approximation precisely
// because recency drifts with queue position and this timestamp rather
// than through eager relinking.
func (b *base) Touch(pos int, now uint64) Entry {
	e := b.ringBuffer.At(pos)
	e.LastAccessTime = now
	b.ringBuffer.Replace(pos, e)
	return e
}

func (b *base) Rotate()                      { b.ringBuffer.Rotate() }
func (b *base) ringBuf() *ring.Buffer[Entry] { return b.ringBuffer }

// cloneBase deep-copies the fields every variant shares; each concrete
// type wraps this to produce its own Clone.
func (b *base) cloneBase() base {
	return base{
		kind:             b.kind,
		ringBuffer:       b.ringBuffer.Clone(),
		cacheMaxCapacity: b.cacheMaxCapacity,
		currMaxCapacity:  b.currMaxCapacity,
	}
}

func (b *base) growCapacity(by int) {
	b.currMaxCapacity += by
	assertx.Require(b.currMaxCapacity <= b.cacheMaxCapacity,
		"block: curr_max_capacity %d would exceed cache_max_capacity %d", b.currMaxCapacity, b.cacheMaxCapacity)
}

func (b *base) shrinkCapacity(by int) {
	assertx.Require(by <= b.currMaxCapacity, "block: cannot shrink capacity %d by %d", b.currMaxCapacity, by)
	b.currMaxCapacity -= by
}

// appendTail is the FIFO/ALRU insert primitive: O(1) append at the tail,
// relocating nothing else.
func (b *base) appendTail(e Entry) []Relocated {
	pos := b.ringBuffer.Len()
	b.ringBuffer.PushTail(e)
	return []Relocated{{ID: e.ID, Position: pos}}
}

// evictHeadSimple is the head-pop eviction primitive all three blocks
// use. Popping the head moves every remaining entry down one logical
// position; it reports no Relocated (moved is false), so a caller keeping
// a position index re-reads the remaining entries' positions itself.
func (b *base) evictHeadSimple() (Entry, Relocated, bool) {
	return b.ringBuffer.PopHead(), Relocated{}, false
}

// MoveQuantaTo moves quantumSize entries from this block's head into
// dst's tail (every entry it holds, when it holds fewer), shrinking this
// block's curr_max_capacity by exactly quantumSize and growing dst's by
// the same. Both blocks must already be rotated (Rotate). Common to all
// three block kinds per the quantum transfer contract.
//
// PartialMoveTo re-linearizes the source afterward (ring.Buffer.Rotate),
// which shifts every surviving source entry's logical index down by the
// number of entries moved — with a full quantum moved, the entry that was
// at position quantumSize is now at position 0, and so on. moved reports the relocated entries' new
// positions in dst; survivors reports every entry still in this block
// at its new position, which the caller must also apply to its index —
// skipping this half silently corrupts the index for any block holding
// more than one quantum.
func (b *base) MoveQuantaTo(dst Block, quantumSize int) (moved, survivors []Relocated) {
	assertx.Require(!b.ringBuffer.IsRotated(), "block: move_quanta_to requires a rotated source")
	dstRing := dst.ringBuf()
	assertx.Require(!dstRing.IsRotated(), "block: move_quanta_to requires a rotated destination")

	offset := dstRing.Len()
	count := min(quantumSize, b.ringBuffer.Len())
	b.ringBuffer.PartialMoveTo(dstRing, count)
	b.shrinkCapacity(quantumSize)
	dst.growCapacity(quantumSize)

	moved = make([]Relocated, count)
	for i := 0; i < count; i++ {
		e := dstRing.At(offset + i)
		moved[i] = Relocated{ID: e.ID, Position: offset + i}
	}

	survivors = make([]Relocated, b.ringBuffer.Len())
	for i := range survivors {
		e := b.ringBuffer.At(i)
		survivors[i] = Relocated{ID: e.ID, Position: i}
	}
	return moved, survivors
}
