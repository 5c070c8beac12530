package block

// ALRUBlock approximates least-recently-used eviction without relinking on
// every access: insert appends at the tail, eviction pops the head, and
// Touch refreshes an entry's timestamp in place. Recency is therefore only
// approximate — it drifts with queue position plus the stored timestamp,
// not a strict access-ordered list.
type ALRUBlock struct {
	base
}

// NewALRUBlock allocates an ALRU block backed by a ring sized to
// cacheMaxCapacity, starting with currMaxCapacity live slots.
func NewALRUBlock(cacheMaxCapacity, currMaxCapacity int) *ALRUBlock {
	return &ALRUBlock{base: newBase(ALRU, cacheMaxCapacity, currMaxCapacity)}
}

func (b *ALRUBlock) Append(e Entry) []Relocated { return b.appendTail(e) }

func (b *ALRUBlock) EvictHead() (Entry, Relocated, bool) { return b.evictHeadSimple() }

func (b *ALRUBlock) Clone() Block { return &ALRUBlock{base: b.cloneBase()} }
