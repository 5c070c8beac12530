package block

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFIFOBlock_InsertAndEvictOrder(t *testing.T) {
	b := NewFIFOBlock(8, 4)
	for i := uint64(1); i <= 3; i++ {
		relocs := b.Append(Entry{ID: i, Latency: 1, Tokens: 1, LastAccessTime: i})
		require.Len(t, relocs, 1)
		require.Equal(t, i, relocs[0].ID)
		require.Equal(t, int(i-1), relocs[0].Position)
	}
	require.Equal(t, 3, b.Size())
	require.False(t, b.IsFull())

	evicted, reloc, moved := b.EvictHead()
	require.Equal(t, uint64(1), evicted.ID)
	require.False(t, moved)
	require.Zero(t, reloc)
}

func TestFIFOBlock_IsFullUsesCurrMaxCapacity(t *testing.T) {
	b := NewFIFOBlock(8, 2)
	b.Append(Entry{ID: 1})
	require.False(t, b.IsFull())
	b.Append(Entry{ID: 2})
	require.True(t, b.IsFull())
}

func TestALRUBlock_TouchRefreshesTimestampWithoutReordering(t *testing.T) {
	b := NewALRUBlock(8, 4)
	b.Append(Entry{ID: 1, LastAccessTime: 10})
	b.Append(Entry{ID: 2, LastAccessTime: 20})

	updated := b.Touch(0, 999)
	require.Equal(t, uint64(1), updated.ID)
	require.Equal(t, uint64(999), updated.LastAccessTime)

	// eviction order unaffected by touch: still FIFO by position.
	evicted, _, moved := b.EvictHead()
	require.Equal(t, uint64(1), evicted.ID)
	require.False(t, moved)
}

func TestCostBlock_AppendMaintainsAscendingOrder(t *testing.T) {
	b := NewCostBlock(8, 8)
	b.Append(Entry{ID: 1, Latency: 5})
	b.Append(Entry{ID: 2, Latency: 1})
	b.Append(Entry{ID: 3, Latency: 3})

	require.Equal(t, uint64(2), b.GetEntry(0).ID)
	require.Equal(t, uint64(3), b.GetEntry(1).ID)
	require.Equal(t, uint64(1), b.GetEntry(2).ID)
}

func TestCostBlock_AppendReportsAllShiftedRelocations(t *testing.T) {
	b := NewCostBlock(8, 8)
	b.Append(Entry{ID: 1, Latency: 5})
	b.Append(Entry{ID: 2, Latency: 4})

	relocs := b.Append(Entry{ID: 3, Latency: 1})
	require.Len(t, relocs, 3)

	byID := map[uint64]int{}
	for _, r := range relocs {
		byID[r.ID] = r.Position
	}
	require.Equal(t, 0, byID[3])
	require.Equal(t, 2, byID[1])
	require.Equal(t, 1, byID[2])
}

func TestCostBlock_EvictHeadRemovesCheapest(t *testing.T) {
	b := NewCostBlock(8, 8)
	b.Append(Entry{ID: 1, Latency: 5})
	b.Append(Entry{ID: 2, Latency: 1})
	b.Append(Entry{ID: 3, Latency: 3})

	evicted, _, moved := b.EvictHead()
	require.Equal(t, uint64(2), evicted.ID)
	require.False(t, moved)
	require.Equal(t, 2, b.Size())
}

func TestCostBlock_TiesBrokenByTokensThenLastAccess(t *testing.T) {
	b := NewCostBlock(8, 8)
	b.Append(Entry{ID: 1, Latency: 1, Tokens: 5, LastAccessTime: 1})
	b.Append(Entry{ID: 2, Latency: 1, Tokens: 2, LastAccessTime: 1})
	b.Append(Entry{ID: 3, Latency: 1, Tokens: 2, LastAccessTime: 0})

	require.Equal(t, uint64(3), b.GetEntry(0).ID)
	require.Equal(t, uint64(2), b.GetEntry(1).ID)
	require.Equal(t, uint64(1), b.GetEntry(2).ID)
}

func TestBlock_MoveQuantaTo(t *testing.T) {
	src := NewFIFOBlock(12, 8)
	for i := uint64(1); i <= 6; i++ {
		src.Append(Entry{ID: i})
	}
	dst := NewALRUBlock(12, 0)

	src.Rotate()
	dst.Rotate()
	moved, survivors := src.MoveQuantaTo(dst, 4)

	require.Len(t, moved, 4)
	require.Equal(t, 2, src.Size())
	require.Equal(t, 4, dst.Size())
	require.Equal(t, 4, src.Capacity())
	require.Equal(t, 4, dst.Capacity())

	require.Equal(t, uint64(1), dst.GetEntry(0).ID)
	require.Equal(t, uint64(4), dst.GetEntry(3).ID)
	require.Equal(t, uint64(5), src.GetEntry(0).ID)

	// the two entries left behind (6, 7 were never appended — only 5
	// and 6 survive) are now reported at their shifted positions: what
	// was logical position 4 and 5 (values 5, 6) is now 0 and 1.
	require.Len(t, survivors, 2)
	require.Equal(t, uint64(5), survivors[0].ID)
	require.Equal(t, 0, survivors[0].Position)
	require.Equal(t, uint64(6), survivors[1].ID)
	require.Equal(t, 1, survivors[1].Position)
}

func TestBlock_MoveQuantaTo_RequiresRotatedBuffers(t *testing.T) {
	src := NewFIFOBlock(8, 8)
	src.Append(Entry{ID: 1})
	src.Append(Entry{ID: 2})
	src.EvictHead() // rotates head away from 0

	dst := NewFIFOBlock(8, 0)

	require.Panics(t, func() { src.MoveQuantaTo(dst, 1) })
}

func TestBlock_GrowCapacityPastCacheMaxPanics(t *testing.T) {
	src := NewFIFOBlock(4, 4)
	dst := NewFIFOBlock(4, 4)
	src.Rotate()
	dst.Rotate()

	require.Panics(t, func() { src.MoveQuantaTo(dst, 1) })
}

func TestBlock_Clear(t *testing.T) {
	b := NewFIFOBlock(4, 4)
	b.Append(Entry{ID: 1})
	b.Append(Entry{ID: 2})
	b.Clear()
	require.Equal(t, 0, b.Size())
}

func TestBlock_CloneIsIndependent(t *testing.T) {
	b := NewFIFOBlock(8, 4)
	b.Append(Entry{ID: 1})
	b.Append(Entry{ID: 2})

	clone := b.Clone()
	clone.Append(Entry{ID: 3})

	require.Equal(t, 2, b.Size())
	require.Equal(t, 3, clone.Size())
	require.Equal(t, FIFO, clone.Kind())
}

func TestBlock_SetEntryOverwritesWholesale(t *testing.T) {
	b := NewFIFOBlock(8, 4)
	b.Append(Entry{ID: 1, Latency: 1})
	old := b.SetEntry(0, Entry{ID: 1, Latency: 9, Tokens: 2, LastAccessTime: 5})
	require.Equal(t, float64(1), old.Latency)
	require.Equal(t, float64(9), b.GetEntry(0).Latency)
}

func TestKind_String(t *testing.T) {
	require.Equal(t, "fifo", FIFO.String())
	require.Equal(t, "alru", ALRU.String())
	require.Equal(t, "cost", Cost.String())
	require.Equal(t, "unknown", Kind(99).String())
}
