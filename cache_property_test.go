package pipelinecache

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nkeren/pipelinecache/internal/pconfig"
	"github.com/nkeren/pipelinecache/internal/sampling"
)

// checkStructuralInvariants asserts the properties that must hold after
// every single operation, regardless of workload: the key index agrees
// with what each block reports, the cache never exceeds its capacity,
// and the partition stays a valid split of the total.
func checkStructuralInvariants(t *testing.T, c *Cache) {
	t.Helper()

	require.LessOrEqual(t, c.Len(), c.MaxSize())
	keys := c.Keys()
	require.Len(t, keys, c.Len())
	require.Len(t, c.Values(), c.Len())
	for _, k := range keys {
		require.True(t, c.Contains(k), "key %d listed but not found", k)
		_, ok := c.Get(k)
		require.True(t, ok, "key %d listed but Get failed", k)
	}

	checkPartitionInvariants(t, c.main.Partition(), c.main.TotalCapacity(), c.main.QuantumSize())
	if !c.sampled.IsDummy() {
		checkPartitionInvariants(t, c.sampled.Partition(), c.main.TotalCapacity(), c.main.QuantumSize())
	}
	for i, g := range c.ghosts {
		if g.IsDummy() {
			// property #6, the other direction: a dummy ghost's labelled
			// shift must actually be infeasible against the sampled
			// cache right now, not just at whatever earlier round last
			// reseeded it — otherwise a once-dummy ghost could stay
			// dummy after a later shift made it feasible again.
			gi, gj := shifts[i][0], shifts[i][1]
			require.False(t, c.sampled.CanAdapt(gi, gj),
				"ghost %d is dummy but its shift (%s->%s) is feasible against the sampled cache", i, gi, gj)
			continue
		}
		checkPartitionInvariants(t, g.Partition(), c.main.TotalCapacity(), c.main.QuantumSize())
	}
}

// checkPartitionInvariants asserts a (FIFO, ALRU, Cost) partition is a
// valid split of total: every block holds at least one quantum, every
// block's share is a multiple of the quantum, and the three sum to the
// whole.
func checkPartitionInvariants(t *testing.T, p [3]uint64, total, quantum uint64) {
	t.Helper()

	var sum uint64
	for _, capacity := range p {
		require.GreaterOrEqual(t, capacity, quantum)
		require.Zero(t, capacity%quantum)
		sum += capacity
	}
	require.Equal(t, total, sum)
}

// TestCache_RandomizedWorkloadPreservesInvariants drives a long
// pseudo-random sequence of every public operation against a fixed
// seed and re-checks the structural invariants after each one, plus
// sampling determinism and ghost feasibility after every Adapt. The
// capacity/quantum combination (24/4, two quanta per block) is chosen
// so CanAdapt is satisfiable and some ghosts stay non-dummy across the
// run, actually exercising the adaptation path rather than only its
// no-op branch.
func TestCache_RandomizedWorkloadPreservesInvariants(t *testing.T) {
	c, err := New(pconfig.Config{Capacity: 24, QuantumSize: 4, SampleMask: 0x3})
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(1, 2))
	const keySpace = 40

	for i := 0; i < 5000; i++ {
		key := uint64(rng.IntN(keySpace) + 1)
		switch rng.IntN(6) {
		case 0, 1, 2:
			c.Set(key, Value{Latency: rng.Float64() * 100, Tokens: uint64(rng.IntN(16) + 1)})
		case 3:
			c.Get(key)
		case 4:
			c.Contains(key)
		case 5:
			if c.Len() == c.MaxSize() {
				c.PopOne()
			}
		}
		checkStructuralInvariants(t, c)

		if i%37 == 0 {
			c.Adapt()
			checkStructuralInvariants(t, c)
			assertSamplingIsDeterministic(t, c, key)
		}
	}
}

// assertSamplingIsDeterministic re-evaluates whether key is sampled
// under the cache's fixed mask twice — the decision must be a pure
// function of (key, mask), never drifting across calls.
func assertSamplingIsDeterministic(t *testing.T, c *Cache, key uint64) {
	t.Helper()

	first := sampling.ShouldSample(key, c.sampleMask)
	second := sampling.ShouldSample(key, c.sampleMask)
	require.Equal(t, first, second, "sampling decision for key %d must be stable", key)
}
