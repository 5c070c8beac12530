package pipelinecache

// Value is the record stored under each key: the latency the upstream
// pipeline would have cost to recompute this entry, and the size of its
// output in tokens.
type Value struct {
	Latency float64
	Tokens  uint64
}
