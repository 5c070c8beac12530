// Package telemetry records adaptation events. The engine has no internal
// background loop, so unlike a periodic-flush logger this one is
// event-triggered: exactly one structured log line per Adapt call,
// describing which ghost (if any) won and what capacity shift it proposed.
package telemetry

import (
	"io"
	"log/slog"
)

// AdaptEvent describes the outcome of a single Adapt call.
type AdaptEvent struct {
	// GhostIndex is the winning ghost's index (0-5), or -1 if no ghost's
	// cost was below the main cache's and no shift was applied.
	GhostIndex int
	SourceKind string
	DestKind   string
	// SourceCapacity and DestCapacity are the blocks' curr_max_capacity
	// after the shift (or before, when Applied is false).
	SourceCapacity uint64
	DestCapacity   uint64
	// SampledCost is the main cache's timeframe cost, the value the
	// ghosts' costs are compared against.
	SampledCost float64
	GhostCost   float64
	Applied     bool
}

// Recorder logs AdaptEvents as structured JSON.
type Recorder struct {
	logger *slog.Logger
}

// New wraps an existing *slog.Logger.
func New(logger *slog.Logger) *Recorder {
	return &Recorder{logger: logger}
}

// NewJSON builds a Recorder that writes JSON lines to w.
func NewJSON(w io.Writer) *Recorder {
	return New(slog.New(slog.NewJSONHandler(w, nil)))
}

// RecordAdapt logs one line per Adapt call.
func (r *Recorder) RecordAdapt(e AdaptEvent) {
	if r == nil || r.logger == nil {
		return
	}
	r.logger.Info("adapt",
		slog.Int("ghost_index", e.GhostIndex),
		slog.String("source_kind", e.SourceKind),
		slog.String("dest_kind", e.DestKind),
		slog.Uint64("source_capacity", e.SourceCapacity),
		slog.Uint64("dest_capacity", e.DestCapacity),
		slog.Float64("sampled_cost", e.SampledCost),
		slog.Float64("ghost_cost", e.GhostCost),
		slog.Bool("applied", e.Applied),
	)
}
