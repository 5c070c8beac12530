package pipelinecache

import (
	"github.com/benbjohnson/clock"

	"github.com/nkeren/pipelinecache/internal/telemetry"
)

// Option configures a Cache at construction, following the functional
// options idiom.
type Option func(*Cache)

// WithClock injects a clock.Clock in place of the real one, for
// deterministic control over entry timestamps in tests.
func WithClock(clk clock.Clock) Option {
	return func(c *Cache) { c.clock = clk }
}

// WithTelemetry attaches a Recorder that logs one event per Adapt call.
// The default is a nil Recorder, which is a safe no-op.
func WithTelemetry(r *telemetry.Recorder) Option {
	return func(c *Cache) { c.telemetry = r }
}
