package telemetry

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecorder_RecordAdapt_WritesOneJSONLine(t *testing.T) {
	var buf bytes.Buffer
	r := NewJSON(&buf)

	r.RecordAdapt(AdaptEvent{
		GhostIndex:     2,
		SourceKind:     "fifo",
		DestKind:       "cost",
		SourceCapacity: 4,
		DestCapacity:   8,
		SampledCost:    12.5,
		GhostCost:      9.1,
		Applied:        true,
	})

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &decoded))
	require.Equal(t, "adapt", decoded["msg"])
	require.Equal(t, float64(2), decoded["ghost_index"])
	require.Equal(t, "fifo", decoded["source_kind"])
	require.Equal(t, true, decoded["applied"])
}

func TestRecorder_NilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	require.NotPanics(t, func() { r.RecordAdapt(AdaptEvent{}) })
}
