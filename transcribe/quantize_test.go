package transcribe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantizeSnapsToSixteenthGrid(t *testing.T) {
	// At 120 BPM one quarter is 0.5s, so one tick is 0.5/480 seconds
	q := NewQuantizer(120)

	tests := []struct {
		name      string
		event     NoteEvent
		wantStart int
		wantEnd   int
	}{
		{
			name:      "on grid",
			event:     NoteEvent{MIDINote: 60, StartSec: 0.5, EndSec: 1.0},
			wantStart: 480,
			wantEnd:   960,
		},
		{
			name:      "slightly early attack rounds onto the grid",
			event:     NoteEvent{MIDINote: 60, StartSec: 0.49, EndSec: 1.01},
			wantStart: 480,
			wantEnd:   960,
		},
		{
			name:      "short note keeps one grid step",
			event:     NoteEvent{MIDINote: 60, StartSec: 0.5, EndSec: 0.52},
			wantStart: 480,
			wantEnd:   600,
		},
		{
			name:      "zero-length event keeps one grid step",
			event:     NoteEvent{MIDINote: 60, StartSec: 1.0, EndSec: 1.0},
			wantStart: 960,
			wantEnd:   1080,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notes := q.Quantize([]NoteEvent{tt.event})
			require.Len(t, notes, 1)
			assert.Equal(t, tt.wantStart, notes[0].StartTicks)
			assert.Equal(t, tt.wantEnd, notes[0].EndTicks)
		})
	}
}

func TestQuantizeSortsByStartThenPitch(t *testing.T) {
	q := NewQuantizer(120)

	notes := q.Quantize([]NoteEvent{
		{MIDINote: 72, StartSec: 1.0, EndSec: 1.5},
		{MIDINote: 60, StartSec: 0.0, EndSec: 0.5},
		{MIDINote: 48, StartSec: 1.0, EndSec: 1.5},
	})

	require.Len(t, notes, 3)
	assert.Equal(t, 60, notes[0].MIDINote)
	assert.Equal(t, 48, notes[1].MIDINote)
	assert.Equal(t, 72, notes[2].MIDINote)
}

func TestQuantizedNoteBeatConversions(t *testing.T) {
	note := QuantizedNote{StartTicks: 960, EndTicks: 1440}

	assert.InDelta(t, 2.0, note.StartBeats(), 1e-9)
	assert.InDelta(t, 1.0, note.DurationBeats(), 1e-9)
}

func TestGroupByStart(t *testing.T) {
	notes := []QuantizedNote{
		{MIDINote: 60, StartTicks: 0},
		{MIDINote: 64, StartTicks: 0},
		{MIDINote: 67, StartTicks: 480},
	}

	groups := GroupByStart(notes)

	require.Len(t, groups, 2)
	assert.Len(t, groups[0], 2)
	assert.Len(t, groups[1], 1)
}

func TestQuantizeTempoScalesGrid(t *testing.T) {
	// At 60 BPM one quarter is a full second
	q := NewQuantizer(60)

	notes := q.Quantize([]NoteEvent{{MIDINote: 60, StartSec: 2.0, EndSec: 3.0}})

	require.Len(t, notes, 1)
	assert.Equal(t, 960, notes[0].StartTicks)
	assert.Equal(t, 1440, notes[0].EndTicks)
}
