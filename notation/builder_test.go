package notation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEmptyScoreHasWholeRestMeasures(t *testing.T) {
	builder := NewNotationBuilder()

	score, err := builder.Build("Empty", 120, nil)
	require.NoError(t, err)

	for _, part := range score.Parts() {
		require.Len(t, part.Measures, 1)
		require.Len(t, part.Measures[0].Elements, 1)

		rest, ok := part.Measures[0].Elements[0].(Rest)
		require.True(t, ok, "expected a rest in part %s", part.ID)
		assert.Equal(t, MeasureLength, rest.Duration)
	}
}

func TestBuildSplitsStavesAtMiddleC(t *testing.T) {
	builder := NewNotationBuilder()

	score, err := builder.Build("Split", 120, []TimedNote{
		{MIDINote: 60, Velocity: 80, StartBeats: 0, DurationBeats: 1},
		{MIDINote: 59, Velocity: 80, StartBeats: 0, DurationBeats: 1},
	})
	require.NoError(t, err)

	trebleNote, ok := score.Treble.Measures[0].Elements[0].(Note)
	require.True(t, ok)
	assert.Equal(t, 60, trebleNote.MIDINote)

	bassNote, ok := score.Bass.Measures[0].Elements[0].(Note)
	require.True(t, ok)
	assert.Equal(t, 59, bassNote.MIDINote)
}

func TestBuildPadsPartialMeasureWithRests(t *testing.T) {
	builder := NewNotationBuilder()

	score, err := builder.Build("Pad", 120, []TimedNote{
		{MIDINote: 72, Velocity: 80, StartBeats: 0, DurationBeats: 1},
	})
	require.NoError(t, err)

	measure := score.Treble.Measures[0]
	assert.InDelta(t, MeasureLength, measure.Length(), 1e-9)

	note, ok := measure.Elements[0].(Note)
	require.True(t, ok)
	assert.False(t, note.TieStart)
	assert.False(t, note.TieStop)

	restTotal := 0.0
	for _, el := range measure.Elements[1:] {
		rest, ok := el.(Rest)
		require.True(t, ok)
		restTotal += rest.Duration
	}
	assert.InDelta(t, 3.0, restTotal, 1e-9)
}

func TestBuildWritesRestsForGaps(t *testing.T) {
	builder := NewNotationBuilder()

	// A quarter note on beat 1 and another on beat 3 leave a quarter gap
	score, err := builder.Build("Gaps", 120, []TimedNote{
		{MIDINote: 72, Velocity: 80, StartBeats: 0, DurationBeats: 1},
		{MIDINote: 74, Velocity: 80, StartBeats: 2, DurationBeats: 1},
	})
	require.NoError(t, err)

	measure := score.Treble.Measures[0]
	require.GreaterOrEqual(t, len(measure.Elements), 3)

	rest, ok := measure.Elements[1].(Rest)
	require.True(t, ok, "gap between notes should print as a rest")
	assert.InDelta(t, 1.0, rest.Duration, 1e-9)
}

func TestBuildTiesNoteAcrossBarline(t *testing.T) {
	builder := NewNotationBuilder()

	// A half note starting on beat 4 crosses into measure 2
	score, err := builder.Build("Tied", 120, []TimedNote{
		{MIDINote: 72, Velocity: 80, StartBeats: 3, DurationBeats: 2},
	})
	require.NoError(t, err)

	require.Len(t, score.Treble.Measures, 2)

	first := score.Treble.Measures[0]
	head, ok := first.Elements[len(first.Elements)-1].(Note)
	require.True(t, ok)
	assert.InDelta(t, 1.0, head.Duration, 1e-9)
	assert.True(t, head.TieStart)
	assert.False(t, head.TieStop)

	second := score.Treble.Measures[1]
	tail, ok := second.Elements[0].(Note)
	require.True(t, ok)
	assert.InDelta(t, 1.0, tail.Duration, 1e-9)
	assert.False(t, tail.TieStart)
	assert.True(t, tail.TieStop)

	for _, part := range score.Parts() {
		for _, measure := range part.Measures {
			assert.True(t, measure.IsFull(), "measure %d of %s", measure.Number, part.ID)
		}
	}
}

func TestBuildGroupsSimultaneousNotesIntoChord(t *testing.T) {
	builder := NewNotationBuilder()

	score, err := builder.Build("Chord", 120, []TimedNote{
		{MIDINote: 60, Velocity: 80, StartBeats: 0, DurationBeats: 1},
		{MIDINote: 64, Velocity: 80, StartBeats: 0, DurationBeats: 1},
		{MIDINote: 67, Velocity: 80, StartBeats: 0, DurationBeats: 0.5},
	})
	require.NoError(t, err)

	chord, ok := score.Treble.Measures[0].Elements[0].(Chord)
	require.True(t, ok)
	assert.Len(t, chord.Notes, 3)

	// The chord prints at the longest member's snapped duration
	assert.InDelta(t, 1.0, chord.Duration, 1e-9)
}

func TestBuildEqualizesMeasureCounts(t *testing.T) {
	builder := NewNotationBuilder()

	// Two measures of treble, nothing in the bass
	score, err := builder.Build("Equalize", 120, []TimedNote{
		{MIDINote: 72, Velocity: 80, StartBeats: 0, DurationBeats: 4},
		{MIDINote: 72, Velocity: 80, StartBeats: 4, DurationBeats: 4},
	})
	require.NoError(t, err)

	assert.Equal(t, len(score.Treble.Measures), len(score.Bass.Measures))

	last := score.Bass.Measures[len(score.Bass.Measures)-1]
	rest, ok := last.Elements[0].(Rest)
	require.True(t, ok)
	assert.Equal(t, MeasureLength, rest.Duration)
}

func TestDecomposeLength(t *testing.T) {
	tests := []struct {
		name   string
		length float64
		want   []float64
	}{
		{"whole", 4.0, []float64{4.0}},
		{"dotted half", 3.0, []float64{2.0, 1.0}},
		{"dotted quarter", 1.5, []float64{1.0, 0.5}},
		{"sixteenth", 0.25, []float64{0.25}},
		{"three quarters of a beat", 0.75, []float64{0.5, 0.25}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decomposeLength(tt.length))
		})
	}
}

func TestSnapDuration(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.0, 0.25},
		{0.3, 0.25},
		{0.4, 0.5},
		{0.9, 1.0},
		{1.6, 2.0},
		{3.5, 4.0},
		{9.0, 4.0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SnapDuration(tt.in), "SnapDuration(%v)", tt.in)
	}
}
