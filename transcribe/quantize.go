package transcribe

import (
	"math"
	"sort"
)

// Tick grid constants. A sixteenth note is the finest rhythm the
// notation layer can print, so note boundaries snap to its tick width.
const (
	TicksPerQuarter = 480
	GridTicks       = TicksPerQuarter / 4 // Sixteenth-note grid
)

// Quantizer snaps note events onto the sixteenth-note tick grid for a
// given tempo
type Quantizer struct {
	bpm float64
}

// NewQuantizer creates a quantizer for the given tempo
func NewQuantizer(bpm float64) *Quantizer {
	return &Quantizer{bpm: bpm}
}

// Quantize converts events from seconds to grid-aligned ticks. Events
// whose rounded start and end collide keep a minimum length of one
// grid step, so no detected note silently disappears.
func (q *Quantizer) Quantize(events []NoteEvent) []QuantizedNote {
	secondsPerTick := 60.0 / (q.bpm * TicksPerQuarter)

	notes := make([]QuantizedNote, 0, len(events))
	for _, ev := range events {
		start := snapToGrid(ev.StartSec / secondsPerTick)
		end := snapToGrid(ev.EndSec / secondsPerTick)

		if end <= start {
			end = start + GridTicks
		}

		notes = append(notes, QuantizedNote{
			MIDINote:   ev.MIDINote,
			Velocity:   ev.Velocity,
			StartTicks: start,
			EndTicks:   end,
		})
	}

	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].StartTicks != notes[j].StartTicks {
			return notes[i].StartTicks < notes[j].StartTicks
		}
		return notes[i].MIDINote < notes[j].MIDINote
	})

	return notes
}

// GroupByStart collects quantized notes into chords: runs of notes
// sharing a start tick. Input must be sorted by start tick.
func GroupByStart(notes []QuantizedNote) [][]QuantizedNote {
	var groups [][]QuantizedNote

	for i := 0; i < len(notes); {
		j := i
		for j < len(notes) && notes[j].StartTicks == notes[i].StartTicks {
			j++
		}
		groups = append(groups, notes[i:j])
		i = j
	}

	return groups
}

// snapToGrid rounds a tick position to the nearest grid step
func snapToGrid(ticks float64) int {
	return int(math.Round(ticks/GridTicks)) * GridTicks
}
