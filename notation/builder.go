package notation

import (
	"math"
	"sort"

	"github.com/AbhiJ2706/cs489-project/logging"
)

// DefaultSplitPitch is middle C; notes at or above it go to the treble
// staff, notes below to the bass staff
const DefaultSplitPitch = 60

// TimedNote is a quantized note positioned on the beat grid, the
// builder's input. Starts and durations are in quarter lengths and
// always multiples of a sixteenth.
type TimedNote struct {
	MIDINote      int     `json:"midi_note"`
	Velocity      int     `json:"velocity"`
	StartBeats    float64 `json:"start_beats"`
	DurationBeats float64 `json:"duration_beats"`
}

// builderState is the measure-filling state of one staff
type builderState int

const (
	// stateAccumulating: the current element fits in the open measure
	stateAccumulating builderState = iota
	// stateOverflowSplit: the current element crosses the barline and
	// is being split into tied fragments
	stateOverflowSplit
)

// NotationBuilder turns a flat list of quantized notes into a two-staff
// ScoreModel.
//
// Each staff is built independently with a cursor walking the beat
// grid. Gaps of at least a sixteenth become explicit rests; notes and
// chords that cross a barline are split into tied fragments. Every
// produced measure sums to exactly one bar of 4/4.
type NotationBuilder struct {
	splitPitch int
	logger     logging.Logger
}

// NewNotationBuilder creates a builder splitting staves at middle C
func NewNotationBuilder() *NotationBuilder {
	return NewNotationBuilderWithSplit(DefaultSplitPitch)
}

// NewNotationBuilderWithSplit creates a builder with a custom staff
// split pitch
func NewNotationBuilderWithSplit(splitPitch int) *NotationBuilder {
	return &NotationBuilder{
		splitPitch: splitPitch,
		logger: logging.WithFields(logging.Fields{
			"component": "notation_builder",
		}),
	}
}

// Build assembles the score from quantized notes
func (nb *NotationBuilder) Build(title string, bpm float64, notes []TimedNote) (*ScoreModel, error) {
	score := NewScoreModel(title, bpm)

	var treble, bass []TimedNote
	for _, note := range notes {
		if note.MIDINote >= nb.splitPitch {
			treble = append(treble, note)
		} else {
			bass = append(bass, note)
		}
	}

	score.Treble.Measures = nb.buildStaff(treble)
	score.Bass.Measures = nb.buildStaff(bass)
	nb.equalizeMeasureCounts(score)

	if err := score.Validate(); err != nil {
		return nil, err
	}

	nb.logger.Debug("built score", logging.Fields{
		"treble_measures": len(score.Treble.Measures),
		"bass_measures":   len(score.Bass.Measures),
		"notes":           len(notes),
	})

	return score, nil
}

// staffWriter accumulates elements into measures for one staff
type staffWriter struct {
	measures []*Measure
	current  *Measure
	fill     float64 // Occupied quarters of the open measure
	state    builderState
}

func (w *staffWriter) open() {
	if w.current == nil {
		w.current = &Measure{Number: len(w.measures) + 1}
		w.fill = 0.0
	}
}

func (w *staffWriter) append(el Element) {
	w.open()
	w.current.Elements = append(w.current.Elements, el)
	w.fill += el.Length()

	if w.fill >= MeasureLength-1e-9 {
		w.measures = append(w.measures, w.current)
		w.current = nil
	}
}

// room returns the unoccupied quarters in the open measure
func (w *staffWriter) room() float64 {
	w.open()
	return MeasureLength - w.fill
}

// buildStaff lays out one staff's notes into full measures
func (nb *NotationBuilder) buildStaff(notes []TimedNote) []*Measure {
	if len(notes) == 0 {
		// An empty staff still needs a printed measure
		return []*Measure{{
			Number:   1,
			Elements: []Element{Rest{Duration: MeasureLength}},
		}}
	}

	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].StartBeats < notes[j].StartBeats
	})

	writer := &staffWriter{}
	cursor := 0.0

	for i := 0; i < len(notes); {
		// Collect the chord struck at this grid position
		j := i
		for j < len(notes) && math.Abs(notes[j].StartBeats-notes[i].StartBeats) < 1e-9 {
			j++
		}
		chord := notes[i:j]
		start := notes[i].StartBeats

		// Fill any audible gap before the attack with rests
		if gap := start - cursor; gap >= SixteenthLength-1e-9 {
			nb.writeRests(writer, gap)
			cursor = start
		}

		duration := nb.chordDuration(chord)
		nb.writeChord(writer, chord, duration)
		cursor = start + duration

		i = j
	}

	// Pad the trailing partial measure so the staff ends on a barline
	if writer.current != nil {
		nb.writeRests(writer, writer.room())
	}

	return writer.measures
}

// chordDuration picks a single printed duration for simultaneous
// notes: the longest, snapped to a representable length
func (nb *NotationBuilder) chordDuration(chord []TimedNote) float64 {
	longest := 0.0
	for _, note := range chord {
		if note.DurationBeats > longest {
			longest = note.DurationBeats
		}
	}
	return SnapDuration(longest)
}

// writeChord emits a note or chord, splitting it into tied fragments
// wherever it crosses a barline
func (nb *NotationBuilder) writeChord(w *staffWriter, chord []TimedNote, duration float64) {
	remaining := duration
	first := true

	for remaining > 1e-9 {
		room := w.room()
		span := math.Min(remaining, room)

		w.state = stateAccumulating
		if span < remaining {
			w.state = stateOverflowSplit
		}

		// A span that is not itself a symbol length becomes several
		// tied fragments within the measure
		fragments := decomposeLength(span)
		for fi, fragLen := range fragments {
			last := w.state == stateAccumulating &&
				remaining-span < 1e-9 && fi == len(fragments)-1

			tieStart := !last
			tieStop := !first || fi > 0

			w.append(nb.makeElement(chord, fragLen, tieStart, tieStop))
		}

		remaining -= span
		first = false
	}
}

// makeElement builds a Note or Chord element for the given fragment
func (nb *NotationBuilder) makeElement(chord []TimedNote, duration float64, tieStart, tieStop bool) Element {
	if len(chord) == 1 {
		return Note{
			MIDINote: chord[0].MIDINote,
			Velocity: chord[0].Velocity,
			Duration: duration,
			TieStart: tieStart,
			TieStop:  tieStop,
		}
	}

	members := make([]Note, len(chord))
	for i, tn := range chord {
		members[i] = Note{
			MIDINote: tn.MIDINote,
			Velocity: tn.Velocity,
			Duration: duration,
			TieStart: tieStart,
			TieStop:  tieStop,
		}
	}

	return Chord{Notes: members, Duration: duration}
}

// writeRests fills a gap with rests, longest symbols first, never
// crossing a barline
func (nb *NotationBuilder) writeRests(w *staffWriter, gap float64) {
	remaining := gap

	for remaining > 1e-9 {
		span := math.Min(remaining, w.room())
		for _, fragLen := range decomposeLength(span) {
			w.append(Rest{Duration: fragLen})
		}
		remaining -= span
	}
}

// equalizeMeasureCounts pads the shorter staff with whole-rest
// measures so both staves end together
func (nb *NotationBuilder) equalizeMeasureCounts(score *ScoreModel) {
	for _, part := range score.Parts() {
		for len(part.Measures) < nb.maxMeasures(score) {
			part.Measures = append(part.Measures, &Measure{
				Number:   len(part.Measures) + 1,
				Elements: []Element{Rest{Duration: MeasureLength}},
			})
		}
	}
}

func (nb *NotationBuilder) maxMeasures(score *ScoreModel) int {
	max := 0
	for _, part := range score.Parts() {
		if len(part.Measures) > max {
			max = len(part.Measures)
		}
	}
	return max
}

// decomposeLength breaks an arbitrary multiple of a sixteenth into
// representable symbol lengths, longest first
func decomposeLength(length float64) []float64 {
	var parts []float64
	remaining := length

	for remaining > 1e-9 {
		emitted := false
		for _, symbol := range noteLengths {
			if symbol <= remaining+1e-9 {
				parts = append(parts, symbol)
				remaining -= symbol
				emitted = true
				break
			}
		}
		if !emitted {
			// Residue below a sixteenth cannot be printed; drop it
			break
		}
	}

	return parts
}
