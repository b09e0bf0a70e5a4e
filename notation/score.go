package notation

import (
	"fmt"
	"math"
)

// Durations are expressed in quarter-note lengths. A measure of 4/4
// time holds exactly 4.0 quarters; the shortest representable symbol
// is the sixteenth note (0.25).
const (
	SixteenthLength = 0.25
	MeasureLength   = 4.0
)

// noteLengths are the representable symbol durations, descending
var noteLengths = []float64{4.0, 2.0, 1.0, 0.5, 0.25}

// Element is one horizontal symbol in a measure: a note, a chord, or
// a rest
type Element interface {
	// Length returns the element's duration in quarter lengths
	Length() float64
}

// Note is a single pitch with a duration. TieStart/TieStop mark
// fragments of a longer note split across symbol or measure
// boundaries; a middle fragment carries both.
type Note struct {
	MIDINote int
	Velocity int
	Duration float64
	TieStart bool
	TieStop  bool
}

func (n Note) Length() float64 { return n.Duration }

// Chord is two or more pitches struck together
type Chord struct {
	Notes    []Note
	Duration float64
}

func (c Chord) Length() float64 { return c.Duration }

// Rest is a silent duration
type Rest struct {
	Duration float64
}

func (r Rest) Length() float64 { return r.Duration }

// Measure is one bar of music on a single staff
type Measure struct {
	Number   int
	Elements []Element
}

// Length returns the total occupied duration of the measure
func (m *Measure) Length() float64 {
	total := 0.0
	for _, el := range m.Elements {
		total += el.Length()
	}
	return total
}

// IsFull reports whether the measure holds exactly one bar of 4/4
func (m *Measure) IsFull() bool {
	return math.Abs(m.Length()-MeasureLength) < 1e-9
}

// Clef identifies the staff a part is written on
type Clef int

const (
	TrebleClef Clef = iota
	BassClef
)

// Part is one staff of the grand staff
type Part struct {
	ID       string
	Name     string
	Clef     Clef
	Measures []*Measure
}

// ScoreModel is the validated in-memory score: two parts (treble and
// bass) sharing a tempo and 4/4 time
type ScoreModel struct {
	Title    string
	Composer string
	BPM      float64
	Treble   *Part
	Bass     *Part
}

// NewScoreModel creates an empty score with the standard grand-staff
// part pair
func NewScoreModel(title string, bpm float64) *ScoreModel {
	return &ScoreModel{
		Title: title,
		BPM:   bpm,
		Treble: &Part{
			ID:   "P1",
			Name: "Piano (right hand)",
			Clef: TrebleClef,
		},
		Bass: &Part{
			ID:   "P2",
			Name: "Piano (left hand)",
			Clef: BassClef,
		},
	}
}

// Parts returns both parts in score order
func (s *ScoreModel) Parts() []*Part {
	return []*Part{s.Treble, s.Bass}
}

// Validate checks that every measure in both parts holds exactly one
// bar of 4/4
func (s *ScoreModel) Validate() error {
	for _, part := range s.Parts() {
		for _, measure := range part.Measures {
			if !measure.IsFull() {
				return &AnalysisError{
					Op: "score validation",
					Message: fmt.Sprintf("part %s measure %d sums to %.4f quarters, want %.1f",
						part.ID, measure.Number, measure.Length(), MeasureLength),
				}
			}
		}
	}
	return nil
}

// SnapDuration rounds a duration in quarter lengths to the nearest
// representable symbol length
func SnapDuration(duration float64) float64 {
	best := noteLengths[len(noteLengths)-1]
	bestDiff := math.Abs(duration - best)

	for _, length := range noteLengths {
		if diff := math.Abs(duration - length); diff < bestDiff {
			best = length
			bestDiff = diff
		}
	}

	return best
}
