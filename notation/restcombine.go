package notation

import (
	"fmt"
	"math"
)

// slotsPerMeasure is the sixteenth-note resolution of one 4/4 bar
const slotsPerMeasure = 16

// restSpans are the aligned rest sizes in slots, coarsest first
var restSpans = []int{16, 8, 4, 2, 1}

// RestCombiner merges runs of short rests into the fewest readable
// rest symbols.
//
// The builder emits rests greedily as it walks the beat grid, which
// can leave a half-bar gap printed as several sixteenth and eighth
// rests. The combiner re-derives each measure's rests from a
// sixteenth-slot occupancy mask: an empty span collapses to the
// coarsest rest that starts on its own alignment boundary. Notes and
// chords pass through untouched.
type RestCombiner struct{}

// NewRestCombiner creates a rest combiner
func NewRestCombiner() *RestCombiner {
	return &RestCombiner{}
}

// CombineScore rewrites the rests of every full measure in the score
func (rc *RestCombiner) CombineScore(score *ScoreModel) error {
	for _, part := range score.Parts() {
		for _, measure := range part.Measures {
			if err := rc.Combine(measure); err != nil {
				return err
			}
		}
	}
	return nil
}

// Combine rewrites a single measure's rests in place. Measures that do
// not sum to a full bar are left unchanged.
func (rc *RestCombiner) Combine(measure *Measure) error {
	if !measure.IsFull() {
		return nil
	}

	// Build the occupancy mask: which sixteenth slots sound, and which
	// element starts where
	type placed struct {
		element Element
		slots   int
	}
	starts := make(map[int]placed)
	occupied := make([]bool, slotsPerMeasure)

	slot := 0
	for _, el := range measure.Elements {
		slots := int(math.Round(el.Length() / SixteenthLength))
		if slot+slots > slotsPerMeasure {
			return &AnalysisError{
				Op:      "rest combining",
				Message: fmt.Sprintf("measure %d element overruns the bar", measure.Number),
			}
		}

		if _, isRest := el.(Rest); !isRest {
			starts[slot] = placed{element: el, slots: slots}
			for s := slot; s < slot+slots; s++ {
				occupied[s] = true
			}
		}

		slot += slots
	}

	// Rebuild: notes verbatim, empty runs folded into aligned rests
	var elements []Element
	for slot := 0; slot < slotsPerMeasure; {
		if p, ok := starts[slot]; ok {
			elements = append(elements, p.element)
			slot += p.slots
			continue
		}

		span := rc.alignedEmptySpan(occupied, slot)
		elements = append(elements, Rest{Duration: float64(span) * SixteenthLength})
		slot += span
	}

	rebuilt := Measure{Number: measure.Number, Elements: elements}
	if !rebuilt.IsFull() {
		return &AnalysisError{
			Op: "rest combining",
			Message: fmt.Sprintf("measure %d rebuilt to %.4f quarters, want %.1f",
				measure.Number, rebuilt.Length(), MeasureLength),
		}
	}

	measure.Elements = elements
	return nil
}

// alignedEmptySpan returns the largest rest span starting at slot that
// is empty throughout and aligned to its own size
func (rc *RestCombiner) alignedEmptySpan(occupied []bool, slot int) int {
	for _, span := range restSpans {
		if slot%span != 0 || slot+span > slotsPerMeasure {
			continue
		}

		empty := true
		for s := slot; s < slot+span; s++ {
			if occupied[s] {
				empty = false
				break
			}
		}

		if empty {
			return span
		}
	}

	return 1
}
