package tonal

import (
	"fmt"
	"math"
	"sort"

	"github.com/AbhiJ2706/cs489-project/algorithms/common"
	"github.com/AbhiJ2706/cs489-project/algorithms/spectral"
)

// MIDI range of the 88-key piano
const (
	MinPianoMIDI = 21  // A0
	MaxPianoMIDI = 108 // C8
)

// PitchDetectionParams configures polyphonic pitch detection
type PitchDetectionParams struct {
	// Prominence is the minimum normalized CQT magnitude for a bin to
	// count as a local peak within a frame
	Prominence float64 `json:"prominence"`

	// Persistence is the fraction of segment frames in which a bin must
	// peak to be accepted as a sounding note
	Persistence float64 `json:"persistence"`

	// MaxHarmonic bounds the harmonic series checked during suppression
	// (2 = octave through MaxHarmonic times the fundamental)
	MaxHarmonic int `json:"max_harmonic"`

	// HarmonicToleranceCents is the pitch distance within which a bin is
	// considered to sit on a lower note's harmonic
	HarmonicToleranceCents float64 `json:"harmonic_tolerance_cents"`

	// SupportRatio is how much stronger the fundamental's mean magnitude
	// must be for its harmonic to be suppressed. Must be > 1.
	SupportRatio float64 `json:"support_ratio"`
}

// DefaultPitchDetectionParams returns parameters tuned on solo piano
// recordings
func DefaultPitchDetectionParams() PitchDetectionParams {
	return PitchDetectionParams{
		Prominence:             0.5,
		Persistence:            0.70,
		MaxHarmonic:            5,
		HarmonicToleranceCents: 50.0,
		SupportRatio:           1.5,
	}
}

// DetectedPitch is one sounding note found within a segment
type DetectedPitch struct {
	MIDINote      int     `json:"midi_note"`
	Frequency     float64 `json:"frequency"`      // Bin center frequency in Hz
	Velocity      int     `json:"velocity"`       // MIDI velocity derived from magnitude
	Persistence   float64 `json:"persistence"`    // Fraction of frames the bin peaked in
	MeanMagnitude float64 `json:"mean_magnitude"` // Mean normalized magnitude over the segment
}

// PitchDetector finds the set of simultaneously sounding notes in a
// segment of a constant-Q spectrogram.
//
// Detection runs in three stages:
//  1. per frame, mark bins that are local maxima with magnitude above
//     the prominence threshold
//  2. accept bins that peak in more than the persistence fraction of
//     the segment's frames (transients and beating partials drop out)
//  3. walk accepted bins in ascending frequency and suppress any bin
//     lying within tolerance of an integer harmonic of an accepted
//     lower bin whose mean magnitude dominates it
type PitchDetector struct {
	params PitchDetectionParams
}

// NewPitchDetector creates a pitch detector with default parameters
func NewPitchDetector() *PitchDetector {
	return NewPitchDetectorWithParams(DefaultPitchDetectionParams())
}

// NewPitchDetectorWithParams creates a pitch detector with custom parameters
func NewPitchDetectorWithParams(params PitchDetectionParams) *PitchDetector {
	if params.SupportRatio <= 1.0 {
		params.SupportRatio = DefaultPitchDetectionParams().SupportRatio
	}
	if params.MaxHarmonic < 2 {
		params.MaxHarmonic = DefaultPitchDetectionParams().MaxHarmonic
	}
	return &PitchDetector{params: params}
}

// DetectInSegment analyzes the CQT frames in [startFrame, endFrame) and
// returns the detected notes sorted by ascending MIDI number.
func (pd *PitchDetector) DetectInSegment(cqt *spectral.CQTResult, startFrame, endFrame int) ([]DetectedPitch, error) {
	if cqt == nil || len(cqt.Magnitude) == 0 {
		return nil, fmt.Errorf("empty CQT spectrogram")
	}

	if startFrame < 0 {
		startFrame = 0
	}
	if endFrame > len(cqt.Magnitude) {
		endFrame = len(cqt.Magnitude)
	}
	if endFrame <= startFrame {
		return nil, fmt.Errorf("invalid frame range [%d, %d)", startFrame, endFrame)
	}

	numFrames := endFrame - startFrame
	numBins := cqt.NumBins

	peakCounts := make([]int, numBins)
	magSums := make([]float64, numBins)

	for t := startFrame; t < endFrame; t++ {
		frame := cqt.Magnitude[t]
		for k := range frame {
			magSums[k] += frame[k]
			if pd.isFramePeak(frame, k) {
				peakCounts[k]++
			}
		}
	}

	// Persistence filter
	var candidates []DetectedPitch
	for k := 0; k < numBins; k++ {
		persistence := float64(peakCounts[k]) / float64(numFrames)
		if persistence <= pd.params.Persistence {
			continue
		}

		freq := cqt.FreqBins[k]
		midi := frequencyToMIDI(freq)
		if midi < MinPianoMIDI || midi > MaxPianoMIDI {
			continue
		}

		meanMag := magSums[k] / float64(numFrames)
		candidates = append(candidates, DetectedPitch{
			MIDINote:      midi,
			Frequency:     freq,
			Velocity:      magnitudeToVelocity(meanMag),
			Persistence:   persistence,
			MeanMagnitude: meanMag,
		})
	}

	return pd.suppressHarmonics(candidates), nil
}

// isFramePeak reports whether bin k is a local maximum above the
// prominence threshold within a single frame
func (pd *PitchDetector) isFramePeak(frame []float64, k int) bool {
	if frame[k] < pd.params.Prominence {
		return false
	}
	if k > 0 && frame[k-1] >= frame[k] {
		return false
	}
	if k < len(frame)-1 && frame[k+1] > frame[k] {
		return false
	}
	return true
}

// suppressHarmonics removes candidates that sit on a harmonic of a
// stronger, lower candidate. Candidates are processed in ascending
// frequency so a suppressed bin can never itself suppress others.
func (pd *PitchDetector) suppressHarmonics(candidates []DetectedPitch) []DetectedPitch {
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Frequency < candidates[j].Frequency
	})

	var accepted []DetectedPitch
	for _, cand := range candidates {
		if pd.isHarmonicOfAccepted(cand, accepted) {
			continue
		}
		accepted = append(accepted, cand)
	}

	return accepted
}

func (pd *PitchDetector) isHarmonicOfAccepted(cand DetectedPitch, accepted []DetectedPitch) bool {
	for _, lower := range accepted {
		if lower.MeanMagnitude < pd.params.SupportRatio*cand.MeanMagnitude {
			continue
		}
		for k := 2; k <= pd.params.MaxHarmonic; k++ {
			harmonic := float64(k) * lower.Frequency
			cents := 1200.0 * math.Log2(cand.Frequency/harmonic)
			if math.Abs(cents) <= pd.params.HarmonicToleranceCents {
				return true
			}
		}
	}
	return false
}

// frequencyToMIDI converts a frequency to the nearest MIDI note number
func frequencyToMIDI(frequency float64) int {
	if frequency <= 0 {
		return 0
	}
	return int(math.Round(69.0 + 12.0*math.Log2(frequency/440.0)))
}

// magnitudeToVelocity maps mean normalized magnitude to MIDI velocity.
// The offset keeps quiet but persistent notes audible on playback.
func magnitudeToVelocity(meanMag float64) int {
	return int(common.Clamp(40.0+meanMag*100.0, 0, 127))
}
