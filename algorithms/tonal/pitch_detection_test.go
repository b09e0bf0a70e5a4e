package tonal

import (
	"math"
	"testing"

	"github.com/AbhiJ2706/cs489-project/algorithms/spectral"
)

// syntheticCQT builds a piano-range CQT spectrogram where the listed
// bins carry the given magnitudes in every frame
func syntheticCQT(numFrames int, bins map[int]float64) *spectral.CQTResult {
	const numBins = 84

	freqBins := make([]float64, numBins)
	for k := range freqBins {
		freqBins[k] = 27.5 * math.Pow(2.0, float64(k)/12.0)
	}

	magnitude := make([][]float64, numFrames)
	for t := range magnitude {
		frame := make([]float64, numBins)
		for k, mag := range bins {
			frame[k] = mag
		}
		magnitude[t] = frame
	}

	return &spectral.CQTResult{
		Magnitude:     magnitude,
		FreqBins:      freqBins,
		TimeFrames:    numFrames,
		NumBins:       numBins,
		BinsPerOctave: 12,
		MinFreq:       27.5,
		HopSize:       512,
		SampleRate:    44100,
	}
}

func TestDetectInSegmentFindsPersistentPeak(t *testing.T) {
	// Bin 48 is 27.5 * 2^4 = 440 Hz, A4
	cqt := syntheticCQT(10, map[int]float64{48: 1.0})

	detector := NewPitchDetector()
	pitches, err := detector.DetectInSegment(cqt, 0, 10)
	if err != nil {
		t.Fatalf("DetectInSegment: %v", err)
	}

	if len(pitches) != 1 {
		t.Fatalf("expected 1 pitch, got %d: %+v", len(pitches), pitches)
	}
	if pitches[0].MIDINote != 69 {
		t.Errorf("expected MIDI 69 (A4), got %d", pitches[0].MIDINote)
	}
	if pitches[0].Persistence != 1.0 {
		t.Errorf("expected persistence 1.0, got %f", pitches[0].Persistence)
	}
	if pitches[0].Velocity != 127 {
		t.Errorf("expected velocity clamped to 127, got %d", pitches[0].Velocity)
	}
}

func TestDetectInSegmentSuppressesDominatedHarmonic(t *testing.T) {
	// Bin 60 is 880 Hz, the second harmonic of bin 48. The fundamental
	// at magnitude 1.0 dominates the 0.6 harmonic past the 1.5 support
	// ratio, so only A4 survives.
	cqt := syntheticCQT(10, map[int]float64{48: 1.0, 60: 0.6})

	pitches, err := NewPitchDetector().DetectInSegment(cqt, 0, 10)
	if err != nil {
		t.Fatalf("DetectInSegment: %v", err)
	}

	if len(pitches) != 1 || pitches[0].MIDINote != 69 {
		t.Fatalf("expected only A4, got %+v", pitches)
	}
}

func TestDetectInSegmentKeepsSupportedOctave(t *testing.T) {
	// The upper octave at 0.8 is within the support ratio of the
	// fundamental, so it is a genuinely played note, not a harmonic
	cqt := syntheticCQT(10, map[int]float64{48: 1.0, 60: 0.8})

	pitches, err := NewPitchDetector().DetectInSegment(cqt, 0, 10)
	if err != nil {
		t.Fatalf("DetectInSegment: %v", err)
	}

	if len(pitches) != 2 {
		t.Fatalf("expected both octaves, got %+v", pitches)
	}
	if pitches[0].MIDINote != 69 || pitches[1].MIDINote != 81 {
		t.Errorf("expected A4 and A5, got %+v", pitches)
	}
}

func TestDetectInSegmentIgnoresTransientPeaks(t *testing.T) {
	// A bin peaking in only half the frames fails the persistence gate
	cqt := syntheticCQT(10, nil)
	for t2 := 0; t2 < 5; t2++ {
		cqt.Magnitude[t2][48] = 1.0
	}

	pitches, err := NewPitchDetector().DetectInSegment(cqt, 0, 10)
	if err != nil {
		t.Fatalf("DetectInSegment: %v", err)
	}

	if len(pitches) != 0 {
		t.Fatalf("expected no pitches, got %+v", pitches)
	}
}

func TestDetectInSegmentIgnoresWeakBins(t *testing.T) {
	// Below the 0.5 prominence threshold nothing counts as a peak
	cqt := syntheticCQT(10, map[int]float64{48: 0.3})

	pitches, err := NewPitchDetector().DetectInSegment(cqt, 0, 10)
	if err != nil {
		t.Fatalf("DetectInSegment: %v", err)
	}

	if len(pitches) != 0 {
		t.Fatalf("expected no pitches, got %+v", pitches)
	}
}

func TestDetectInSegmentRejectsInvalidRange(t *testing.T) {
	cqt := syntheticCQT(10, nil)

	if _, err := NewPitchDetector().DetectInSegment(cqt, 5, 5); err == nil {
		t.Error("expected error for empty frame range")
	}
	if _, err := NewPitchDetector().DetectInSegment(nil, 0, 10); err == nil {
		t.Error("expected error for nil spectrogram")
	}
}

func TestFrequencyToMIDI(t *testing.T) {
	tests := []struct {
		frequency float64
		want      int
	}{
		{440.0, 69},
		{27.5, 21},
		{4186.0, 108},
		{261.6, 60},
		{446.0, 69}, // a few cents sharp still rounds to A4
	}

	for _, tt := range tests {
		if got := frequencyToMIDI(tt.frequency); got != tt.want {
			t.Errorf("frequencyToMIDI(%v) = %d, want %d", tt.frequency, got, tt.want)
		}
	}
}

func TestMagnitudeToVelocity(t *testing.T) {
	tests := []struct {
		meanMag float64
		want    int
	}{
		{0.0, 40},
		{0.5, 90},
		{0.87, 127},
		{2.0, 127}, // clamped
	}

	for _, tt := range tests {
		if got := magnitudeToVelocity(tt.meanMag); got != tt.want {
			t.Errorf("magnitudeToVelocity(%v) = %d, want %d", tt.meanMag, got, tt.want)
		}
	}
}
