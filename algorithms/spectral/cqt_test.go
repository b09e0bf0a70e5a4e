package spectral

import (
	"math"
	"testing"
)

func TestCQTPianoBinFrequencies(t *testing.T) {
	cqt := NewCQTPiano(44100)

	tests := []struct {
		bin  int
		want float64
	}{
		{0, 27.5},   // A0
		{12, 55.0},  // A1, one octave up
		{48, 440.0}, // A4
		{83, 27.5 * math.Pow(2.0, 83.0/12.0)},
	}

	for _, tt := range tests {
		got := cqt.BinFrequency(tt.bin)
		if math.Abs(got-tt.want) > 1e-6 {
			t.Errorf("BinFrequency(%d) = %v, want %v", tt.bin, got, tt.want)
		}
	}
}

func TestCQTComputeLocatesSineTone(t *testing.T) {
	const sampleRate = 44100
	cqt := NewCQTPiano(sampleRate)

	signal := make([]float64, 2*sampleRate)
	for i := range signal {
		signal[i] = 0.8 * math.Sin(2.0*math.Pi*440.0*float64(i)/float64(sampleRate))
	}

	result, err := cqt.Compute(signal, 512)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if result.TimeFrames == 0 {
		t.Fatal("expected frames")
	}

	// The strongest bin of a middle frame must be A4
	frame := result.Magnitude[result.TimeFrames/2]
	maxBin := 0
	for k := range frame {
		if frame[k] > frame[maxBin] {
			maxBin = k
		}
	}
	if maxBin != 48 {
		t.Errorf("expected peak at bin 48 (440 Hz), got bin %d (%.1f Hz)",
			maxBin, result.FreqBins[maxBin])
	}
}

func TestCQTComputeNormalizesEachFrame(t *testing.T) {
	const sampleRate = 44100
	cqt := NewCQTPiano(sampleRate)

	signal := make([]float64, sampleRate)
	for i := range signal {
		signal[i] = math.Sin(2.0 * math.Pi * 220.0 * float64(i) / float64(sampleRate))
	}

	result, err := cqt.Compute(signal, 512)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	for t2, frame := range result.Magnitude {
		max := 0.0
		for _, v := range frame {
			if v > max {
				max = v
			}
		}
		if math.Abs(max-1.0) > 1e-9 {
			t.Errorf("frame %d: expected max 1.0, got %v", t2, max)
		}
	}
}

func TestCQTComputeIsLoudnessInvariant(t *testing.T) {
	const sampleRate = 44100
	cqt := NewCQTPiano(sampleRate)

	// 440 Hz at full amplitude for one second, then at 5% for another.
	// Frame normalization must make the quiet half's peak bin just as
	// prominent as the loud half's.
	signal := make([]float64, 2*sampleRate)
	for i := range signal {
		amp := 1.0
		if i >= sampleRate {
			amp = 0.05
		}
		signal[i] = amp * math.Sin(2.0*math.Pi*440.0*float64(i)/float64(sampleRate))
	}

	result, err := cqt.Compute(signal, 512)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	// Sample a frame well inside the quiet half, away from the boundary.
	quietFrame := result.Magnitude[(3*result.TimeFrames)/4]
	maxBin := 0
	for k := range quietFrame {
		if quietFrame[k] > quietFrame[maxBin] {
			maxBin = k
		}
	}
	if maxBin != 48 {
		t.Fatalf("expected quiet-half peak at bin 48, got bin %d", maxBin)
	}
	if quietFrame[maxBin] < 0.999 {
		t.Errorf("quiet-half peak magnitude = %v, want ~1.0", quietFrame[maxBin])
	}
}

func TestCQTComputeRejectsEmptySignal(t *testing.T) {
	cqt := NewCQTPiano(44100)

	if _, err := cqt.Compute(nil, 512); err == nil {
		t.Error("expected error for empty signal")
	}
}
