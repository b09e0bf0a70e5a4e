package preprocess

import (
	"math"
	"testing"
)

func pianoLikeSignal(sampleRate int, seconds float64) []float64 {
	signal := make([]float64, int(seconds*float64(sampleRate)))
	for i := range signal {
		t := float64(i) / float64(sampleRate)
		decay := math.Exp(-1.5 * t)
		signal[i] = decay * (0.6*math.Sin(2.0*math.Pi*261.6*t) +
			0.3*math.Sin(2.0*math.Pi*523.2*t) +
			0.1*math.Sin(2.0*math.Pi*784.8*t))
	}
	return signal
}

func TestProcessPreservesLength(t *testing.T) {
	p := NewPreprocessor(DefaultConfig())
	signal := pianoLikeSignal(44100, 1.0)

	processed, err := p.Process(signal, 44100)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(processed) != len(signal) {
		t.Fatalf("length changed: got %d, want %d", len(processed), len(signal))
	}
	for i, v := range processed {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("non-finite sample at %d: %v", i, v)
		}
	}
}

func TestNormalizePeakScalesToUnity(t *testing.T) {
	signal := []float64{0.1, -0.25, 0.05}

	normalized := normalizePeak(signal)

	if math.Abs(normalized[1]-(-1.0)) > 1e-12 {
		t.Errorf("expected peak sample -1.0, got %v", normalized[1])
	}
	if math.Abs(normalized[0]-0.4) > 1e-12 {
		t.Errorf("expected 0.1/0.25 = 0.4, got %v", normalized[0])
	}
	if signal[1] != -0.25 {
		t.Errorf("input mutated: %v", signal[1])
	}
}

func TestNormalizePeakLeavesSilenceAlone(t *testing.T) {
	normalized := normalizePeak([]float64{0, 0, 0})
	for i, v := range normalized {
		if v != 0 {
			t.Fatalf("sample %d changed: %v", i, v)
		}
	}
}

func TestProcessIsScaleInvariant(t *testing.T) {
	const sampleRate = 44100
	p := NewPreprocessor(DefaultConfig())
	signal := pianoLikeSignal(sampleRate, 1.0)

	quiet := make([]float64, len(signal))
	for i, v := range signal {
		quiet[i] = v * 0.05
	}

	full, err := p.Process(signal, sampleRate)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	scaled, err := p.Process(quiet, sampleRate)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if math.Abs(rms(full)-rms(scaled)) > 1e-6 {
		t.Errorf("expected identical output for scaled input: %v vs %v",
			rms(full), rms(scaled))
	}
}

func TestProcessRejectsEmptySignal(t *testing.T) {
	p := NewPreprocessor(DefaultConfig())

	if _, err := p.Process(nil, 44100); err == nil {
		t.Error("expected error for empty signal")
	}
}

func TestDenoiseSuppressesBroadbandNoise(t *testing.T) {
	const sampleRate = 44100
	signal := pianoLikeSignal(sampleRate, 1.0)

	// Deterministic noise on top of the tone
	seed := uint64(42)
	noisy := make([]float64, len(signal))
	for i, v := range signal {
		seed = seed*6364136223846793005 + 1442695040888963407
		noise := (float64(int64(seed>>11))/float64(1<<52) - 1.0) * 0.05
		noisy[i] = v + noise
	}

	gate := NewSpectralGate(DefaultSpectralGateConfig())
	cleaned, err := gate.Process(noisy, sampleRate)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(cleaned) != len(noisy) {
		t.Fatalf("length changed: got %d, want %d", len(cleaned), len(noisy))
	}

	// The tail is mostly noise after the decay; it must come out quieter
	tailStart := len(noisy) * 3 / 4
	if rms(cleaned[tailStart:]) >= rms(noisy[tailStart:]) {
		t.Errorf("expected the noisy tail to be attenuated: cleaned %v, noisy %v",
			rms(cleaned[tailStart:]), rms(noisy[tailStart:]))
	}
}

func TestDynamicsChainPreservesLength(t *testing.T) {
	const sampleRate = 44100
	signal := pianoLikeSignal(sampleRate, 1.0)

	shaped := NewDynamicsChain(DefaultDynamicsConfig()).Process(signal, sampleRate)

	if len(shaped) != len(signal) {
		t.Fatalf("length changed: got %d, want %d", len(shaped), len(signal))
	}
}

func TestHPSSKeepsLength(t *testing.T) {
	const sampleRate = 44100
	signal := pianoLikeSignal(sampleRate, 1.0)

	harmonic, err := NewHPSS(DefaultHPSSConfig()).Harmonic(signal, sampleRate)
	if err != nil {
		t.Fatalf("Harmonic: %v", err)
	}

	if len(harmonic) != len(signal) {
		t.Fatalf("length changed: got %d, want %d", len(harmonic), len(signal))
	}
}

func rms(signal []float64) float64 {
	sum := 0.0
	for _, v := range signal {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(signal)))
}
