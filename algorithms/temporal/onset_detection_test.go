package temporal

import (
	"math"
	"testing"
)

// clickTrain places identical short bursts at hop-aligned positions so
// every attack produces the same flux peak
func clickTrain(sampleRate, firstHop, intervalHops int, totalSec float64) []float64 {
	const hop = 512
	signal := make([]float64, int(totalSec*float64(sampleRate)))
	for start := firstHop * hop; start < len(signal); start += intervalHops * hop {
		for i := 0; i < hop && start+i < len(signal); i++ {
			signal[start+i] = 0.9 * math.Sin(2.0*math.Pi*1000.0*float64(i)/float64(sampleRate))
		}
	}
	return signal
}

func TestDetectOnsetsFindsClickAttacks(t *testing.T) {
	od := NewOnsetDetection()
	// Clicks at hops 20, 107, 194, ... roughly one per second
	signal := clickTrain(44100, 20, 87, 4.0)

	onsets, err := od.DetectOnsets(signal, 44100)
	if err != nil {
		t.Fatalf("DetectOnsets: %v", err)
	}
	if len(onsets) == 0 {
		t.Fatal("expected onsets for a click train")
	}

	for i := 1; i < len(onsets); i++ {
		if onsets[i] <= onsets[i-1] {
			t.Errorf("onsets out of order: %v", onsets)
		}
	}

	// The first click sits at hop 20, about 0.23s in; backtracking
	// lands at or just before the attack
	if onsets[0] > 0.3 {
		t.Errorf("first onset %v too late for an attack at 0.23s", onsets[0])
	}
}

func TestDetectOnsetsFallsBackOnSilence(t *testing.T) {
	od := NewOnsetDetection()
	signal := make([]float64, 2*44100)

	onsets, err := od.DetectOnsets(signal, 44100)
	if err != nil {
		t.Fatalf("DetectOnsets: %v", err)
	}

	if len(onsets) != 4 {
		t.Fatalf("expected four synthetic onsets over 2s, got %v", onsets)
	}
	for i, want := range []float64{0.0, 0.5, 1.0, 1.5} {
		if math.Abs(onsets[i]-want) > 1e-9 {
			t.Errorf("onset %d = %v, want %v", i, onsets[i], want)
		}
	}
}

func TestComputeOnsetStrengthIsNormalized(t *testing.T) {
	od := NewOnsetDetection()
	signal := clickTrain(44100, 20, 43, 2.0)

	strength, err := od.ComputeOnsetStrength(signal, 44100)
	if err != nil {
		t.Fatalf("ComputeOnsetStrength: %v", err)
	}
	if len(strength) == 0 {
		t.Fatal("expected a non-empty envelope")
	}

	max := 0.0
	for _, v := range strength {
		if v < 0 {
			t.Fatalf("negative strength %v", v)
		}
		if v > max {
			max = v
		}
	}
	if math.Abs(max-1.0) > 1e-9 {
		t.Errorf("expected envelope max 1.0, got %v", max)
	}
}
