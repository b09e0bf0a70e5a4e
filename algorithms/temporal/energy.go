package temporal

import (
	"math"

	"github.com/AbhiJ2706/cs489-project/algorithms/common"
)

// Energy computes short-time energy features used for silence detection
// and segment boundary trimming
type Energy struct {
	frameSize  int
	hopSize    int
	sampleRate int
}

// NewEnergy creates a new energy calculator
func NewEnergy(frameSize, hopSize, sampleRate int) *Energy {
	return &Energy{
		frameSize:  frameSize,
		hopSize:    hopSize,
		sampleRate: sampleRate,
	}
}

// ComputeShortTimeEnergy calculates RMS energy for overlapping frames
func (e *Energy) ComputeShortTimeEnergy(signal []float64) []float64 {
	if len(signal) < e.frameSize || e.hopSize <= 0 || e.frameSize <= 0 {
		return []float64{}
	}

	numFrames := (len(signal)-e.frameSize)/e.hopSize + 1
	energies := make([]float64, numFrames)

	for i := 0; i < numFrames; i++ {
		startIdx := i * e.hopSize
		endIdx := startIdx + e.frameSize

		if endIdx > len(signal) {
			break
		}

		sumSquares := 0.0
		for j := startIdx; j < endIdx; j++ {
			sumSquares += signal[j] * signal[j]
		}
		energies[i] = math.Sqrt(sumSquares / float64(e.frameSize))
	}

	return energies
}

// NoiseFloor estimates the background level of an energy envelope as
// twice its 10th percentile. Frames below this level are treated as
// silence. The percentile makes the estimate robust to loud passages
// dominating the recording.
func (e *Energy) NoiseFloor(energies []float64) float64 {
	if len(energies) == 0 {
		return 0.0
	}
	return 2.0 * common.Percentile(energies, 0.10)
}

// FrameDuration returns the time in seconds covered by one hop
func (e *Energy) FrameDuration() float64 {
	return float64(e.hopSize) / float64(e.sampleRate)
}

// FrameToTime converts a frame index to its start time in seconds
func (e *Energy) FrameToTime(frame int) float64 {
	return float64(frame*e.hopSize) / float64(e.sampleRate)
}
