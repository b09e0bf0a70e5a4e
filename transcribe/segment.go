package transcribe

import (
	"fmt"
	"math"

	"github.com/AbhiJ2706/cs489-project/algorithms/common"
	"github.com/AbhiJ2706/cs489-project/algorithms/temporal"
	"github.com/AbhiJ2706/cs489-project/logging"
)

// Segment is a span of the recording bounded by consecutive onsets,
// with silence trimmed from its tail. Frame indices address analysis
// frames at the segmenter's hop size, which matches the CQT hop.
type Segment struct {
	StartSec     float64 `json:"start_sec"`
	EndSec       float64 `json:"end_sec"`
	TrimmedSec   float64 `json:"trimmed_sec"` // End after silence trimming
	StartFrame   int     `json:"start_frame"`
	TrimmedFrame int     `json:"trimmed_frame"`
}

// SegmenterConfig holds segmentation parameters
type SegmenterConfig struct {
	FrameSize int `json:"frame_size"`
	HopSize   int `json:"hop_size"`

	// Silence run-length bounds in frames
	MinRunLength int `json:"min_run_length"`
	MaxRunLength int `json:"max_run_length"`

	// Onset strength threshold passed through to onset detection
	OnsetThreshold float64 `json:"onset_threshold"`
}

// DefaultSegmenterConfig returns segmentation defaults aligned with
// the CQT analysis hop
func DefaultSegmenterConfig() SegmenterConfig {
	return SegmenterConfig{
		FrameSize:      1024,
		HopSize:        512,
		MinRunLength:   3,
		MaxRunLength:   20,
		OnsetThreshold: 0.85,
	}
}

// Segmenter slices the recording into note segments.
//
// Boundaries come from onset detection, with the total duration
// appended as the final boundary. Each segment's tail is trimmed back
// to the first sustained run of frames at or below the noise floor,
// so decay tails and pedal noise don't smear into pitch analysis.
// Segments shorter than a sixteenth note, or quieter on average than
// the noise floor, are rejected outright.
type Segmenter struct {
	config SegmenterConfig
	onsets *temporal.OnsetDetection
	logger logging.Logger
}

// NewSegmenter creates a segmenter with the given config
func NewSegmenter(config SegmenterConfig) *Segmenter {
	return &Segmenter{
		config: config,
		onsets: temporal.NewOnsetDetectionWithThreshold(config.OnsetThreshold),
		logger: logging.WithFields(logging.Fields{
			"component": "segmenter",
		}),
	}
}

// Segments splits the signal at the given tempo
func (sg *Segmenter) Segments(signal []float64, sampleRate int, bpm float64) ([]Segment, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("empty signal")
	}

	onsetTimes, err := sg.onsets.DetectOnsets(signal, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("onset detection: %w", err)
	}

	duration := float64(len(signal)) / float64(sampleRate)
	boundaries := append(onsetTimes, duration)

	energy := temporal.NewEnergy(sg.config.FrameSize, sg.config.HopSize, sampleRate)
	energies := energy.ComputeShortTimeEnergy(signal)
	noiseFloor := energy.NoiseFloor(energies)
	frameDur := energy.FrameDuration()

	sixteenthSec := (60.0 / bpm) / 4.0
	runLength := sg.runLength(sixteenthSec, frameDur)
	minFrames := int(math.Round(sixteenthSec / frameDur))
	if minFrames < 1 {
		minFrames = 1
	}

	var segments []Segment
	rejected := 0

	for i := 0; i+1 < len(boundaries); i++ {
		startSec, endSec := boundaries[i], boundaries[i+1]

		startFrame := int(startSec / frameDur)
		endFrame := int(endSec / frameDur)
		if endFrame > len(energies) {
			endFrame = len(energies)
		}
		if startFrame >= endFrame {
			continue
		}

		trimmedFrame := sg.trimSilence(energies, startFrame, endFrame, noiseFloor, runLength)

		// Rejection: too short or indistinguishable from background
		if trimmedFrame-startFrame < minFrames ||
			common.Mean(energies[startFrame:trimmedFrame]) <= noiseFloor {
			rejected++
			continue
		}

		segments = append(segments, Segment{
			StartSec:     startSec,
			EndSec:       endSec,
			TrimmedSec:   energy.FrameToTime(trimmedFrame),
			StartFrame:   startFrame,
			TrimmedFrame: trimmedFrame,
		})
	}

	sg.logger.Debug("segmented signal", logging.Fields{
		"onsets":   len(onsetTimes),
		"segments": len(segments),
		"rejected": rejected,
	})

	return segments, nil
}

// runLength converts the sixteenth duration to a frame count, clamped
// so very slow or very fast tempi still trim sensibly
func (sg *Segmenter) runLength(sixteenthSec, frameDur float64) int {
	run := int(math.Round(sixteenthSec / frameDur))
	if run < sg.config.MinRunLength {
		run = sg.config.MinRunLength
	}
	if run > sg.config.MaxRunLength {
		run = sg.config.MaxRunLength
	}
	return run
}

// trimSilence finds the first run of runLength consecutive frames at
// or below the floor and trims the segment there. The trimmed end
// never collapses onto the start.
func (sg *Segmenter) trimSilence(energies []float64, startFrame, endFrame int, floor float64, runLength int) int {
	run := 0
	for f := startFrame; f < endFrame; f++ {
		if energies[f] <= floor {
			run++
			if run >= runLength {
				trimmed := f - runLength + 1
				if trimmed < startFrame+1 {
					trimmed = startFrame + 1
				}
				return trimmed
			}
		} else {
			run = 0
		}
	}
	return endFrame
}
