package render

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/AbhiJ2706/cs489-project/logging"
)

// Synthesizer turns a MIDI file into audio using a sample bank
type Synthesizer interface {
	Synthesize(ctx context.Context, midiPath, soundFontPath, wavPath string) error
}

// FluidSynthesizer renders audio by invoking the FluidSynth CLI
type FluidSynthesizer struct {
	// Path to the fluidsynth binary
	Path    string
	Gain    float64
	Timeout time.Duration

	logger logging.Logger
}

// NewFluidSynthesizer creates a synthesizer using the fluidsynth
// binary on the search path
func NewFluidSynthesizer() *FluidSynthesizer {
	return &FluidSynthesizer{
		Path:    "fluidsynth",
		Gain:    5.0,
		Timeout: 300 * time.Second,
		logger: logging.WithFields(logging.Fields{
			"component": "fluid_synthesizer",
		}),
	}
}

// Synthesize renders the MIDI file through the sound font to a WAV file
func (s *FluidSynthesizer) Synthesize(ctx context.Context, midiPath, soundFontPath, wavPath string) error {
	if soundFontPath == "" {
		return &SynthesisError{
			Tool:  s.Path,
			Cause: fmt.Errorf("no sound font provided"),
		}
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	args := []string{
		"-ni",
		"-g", strconv.FormatFloat(s.Gain, 'f', -1, 64),
		"-F", wavPath,
		soundFontPath,
		midiPath,
	}
	cmd := exec.CommandContext(ctx, s.Path, args...)

	s.logger.Debug("synthesizing audio", logging.Fields{
		"command": strings.Join(cmd.Args, " "),
	})

	if output, err := cmd.CombinedOutput(); err != nil {
		return &SynthesisError{
			Tool:  s.Path,
			Cause: fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output))),
		}
	}

	s.logger.Info("synthesized audio", logging.Fields{"path": wavPath})
	return nil
}
