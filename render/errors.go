package render

import (
	"fmt"
)

// RenderError reports a failed notation-to-PDF render. Rendering is a
// best-effort step; callers downgrade the run rather than fail it.
type RenderError struct {
	Tool  string
	Cause error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render with %s failed: %v", e.Tool, e.Cause)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// SynthesisError reports a failed MIDI-to-audio synthesis
type SynthesisError struct {
	Tool  string
	Cause error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis with %s failed: %v", e.Tool, e.Cause)
}

func (e *SynthesisError) Unwrap() error {
	return e.Cause
}
