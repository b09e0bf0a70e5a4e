package transcode

import (
	"fmt"
	"strings"
)

// DecodeError reports that every decode strategy failed for an input.
// Cause holds the error from the last strategy attempted.
type DecodeError struct {
	Path     string
	Attempts []string
	Cause    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unable to decode %s (tried %s): %v",
		e.Path, strings.Join(e.Attempts, ", "), e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// EmptyInputError reports that an input decoded successfully but
// contained no audio samples
type EmptyInputError struct {
	Path string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("no audio samples in %s", e.Path)
}
