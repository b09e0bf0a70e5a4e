package notation

import (
	"fmt"
)

// AnalysisError reports an internal invariant violation while building
// or transforming notation. These are bugs or unrecoverable input
// states, never silently corrected.
type AnalysisError struct {
	Op      string
	Message string
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}
