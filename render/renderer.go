// Package render shells out to external engraving and synthesis tools.
// Both collaborators are optional: their absence degrades a
// transcription run instead of failing it.
package render

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/AbhiJ2706/cs489-project/logging"
)

// Renderer turns a notation document into an engraved PDF
type Renderer interface {
	RenderPDF(ctx context.Context, musicxmlPath, pdfPath string) error
}

// MuseScoreRenderer renders by invoking the MuseScore CLI
type MuseScoreRenderer struct {
	// Path to the mscore binary
	Path    string
	Timeout time.Duration

	logger logging.Logger
}

// NewMuseScoreRenderer creates a renderer using the mscore binary on
// the search path
func NewMuseScoreRenderer() *MuseScoreRenderer {
	return &MuseScoreRenderer{
		Path:    "mscore",
		Timeout: 120 * time.Second,
		logger: logging.WithFields(logging.Fields{
			"component": "musescore_renderer",
		}),
	}
}

// RenderPDF engraves the MusicXML document to a PDF file
func (r *MuseScoreRenderer) RenderPDF(ctx context.Context, musicxmlPath, pdfPath string) error {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.Path, "-o", pdfPath, musicxmlPath)

	r.logger.Debug("rendering PDF", logging.Fields{
		"command": strings.Join(cmd.Args, " "),
	})

	if output, err := cmd.CombinedOutput(); err != nil {
		return &RenderError{
			Tool:  r.Path,
			Cause: fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output))),
		}
	}

	r.logger.Info("rendered PDF", logging.Fields{"path": pdfPath})
	return nil
}
