package render

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPDFMissingBinary(t *testing.T) {
	r := NewMuseScoreRenderer()
	r.Path = filepath.Join(t.TempDir(), "no-mscore")

	err := r.RenderPDF(context.Background(), "score.musicxml", "score.pdf")

	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, r.Path, renderErr.Tool)
	assert.Error(t, renderErr.Cause)
}

func TestSynthesizeRequiresSoundFont(t *testing.T) {
	s := NewFluidSynthesizer()
	s.Path = filepath.Join(t.TempDir(), "no-fluidsynth")

	err := s.Synthesize(context.Background(), "score.mid", "", "out.wav")

	var synthErr *SynthesisError
	require.ErrorAs(t, err, &synthErr)
}

func TestSynthesizeMissingBinary(t *testing.T) {
	s := NewFluidSynthesizer()
	s.Path = filepath.Join(t.TempDir(), "no-fluidsynth")

	err := s.Synthesize(context.Background(), "score.mid", "piano.sf2", "out.wav")

	var synthErr *SynthesisError
	require.ErrorAs(t, err, &synthErr)
	assert.Contains(t, err.Error(), "no-fluidsynth")
}
