package transcode

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDecoderConfig points the external tools at nonexistent binaries
// so tests never shell out
func testDecoderConfig(t *testing.T) *DecoderConfig {
	t.Helper()
	config := DefaultDecoderConfig()
	config.FFmpegPath = filepath.Join(t.TempDir(), "no-ffmpeg")
	config.FFprobePath = filepath.Join(t.TempDir(), "no-ffprobe")
	return config
}

func writeStereoWAV(t *testing.T, path string, seconds float64) int {
	t.Helper()

	const sampleRate = 44100

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 2, 1)

	frames := int(seconds * sampleRate)
	data := make([]int, 0, frames*2)
	for i := 0; i < frames; i++ {
		sample := int(0.5 * 32767.0 * math.Sin(2.0*math.Pi*440.0*float64(i)/sampleRate))
		data = append(data, sample, sample)
	}

	buf := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{NumChannels: 2, SampleRate: sampleRate},
		SourceBitDepth: 16,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())

	return frames
}

func TestDecodeFileUsesNativeWAVStrategy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	frames := writeStereoWAV(t, path, 0.5)

	decoder := NewDecoder(testDecoderConfig(t))
	data, err := decoder.DecodeFile(path)
	require.NoError(t, err)

	assert.Equal(t, "native_wav", data.Strategy)
	assert.Equal(t, 44100, data.SampleRate)
	assert.Equal(t, 1, data.Channels, "stereo input downmixes to mono")
	assert.Equal(t, frames, len(data.PCM))
	assert.Equal(t, path, data.Source)
	assert.InDelta(t, 0.5, data.Duration.Seconds(), 0.01)
}

func TestDecodeFileNormalizesPeak(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeStereoWAV(t, path, 0.25)

	decoder := NewDecoder(testDecoderConfig(t))
	data, err := decoder.DecodeFile(path)
	require.NoError(t, err)

	peak := 0.0
	for _, s := range data.PCM {
		if math.Abs(s) > peak {
			peak = math.Abs(s)
		}
	}
	assert.InDelta(t, 1.0, peak, 1e-6, "decoded audio is peak normalized")
}

func TestDecodeFileMissingInput(t *testing.T) {
	decoder := NewDecoder(testDecoderConfig(t))

	_, err := decoder.DecodeFile(filepath.Join(t.TempDir(), "absent.wav"))

	assert.Error(t, err)
}

func TestDecodeFileExhaustsStrategiesOnGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.bin")
	require.NoError(t, os.WriteFile(path, []byte("this is not audio data"), 0o644))

	decoder := NewDecoder(testDecoderConfig(t))
	_, err := decoder.DecodeFile(path)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, path, decodeErr.Path)
	assert.Len(t, decodeErr.Attempts, 5, "every strategy must be attempted")
	assert.Error(t, decodeErr.Cause)
}

func TestDecodeRawRIFFStrategy(t *testing.T) {
	// A RIFF file whose fmt chunk follows a nonstandard LIST chunk;
	// the raw chunk walker tolerates the ordering
	path := filepath.Join(t.TempDir(), "nonstandard.wav")

	pcm := make([]byte, 0, 2048)
	for i := 0; i < 1024; i++ {
		sample := int16(10000.0 * math.Sin(2.0*math.Pi*440.0*float64(i)/44100.0))
		pcm = append(pcm, byte(sample), byte(sample>>8))
	}

	var file []byte
	file = append(file, []byte("RIFF")...)
	file = append(file, u32le(uint32(4+8+4+8+16+8+len(pcm)))...)
	file = append(file, []byte("WAVE")...)
	file = append(file, []byte("LIST")...)
	file = append(file, u32le(4)...)
	file = append(file, []byte("INFO")...)
	file = append(file, []byte("fmt ")...)
	file = append(file, u32le(16)...)
	file = append(file, u16le(1)...)       // PCM
	file = append(file, u16le(1)...)       // mono
	file = append(file, u32le(44100)...)   // sample rate
	file = append(file, u32le(44100*2)...) // byte rate
	file = append(file, u16le(2)...)       // block align
	file = append(file, u16le(16)...)      // bits per sample
	file = append(file, []byte("data")...)
	file = append(file, u32le(uint32(len(pcm)))...)
	file = append(file, pcm...)

	require.NoError(t, os.WriteFile(path, file, 0o644))

	decoder := NewDecoder(testDecoderConfig(t))
	data, err := decoder.decodeRawRIFF(path)
	require.NoError(t, err)

	assert.Equal(t, 44100, data.SampleRate)
	assert.Equal(t, 1024, len(data.PCM))
	assert.Equal(t, 1, data.Channels)
}

func u16le(v uint16) []byte {
	return []byte{byte(v), byte(v >> 8)}
}

func u32le(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}
