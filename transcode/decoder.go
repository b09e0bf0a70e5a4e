package transcode

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-audio/wav"
	"github.com/google/uuid"

	"github.com/AbhiJ2706/cs489-project/logging"
)

// AudioData represents decoded audio, downmixed to mono and peak
// normalized to [-1, 1]
type AudioData struct {
	PCM        []float64     `json:"-"`
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`
	Duration   time.Duration `json:"duration"`
	Source     string        `json:"source"`
	Strategy   string        `json:"strategy"` // Which decode strategy succeeded
}

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	TargetSampleRate int           `json:"target_sample_rate"`
	FFmpegPath       string        `json:"ffmpeg_path"`
	FFprobePath      string        `json:"ffprobe_path"`
	Timeout          time.Duration `json:"timeout"`
	ResampleQuality  string        `json:"resample_quality"` // "fast", "medium", "high"
	TempDir          string        `json:"temp_dir"`
}

// DefaultDecoderConfig returns sensible defaults for file decoding
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		TargetSampleRate: 44100,
		FFmpegPath:       "ffmpeg",
		FFprobePath:      "ffprobe",
		Timeout:          60 * time.Second,
		ResampleQuality:  "high",
		TempDir:          os.TempDir(),
	}
}

// decodeStrategy is one way of turning a file into samples. Strategies
// are tried in order until one succeeds.
type decodeStrategy struct {
	name string
	fn   func(filename string) (*AudioData, error)
}

// Decoder turns audio files into mono float64 PCM.
//
// Real-world inputs arrive in whatever container the user's phone or
// DAW produced, and not all of them parse cleanly. The decoder works
// through a chain of strategies from cheapest to most forgiving:
//
//  1. native WAV parsing (no external tools)
//  2. FFmpeg decode piped as raw float64
//  3. manual RIFF chunk walk for malformed WAV headers
//  4. FFmpeg transcode to a transient WAV file, then native parsing
//  5. FFprobe stream inspection followed by FFmpeg decode with the
//     probed parameters
//
// Only when every strategy fails does decoding return a DecodeError.
type Decoder struct {
	config     *DecoderConfig
	strategies []decodeStrategy
	logger     logging.Logger
}

// NewDecoder creates a decoder with the given config (nil for defaults)
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}

	d := &Decoder{
		config: config,
		logger: logging.WithFields(logging.Fields{
			"component": "audio_decoder",
		}),
	}

	d.strategies = []decodeStrategy{
		{"native_wav", d.decodeNativeWAV},
		{"ffmpeg_pipe", d.decodeFFmpegPipe},
		{"raw_riff", d.decodeRawRIFF},
		{"ffmpeg_transient_wav", d.decodeViaTransientWAV},
		{"ffprobe_guided", d.decodeProbed},
	}

	return d
}

// DecodeFile decodes an audio file to mono normalized PCM at the
// target sample rate
func (d *Decoder) DecodeFile(filename string) (*AudioData, error) {
	if _, err := os.Stat(filename); err != nil {
		return nil, fmt.Errorf("input file: %w", err)
	}

	var attempts []string
	var lastErr error

	for _, strategy := range d.strategies {
		audio, err := strategy.fn(filename)
		attempts = append(attempts, strategy.name)

		if err != nil {
			d.logger.Debug("decode strategy failed", logging.Fields{
				"strategy": strategy.name,
				"filename": filename,
				"error":    err.Error(),
			})
			lastErr = err
			continue
		}

		if len(audio.PCM) == 0 {
			return nil, &EmptyInputError{Path: filename}
		}

		audio.Source = filename
		audio.Strategy = strategy.name
		audio.Duration = time.Duration(float64(len(audio.PCM)) / float64(audio.SampleRate) * float64(time.Second))
		normalizePeak(audio.PCM)

		d.logger.Info("decoded audio file", logging.Fields{
			"filename":    filename,
			"strategy":    strategy.name,
			"sample_rate": audio.SampleRate,
			"duration":    audio.Duration.String(),
		})

		return audio, nil
	}

	return nil, &DecodeError{Path: filename, Attempts: attempts, Cause: lastErr}
}

// decodeNativeWAV parses a RIFF/WAVE file without external tools
func (d *Decoder) decodeNativeWAV(filename string) (*AudioData, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("not a valid WAV file")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("reading PCM: %w", err)
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return nil, fmt.Errorf("empty PCM buffer")
	}

	scale := math.Pow(2, float64(decoder.BitDepth)-1)
	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}

	samples := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float64(v) / scale
	}

	return &AudioData{
		PCM:        downmixToMono(samples, channels),
		SampleRate: buf.Format.SampleRate,
		Channels:   1,
	}, nil
}

// decodeFFmpegPipe decodes via FFmpeg, receiving raw float64 samples
// on stdout
func (d *Decoder) decodeFFmpegPipe(filename string) (*AudioData, error) {
	args := []string{
		"-i", filename,
		"-f", "f64le",
		"-ac", "1",
		"-ar", strconv.Itoa(d.config.TargetSampleRate),
	}
	if filter := d.resampleFilter(); filter != "" {
		args = append(args, "-af", filter)
	}
	args = append(args, "-v", "error", "pipe:1")

	output, err := d.runTool(d.config.FFmpegPath, args, nil)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode failed: %w", err)
	}

	return &AudioData{
		PCM:        bytesToFloat64(output),
		SampleRate: d.config.TargetSampleRate,
		Channels:   1,
	}, nil
}

// decodeRawRIFF walks RIFF chunks by hand, tolerating the nonstandard
// chunk ordering and padded headers some recorders emit
func (d *Decoder) decodeRawRIFF(filename string) (*AudioData, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("missing RIFF/WAVE header")
	}

	var sampleRate, channels, bitsPerSample int
	var pcmData []byte

	// Walk chunks after the 12-byte RIFF header
	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8

		if body+chunkSize > len(data) {
			chunkSize = len(data) - body
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, fmt.Errorf("fmt chunk too short: %d bytes", chunkSize)
			}
			format := int(binary.LittleEndian.Uint16(data[body : body+2]))
			if format != 1 {
				return nil, fmt.Errorf("unsupported WAV format code %d", format)
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
		case "data":
			pcmData = data[body : body+chunkSize]
		}

		// Chunks are word-aligned
		offset = body + chunkSize
		if chunkSize%2 == 1 {
			offset++
		}
	}

	if sampleRate == 0 || channels == 0 || len(pcmData) == 0 {
		return nil, fmt.Errorf("incomplete WAV structure")
	}
	if bitsPerSample != 16 {
		return nil, fmt.Errorf("unsupported bit depth %d", bitsPerSample)
	}

	numSamples := len(pcmData) / 2
	samples := make([]float64, numSamples)
	for i := 0; i < numSamples; i++ {
		sample := int16(binary.LittleEndian.Uint16(pcmData[i*2 : i*2+2]))
		samples[i] = float64(sample) / 32768.0
	}

	return &AudioData{
		PCM:        downmixToMono(samples, channels),
		SampleRate: sampleRate,
		Channels:   1,
	}, nil
}

// decodeViaTransientWAV transcodes the input to a temporary WAV file
// with FFmpeg, reads it natively, then removes it
func (d *Decoder) decodeViaTransientWAV(filename string) (*AudioData, error) {
	tmpPath := filepath.Join(d.config.TempDir, fmt.Sprintf("decode-%s.wav", uuid.NewString()))
	defer os.Remove(tmpPath)

	args := []string{
		"-i", filename,
		"-ac", "1",
		"-ar", strconv.Itoa(d.config.TargetSampleRate),
		"-sample_fmt", "s16",
		"-v", "error",
		"-y", tmpPath,
	}

	if _, err := d.runTool(d.config.FFmpegPath, args, nil); err != nil {
		return nil, fmt.Errorf("ffmpeg transcode failed: %w", err)
	}

	return d.decodeNativeWAV(tmpPath)
}

// decodeProbed inspects the stream with FFprobe first, then decodes
// with explicitly specified input parameters. This rescues files whose
// extension or container header misleads FFmpeg's format detection.
func (d *Decoder) decodeProbed(filename string) (*AudioData, error) {
	meta, err := d.probeFile(filename)
	if err != nil {
		return nil, err
	}

	args := []string{
		"-f", meta.Format,
		"-i", filename,
		"-f", "f64le",
		"-ac", "1",
		"-ar", strconv.Itoa(d.config.TargetSampleRate),
		"-v", "error",
		"pipe:1",
	}

	output, err := d.runTool(d.config.FFmpegPath, args, nil)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode with probed format %q failed: %w", meta.Format, err)
	}

	return &AudioData{
		PCM:        bytesToFloat64(output),
		SampleRate: d.config.TargetSampleRate,
		Channels:   1,
	}, nil
}

// probedMetadata is the subset of FFprobe output the decoder uses
type probedMetadata struct {
	Format     string
	Codec      string
	SampleRate int
	Channels   int
}

// probeFile runs FFprobe and extracts the first audio stream's parameters
func (d *Decoder) probeFile(filename string) (*probedMetadata, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filename,
	}

	output, err := d.runTool(d.config.FFprobePath, args, nil)
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probe struct {
		Format struct {
			FormatName string `json:"format_name"`
		} `json:"format"`
		Streams []struct {
			CodecType  string `json:"codec_type"`
			CodecName  string `json:"codec_name"`
			SampleRate string `json:"sample_rate"`
			Channels   int    `json:"channels"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("parsing ffprobe output: %w", err)
	}

	meta := &probedMetadata{}
	// format_name can be a comma-separated list; the first entry is the
	// demuxer name FFmpeg accepts back as -f
	if name, _, found := strings.Cut(probe.Format.FormatName, ","); found {
		meta.Format = name
	} else {
		meta.Format = probe.Format.FormatName
	}

	for _, stream := range probe.Streams {
		if stream.CodecType != "audio" {
			continue
		}
		meta.Codec = stream.CodecName
		meta.Channels = stream.Channels
		if sr, err := strconv.Atoi(stream.SampleRate); err == nil {
			meta.SampleRate = sr
		}
		break
	}

	if meta.Format == "" {
		return nil, fmt.Errorf("ffprobe found no container format")
	}

	return meta, nil
}

// runTool executes an external binary with the configured timeout
func (d *Decoder) runTool(path string, args []string, stdin []byte) ([]byte, error) {
	ctx := context.Background()
	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, path, args...)
	if stdin != nil {
		cmd.Stdin = strings.NewReader(string(stdin))
	}

	output, err := cmd.Output()
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitError.Stderr)))
		}
		return nil, err
	}

	return output, nil
}

// resampleFilter returns the soxr filter string for the configured quality
func (d *Decoder) resampleFilter() string {
	switch d.config.ResampleQuality {
	case "fast":
		return "aresample=resampler=soxr:precision=16"
	case "medium":
		return "aresample=resampler=soxr:precision=20"
	case "high":
		return "aresample=resampler=soxr:precision=28"
	default:
		return ""
	}
}

// bytesToFloat64 reinterprets little-endian float64 bytes as samples
func bytesToFloat64(data []byte) []float64 {
	numSamples := len(data) / 8
	samples := make([]float64, numSamples)

	for i := 0; i < numSamples; i++ {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}

	return samples
}

// downmixToMono averages interleaved channels into one
func downmixToMono(samples []float64, channels int) []float64 {
	if channels <= 1 {
		return samples
	}

	numFrames := len(samples) / channels
	mono := make([]float64, numFrames)

	for i := 0; i < numFrames; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += samples[i*channels+c]
		}
		mono[i] = sum / float64(channels)
	}

	return mono
}

// normalizePeak scales samples in place so the loudest reaches 1.0
func normalizePeak(samples []float64) {
	peak := 0.0
	for _, s := range samples {
		if math.Abs(s) > peak {
			peak = math.Abs(s)
		}
	}

	if peak < 1e-10 {
		return
	}

	for i := range samples {
		samples[i] /= peak
	}
}
