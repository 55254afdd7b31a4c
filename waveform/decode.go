// Package waveform produces fixed-length normalized amplitude envelopes
// from audio files, for visualization. Extraction runs independently of
// playback: a failure here never touches playback state.
package waveform

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

var (
	// ErrUnsupportedFormat is returned for files no decoder handles.
	ErrUnsupportedFormat = errors.New("waveform: unsupported format")
	// ErrInvalidSampleCount is returned for non-positive resolutions.
	ErrInvalidSampleCount = errors.New("waveform: sample count must be positive")
	// ErrEmptySource is returned when a file decodes to zero frames.
	ErrEmptySource = errors.New("waveform: source contains no samples")
)

// Buffer holds decoded interleaved PCM normalized to [-1,1].
type Buffer struct {
	Samples    []float64
	Channels   int
	SampleRate int
}

// Frames returns the number of per-channel frames in the buffer.
func (b *Buffer) Frames() int {
	if b.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Decoder turns an audio file into a raw sample buffer. Implementations
// must be safe for concurrent use across extraction sessions.
type Decoder interface {
	Decode(path string) (*Buffer, error)
}

// FileDecoder decodes wav, aiff, mp3 and ogg/vorbis files, dispatching
// on the file extension.
type FileDecoder struct{}

func (FileDecoder) Decode(path string) (*Buffer, error) {
	var decode func(*os.File) (*Buffer, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		decode = decodeWAV
	case ".aiff", ".aif":
		decode = decodeAIFF
	case ".mp3":
		decode = decodeMP3
	case ".ogg", ".oga":
		decode = decodeOgg
	default:
		return nil, ErrUnsupportedFormat
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decode(f)
}

func decodeWAV(f *os.File) (*Buffer, error) {
	d := wav.NewDecoder(f)
	pcm, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("waveform: decode wav: %w", err)
	}
	if pcm == nil || pcm.Format == nil || len(pcm.Data) == 0 {
		return nil, ErrEmptySource
	}
	return intBufferToBuffer(pcm, int(d.BitDepth)), nil
}

func decodeAIFF(f *os.File) (*Buffer, error) {
	d := aiff.NewDecoder(f)
	format := d.Format()
	if format == nil {
		return nil, fmt.Errorf("waveform: decode aiff: invalid file")
	}

	var data []int
	chunk := &goaudio.IntBuffer{
		Data:   make([]int, 4096),
		Format: format,
	}
	for {
		n, err := d.PCMBuffer(chunk)
		if n > 0 {
			data = append(data, chunk.Data[:n]...)
		}
		if err == io.EOF || n == 0 {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("waveform: decode aiff: %w", err)
		}
	}
	if len(data) == 0 {
		return nil, ErrEmptySource
	}
	pcm := &goaudio.IntBuffer{Data: data, Format: format}
	return intBufferToBuffer(pcm, int(d.BitDepth)), nil
}

func decodeMP3(f *os.File) (*Buffer, error) {
	d, err := gomp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("waveform: decode mp3: %w", err)
	}

	// go-mp3 outputs 16-bit little-endian stereo PCM.
	raw, err := io.ReadAll(d)
	if err != nil {
		return nil, fmt.Errorf("waveform: decode mp3: %w", err)
	}
	frames := len(raw) / 2
	if frames == 0 {
		return nil, ErrEmptySource
	}
	samples := make([]float64, frames)
	for i := range frames {
		v := int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8)
		samples[i] = float64(v) / 32768.0
	}
	return &Buffer{
		Samples:    samples,
		Channels:   2,
		SampleRate: d.SampleRate(),
	}, nil
}

func decodeOgg(f *os.File) (*Buffer, error) {
	data, format, err := oggvorbis.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("waveform: decode ogg: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptySource
	}
	samples := make([]float64, len(data))
	for i, v := range data {
		samples[i] = float64(v)
	}
	return &Buffer{
		Samples:    samples,
		Channels:   format.Channels,
		SampleRate: format.SampleRate,
	}, nil
}

func intBufferToBuffer(pcm *goaudio.IntBuffer, bitDepth int) *Buffer {
	var scale float64
	switch bitDepth {
	case 8:
		scale = 128
	case 16:
		scale = 32768
	case 24:
		scale = 8388608
	case 32:
		scale = 2147483648
	default:
		scale = 32768
	}
	samples := make([]float64, len(pcm.Data))
	for i, v := range pcm.Data {
		samples[i] = float64(v) / scale
	}
	return &Buffer{
		Samples:    samples,
		Channels:   pcm.Format.NumChannels,
		SampleRate: pcm.Format.SampleRate,
	}
}
