// Package wav writes rendered blocks to PCM WAV files and loads WAV files
// into sample buffers.
package wav

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/pipelined/raug/signal"
)

// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
var ErrUnsupportedBitDepth = errors.New("only 8, 16, 24 and 32 bit depth is supported")

// ErrInvalidFile is returned when a file is not a valid WAV file.
var ErrInvalidFile = errors.New("wav is not valid")

// pcm is the WAVE_FORMAT_PCM audio format tag.
const pcm = 1

// Sink saves audio to wav file. Every run recreates the file.
type Sink struct {
	path     string
	bitDepth signal.BitDepth
	file     *os.File
	encoder  *wav.Encoder
}

// NewSink creates new wav sink.
func NewSink(path string, bitDepth signal.BitDepth) (*Sink, error) {
	if !bitDepth.Valid() {
		return nil, ErrUnsupportedBitDepth
	}
	return &Sink{
		path:     path,
		bitDepth: bitDepth,
	}, nil
}

// Path returns the destination file.
func (s *Sink) Path() string {
	return s.path
}

// Sink creates the file and returns a function that encodes one block.
func (s *Sink) Sink(runtimeID string, sampleRate, numChannels, blockSize int) (func(signal.Float64) error, error) {
	if numChannels < 1 {
		return nil, fmt.Errorf("wav sink %s: graph has no audio outputs", s.path)
	}
	f, err := os.Create(s.path)
	if err != nil {
		return nil, err
	}
	s.file = f
	s.encoder = wav.NewEncoder(f, sampleRate, int(s.bitDepth), numChannels, pcm)
	ib := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: numChannels,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, numChannels*blockSize),
		SourceBitDepth: int(s.bitDepth),
	}
	return func(b signal.Float64) error {
		n := b.PutInterInt(ib.Data, s.bitDepth)
		ib.Data = ib.Data[:n]
		return s.encoder.Write(ib)
	}, nil
}

// Flush finalizes the header and closes the file.
func (s *Sink) Flush(string) error {
	if s.encoder == nil {
		return nil
	}
	defer func() {
		s.encoder, s.file = nil, nil
	}()
	if err := s.encoder.Close(); err != nil {
		s.file.Close()
		return fmt.Errorf("error closing encoder %s: %w", s.path, err)
	}
	return s.file.Close()
}

// Load decodes the whole file. It returns the signal and its sample rate.
func Load(path string) (signal.Float64, float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("%s: %w", path, ErrInvalidFile)
	}
	bitDepth := signal.BitDepth(decoder.BitDepth)
	if !bitDepth.Valid() {
		return nil, 0, fmt.Errorf("%s: %d bit: %w", path, decoder.BitDepth, ErrUnsupportedBitDepth)
	}
	ib, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("error decoding %s: %w", path, err)
	}
	floats := signal.InterInt{
		Data:        ib.Data,
		NumChannels: int(decoder.NumChans),
		BitDepth:    bitDepth,
	}.AsFloat64()
	return floats, float64(decoder.SampleRate), nil
}
