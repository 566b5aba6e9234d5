// Package mp3 encodes rendered blocks to mp3 files with lame.
package mp3

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/viert/lame"

	"github.com/pipelined/raug/signal"
)

// ErrUnsupportedChannels is returned for graphs with more than two outputs.
var ErrUnsupportedChannels = errors.New("mp3 supports one or two channels")

// Sink allows to send data to mp3 files.
type Sink struct {
	path    string
	bitRate int
	quality int
	f       *os.File
	wr      *lame.LameWriter
}

// NewSink creates new Sink. Quality ranges from 0 (best) to 9.
func NewSink(path string, bitRate int, quality int) *Sink {
	return &Sink{
		path:    path,
		bitRate: bitRate,
		quality: quality,
	}
}

// Sink creates the file and returns a function that encodes one block.
func (s *Sink) Sink(runtimeID string, sampleRate, numChannels, blockSize int) (func(signal.Float64) error, error) {
	if numChannels < 1 || numChannels > 2 {
		return nil, fmt.Errorf("mp3 sink %s: %d channels: %w", s.path, numChannels, ErrUnsupportedChannels)
	}
	var err error
	s.f, err = os.Create(s.path)
	if err != nil {
		return nil, err
	}

	s.wr = lame.NewWriter(s.f)
	s.wr.Encoder.SetBitrate(s.bitRate)
	s.wr.Encoder.SetQuality(s.quality)
	s.wr.Encoder.SetNumChannels(numChannels)
	s.wr.Encoder.SetInSamplerate(sampleRate)
	if numChannels == 1 {
		s.wr.Encoder.SetMode(lame.MONO)
	} else {
		s.wr.Encoder.SetMode(lame.JOINT_STEREO)
	}
	s.wr.Encoder.SetVBR(lame.VBR_RH)
	s.wr.Encoder.InitParams()

	ints := make([]int, numChannels*blockSize)
	pcm := make([]byte, 2*len(ints))
	return func(b signal.Float64) error {
		n := b.PutInterInt(ints, signal.BitDepth16)
		for i, v := range ints[:n] {
			binary.LittleEndian.PutUint16(pcm[2*i:], uint16(int16(v)))
		}
		_, err := s.wr.Write(pcm[:2*n])
		return err
	}, nil
}

// Flush finishes the stream and closes the file.
func (s *Sink) Flush(string) error {
	if s.wr == nil {
		return nil
	}
	defer func() {
		s.wr, s.f = nil, nil
	}()
	if err := s.wr.Close(); err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}
