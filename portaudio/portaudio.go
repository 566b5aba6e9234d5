// Package portaudio plays rendered blocks on the default output device.
package portaudio

import (
	"github.com/gordonklaus/portaudio"

	"github.com/pipelined/raug/signal"
)

// Sink represents portaudio sink which allows to play audio using default
// device. Writes block until the device consumed the previous block, so
// the runtime is paced by the device.
type Sink struct {
	buf    []float32
	stream *portaudio.Stream
}

// NewSink returns new sink.
func NewSink() *Sink {
	return &Sink{}
}

// Sink initializes portaudio and opens the default stream with the
// runtime format.
func (s *Sink) Sink(runtimeID string, sampleRate, numChannels, blockSize int) (func(signal.Float64) error, error) {
	s.buf = make([]float32, blockSize*numChannels)
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	stream, err := portaudio.OpenDefaultStream(0, numChannels, float64(sampleRate), blockSize, &s.buf)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, err
	}
	s.stream = stream
	return func(b signal.Float64) error {
		for i := range b[0] {
			for j := range b {
				s.buf[i*numChannels+j] = float32(b[j][i])
			}
		}
		return s.stream.Write()
	}, nil
}

// Flush terminates portaudio structures.
func (s *Sink) Flush(string) error {
	if s.stream == nil {
		return nil
	}
	defer func() {
		s.stream = nil
	}()
	if err := s.stream.Stop(); err != nil {
		return err
	}
	if err := s.stream.Close(); err != nil {
		return err
	}
	return portaudio.Terminate()
}
