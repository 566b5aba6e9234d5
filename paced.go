package raug

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/pipelined/raug/signal"
)

// Paced wraps a sink that doesn't block, so blocks are delivered no faster
// than real time. Device sinks block on their own and don't need it.
func Paced(s Sink) Sink {
	return &paced{sink: s}
}

type paced struct {
	sink    Sink
	limiter *rate.Limiter
}

func (p *paced) Sink(runtimeID string, sampleRate, numChannels, blockSize int) (func(signal.Float64) error, error) {
	fn, err := p.sink.Sink(runtimeID, sampleRate, numChannels, blockSize)
	if err != nil {
		return nil, err
	}
	interval := signal.DurationOf(float64(sampleRate), int64(blockSize))
	if interval <= 0 {
		interval = time.Nanosecond
	}
	p.limiter = rate.NewLimiter(rate.Every(interval), 1)
	return func(b signal.Float64) error {
		if err := p.limiter.Wait(context.Background()); err != nil {
			return err
		}
		return fn(b)
	}, nil
}

func (p *paced) Flush(runtimeID string) error {
	if f, ok := p.sink.(Flusher); ok {
		return f.Flush(runtimeID)
	}
	return nil
}
