// Package asset keeps rendered audio in memory.
package asset

import (
	"errors"
	"sync"

	"github.com/pipelined/raug/signal"
)

// ErrSingleUse is returned when an asset is passed to a second run.
var ErrSingleUse = errors.New("asset is already used")

// Asset is a sink which uses a regular buffer as underlying storage.
// Once rendered it can be attached to another graph and played with a
// buffer player.
type Asset struct {
	mu         sync.Mutex
	once       sync.Once
	sampleRate int
	data       signal.Float64
}

// New returns an empty asset.
func New() *Asset {
	return &Asset{}
}

// Sink appends blocks to the asset. An asset accepts a single run.
func (a *Asset) Sink(runtimeID string, sampleRate, numChannels, blockSize int) (func(signal.Float64) error, error) {
	first := false
	a.once.Do(func() { first = true })
	if !first {
		return nil, ErrSingleUse
	}
	a.mu.Lock()
	a.sampleRate = sampleRate
	a.data = signal.EmptyFloat64(numChannels, 0)
	a.mu.Unlock()
	return func(b signal.Float64) error {
		a.mu.Lock()
		a.data = a.data.Append(b)
		a.mu.Unlock()
		return nil
	}, nil
}

// Data returns the rendered samples.
func (a *Asset) Data() signal.Float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.data
}

// SampleRate returns the sample rate of the run that filled the asset.
func (a *Asset) SampleRate() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sampleRate
}
