// Package mock provides sinks for runtime integration tests.
package mock

import (
	"sync"
	"time"

	"github.com/pipelined/raug/signal"
)

// Sink mocks up a raug.Sink interface. It counts blocks and frames and
// keeps the received signal unless Discard is set.
type Sink struct {
	// Interval is slept after every block to mimic a device.
	Interval time.Duration
	// Discard drops the received signal.
	Discard bool
	// OnBlock is called from the block loop after a block was counted.
	OnBlock     func(blocks int)
	ErrorOnCall error
	ErrorOnSink error
	Hooks

	mu          sync.Mutex
	counter
	buffer      signal.Float64
	sampleRate  int
	numChannels int
	blockSize   int
}

// Hooks allows to mock flush hook.
type Hooks struct {
	Flushed      bool
	ErrorOnFlush error
}

// Sink implementation for runtime.
func (m *Sink) Sink(runtimeID string, sampleRate, numChannels, blockSize int) (func(signal.Float64) error, error) {
	if m.ErrorOnSink != nil {
		return nil, m.ErrorOnSink
	}
	m.mu.Lock()
	m.sampleRate, m.numChannels, m.blockSize = sampleRate, numChannels, blockSize
	m.buffer = nil
	m.reset()
	m.mu.Unlock()
	return func(b signal.Float64) error {
		if m.ErrorOnCall != nil {
			return m.ErrorOnCall
		}
		m.mu.Lock()
		if !m.Discard {
			m.buffer = m.buffer.Append(b)
		}
		m.advance(blockSize)
		blocks := m.blocks
		m.mu.Unlock()
		if m.OnBlock != nil {
			m.OnBlock(blocks)
		}
		time.Sleep(m.Interval)
		return nil
	}, nil
}

// Flush implements raug.Flusher.
func (m *Sink) Flush(string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Flushed = true
	return m.ErrorOnFlush
}

// Buffer returns the received signal.
func (m *Sink) Buffer() signal.Float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buffer
}

// Format returns the format the sink was allocated with.
func (m *Sink) Format() (sampleRate, numChannels, blockSize int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sampleRate, m.numChannels, m.blockSize
}

// Count returns blocks and frames received since the last allocation.
func (m *Sink) Count() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.blocks, m.samples
}

// counter counts blocks and frames.
type counter struct {
	blocks  int
	samples int
}

func (c *counter) advance(size int) {
	c.blocks++
	c.samples += size
}

func (c *counter) reset() {
	c.blocks, c.samples = 0, 0
}
