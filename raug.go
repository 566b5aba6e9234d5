package raug

import (
	"github.com/rs/xid"

	"github.com/pipelined/raug/internal/runtime"
	"github.com/pipelined/raug/internal/state"
	"github.com/pipelined/raug/signal"
)

var (
	// ErrInvalidState is returned when a lifecycle call is not legal in
	// the current state of the runtime.
	ErrInvalidState = state.ErrInvalidState
	// ErrEngineFault is returned when block processing panicked.
	ErrEngineFault = runtime.ErrEngineFault
)

// State of a runtime.
type State = state.State

// Runtime states.
const (
	Built    = state.Built
	Compiled = state.Compiled
	Running  = state.Running
	Paused   = state.Paused
	Stopped  = state.Stopped
)

// Sink is the destination of rendered blocks. Sink is called when the
// runtime starts and returns a function that receives every block. The
// block is owned by the runtime and must not be retained.
type Sink interface {
	Sink(runtimeID string, sampleRate, numChannels, blockSize int) (func(signal.Float64) error, error)
}

// Flusher is implemented by sinks that need to be finalized when the
// runtime stops.
type Flusher interface {
	Flush(runtimeID string) error
}

// Discard is a sink that drops every block.
var Discard Sink = discard{}

type discard struct{}

func (discard) Sink(string, int, int, int) (func(signal.Float64) error, error) {
	return func(signal.Float64) error { return nil }, nil
}

// Logger is the interface for runtime loggers.
type Logger interface {
	Debug(...interface{})
	Info(...interface{})
	Warn(...interface{})
	Error(...interface{})
}

type silentLogger struct{}

func (silentLogger) Debug(...interface{}) {}
func (silentLogger) Info(...interface{})  {}
func (silentLogger) Warn(...interface{})  {}
func (silentLogger) Error(...interface{}) {}

// newUID returns new unique id value.
func newUID() string {
	return xid.New().String()
}
