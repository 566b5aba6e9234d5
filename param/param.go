// Package param implements named parameters that are written by control
// goroutines and read by the audio goroutine without locks.
package param

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/pipelined/raug/message"
)

// ID identifies a parameter within its store.
type ID int

// Policy is a smoothing curve.
type Policy uint8

const (
	// Exponential approaches the target with a one-pole curve and is within
	// 0.1% of it after the smoothing time.
	Exponential Policy = iota
	// Linear ramps to the target and reaches it exactly after the smoothing
	// time.
	Linear
)

func (p Policy) String() string {
	switch p {
	case Exponential:
		return "exponential"
	case Linear:
		return "linear"
	default:
		return "unknown"
	}
}

// ParsePolicy returns the policy with the given name.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "exponential", "exp":
		return Exponential, nil
	case "linear", "lin":
		return Linear, nil
	}
	return 0, fmt.Errorf("smoothing policy %q: %w", s, ErrInvalidValue)
}

// Param is a named value that can be changed while the graph is running.
type Param struct {
	id        ID
	name      string
	initial   float64
	smoothing time.Duration
	policy    Policy
	hasRange  bool
	min, max  float64

	target atomic.Uint64
	writes atomic.Uint64
	bangs  atomic.Uint64
}

// Option configures a parameter at declaration.
type Option func(*Param) error

// WithSmoothing sets the time a new value takes to settle. Zero disables
// smoothing.
func WithSmoothing(d time.Duration) Option {
	return func(p *Param) error {
		if d < 0 {
			return fmt.Errorf("negative smoothing %v: %w", d, ErrInvalidValue)
		}
		p.smoothing = d
		return nil
	}
}

// WithPolicy sets the smoothing curve.
func WithPolicy(policy Policy) Option {
	return func(p *Param) error {
		if policy != Exponential && policy != Linear {
			return fmt.Errorf("policy %d: %w", policy, ErrInvalidValue)
		}
		p.policy = policy
		return nil
	}
}

// WithRange limits accepted values to [min, max].
func WithRange(min, max float64) Option {
	return func(p *Param) error {
		if math.IsNaN(min) || math.IsNaN(max) || min > max {
			return fmt.Errorf("range [%v, %v]: %w", min, max, ErrInvalidValue)
		}
		p.hasRange = true
		p.min, p.max = min, max
		return nil
	}
}

// ID returns the parameter id.
func (p *Param) ID() ID {
	return p.id
}

// Name returns the parameter name.
func (p *Param) Name() string {
	return p.name
}

// Initial returns the value the parameter was declared with.
func (p *Param) Initial() float64 {
	return p.initial
}

// Smoothing returns the smoothing time and policy.
func (p *Param) Smoothing() (time.Duration, Policy) {
	return p.smoothing, p.policy
}

// Range returns the declared range, ok is false when none was declared.
func (p *Param) Range() (min, max float64, ok bool) {
	return p.min, p.max, p.hasRange
}

// Get returns the current target value.
func (p *Param) Get() float64 {
	return math.Float64frombits(p.target.Load())
}

// Set changes the target value. The previous target is kept if v is
// rejected.
func (p *Param) Set(v float64) error {
	if err := p.validate(v); err != nil {
		return &Error{Name: p.name, Err: err}
	}
	p.target.Store(math.Float64bits(v))
	p.writes.Add(1)
	return nil
}

// Bang triggers the parameter's message output without changing its value.
func (p *Param) Bang() {
	p.bangs.Add(1)
}

// Send applies a message: numbers set the value, a Bang triggers.
func (p *Param) Send(m message.Message) error {
	if m.IsBang() {
		p.Bang()
		return nil
	}
	v, ok := m.Float()
	if !ok {
		return &Error{Name: p.name, Err: fmt.Errorf("message %v: %w", m, ErrInvalidValue)}
	}
	return p.Set(v)
}

// Snapshot returns the target value and the write and bang sequence
// numbers. The audio goroutine compares sequence numbers between blocks
// to detect updates.
func (p *Param) Snapshot() (v float64, writes, bangs uint64) {
	writes = p.writes.Load()
	bangs = p.bangs.Load()
	return p.Get(), writes, bangs
}

func (p *Param) validate(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%v: %w", v, ErrInvalidValue)
	}
	if p.hasRange && (v < p.min || v > p.max) {
		return fmt.Errorf("%v not in [%v, %v]: %w", v, p.min, p.max, ErrOutOfRange)
	}
	return nil
}
