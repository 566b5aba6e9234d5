package raug

import (
	"fmt"

	"github.com/pipelined/raug/graph"
	"github.com/pipelined/raug/message"
	"github.com/pipelined/raug/param"
	"github.com/pipelined/raug/signal"
	"github.com/pipelined/raug/wav"
)

const (
	// DefaultSampleRate is used when WithSampleRate is not provided.
	DefaultSampleRate = 48000
	// DefaultBlockSize is used when WithBlockSize is not provided.
	DefaultBlockSize = 512
)

// BuilderOption configures a GraphBuilder.
type BuilderOption func(*graph.Config)

// WithSampleRate sets the graph sample rate.
func WithSampleRate(sampleRate float64) BuilderOption {
	return func(c *graph.Config) {
		c.SampleRate = sampleRate
	}
}

// WithBlockSize sets the number of frames processed per block.
func WithBlockSize(blockSize int) BuilderOption {
	return func(c *graph.Config) {
		c.BlockSize = blockSize
	}
}

// GraphBuilder builds a graph with node factories. The first error of a
// factory or an arithmetic helper is kept and returned by Err and
// BuildRuntime. GraphBuilder is not safe for concurrent use.
type GraphBuilder struct {
	g   *graph.Graph
	err error
}

// NewGraphBuilder returns a builder for an empty graph.
func NewGraphBuilder(opts ...BuilderOption) (*GraphBuilder, error) {
	cfg := graph.Config{
		SampleRate: DefaultSampleRate,
		BlockSize:  DefaultBlockSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	g, err := graph.New(cfg)
	if err != nil {
		return nil, err
	}
	return &GraphBuilder{g: g}, nil
}

// Graph returns the graph under construction.
func (b *GraphBuilder) Graph() *graph.Graph {
	return b.g
}

// Err returns the first error recorded by the builder.
func (b *GraphBuilder) Err() error {
	return b.err
}

// Check records err unless an error is already recorded. BuildRuntime
// returns the first recorded error.
func (b *GraphBuilder) Check(err error) {
	if err != nil && b.err == nil {
		b.err = err
	}
}

// AddNode creates a node of any kind. Factories below are shortcuts for
// it.
func (b *GraphBuilder) AddNode(kind graph.Kind, cfg graph.NodeConfig) Node {
	id, err := b.g.AddNode(kind, cfg)
	if err != nil {
		b.Check(err)
		return Node{b: b, id: -1}
	}
	return Node{b: b, id: id}
}

func (b *GraphBuilder) add(kind graph.Kind) Node {
	return b.AddNode(kind, graph.NodeConfig{})
}

// SineOsc creates a sine oscillator.
func (b *GraphBuilder) SineOsc() Node { return b.add(graph.KindSineOsc) }

// SawOsc creates a naive sawtooth oscillator.
func (b *GraphBuilder) SawOsc() Node { return b.add(graph.KindSawOsc) }

// BlSawOsc creates a band-limited sawtooth oscillator.
func (b *GraphBuilder) BlSawOsc() Node { return b.add(graph.KindBlSawOsc) }

// BlSquareOsc creates a band-limited square oscillator.
func (b *GraphBuilder) BlSquareOsc() Node { return b.add(graph.KindBlSquareOsc) }

// NoiseOsc creates a white noise generator. Equal seeds produce equal
// noise.
func (b *GraphBuilder) NoiseOsc(seed uint64) Node {
	return b.AddNode(graph.KindNoiseOsc, graph.NodeConfig{Seed: seed})
}

// PhaseAccum creates an accumulator that adds its input every sample and
// restarts from 0 on a reset message. It doesn't wrap, so with an increment
// of 1/sampleRate it counts seconds.
func (b *GraphBuilder) PhaseAccum() Node { return b.add(graph.KindPhaseAccum) }

// Metro creates a periodic Bang generator. Its period input is in seconds.
func (b *GraphBuilder) Metro() Node { return b.add(graph.KindMetro) }

// Counter creates a trigger counter.
func (b *GraphBuilder) Counter() Node { return b.add(graph.KindCounter) }

// Select creates a router with n message outputs.
func (b *GraphBuilder) Select(n int) Node {
	return b.AddNode(graph.KindSelect, graph.NodeConfig{Size: n})
}

// Merge creates a node forwarding one of n message inputs.
func (b *GraphBuilder) Merge(n int) Node {
	return b.AddNode(graph.KindMerge, graph.NodeConfig{Size: n})
}

// Message creates a node emitting m when triggered.
func (b *GraphBuilder) Message(m message.Message) Node {
	return b.AddNode(graph.KindMessage, graph.NodeConfig{Message: m})
}

// Register creates a message memory cell.
func (b *GraphBuilder) Register() Node { return b.add(graph.KindRegister) }

// Hold creates a node latching numeric messages into a control value.
func (b *GraphBuilder) Hold(initial float64) Node {
	return b.AddNode(graph.KindHold, graph.NodeConfig{Value: initial})
}

// SampleAndHold creates a sample and hold.
func (b *GraphBuilder) SampleAndHold() Node { return b.add(graph.KindSampleAndHold) }

// MoogLadder creates a four pole low pass filter.
func (b *GraphBuilder) MoogLadder() Node { return b.add(graph.KindMoogLadder) }

// PeakLimiter creates a peak limiter.
func (b *GraphBuilder) PeakLimiter() Node { return b.add(graph.KindPeakLimiter) }

// Constant creates a control constant.
func (b *GraphBuilder) Constant(v float64) Node {
	return b.AddNode(graph.KindConstant, graph.NodeConfig{Value: v})
}

// ConstantMessage creates a node emitting m every block.
func (b *GraphBuilder) ConstantMessage(m message.Message) Node {
	return b.AddNode(graph.KindConstantMessage, graph.NodeConfig{Message: m})
}

// SampleRate creates a control node holding the graph sample rate.
func (b *GraphBuilder) SampleRate() Node { return b.add(graph.KindSampleRate) }

// AddAudioOutput creates the next output channel.
func (b *GraphBuilder) AddAudioOutput() Node { return b.add(graph.KindAudioOutput) }

// AddParam declares a parameter and creates a node that reads it. An
// empty name is replaced with a generated one.
func (b *GraphBuilder) AddParam(name string, initial float64, opts ...param.Option) Node {
	p, err := b.declare(name, initial, opts...)
	if err != nil {
		b.Check(err)
		return Node{b: b, id: -1}
	}
	return b.ParamNode(p)
}

// ParamNode creates another node that reads an existing parameter.
func (b *GraphBuilder) ParamNode(p *param.Param) Node {
	return b.AddNode(graph.KindParam, graph.NodeConfig{Param: p.ID()})
}

// Param returns a parameter declared with the builder.
func (b *GraphBuilder) Param(name string) (*param.Param, error) {
	return b.g.Params().Named(name)
}

func (b *GraphBuilder) declare(name string, initial float64, opts ...param.Option) (*param.Param, error) {
	store := b.g.Params()
	if name == "" {
		name = fmt.Sprintf("param%d", store.Len())
		for _, err := store.Named(name); err == nil; _, err = store.Named(name) {
			name += "_"
		}
	}
	id, err := store.Declare(name, initial, opts...)
	if err != nil {
		return nil, err
	}
	return store.At(id)
}

// LoadBuffer reads a WAV file and attaches it to the graph.
func (b *GraphBuilder) LoadBuffer(path string) (graph.BufferID, error) {
	floats, _, err := wav.Load(path)
	if err != nil {
		return 0, fmt.Errorf("load buffer: %w", err)
	}
	return b.g.AddBuffer(floats)
}

// AddBuffer attaches samples rendered elsewhere, for example an
// asset.Asset, to the graph.
func (b *GraphBuilder) AddBuffer(buf signal.Float64) (graph.BufferID, error) {
	return b.g.AddBuffer(buf)
}

// BufferPlayer creates a player of a loaded buffer.
func (b *GraphBuilder) BufferPlayer(id graph.BufferID) Node {
	return b.AddNode(graph.KindBufferPlayer, graph.NodeConfig{Buffer: id})
}

// BuildRuntime compiles the graph and returns a runtime for it. The graph
// and its parameters are frozen afterwards.
func (b *GraphBuilder) BuildRuntime(opts ...Option) (*Runtime, error) {
	if b.err != nil {
		return nil, b.err
	}
	return NewRuntime(b.g, opts...)
}
