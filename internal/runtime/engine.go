// Package runtime executes compiled plans block by block and drives the
// block loop.
package runtime

import (
	"fmt"
	"math"

	"github.com/pipelined/raug/graph"
	"github.com/pipelined/raug/message"
	"github.com/pipelined/raug/param"
	"github.com/pipelined/raug/signal"
)

// Engine executes a plan one block at a time. All memory is allocated in
// NewEngine; ProcessBlock doesn't allocate, lock or block. An Engine must
// only be used from a single goroutine.
type Engine struct {
	plan       *graph.Plan
	sampleRate float64
	blockSize  int

	audio   [][]float64
	control []float64
	queues  []message.Queue
	nodes   []node
	out     signal.Float64

	blocks    uint64
	nonFinite uint64
}

// node holds the per-instance processing state of a step.
type node struct {
	step *graph.Step
	// scratch buffers feed audio inputs that are not driven by audio.
	scratch [][]float64
	// pending is the number of queued messages per input at block start.
	pending []int

	unary  func(float64) float64
	binary func(a, b float64) float64

	phase   float64
	value   float64
	count   float64
	elapsed int
	armed   bool
	held    message.Message
	hasHeld bool
	rng     uint64
	stage   [4]float64
	env     float64
	pos     float64
	playing bool
	buffer  []float64

	param    *param.Param
	smoother param.Smoother
	writes   uint64
	bangs    uint64
}

// NewEngine allocates an engine for the plan. Parameter nodes are bound to
// the store.
func NewEngine(plan *graph.Plan, params *param.Store) (*Engine, error) {
	e := &Engine{
		plan:       plan,
		sampleRate: plan.SampleRate,
		blockSize:  plan.BlockSize,
		audio:      make([][]float64, plan.AudioSlots),
		control:    make([]float64, plan.ControlSlots),
		queues:     make([]message.Queue, plan.Queues),
		nodes:      make([]node, len(plan.Steps)),
		out:        signal.EmptyFloat64(plan.Channels, plan.BlockSize),
	}
	for i := range e.audio {
		e.audio[i] = make([]float64, plan.BlockSize)
	}
	for i := range plan.Steps {
		step := &plan.Steps[i]
		n := &e.nodes[i]
		n.step = step
		n.pending = make([]int, len(step.Inputs))
		n.scratch = make([][]float64, len(step.Inputs))
		for j, in := range step.Inputs {
			if in.Rate == graph.Audio && in.From != graph.FromAudio {
				n.scratch[j] = make([]float64, plan.BlockSize)
			}
		}
		switch {
		case step.Kind == graph.KindParam:
			p, err := params.At(step.Config.Param)
			if err != nil {
				return nil, fmt.Errorf("bind %s: %w", step.Name, err)
			}
			n.param = p
		case step.Kind == graph.KindBufferPlayer:
			id := int(step.Config.Buffer)
			if id < 0 || id >= len(plan.Buffers) {
				return nil, fmt.Errorf("bind %s: buffer %d: %w", step.Name, id, graph.ErrInvalidConfig)
			}
			n.buffer = plan.Buffers[id].Mono()
		case step.Kind.Unary():
			n.unary = unaryOp(step.Kind)
		case step.Kind.Binary():
			n.binary = binaryOp(step.Kind)
		}
	}
	e.Reset()
	return e, nil
}

// Reset restores the initial state of every node and clears all buffers
// and queues. Two runs started after Reset produce identical output.
func (e *Engine) Reset() {
	for i := range e.audio {
		clear(e.audio[i])
	}
	clear(e.control)
	for i := range e.queues {
		e.queues[i].Clear()
	}
	for _, ch := range e.out {
		clear(ch)
	}
	for i := range e.nodes {
		e.nodes[i].reset(e.sampleRate)
	}
	e.blocks = 0
	e.nonFinite = 0
}

func (n *node) reset(sampleRate float64) {
	for j, in := range n.step.Inputs {
		if n.scratch[j] != nil {
			v := 0.0
			if in.From == graph.FromDefault {
				v = in.Default
			}
			for k := range n.scratch[j] {
				n.scratch[j][k] = v
			}
		}
	}
	cfg := n.step.Config
	n.phase = 0
	n.value = 0
	n.count = 0
	n.elapsed = 0
	n.armed = true
	n.held = message.Message{}
	n.hasHeld = false
	n.stage = [4]float64{}
	n.env = 0
	n.pos = 0
	n.playing = false
	n.rng = cfg.Seed
	if n.rng == 0 {
		n.rng = 0x9e3779b97f4a7c15
	}
	if n.step.Kind == graph.KindHold {
		n.value = cfg.Value
	}
	if n.param != nil {
		n.smoother = param.NewSmoother(n.param, sampleRate)
		v, writes, bangs := n.param.Snapshot()
		n.smoother.Reset(v)
		n.writes, n.bangs = writes, bangs
	}
}

// Plan returns the executed plan.
func (e *Engine) Plan() *graph.Plan {
	return e.plan
}

// Blocks returns the number of blocks processed since the last Reset.
func (e *Engine) Blocks() uint64 {
	return e.blocks
}

// NonFinite returns the number of NaN or infinite samples replaced with
// zero since the last Reset.
func (e *Engine) NonFinite() uint64 {
	return e.nonFinite
}

// Dropped returns the number of messages dropped by full queues.
func (e *Engine) Dropped() uint64 {
	var n uint64
	for i := range e.queues {
		n += e.queues[i].Dropped()
	}
	return n
}

// ProcessBlock runs every step of the plan once and returns the output
// channels. The returned buffer is owned by the engine and is valid until
// the next call.
func (e *Engine) ProcessBlock() signal.Float64 {
	for i := range e.nodes {
		n := &e.nodes[i]
		e.prepare(n)
		e.process(n)
		e.finish(n)
	}
	e.blocks++
	return e.out
}

func (e *Engine) prepare(n *node) {
	for j, in := range n.step.Inputs {
		switch {
		case in.Rate == graph.Message:
			n.pending[j] = e.queues[in.Queue].Len()
		case in.Rate == graph.Audio && in.From == graph.FromControl:
			v := e.control[in.Slot]
			buf := n.scratch[j]
			for k := range buf {
				buf[k] = v
			}
		}
	}
}

func (e *Engine) finish(n *node) {
	for _, o := range n.step.Outputs {
		switch o.Rate {
		case graph.Audio:
			e.nonFinite += uint64(signal.Sanitize(e.audio[o.Slot]))
		case graph.Control:
			if v := e.control[o.Slot]; math.IsNaN(v) || math.IsInf(v, 0) {
				e.control[o.Slot] = 0
				e.nonFinite++
			}
		}
	}
	for j, in := range n.step.Inputs {
		if in.Rate == graph.Message {
			e.queues[in.Queue].Consume(n.pending[j])
		}
	}
}

func (e *Engine) audioIn(n *node, i int) []float64 {
	if in := n.step.Inputs[i]; in.From == graph.FromAudio {
		return e.audio[in.Slot]
	}
	return n.scratch[i]
}

// controlIn reads a control input. Audio drivers are reduced to the last
// sample of the block.
func (e *Engine) controlIn(n *node, i int) float64 {
	in := n.step.Inputs[i]
	switch in.From {
	case graph.FromAudio:
		buf := e.audio[in.Slot]
		return buf[len(buf)-1]
	case graph.FromControl:
		return e.control[in.Slot]
	}
	return in.Default
}

func (e *Engine) fired(n *node, i int) bool {
	return n.pending[i] > 0
}

func (e *Engine) messageIn(n *node, i, k int) message.Message {
	return e.queues[n.step.Inputs[i].Queue].At(k)
}

func (e *Engine) audioOut(n *node, i int) []float64 {
	return e.audio[n.step.Outputs[i].Slot]
}

func (e *Engine) setControl(n *node, i int, v float64) {
	e.control[n.step.Outputs[i].Slot] = v
}

func (e *Engine) emit(n *node, i int, m message.Message) {
	for _, q := range n.step.Outputs[i].Targets {
		e.queues[q].Push(m)
	}
}
