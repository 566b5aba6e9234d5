package graph

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/pipelined/raug/message"
	"github.com/pipelined/raug/param"
)

// Kind is the closed set of node behaviours.
type Kind uint8

// Node kinds.
const (
	KindConstant Kind = iota + 1
	KindConstantMessage
	KindSampleRate
	KindParam
	KindAudioOutput

	KindSineOsc
	KindSawOsc
	KindBlSawOsc
	KindBlSquareOsc
	KindNoiseOsc
	KindPhaseAccum

	KindMetro
	KindCounter
	KindSelect
	KindMerge
	KindMessage
	KindRegister
	KindHold
	KindSampleAndHold

	KindMoogLadder
	KindPeakLimiter
	KindSmooth
	KindBufferPlayer

	KindAdd
	KindSub
	KindMul
	KindDiv
	KindRem
	KindPow

	KindNeg
	KindRecip
	KindSin
	KindCos
	KindAbs
	KindSqrt
	KindExp
	KindTanh
	KindFloor
)

var kindNames = map[Kind]string{
	KindConstant:        "constant",
	KindConstantMessage: "constant_message",
	KindSampleRate:      "sample_rate",
	KindParam:           "param",
	KindAudioOutput:     "audio_output",
	KindSineOsc:         "sine_osc",
	KindSawOsc:          "saw_osc",
	KindBlSawOsc:        "bl_saw_osc",
	KindBlSquareOsc:     "bl_square_osc",
	KindNoiseOsc:        "noise_osc",
	KindPhaseAccum:      "phase_accum",
	KindMetro:           "metro",
	KindCounter:         "counter",
	KindSelect:          "select",
	KindMerge:           "merge",
	KindMessage:         "message",
	KindRegister:        "register",
	KindHold:            "hold",
	KindSampleAndHold:   "sample_and_hold",
	KindMoogLadder:      "moog_ladder",
	KindPeakLimiter:     "peak_limiter",
	KindSmooth:          "smooth",
	KindBufferPlayer:    "buffer_player",
	KindAdd:             "add",
	KindSub:             "sub",
	KindMul:             "mul",
	KindDiv:             "div",
	KindRem:             "rem",
	KindPow:             "pow",
	KindNeg:             "neg",
	KindRecip:           "recip",
	KindSin:             "sin",
	KindCos:             "cos",
	KindAbs:             "abs",
	KindSqrt:            "sqrt",
	KindExp:             "exp",
	KindTanh:            "tanh",
	KindFloor:           "floor",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		m[name] = k
	}
	return m
}()

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// ParseKind returns the kind with the given name.
func ParseKind(name string) (Kind, error) {
	if k, ok := kindsByName[name]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("node kind %q: %w", name, ErrInvalidConfig)
}

// KindNames returns all kind names sorted alphabetically.
func KindNames() []string {
	names := make([]string, 0, len(kindNames))
	for _, name := range kindNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Binary reports if k is a two-operand arithmetic kind.
func (k Kind) Binary() bool {
	return k >= KindAdd && k <= KindPow
}

// Unary reports if k is a one-operand math kind.
func (k Kind) Unary() bool {
	return k >= KindNeg && k <= KindFloor
}

// NodeConfig holds the construction arguments of a node. Only the fields
// relevant to the node kind are used.
type NodeConfig struct {
	// Name is an optional unique label used in errors and patch files.
	Name string
	// Size is the number of outputs of select and inputs of merge.
	Size int
	// Value is the constant of constant nodes and the initial value of hold.
	Value float64
	// Message is emitted by message and constant_message nodes.
	Message message.Message
	// Param is the parameter read by param nodes.
	Param param.ID
	// Buffer is the sample buffer played by buffer_player.
	Buffer BufferID
	// Seed initialises noise generators.
	Seed uint64
	// Channel is the output channel of audio_output, assigned by the graph.
	Channel int
}

// PortSpec describes a port of a kind.
type PortSpec struct {
	Name    string
	Rate    Rate
	Default float64
}

func in(name string, rate Rate, def float64) PortSpec {
	return PortSpec{Name: name, Rate: rate, Default: def}
}

func out(name string, rate Rate) PortSpec {
	return PortSpec{Name: name, Rate: rate}
}

var (
	audioOut   = []PortSpec{out("out", Audio)}
	messageOut = []PortSpec{out("out", Message)}
)

// contract returns the input and output ports of a node of kind k.
func contract(k Kind, cfg NodeConfig) (ins, outs []PortSpec, err error) {
	switch k {
	case KindConstant, KindSampleRate:
		return nil, []PortSpec{out("out", Control)}, nil
	case KindConstantMessage:
		return nil, messageOut, nil
	case KindParam:
		return nil, []PortSpec{out("out", Audio), out("bang", Message)}, nil
	case KindAudioOutput:
		return []PortSpec{in("in", Audio, 0)}, nil, nil
	case KindSineOsc, KindSawOsc, KindBlSawOsc:
		return []PortSpec{in("frequency", Audio, 440), in("reset", Message, 0)}, audioOut, nil
	case KindBlSquareOsc:
		return []PortSpec{
			in("frequency", Audio, 440),
			in("pulse_width", Control, 0.5),
			in("reset", Message, 0),
		}, audioOut, nil
	case KindNoiseOsc:
		return nil, audioOut, nil
	case KindPhaseAccum:
		return []PortSpec{in("increment", Audio, 0), in("reset", Message, 0)}, audioOut, nil
	case KindMetro:
		return []PortSpec{in("period", Control, 1), in("reset", Message, 0)}, messageOut, nil
	case KindCounter:
		return []PortSpec{in("trig", Message, 0), in("reset", Message, 0)}, []PortSpec{out("count", Control)}, nil
	case KindSelect:
		if cfg.Size < 1 {
			return nil, nil, fmt.Errorf("select size %d: %w", cfg.Size, ErrInvalidConfig)
		}
		outs = make([]PortSpec, cfg.Size)
		for i := range outs {
			outs[i] = out(strconv.Itoa(i), Message)
		}
		return []PortSpec{in("in", Message, 0), in("index", Control, 0)}, outs, nil
	case KindMerge:
		if cfg.Size < 1 {
			return nil, nil, fmt.Errorf("merge size %d: %w", cfg.Size, ErrInvalidConfig)
		}
		ins = make([]PortSpec, cfg.Size)
		for i := range ins {
			ins[i] = in(strconv.Itoa(i), Message, 0)
		}
		return ins, messageOut, nil
	case KindMessage:
		return []PortSpec{in("trig", Message, 0)}, messageOut, nil
	case KindRegister:
		return []PortSpec{in("set", Message, 0), in("trig", Message, 0)}, messageOut, nil
	case KindHold:
		return []PortSpec{in("in", Message, 0)}, []PortSpec{out("out", Control)}, nil
	case KindSampleAndHold:
		return []PortSpec{in("in", Audio, 0), in("trig", Message, 0)}, audioOut, nil
	case KindMoogLadder:
		return []PortSpec{
			in("in", Audio, 0),
			in("cutoff", Audio, 1000),
			in("resonance", Control, 0.1),
		}, audioOut, nil
	case KindPeakLimiter:
		return []PortSpec{
			in("in", Audio, 0),
			in("threshold", Control, 1),
			in("attack", Control, 0.001),
			in("release", Control, 0.1),
		}, audioOut, nil
	case KindSmooth:
		return []PortSpec{in("in", Audio, 0), in("factor", Control, 0.01)}, audioOut, nil
	case KindBufferPlayer:
		return []PortSpec{in("trig", Message, 0), in("rate", Audio, 1)}, audioOut, nil
	}
	switch {
	case k.Binary():
		return []PortSpec{in("a", Audio, 0), in("b", Audio, 0)}, audioOut, nil
	case k.Unary():
		return []PortSpec{in("in", Audio, 0)}, audioOut, nil
	}
	return nil, nil, fmt.Errorf("node kind %v: %w", k, ErrInvalidConfig)
}
