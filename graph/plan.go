package graph

import (
	"fmt"
	"strings"

	"github.com/pipelined/raug/signal"
)

// Source tells where an audio or control input takes its value from.
type Source uint8

const (
	// FromDefault uses the input default value.
	FromDefault Source = iota
	// FromAudio reads an audio slot.
	FromAudio
	// FromControl reads a control slot.
	FromControl
)

type (
	// InputBinding is an input resolved against plan slots.
	InputBinding struct {
		Name    string
		Rate    Rate
		From    Source
		Slot    int
		Default float64
		// Queue is the message queue of a message input, -1 otherwise.
		Queue int
	}

	// OutputBinding is an output resolved against plan slots.
	OutputBinding struct {
		Name string
		Rate Rate
		// Slot is the audio or control slot, -1 for message outputs.
		Slot int
		// Targets are the queues fed by a message output.
		Targets []int
	}

	// Step is one node invocation in a block.
	Step struct {
		Node    NodeID
		Name    string
		Kind    Kind
		Config  NodeConfig
		Inputs  []InputBinding
		Outputs []OutputBinding
	}

	// Plan is an immutable schedule produced by Compile.
	Plan struct {
		SampleRate   float64
		BlockSize    int
		Channels     int
		Steps        []Step
		AudioSlots   int
		ControlSlots int
		Queues       int
		// Deferred message edges are delivered in the following block.
		Deferred []Edge
		Buffers  []signal.Float64
	}
)

// Order returns node ids in execution order.
func (p *Plan) Order() []NodeID {
	ids := make([]NodeID, len(p.Steps))
	for i, s := range p.Steps {
		ids[i] = s.Node
	}
	return ids
}

// String renders the schedule one step per line.
func (p *Plan) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "plan: %v Hz, %d frames, %d channels\n", p.SampleRate, p.BlockSize, p.Channels)
	for i, s := range p.Steps {
		fmt.Fprintf(&b, "%3d %s", i, s.Name)
		var ins []string
		for _, in := range s.Inputs {
			switch {
			case in.Rate == Message:
				ins = append(ins, fmt.Sprintf("%s<q%d", in.Name, in.Queue))
			case in.From == FromAudio:
				ins = append(ins, fmt.Sprintf("%s<a%d", in.Name, in.Slot))
			case in.From == FromControl:
				ins = append(ins, fmt.Sprintf("%s<c%d", in.Name, in.Slot))
			default:
				ins = append(ins, fmt.Sprintf("%s=%v", in.Name, in.Default))
			}
		}
		if len(ins) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(ins, ", "))
		}
		b.WriteString("\n")
	}
	for _, e := range p.Deferred {
		fmt.Fprintf(&b, "deferred #%d.%d -> #%d.%d\n", e.From.Node, e.From.Index, e.To.Node, e.To.Index)
	}
	return b.String()
}
