package example

import (
	"errors"

	"github.com/pipelined/raug"
	"github.com/pipelined/raug/message"
)

// Sequencer steps a sine through freqs, one step per period seconds.
func Sequencer(freqs []float64, period float64, opts ...raug.BuilderOption) (*raug.Runtime, error) {
	if len(freqs) == 0 {
		return nil, errors.New("sequencer needs at least one frequency")
	}
	b, err := raug.NewGraphBuilder(opts...)
	if err != nil {
		return nil, err
	}
	metro := b.Metro()
	b.Check(metro.Input("period").Set(period))
	counter := b.Counter()
	b.Check(counter.Input("trig").Connect(metro.OutputAt(0)))
	index := counter.Sub(raug.Scalar(1)).Rem(raug.Scalar(float64(len(freqs))))

	sel := b.Select(len(freqs))
	b.Check(sel.Input("in").Connect(metro.OutputAt(0)))
	b.Check(sel.Input("index").Connect(index.OutputAt(0)))
	merge := b.Merge(len(freqs))
	for i, f := range freqs {
		m := b.Message(message.NewFloat(f))
		b.Check(m.InputAt(0).Connect(sel.OutputAt(i)))
		b.Check(merge.InputAt(i).Connect(m.OutputAt(0)))
	}
	freq := b.Hold(freqs[0])
	b.Check(freq.InputAt(0).Connect(merge.OutputAt(0)))

	osc := b.SineOsc()
	b.Check(osc.Input("frequency").Connect(freq.OutputAt(0)))
	stereo(b, osc.Mul(raug.Scalar(0.2)))
	return b.BuildRuntime()
}
