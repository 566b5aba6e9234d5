package example

import (
	"math"

	"github.com/pipelined/raug"
)

// phase returns a ramp over [0, 1) advancing once per second.
func phase(b *raug.GraphBuilder) raug.Node {
	pa := b.PhaseAccum()
	b.Check(pa.Input("increment").Connect(b.SampleRate().Recip().OutputAt(0)))
	return pa.Rem(raug.Scalar(1))
}

// FM modulates a sine at freq2 with a sine at freq1. Both frequencies are
// parameters.
func FM(opts ...raug.BuilderOption) (*raug.Runtime, error) {
	b, err := raug.NewGraphBuilder(opts...)
	if err != nil {
		return nil, err
	}
	pa := phase(b)
	freq1 := b.AddParam("freq1", 440)
	freq2 := b.AddParam("freq2", 220)

	sine1 := pa.Mul(freq1).Mul(raug.Scalar(2 * math.Pi)).Sin()
	sine2 := pa.Mul(freq2).Mul(raug.Scalar(2 * math.Pi)).Add(sine1).Sin()
	stereo(b, sine2.Mul(raug.Scalar(0.2)))
	return b.BuildRuntime()
}
