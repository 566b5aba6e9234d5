package example

import (
	"math"

	"github.com/pipelined/raug"
)

// decay returns an envelope restarted by trig and falling from 1 with the
// curve (1 - t) ^ (1 / length).
func decay(b *raug.GraphBuilder, trig, length raug.Node) raug.Node {
	t := b.PhaseAccum()
	b.Check(t.Input("increment").Connect(b.SampleRate().Recip().OutputAt(0)))
	b.Check(t.Input("reset").Connect(trig.OutputAt(0)))
	return t.Neg().Add(raug.Scalar(1)).Pow(length.Recip()).Smooth(raug.Scalar(0.01))
}

// Envelope plays a pair of decaying FM tones every half second.
func Envelope(opts ...raug.BuilderOption) (*raug.Runtime, error) {
	b, err := raug.NewGraphBuilder(opts...)
	if err != nil {
		return nil, err
	}
	trig := b.Metro()
	b.Check(trig.Input("period").Set(0.5))

	amp1 := decay(b, trig, b.AddParam("decay1", 0.05))
	amp2 := decay(b, trig, b.AddParam("decay2", 0.1))

	pa := phase(b)
	freq1 := b.AddParam("freq1", 880)
	freq2 := b.AddParam("freq2", 220)

	sine1 := pa.Mul(freq1).Mul(raug.Scalar(2 * math.Pi)).Sin().Mul(amp1)
	sine2 := pa.Mul(freq2).Mul(raug.Scalar(2 * math.Pi)).Add(sine1).Sin()
	stereo(b, sine2.Mul(amp2))
	return b.BuildRuntime()
}
