// Package example builds small graphs showing the builder API.
package example

import (
	"github.com/pipelined/raug"
)

// Demo is a 440 Hz sine at 0.2 gain on two channels.
func Demo(opts ...raug.BuilderOption) (*raug.Runtime, error) {
	b, err := raug.NewGraphBuilder(opts...)
	if err != nil {
		return nil, err
	}
	sine := b.SineOsc()
	b.Check(sine.Input("frequency").Set(440))
	sine = sine.Mul(raug.Scalar(0.2))
	stereo(b, sine)
	return b.BuildRuntime()
}

// stereo connects n to two new outputs.
func stereo(b *raug.GraphBuilder, n raug.Node) {
	for i := 0; i < 2; i++ {
		b.Check(b.AddAudioOutput().InputAt(0).Connect(n.OutputAt(0)))
	}
}
