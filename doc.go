/*
Package raug builds audio graphs and runs them block by block.

Concept

A graph is a set of nodes connected by edges. Every port carries one of
three rates:

    Audio - a buffer of samples recomputed every sample;
    Control - a scalar recomputed once per block;
    Message - discrete events, such as a Bang, delivered once per block.

Audio and control edges must form an acyclic graph. Message edges may form
a cycle as long as it passes through a register, which delays the value by
one block.

Building

Graphs are built with a GraphBuilder. Node factories return Node handles,
which expose ports and arithmetic:

    b, err := raug.NewGraphBuilder(raug.WithSampleRate(48000))
    freq := b.AddParam("freq", 440, param.WithSmoothing(50*time.Millisecond))
    osc := b.SineOsc()
    osc.Input("frequency").Connect(freq.OutputAt(0))
    out := b.AddAudioOutput()
    out.InputAt(0).Connect(osc.Mul(raug.Scalar(0.2)).OutputAt(0))

Errors of factories and arithmetic are accumulated by the builder and
returned by BuildRuntime. Connect and Set return their errors directly.

Execution

BuildRuntime compiles the graph into a plan and freezes it. The runtime
can then be started many times:

    r, err := b.BuildRuntime()
    h, err := r.Run(ctx, sink)
    ...
    err = h.Stop()

RunFor and RunOffline process an exact number of blocks. Parameters stay
writable from any goroutine while the runtime runs; stop, pause and resume
take effect at block boundaries.

Sinks

Every block is passed to each sink in order. Sinks are allocated when the
runtime starts and flushed when it stops, even if it failed.
*/
package raug
