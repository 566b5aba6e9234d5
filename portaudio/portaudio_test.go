//go:build portaudio

package portaudio_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pipelined/raug"
	"github.com/pipelined/raug/portaudio"
)

func TestSink(t *testing.T) {
	b, err := raug.NewGraphBuilder(raug.WithSampleRate(44100))
	require.NoError(t, err)
	osc := b.SineOsc()
	require.NoError(t, osc.Input("frequency").Set(440))
	out := b.AddAudioOutput()
	require.NoError(t, out.InputAt(0).Connect(osc.Mul(raug.Scalar(0.1)).OutputAt(0)))
	r, err := b.BuildRuntime()
	require.NoError(t, err)

	require.NoError(t, r.RunFor(context.Background(), 500*time.Millisecond, portaudio.NewSink()))
}
