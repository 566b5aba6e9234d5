package raug_test

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipelined/raug"
	"github.com/pipelined/raug/graph"
	"github.com/pipelined/raug/message"
	"github.com/pipelined/raug/mock"
	"github.com/pipelined/raug/param"
	"github.com/pipelined/raug/signal"
	"github.com/pipelined/raug/wav"
)

func newBuilder(t *testing.T) *raug.GraphBuilder {
	t.Helper()
	b, err := raug.NewGraphBuilder(raug.WithSampleRate(8000), raug.WithBlockSize(8))
	require.NoError(t, err)
	return b
}

// render builds the runtime and returns one block of the first output.
func render(t *testing.T, b *raug.GraphBuilder) []float64 {
	t.Helper()
	r, err := b.BuildRuntime()
	require.NoError(t, err)
	sink := &mock.Sink{}
	require.NoError(t, r.RunOffline(context.Background(), time.Millisecond, sink))
	require.Equal(t, 1, sink.Buffer().NumChannels())
	return sink.Buffer()[0]
}

func output(t *testing.T, b *raug.GraphBuilder, n raug.Node) {
	t.Helper()
	require.NoError(t, b.AddAudioOutput().InputAt(0).Connect(n.OutputAt(0)))
}

func TestNewGraphBuilder(t *testing.T) {
	_, err := raug.NewGraphBuilder(raug.WithBlockSize(0))
	assert.ErrorIs(t, err, graph.ErrInvalidConfig)

	b, err := raug.NewGraphBuilder()
	require.NoError(t, err)
	assert.Equal(t, float64(raug.DefaultSampleRate), b.Graph().SampleRate())
	assert.Equal(t, raug.DefaultBlockSize, b.Graph().BlockSize())
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		build    func(b *raug.GraphBuilder) raug.Node
		expected float64
	}{
		{
			name: "add mul",
			build: func(b *raug.GraphBuilder) raug.Node {
				return b.Constant(3).Add(raug.Scalar(2)).Mul(b.Constant(4))
			},
			expected: 20,
		},
		{
			name: "sub div",
			build: func(b *raug.GraphBuilder) raug.Node {
				return b.Constant(1).Sub(raug.Scalar(4)).Div(raug.Scalar(2))
			},
			expected: -1.5,
		},
		{
			name: "floored rem",
			build: func(b *raug.GraphBuilder) raug.Node {
				return b.Constant(-1).Rem(raug.Scalar(4))
			},
			expected: 3,
		},
		{
			name: "pow recip",
			build: func(b *raug.GraphBuilder) raug.Node {
				return b.Constant(2).Pow(b.Constant(0.5).Recip())
			},
			expected: 4,
		},
		{
			name: "neg abs sqrt",
			build: func(b *raug.GraphBuilder) raug.Node {
				return b.Constant(16).Neg().Abs().Sqrt()
			},
			expected: 4,
		},
		{
			name: "floor",
			build: func(b *raug.GraphBuilder) raug.Node {
				return b.Constant(-0.5).Floor()
			},
			expected: -1,
		},
		{
			name: "sin cos exp tanh",
			build: func(b *raug.GraphBuilder) raug.Node {
				return b.Constant(0).Sin().Add(b.Constant(0).Cos()).Add(b.Constant(0).Exp()).Add(b.Constant(0).Tanh())
			},
			expected: 2,
		},
		{
			name: "sample rate",
			build: func(b *raug.GraphBuilder) raug.Node {
				return b.SampleRate().Recip().Mul(raug.Scalar(8000))
			},
			expected: 1,
		},
	}
	for _, test := range tests {
		b := newBuilder(t)
		output(t, b, test.build(b))
		for i, v := range render(t, b) {
			assert.InDelta(t, test.expected, v, 1e-12, "%s: sample %d", test.name, i)
		}
	}
}

func TestSmoothConstant(t *testing.T) {
	b := newBuilder(t)
	output(t, b, b.Constant(1).Smooth(raug.Scalar(1)))
	for _, v := range render(t, b) {
		assert.InDelta(t, 1, v, 1e-12)
	}
}

func TestBuilderErrors(t *testing.T) {
	b := newBuilder(t)
	sel := b.Select(2)
	// message output into an audio input
	sel.Mul(raug.Scalar(2))
	assert.ErrorIs(t, b.Err(), graph.ErrRateMismatch)
	_, err := b.BuildRuntime()
	assert.ErrorIs(t, err, graph.ErrRateMismatch)

	b = newBuilder(t)
	b.Select(0)
	assert.ErrorIs(t, b.Err(), graph.ErrInvalidConfig)

	b = newBuilder(t)
	osc := b.SineOsc()
	assert.ErrorIs(t, osc.Input("nope").Set(1), graph.ErrUnknownPort)
	assert.ErrorIs(t, osc.InputAt(7).Connect(b.Constant(1).OutputAt(0)), graph.ErrUnknownPort)
	assert.ErrorIs(t, osc.Output("nope").Connect(osc.Input("frequency")), graph.ErrUnknownPort)

	c := b.Constant(1)
	require.NoError(t, osc.Input("frequency").Connect(c.OutputAt(0)))
	assert.ErrorIs(t, osc.Input("frequency").Connect(c.OutputAt(0)), graph.ErrPortOccupied)
	assert.NoError(t, b.Err())
}

func TestCycles(t *testing.T) {
	b := newBuilder(t)
	a := b.AddNode(graph.KindAdd, graph.NodeConfig{Name: "a"})
	c := a.Mul(raug.Scalar(2))
	require.NoError(t, a.InputAt(0).Connect(c.OutputAt(0)))
	_, err := b.BuildRuntime()
	assert.ErrorIs(t, err, graph.ErrCycleDetected)

	// a message cycle through a register compiles
	b = newBuilder(t)
	reg := b.Register()
	merge := b.Merge(2)
	require.NoError(t, merge.InputAt(0).Connect(reg.OutputAt(0)))
	require.NoError(t, reg.Input("set").Connect(merge.OutputAt(0)))
	require.NoError(t, merge.InputAt(1).Connect(b.ConstantMessage(message.NewFloat(1)).OutputAt(0)))
	_, err = b.BuildRuntime()
	assert.NoError(t, err)
}

func TestFrozen(t *testing.T) {
	b := newBuilder(t)
	output(t, b, b.Constant(1))
	_, err := b.BuildRuntime()
	require.NoError(t, err)

	b.SineOsc()
	assert.ErrorIs(t, b.Err(), graph.ErrFrozen)

	b = newBuilder(t)
	_, err = b.BuildRuntime()
	require.NoError(t, err)
	b.AddParam("late", 0)
	assert.ErrorIs(t, b.Err(), param.ErrFrozen)
}

func TestGeneratedParamNames(t *testing.T) {
	b := newBuilder(t)
	b.AddParam("", 1)
	b.AddParam("", 2)
	gain, err := b.AddAudioOutput().InputAt(0).Param("", 0.5)
	require.NoError(t, err)
	assert.Equal(t, "param2", gain.Name())

	p, err := b.Param("param1")
	require.NoError(t, err)
	assert.Equal(t, 2.0, p.Get())

	b.AddParam("param1", 0)
	assert.ErrorIs(t, b.Err(), param.ErrDuplicateParameter)
}

func TestInputParam(t *testing.T) {
	b := newBuilder(t)
	p, err := b.AddAudioOutput().InputAt(0).Param("level", 0.5)
	require.NoError(t, err)
	r, err := b.BuildRuntime()
	require.NoError(t, err)
	assert.Equal(t, []string{"level"}, r.ParamNames())

	sink := &mock.Sink{}
	require.NoError(t, r.RunOffline(context.Background(), time.Millisecond, sink))
	for _, v := range sink.Buffer()[0] {
		assert.Equal(t, 0.5, v)
	}

	require.NoError(t, p.Set(0.25))
	require.NoError(t, r.RunOffline(context.Background(), time.Millisecond, sink))
	for _, v := range sink.Buffer()[0] {
		assert.Equal(t, 0.25, v)
	}
}

func TestSequencer(t *testing.T) {
	values := []float64{440, 660, 880}
	b := newBuilder(t)

	metro := b.Metro()
	require.NoError(t, metro.Input("period").Set(0.001))
	counter := b.Counter()
	require.NoError(t, counter.Input("trig").Connect(metro.OutputAt(0)))
	index := counter.Sub(raug.Scalar(1)).Rem(raug.Scalar(float64(len(values))))

	sel := b.Select(len(values))
	merge := b.Merge(len(values))
	require.NoError(t, sel.Input("index").Connect(index.OutputAt(0)))
	require.NoError(t, sel.Input("in").Connect(metro.OutputAt(0)))
	for i, v := range values {
		m := b.Message(message.NewFloat(v))
		require.NoError(t, m.InputAt(0).Connect(sel.OutputAt(i)))
		require.NoError(t, merge.InputAt(i).Connect(m.OutputAt(0)))
	}
	hold := b.Hold(0)
	require.NoError(t, hold.InputAt(0).Connect(merge.OutputAt(0)))
	output(t, b, hold)

	r, err := b.BuildRuntime()
	require.NoError(t, err)
	sink := &mock.Sink{}
	// one trigger per block
	require.NoError(t, r.RunOffline(context.Background(), 4*time.Millisecond, sink))
	buf := sink.Buffer()[0]
	require.Equal(t, 32, len(buf))
	for i, expected := range []float64{440, 660, 880, 440} {
		assert.Equal(t, expected, buf[i*8+7], "block %d", i)
	}
}

func TestBufferPlayer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.wav")
	sink, err := wav.NewSink(path, signal.BitDepth32)
	require.NoError(t, err)
	fn, err := sink.Sink("id", 8000, 1, 4)
	require.NoError(t, err)
	require.NoError(t, fn(signal.Float64{{0.5, 0.25, -0.25, -0.5}}))
	require.NoError(t, sink.Flush("id"))

	b := newBuilder(t)
	id, err := b.LoadBuffer(path)
	require.NoError(t, err)
	player := b.BufferPlayer(id)
	require.NoError(t, player.Input("trig").Connect(b.ConstantMessage(message.NewBang()).OutputAt(0)))
	output(t, b, player)

	expected := []float64{0.5, 0.25, -0.25, -0.5, 0, 0, 0, 0}
	for i, v := range render(t, b) {
		assert.InDelta(t, expected[i], v, 1e-6, "sample %d", i)
	}

	_, err = b.LoadBuffer(filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)
}

func TestOscillatorBounds(t *testing.T) {
	b := newBuilder(t)
	oscs := []raug.Node{b.SineOsc(), b.SawOsc(), b.BlSawOsc(), b.BlSquareOsc(), b.NoiseOsc(7)}
	mix := oscs[0]
	for _, osc := range oscs[1:] {
		mix = mix.Add(osc)
	}
	output(t, b, mix.Div(raug.Scalar(float64(len(oscs)))).Tanh())
	r, err := b.BuildRuntime()
	require.NoError(t, err)
	sink := &mock.Sink{}
	require.NoError(t, r.RunOffline(context.Background(), 100*time.Millisecond, sink))
	for _, v := range sink.Buffer()[0] {
		assert.False(t, math.IsNaN(v))
		assert.LessOrEqual(t, math.Abs(v), 1.0)
	}
}
