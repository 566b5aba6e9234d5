package graph_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipelined/raug/graph"
	"github.com/pipelined/raug/message"
	"github.com/pipelined/raug/signal"
)

func newGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.New(graph.Config{SampleRate: 48000, BlockSize: 512})
	require.NoError(t, err)
	return g
}

func addNode(t *testing.T, g *graph.Graph, kind graph.Kind, cfg graph.NodeConfig) graph.NodeID {
	t.Helper()
	id, err := g.AddNode(kind, cfg)
	require.NoError(t, err)
	return id
}

func connect(t *testing.T, g *graph.Graph, from graph.NodeID, out string, to graph.NodeID, in string) {
	t.Helper()
	o, err := g.OutputNamed(from, out)
	require.NoError(t, err)
	i, err := g.InputNamed(to, in)
	require.NoError(t, err)
	require.NoError(t, g.Connect(o, i))
}

func TestNewGraph(t *testing.T) {
	_, err := graph.New(graph.Config{SampleRate: 0, BlockSize: 512})
	assert.True(t, errors.Is(err, graph.ErrInvalidConfig))
	_, err = graph.New(graph.Config{SampleRate: 48000, BlockSize: 0})
	assert.True(t, errors.Is(err, graph.ErrInvalidConfig))
}

func TestAddNode(t *testing.T) {
	g := newGraph(t)
	tests := []struct {
		kind graph.Kind
		cfg  graph.NodeConfig
		err  error
	}{
		{kind: graph.KindSineOsc},
		{kind: graph.KindSelect, cfg: graph.NodeConfig{Size: 4}},
		{kind: graph.KindSelect, cfg: graph.NodeConfig{Size: 0}, err: graph.ErrInvalidConfig},
		{kind: graph.KindMerge, cfg: graph.NodeConfig{Size: -1}, err: graph.ErrInvalidConfig},
		{kind: graph.KindParam, cfg: graph.NodeConfig{Param: 3}, err: graph.ErrInvalidConfig},
		{kind: graph.KindBufferPlayer, cfg: graph.NodeConfig{Buffer: 0}, err: graph.ErrInvalidConfig},
		{kind: graph.Kind(200), err: graph.ErrInvalidConfig},
		{kind: graph.KindAdd, cfg: graph.NodeConfig{Name: "sum"}},
		{kind: graph.KindMul, cfg: graph.NodeConfig{Name: "sum"}, err: graph.ErrInvalidConfig},
	}
	for _, test := range tests {
		_, err := g.AddNode(test.kind, test.cfg)
		if test.err != nil {
			assert.True(t, errors.Is(err, test.err), "%v: %v", test.kind, err)
		} else {
			assert.NoError(t, err, test.kind.String())
		}
	}

	sel, err := g.NodeNamed("sum")
	require.NoError(t, err)
	assert.Equal(t, "sum", sel.Name())
	_, err = g.NodeNamed("missing")
	assert.True(t, errors.Is(err, graph.ErrUnknownNode))
}

func TestPorts(t *testing.T) {
	g := newGraph(t)
	sel := addNode(t, g, graph.KindSelect, graph.NodeConfig{Size: 3})

	in, err := g.InputNamed(sel, "index")
	require.NoError(t, err)
	assert.Equal(t, 1, in.Index)
	_, err = g.Input(sel, 2)
	assert.True(t, errors.Is(err, graph.ErrUnknownPort))
	out, err := g.OutputNamed(sel, "2")
	require.NoError(t, err)
	assert.Equal(t, 2, out.Index)
	_, err = g.OutputNamed(sel, "out")
	assert.True(t, errors.Is(err, graph.ErrUnknownPort))
	_, err = g.Output(graph.NodeID(42), 0)
	assert.True(t, errors.Is(err, graph.ErrUnknownNode))

	n, err := g.Node(sel)
	require.NoError(t, err)
	assert.Equal(t, "select#0", n.Name())
	assert.Equal(t, graph.Control, n.Inputs[1].Rate)
}

func TestConnect(t *testing.T) {
	g := newGraph(t)
	osc := addNode(t, g, graph.KindSineOsc, graph.NodeConfig{})
	osc2 := addNode(t, g, graph.KindSineOsc, graph.NodeConfig{})
	metro := addNode(t, g, graph.KindMetro, graph.NodeConfig{})
	counter := addNode(t, g, graph.KindCounter, graph.NodeConfig{})
	konst := addNode(t, g, graph.KindConstant, graph.NodeConfig{Value: 220})
	merge := addNode(t, g, graph.KindMerge, graph.NodeConfig{Size: 2})

	oscIn, _ := g.InputNamed(osc, "frequency")
	oscOut, _ := g.OutputNamed(osc, "out")
	osc2Out, _ := g.OutputNamed(osc2, "out")
	metroOut, _ := g.OutputNamed(metro, "out")
	metroPeriod, _ := g.InputNamed(metro, "period")
	counterTrig, _ := g.InputNamed(counter, "trig")
	konstOut, _ := g.OutputNamed(konst, "out")
	mergeIn, _ := g.InputNamed(merge, "0")

	// control drives audio, audio drives control
	require.NoError(t, g.Connect(konstOut, oscIn))
	require.NoError(t, g.Connect(osc2Out, metroPeriod))

	err := g.Connect(osc2Out, oscIn)
	assert.True(t, errors.Is(err, graph.ErrPortOccupied))

	err = g.Connect(metroOut, oscIn)
	assert.True(t, errors.Is(err, graph.ErrRateMismatch))
	var gerr *graph.Error
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, "frequency", gerr.Port)

	err = g.Connect(oscOut, counterTrig)
	assert.True(t, errors.Is(err, graph.ErrRateMismatch))

	// message inputs accept many drivers, but not the same one twice
	require.NoError(t, g.Connect(metroOut, counterTrig))
	require.NoError(t, g.Connect(metroOut, mergeIn))
	err = g.Connect(metroOut, counterTrig)
	assert.True(t, errors.Is(err, graph.ErrPortOccupied))

	require.NoError(t, g.Replace(osc2Out, oscIn))
	driver, ok := g.Driver(oscIn)
	assert.True(t, ok)
	assert.Equal(t, osc2Out, driver)

	require.NoError(t, g.Disconnect(oscIn))
	_, ok = g.Driver(oscIn)
	assert.False(t, ok)

	require.NoError(t, g.SetDefault(oscIn, 880))
	n, _ := g.Node(osc)
	assert.Equal(t, 880.0, n.Inputs[0].Default)
	err = g.SetDefault(counterTrig, 1)
	assert.True(t, errors.Is(err, graph.ErrRateMismatch))
}

func TestFrozen(t *testing.T) {
	g := newGraph(t)
	osc := addNode(t, g, graph.KindSineOsc, graph.NodeConfig{})
	out := addNode(t, g, graph.KindAudioOutput, graph.NodeConfig{})
	connect(t, g, osc, "out", out, "in")

	_, err := graph.Compile(g)
	require.NoError(t, err)
	g.Freeze()

	_, err = g.AddNode(graph.KindSineOsc, graph.NodeConfig{})
	assert.True(t, errors.Is(err, graph.ErrFrozen))
	in, _ := g.Input(out, 0)
	o, _ := g.Output(osc, 0)
	assert.True(t, errors.Is(g.Connect(o, in), graph.ErrFrozen))
	assert.True(t, errors.Is(g.Disconnect(in), graph.ErrFrozen))
	assert.True(t, errors.Is(g.SetDefault(in, 1), graph.ErrFrozen))
	_, err = g.AddBuffer(signal.Float64{{1}})
	assert.True(t, errors.Is(err, graph.ErrFrozen))
	_, err = g.Params().Declare("late", 0)
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	for _, name := range graph.KindNames() {
		k, err := graph.ParseKind(name)
		require.NoError(t, err)
		assert.Equal(t, name, k.String())
	}
	_, err := graph.ParseKind("reverb")
	assert.True(t, errors.Is(err, graph.ErrInvalidConfig))
	assert.True(t, graph.KindPow.Binary())
	assert.True(t, graph.KindFloor.Unary())
	assert.False(t, graph.KindSineOsc.Unary())
}

func TestMessageConfig(t *testing.T) {
	g := newGraph(t)
	id := addNode(t, g, graph.KindMessage, graph.NodeConfig{Message: message.NewFloat(3)})
	n, err := g.Node(id)
	require.NoError(t, err)
	assert.Equal(t, message.NewFloat(3), n.Config.Message)
}
