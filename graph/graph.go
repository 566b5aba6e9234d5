// Package graph defines the audio graph model and compiles it into an
// execution plan.
package graph

import (
	"fmt"
	"strconv"

	"github.com/pipelined/raug/param"
	"github.com/pipelined/raug/signal"
)

type (
	// NodeID is the creation index of a node. It orders nodes
	// deterministically.
	NodeID int

	// BufferID identifies a sample buffer attached to the graph.
	BufferID int

	// Port is an input or output of a node.
	Port struct {
		Name  string
		Index int
		Rate  Rate
		// Default is used by unconnected audio and control inputs.
		Default float64
	}

	// Node is a vertex of the graph.
	Node struct {
		ID      NodeID
		Kind    Kind
		Config  NodeConfig
		Inputs  []Port
		Outputs []Port
	}

	// InputRef addresses an input port.
	InputRef struct {
		Node  NodeID
		Index int
	}

	// OutputRef addresses an output port.
	OutputRef struct {
		Node  NodeID
		Index int
	}

	// Edge connects an output to an input.
	Edge struct {
		From OutputRef
		To   InputRef
	}

	// Config is the graph wide processing format.
	Config struct {
		SampleRate float64
		BlockSize  int
	}
)

// Name returns the node label: the configured name or kind#id.
func (n *Node) Name() string {
	if n.Config.Name != "" {
		return n.Config.Name
	}
	return n.Kind.String() + "#" + strconv.Itoa(int(n.ID))
}

func (n *Node) String() string {
	return n.Name()
}

// Graph holds nodes and edges until it is compiled. After a successful
// compilation the graph is frozen and rejects mutation.
type Graph struct {
	cfg     Config
	nodes   []*Node
	edges   []Edge
	names   map[string]NodeID
	params  *param.Store
	buffers []signal.Float64
	outputs []NodeID
	dirty   bool
	frozen  bool
}

// New returns an empty graph.
func New(cfg Config) (*Graph, error) {
	if cfg.SampleRate <= 0 {
		return nil, &Error{Op: "new graph", Err: fmt.Errorf("sample rate %v: %w", cfg.SampleRate, ErrInvalidConfig)}
	}
	if cfg.BlockSize <= 0 {
		return nil, &Error{Op: "new graph", Err: fmt.Errorf("block size %v: %w", cfg.BlockSize, ErrInvalidConfig)}
	}
	return &Graph{
		cfg:    cfg,
		names:  make(map[string]NodeID),
		params: param.NewStore(),
		dirty:  true,
	}, nil
}

// SampleRate returns the graph sample rate.
func (g *Graph) SampleRate() float64 {
	return g.cfg.SampleRate
}

// BlockSize returns the number of samples processed per block.
func (g *Graph) BlockSize() int {
	return g.cfg.BlockSize
}

// Params returns the parameter store of the graph.
func (g *Graph) Params() *param.Store {
	return g.params
}

// Dirty reports if the graph changed since the last compilation.
func (g *Graph) Dirty() bool {
	return g.dirty
}

// Frozen reports if the graph was compiled and can't be changed.
func (g *Graph) Frozen() bool {
	return g.frozen
}

// Freeze rejects all further mutation, parameter declarations included.
func (g *Graph) Freeze() {
	g.frozen = true
	g.params.Freeze()
}

// AddNode creates a node of kind with cfg and returns its id.
func (g *Graph) AddNode(kind Kind, cfg NodeConfig) (NodeID, error) {
	if g.frozen {
		return 0, &Error{Op: "add node", Node: kind.String(), Err: ErrFrozen}
	}
	ins, outs, err := contract(kind, cfg)
	if err != nil {
		return 0, &Error{Op: "add node", Node: kind.String(), Err: err}
	}
	if cfg.Name != "" {
		if _, ok := g.names[cfg.Name]; ok {
			return 0, &Error{Op: "add node", Node: cfg.Name, Err: fmt.Errorf("duplicate name: %w", ErrInvalidConfig)}
		}
	}
	switch kind {
	case KindParam:
		if _, err := g.params.At(cfg.Param); err != nil {
			return 0, &Error{Op: "add node", Node: kind.String(), Err: fmt.Errorf("%v: %w", err, ErrInvalidConfig)}
		}
	case KindBufferPlayer:
		if cfg.Buffer < 0 || int(cfg.Buffer) >= len(g.buffers) {
			return 0, &Error{Op: "add node", Node: kind.String(), Err: fmt.Errorf("buffer %d: %w", cfg.Buffer, ErrInvalidConfig)}
		}
	case KindAudioOutput:
		cfg.Channel = len(g.outputs)
	}

	n := &Node{
		ID:      NodeID(len(g.nodes)),
		Kind:    kind,
		Config:  cfg,
		Inputs:  ports(ins),
		Outputs: ports(outs),
	}
	g.nodes = append(g.nodes, n)
	if cfg.Name != "" {
		g.names[cfg.Name] = n.ID
	}
	if kind == KindAudioOutput {
		g.outputs = append(g.outputs, n.ID)
	}
	g.dirty = true
	return n.ID, nil
}

func ports(specs []PortSpec) []Port {
	if len(specs) == 0 {
		return nil
	}
	ps := make([]Port, len(specs))
	for i, s := range specs {
		ps[i] = Port{Name: s.Name, Index: i, Rate: s.Rate, Default: s.Default}
	}
	return ps
}

// AddBuffer attaches a sample buffer to the graph.
func (g *Graph) AddBuffer(b signal.Float64) (BufferID, error) {
	if g.frozen {
		return 0, &Error{Op: "add buffer", Err: ErrFrozen}
	}
	if b.NumChannels() == 0 {
		return 0, &Error{Op: "add buffer", Err: fmt.Errorf("empty buffer: %w", ErrInvalidConfig)}
	}
	g.buffers = append(g.buffers, b)
	return BufferID(len(g.buffers) - 1), nil
}

// Node returns the node with id.
func (g *Graph) Node(id NodeID) (*Node, error) {
	if id < 0 || int(id) >= len(g.nodes) {
		return nil, &Error{Op: "node", Node: "#" + strconv.Itoa(int(id)), Err: ErrUnknownNode}
	}
	return g.nodes[id], nil
}

// NodeNamed returns the node with the configured name.
func (g *Graph) NodeNamed(name string) (*Node, error) {
	id, ok := g.names[name]
	if !ok {
		return nil, &Error{Op: "node", Node: name, Err: ErrUnknownNode}
	}
	return g.nodes[id], nil
}

// Nodes returns all nodes in creation order.
func (g *Graph) Nodes() []*Node {
	return g.nodes
}

// Edges returns all edges in connection order.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// Outputs returns audio output nodes in channel order.
func (g *Graph) Outputs() []NodeID {
	return g.outputs
}

// Input resolves an input port by index.
func (g *Graph) Input(id NodeID, index int) (InputRef, error) {
	n, err := g.Node(id)
	if err != nil {
		return InputRef{}, err
	}
	if index < 0 || index >= len(n.Inputs) {
		return InputRef{}, &Error{Op: "input", Node: n.Name(), Port: strconv.Itoa(index), Err: ErrUnknownPort}
	}
	return InputRef{Node: id, Index: index}, nil
}

// InputNamed resolves an input port by name.
func (g *Graph) InputNamed(id NodeID, name string) (InputRef, error) {
	n, err := g.Node(id)
	if err != nil {
		return InputRef{}, err
	}
	for _, p := range n.Inputs {
		if p.Name == name {
			return InputRef{Node: id, Index: p.Index}, nil
		}
	}
	return InputRef{}, &Error{Op: "input", Node: n.Name(), Port: name, Err: ErrUnknownPort}
}

// Output resolves an output port by index.
func (g *Graph) Output(id NodeID, index int) (OutputRef, error) {
	n, err := g.Node(id)
	if err != nil {
		return OutputRef{}, err
	}
	if index < 0 || index >= len(n.Outputs) {
		return OutputRef{}, &Error{Op: "output", Node: n.Name(), Port: strconv.Itoa(index), Err: ErrUnknownPort}
	}
	return OutputRef{Node: id, Index: index}, nil
}

// OutputNamed resolves an output port by name.
func (g *Graph) OutputNamed(id NodeID, name string) (OutputRef, error) {
	n, err := g.Node(id)
	if err != nil {
		return OutputRef{}, err
	}
	for _, p := range n.Outputs {
		if p.Name == name {
			return OutputRef{Node: id, Index: p.Index}, nil
		}
	}
	return OutputRef{}, &Error{Op: "output", Node: n.Name(), Port: name, Err: ErrUnknownPort}
}

func (g *Graph) inputPort(ref InputRef) (*Node, Port, error) {
	if _, err := g.Input(ref.Node, ref.Index); err != nil {
		return nil, Port{}, err
	}
	n := g.nodes[ref.Node]
	return n, n.Inputs[ref.Index], nil
}

func (g *Graph) outputPort(ref OutputRef) (*Node, Port, error) {
	if _, err := g.Output(ref.Node, ref.Index); err != nil {
		return nil, Port{}, err
	}
	n := g.nodes[ref.Node]
	return n, n.Outputs[ref.Index], nil
}

// Connect adds an edge from an output to an input. Audio and control
// inputs accept a single driver; use Replace to rewire them.
func (g *Graph) Connect(from OutputRef, to InputRef) error {
	if err := g.checkEdge("connect", from, to); err != nil {
		return err
	}
	dst, p, _ := g.inputPort(to)
	for _, e := range g.edges {
		if e.To != to {
			continue
		}
		if p.Rate != Message || e.From == from {
			return &Error{Op: "connect", Node: dst.Name(), Port: p.Name, Err: ErrPortOccupied}
		}
	}
	g.edges = append(g.edges, Edge{From: from, To: to})
	g.dirty = true
	return nil
}

// Replace connects from to an input, removing the edges that drove it.
func (g *Graph) Replace(from OutputRef, to InputRef) error {
	if err := g.checkEdge("replace", from, to); err != nil {
		return err
	}
	g.removeEdges(to)
	g.edges = append(g.edges, Edge{From: from, To: to})
	g.dirty = true
	return nil
}

// Disconnect removes all edges into an input.
func (g *Graph) Disconnect(to InputRef) error {
	if g.frozen {
		return &Error{Op: "disconnect", Err: ErrFrozen}
	}
	if _, _, err := g.inputPort(to); err != nil {
		return err
	}
	g.removeEdges(to)
	g.dirty = true
	return nil
}

// SetDefault sets the constant used while an audio or control input is not
// connected.
func (g *Graph) SetDefault(to InputRef, v float64) error {
	if g.frozen {
		return &Error{Op: "set default", Err: ErrFrozen}
	}
	n, p, err := g.inputPort(to)
	if err != nil {
		return err
	}
	if p.Rate == Message {
		return &Error{Op: "set default", Node: n.Name(), Port: p.Name, Err: ErrRateMismatch}
	}
	n.Inputs[to.Index].Default = v
	g.dirty = true
	return nil
}

// Driver returns the output driving an audio or control input.
func (g *Graph) Driver(to InputRef) (OutputRef, bool) {
	for _, e := range g.edges {
		if e.To == to {
			return e.From, true
		}
	}
	return OutputRef{}, false
}

func (g *Graph) checkEdge(op string, from OutputRef, to InputRef) error {
	if g.frozen {
		return &Error{Op: op, Err: ErrFrozen}
	}
	src, sp, err := g.outputPort(from)
	if err != nil {
		return err
	}
	dst, dp, err := g.inputPort(to)
	if err != nil {
		return err
	}
	if !compatible(sp.Rate, dp.Rate) {
		return &Error{
			Op:   op,
			Node: dst.Name(),
			Port: dp.Name,
			Err:  fmt.Errorf("%s.%s is %v, input is %v: %w", src.Name(), sp.Name, sp.Rate, dp.Rate, ErrRateMismatch),
		}
	}
	return nil
}

func (g *Graph) removeEdges(to InputRef) {
	kept := g.edges[:0]
	for _, e := range g.edges {
		if e.To != to {
			kept = append(kept, e)
		}
	}
	g.edges = kept
}
