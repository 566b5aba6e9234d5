package raug

import (
	"github.com/pipelined/raug/graph"
	"github.com/pipelined/raug/param"
)

// Node is a handle of a node in the builder graph.
type Node struct {
	b  *GraphBuilder
	id graph.NodeID
}

// Input is a handle of a node input.
type Input struct {
	b   *GraphBuilder
	ref graph.InputRef
	err error
}

// Output is a handle of a node output.
type Output struct {
	b   *GraphBuilder
	ref graph.OutputRef
	err error
}

// Operand is the right hand side of arithmetic helpers: a Node or a
// Scalar.
type Operand interface {
	feed(in Input) error
}

// Scalar is a constant operand. It becomes the default of the input
// instead of a separate node.
type Scalar float64

func (s Scalar) feed(in Input) error {
	return in.Set(float64(s))
}

func (n Node) feed(in Input) error {
	return n.OutputAt(0).Connect(in)
}

// ID returns the node id.
func (n Node) ID() graph.NodeID {
	return n.id
}

// Input returns the input with name.
func (n Node) Input(name string) Input {
	ref, err := n.b.g.InputNamed(n.id, name)
	return Input{b: n.b, ref: ref, err: err}
}

// InputAt returns the input with index.
func (n Node) InputAt(i int) Input {
	ref, err := n.b.g.Input(n.id, i)
	return Input{b: n.b, ref: ref, err: err}
}

// Output returns the output with name.
func (n Node) Output(name string) Output {
	ref, err := n.b.g.OutputNamed(n.id, name)
	return Output{b: n.b, ref: ref, err: err}
}

// OutputAt returns the output with index.
func (n Node) OutputAt(i int) Output {
	ref, err := n.b.g.Output(n.id, i)
	return Output{b: n.b, ref: ref, err: err}
}

// Ref returns the port address.
func (i Input) Ref() graph.InputRef {
	return i.ref
}

// Err returns the error of resolving the port.
func (i Input) Err() error {
	return i.err
}

// Connect connects o to the input.
func (i Input) Connect(o Output) error {
	return o.Connect(i)
}

// Set sets the value of an unconnected audio or control input.
func (i Input) Set(v float64) error {
	if i.err != nil {
		return i.err
	}
	return i.b.g.SetDefault(i.ref, v)
}

// Param declares a parameter, creates its node and connects it to the
// input. An empty name is replaced with a generated one.
func (i Input) Param(name string, initial float64, opts ...param.Option) (*param.Param, error) {
	if i.err != nil {
		return nil, i.err
	}
	p, err := i.b.declare(name, initial, opts...)
	if err != nil {
		return nil, err
	}
	id, err := i.b.g.AddNode(graph.KindParam, graph.NodeConfig{Param: p.ID()})
	if err != nil {
		return nil, err
	}
	if err := (Node{b: i.b, id: id}).OutputAt(0).Connect(i); err != nil {
		return nil, err
	}
	return p, nil
}

// Ref returns the port address.
func (o Output) Ref() graph.OutputRef {
	return o.ref
}

// Err returns the error of resolving the port.
func (o Output) Err() error {
	return o.err
}

// Connect connects the output to in.
func (o Output) Connect(in Input) error {
	if o.err != nil {
		return o.err
	}
	if in.err != nil {
		return in.err
	}
	return o.b.g.Connect(o.ref, in.ref)
}

func (n Node) binary(kind graph.Kind, x Operand) Node {
	op := n.b.add(kind)
	n.b.Check(n.feed(op.InputAt(0)))
	n.b.Check(x.feed(op.InputAt(1)))
	return op
}

func (n Node) unary(kind graph.Kind) Node {
	op := n.b.add(kind)
	n.b.Check(n.feed(op.InputAt(0)))
	return op
}

// Add returns n + x.
func (n Node) Add(x Operand) Node { return n.binary(graph.KindAdd, x) }

// Sub returns n - x.
func (n Node) Sub(x Operand) Node { return n.binary(graph.KindSub, x) }

// Mul returns n * x.
func (n Node) Mul(x Operand) Node { return n.binary(graph.KindMul, x) }

// Div returns n / x.
func (n Node) Div(x Operand) Node { return n.binary(graph.KindDiv, x) }

// Rem returns the floored remainder of n / x.
func (n Node) Rem(x Operand) Node { return n.binary(graph.KindRem, x) }

// Pow returns n to the power of x.
func (n Node) Pow(x Operand) Node { return n.binary(graph.KindPow, x) }

// Neg returns -n.
func (n Node) Neg() Node { return n.unary(graph.KindNeg) }

// Recip returns 1 / n.
func (n Node) Recip() Node { return n.unary(graph.KindRecip) }

func (n Node) Sin() Node   { return n.unary(graph.KindSin) }
func (n Node) Cos() Node   { return n.unary(graph.KindCos) }
func (n Node) Abs() Node   { return n.unary(graph.KindAbs) }
func (n Node) Sqrt() Node  { return n.unary(graph.KindSqrt) }
func (n Node) Exp() Node   { return n.unary(graph.KindExp) }
func (n Node) Tanh() Node  { return n.unary(graph.KindTanh) }
func (n Node) Floor() Node { return n.unary(graph.KindFloor) }

// Smooth returns a one pole low pass of n. Smaller factors smooth more.
func (n Node) Smooth(factor Operand) Node {
	op := n.b.add(graph.KindSmooth)
	n.b.Check(n.feed(op.Input("in")))
	n.b.Check(factor.feed(op.Input("factor")))
	return op
}
