// Package patch loads graphs from HCL patch files.
//
// A patch declares parameters, sample buffers, nodes, connections and
// outputs:
//
//	sample_rate = 48000
//
//	param "freq" {
//	  value     = 440
//	  smoothing = "50ms"
//	}
//
//	node "osc" {
//	  kind = "sine_osc"
//	}
//
//	connect {
//	  from = "freq"
//	  to   = "osc.frequency"
//	}
//
//	output "left" {
//	  from = "osc"
//	}
//
// References have the form node.port, where port is a name or an index.
// A bare node name refers to port 0. A bare parameter name refers to the
// output of a node reading it.
package patch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/pipelined/raug"
	"github.com/pipelined/raug/graph"
	"github.com/pipelined/raug/message"
	"github.com/pipelined/raug/param"
)

// ErrUnknownReference is returned when a reference names no node, port,
// parameter or buffer.
var ErrUnknownReference = errors.New("unknown reference")

type fileRoot struct {
	SampleRate *float64       `hcl:"sample_rate,optional"`
	BlockSize  *int           `hcl:"block_size,optional"`
	Params     []paramBlock   `hcl:"param,block"`
	Buffers    []bufferBlock  `hcl:"buffer,block"`
	Nodes      []nodeBlock    `hcl:"node,block"`
	Connects   []connectBlock `hcl:"connect,block"`
	Outputs    []outputBlock  `hcl:"output,block"`
}

type paramBlock struct {
	Name      string   `hcl:"name,label"`
	Value     float64  `hcl:"value,optional"`
	Smoothing string   `hcl:"smoothing,optional"`
	Policy    string   `hcl:"policy,optional"`
	Min       *float64 `hcl:"min,optional"`
	Max       *float64 `hcl:"max,optional"`
}

type bufferBlock struct {
	Name string `hcl:"name,label"`
	Path string `hcl:"path"`
}

type nodeBlock struct {
	Name    string             `hcl:"name,label"`
	Kind    string             `hcl:"kind"`
	Size    int                `hcl:"size,optional"`
	Value   float64            `hcl:"value,optional"`
	Message cty.Value          `hcl:"message,optional"`
	Param   string             `hcl:"param,optional"`
	Buffer  string             `hcl:"buffer,optional"`
	Seed    int                `hcl:"seed,optional"`
	Inputs  map[string]float64 `hcl:"inputs,optional"`
}

type connectBlock struct {
	From string `hcl:"from"`
	To   string `hcl:"to"`
}

type outputBlock struct {
	Name string `hcl:"name,label"`
	From string `hcl:"from"`
}

// Load parses the patch file at path and builds its graph. Options are
// applied after the patch settings, so they take precedence. Buffer paths
// are relative to the patch file.
func Load(path string, opts ...raug.BuilderOption) (*raug.GraphBuilder, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(src, path, filepath.Dir(path), opts...)
}

// Decode parses patch source. Relative buffer paths are resolved against
// dir.
func Decode(src []byte, filename, dir string, opts ...raug.BuilderOption) (*raug.GraphBuilder, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse patch %s: %w", filename, diags)
	}
	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode patch %s: %w", filename, diags)
	}

	var settings []raug.BuilderOption
	if root.SampleRate != nil {
		settings = append(settings, raug.WithSampleRate(*root.SampleRate))
	}
	if root.BlockSize != nil {
		settings = append(settings, raug.WithBlockSize(*root.BlockSize))
	}
	b, err := raug.NewGraphBuilder(append(settings, opts...)...)
	if err != nil {
		return nil, err
	}
	l := &loader{
		b:       b,
		dir:     dir,
		nodes:   make(map[string]raug.Node),
		params:  make(map[string]raug.Node),
		buffers: make(map[string]graph.BufferID),
	}
	if err := l.load(&root); err != nil {
		return nil, fmt.Errorf("patch %s: %w", filename, err)
	}
	return b, nil
}

type loader struct {
	b       *raug.GraphBuilder
	dir     string
	nodes   map[string]raug.Node
	params  map[string]raug.Node
	buffers map[string]graph.BufferID
}

func (l *loader) load(root *fileRoot) error {
	for _, p := range root.Params {
		if err := l.declare(p); err != nil {
			return err
		}
	}
	for _, buf := range root.Buffers {
		path := buf.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(l.dir, path)
		}
		id, err := l.b.LoadBuffer(path)
		if err != nil {
			return fmt.Errorf("buffer %q: %w", buf.Name, err)
		}
		l.buffers[buf.Name] = id
	}
	for _, n := range root.Nodes {
		if err := l.node(n); err != nil {
			return err
		}
	}
	for _, c := range root.Connects {
		from, err := l.output(c.From)
		if err != nil {
			return err
		}
		to, err := l.input(c.To)
		if err != nil {
			return err
		}
		if err := from.Connect(to); err != nil {
			return fmt.Errorf("connect %s to %s: %w", c.From, c.To, err)
		}
	}
	for _, o := range root.Outputs {
		from, err := l.output(o.From)
		if err != nil {
			return err
		}
		out := l.b.AddNode(graph.KindAudioOutput, graph.NodeConfig{Name: o.Name})
		if err := out.InputAt(0).Connect(from); err != nil {
			return fmt.Errorf("output %q: %w", o.Name, err)
		}
	}
	return l.b.Err()
}

func (l *loader) declare(p paramBlock) error {
	var opts []param.Option
	if p.Smoothing != "" {
		d, err := time.ParseDuration(p.Smoothing)
		if err != nil {
			return fmt.Errorf("param %q smoothing: %w", p.Name, err)
		}
		opts = append(opts, param.WithSmoothing(d))
	}
	if p.Policy != "" {
		policy, err := param.ParsePolicy(p.Policy)
		if err != nil {
			return fmt.Errorf("param %q: %w", p.Name, err)
		}
		opts = append(opts, param.WithPolicy(policy))
	}
	if p.Min != nil || p.Max != nil {
		if p.Min == nil || p.Max == nil {
			return fmt.Errorf("param %q: min and max must be set together", p.Name)
		}
		opts = append(opts, param.WithRange(*p.Min, *p.Max))
	}
	n := l.b.AddParam(p.Name, p.Value, opts...)
	if err := l.b.Err(); err != nil {
		return err
	}
	l.params[p.Name] = n
	return nil
}

func (l *loader) node(n nodeBlock) error {
	kind, err := graph.ParseKind(n.Kind)
	if err != nil {
		return fmt.Errorf("node %q: %w", n.Name, err)
	}
	cfg := graph.NodeConfig{
		Name:  n.Name,
		Size:  n.Size,
		Value: n.Value,
		Seed:  uint64(n.Seed),
	}
	if !n.Message.IsNull() {
		m, err := literal(n.Message)
		if err != nil {
			return fmt.Errorf("node %q message: %w", n.Name, err)
		}
		cfg.Message = m
	}
	switch kind {
	case graph.KindParam:
		p, err := l.b.Param(n.Param)
		if err != nil {
			return fmt.Errorf("node %q: %w", n.Name, err)
		}
		cfg.Param = p.ID()
	case graph.KindBufferPlayer:
		id, ok := l.buffers[n.Buffer]
		if !ok {
			return fmt.Errorf("node %q buffer %q: %w", n.Name, n.Buffer, ErrUnknownReference)
		}
		cfg.Buffer = id
	}
	node := l.b.AddNode(kind, cfg)
	if err := l.b.Err(); err != nil {
		return err
	}
	l.nodes[n.Name] = node

	names := make([]string, 0, len(n.Inputs))
	for name := range n.Inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := node.Input(name).Set(n.Inputs[name]); err != nil {
			return fmt.Errorf("node %q input %q: %w", n.Name, name, err)
		}
	}
	return nil
}

// literal converts a message attribute: numbers are floats, "bang" is a
// Bang and other strings are strings.
func literal(v cty.Value) (message.Message, error) {
	switch v.Type() {
	case cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return message.NewFloat(f), nil
	case cty.String:
		if s := v.AsString(); s != "bang" {
			return message.NewString(s), nil
		}
		return message.NewBang(), nil
	}
	return message.Message{}, fmt.Errorf("unsupported type %s", v.Type().FriendlyName())
}

func split(ref string) (node, port string) {
	if i := strings.LastIndexByte(ref, '.'); i >= 0 {
		return ref[:i], ref[i+1:]
	}
	return ref, ""
}

func (l *loader) lookup(name string) (raug.Node, error) {
	if n, ok := l.nodes[name]; ok {
		return n, nil
	}
	if n, ok := l.params[name]; ok {
		return n, nil
	}
	return raug.Node{}, fmt.Errorf("%q: %w", name, ErrUnknownReference)
}

func (l *loader) output(ref string) (raug.Output, error) {
	name, port := split(ref)
	n, err := l.lookup(name)
	if err != nil {
		return raug.Output{}, err
	}
	if port == "" {
		return n.OutputAt(0), nil
	}
	o := n.Output(port)
	if o.Err() != nil {
		if i, err := strconv.Atoi(port); err == nil {
			return n.OutputAt(i), nil
		}
	}
	return o, nil
}

func (l *loader) input(ref string) (raug.Input, error) {
	name, port := split(ref)
	n, err := l.lookup(name)
	if err != nil {
		return raug.Input{}, err
	}
	if port == "" {
		return n.InputAt(0), nil
	}
	in := n.Input(port)
	if in.Err() != nil {
		if i, err := strconv.Atoi(port); err == nil {
			return n.InputAt(i), nil
		}
	}
	return in, nil
}
