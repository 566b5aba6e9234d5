package graph

import (
	"container/heap"
	"sort"
)

// Compile validates the graph and produces an execution plan. Audio and
// control edges must be acyclic. A cycle that runs only through message
// edges is legal when it contains a register; the message edges entering
// the register from within the cycle are delivered one block later.
//
// The order is deterministic: among ready nodes the one created first runs
// first, so compiling an unchanged graph yields an identical plan. A
// successful compilation clears the dirty flag.
func Compile(g *Graph) (*Plan, error) {
	n := len(g.nodes)

	hard := make([][]NodeID, n)
	all := make([][]NodeID, n)
	for _, e := range g.edges {
		all[e.From.Node] = append(all[e.From.Node], e.To.Node)
		if g.nodes[e.From.Node].Outputs[e.From.Index].Rate != Message {
			hard[e.From.Node] = append(hard[e.From.Node], e.To.Node)
		}
	}
	if cycle := firstCycle(g, hard); cycle != nil {
		return nil, cycle
	}

	// message cycles
	component := components(all)
	members := make(map[int][]NodeID)
	for id, c := range component {
		members[c] = append(members[c], NodeID(id))
	}
	deferred := make(map[Edge]bool)
	for _, e := range g.edges {
		if component[e.From.Node] != component[e.To.Node] {
			continue
		}
		if g.nodes[e.To.Node].Kind == KindRegister {
			deferred[e] = true
		}
	}
	for _, c := range sortedKeys(members) {
		ids := members[c]
		if len(ids) == 1 && !selfLoop(all, ids[0]) {
			continue
		}
		if !containsRegister(g, ids) {
			return nil, cycleError(g, ids)
		}
	}

	order, err := topoSort(g, deferred)
	if err != nil {
		return nil, err
	}
	plan := buildPlan(g, order)
	for _, e := range g.edges {
		if deferred[e] {
			plan.Deferred = append(plan.Deferred, e)
		}
	}
	g.dirty = false
	return plan, nil
}

// firstCycle returns the first hard cycle found, nodes in creation order.
func firstCycle(g *Graph, adj [][]NodeID) *CycleError {
	component := components(adj)
	members := make(map[int][]NodeID)
	for id, c := range component {
		members[c] = append(members[c], NodeID(id))
	}
	for _, c := range sortedKeys(members) {
		ids := members[c]
		if len(ids) > 1 || selfLoop(adj, ids[0]) {
			return cycleError(g, ids)
		}
	}
	return nil
}

func cycleError(g *Graph, ids []NodeID) *CycleError {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = g.nodes[id].Name()
	}
	return &CycleError{Nodes: names}
}

func selfLoop(adj [][]NodeID, id NodeID) bool {
	for _, to := range adj[id] {
		if to == id {
			return true
		}
	}
	return false
}

func containsRegister(g *Graph, ids []NodeID) bool {
	for _, id := range ids {
		if g.nodes[id].Kind == KindRegister {
			return true
		}
	}
	return false
}

// sortedKeys returns component ids ordered by their smallest member.
func sortedKeys(members map[int][]NodeID) []int {
	keys := make([]int, 0, len(members))
	for k := range members {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return minID(members[keys[i]]) < minID(members[keys[j]])
	})
	return keys
}

func minID(ids []NodeID) NodeID {
	m := ids[0]
	for _, id := range ids[1:] {
		if id < m {
			m = id
		}
	}
	return m
}

// components labels strongly connected components with Tarjan's algorithm.
func components(adj [][]NodeID) []int {
	n := len(adj)
	var (
		index   = make([]int, n)
		low     = make([]int, n)
		onStack = make([]bool, n)
		comp    = make([]int, n)
		stack   []NodeID
		next    = 1
		count   int
	)
	var visit func(v NodeID)
	visit = func(v NodeID) {
		index[v] = next
		low[v] = next
		next++
		stack = append(stack, v)
		onStack[v] = true
		for _, w := range adj[v] {
			if index[w] == 0 {
				visit(w)
				if low[w] < low[v] {
					low[v] = low[w]
				}
			} else if onStack[w] && index[w] < low[v] {
				low[v] = index[w]
			}
		}
		if low[v] == index[v] {
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp[w] = count
				if w == v {
					break
				}
			}
			count++
		}
	}
	for v := 0; v < n; v++ {
		if index[v] == 0 {
			visit(NodeID(v))
		}
	}
	return comp
}

type idHeap []NodeID

func (h idHeap) Len() int            { return len(h) }
func (h idHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h idHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *idHeap) Push(x interface{}) { *h = append(*h, x.(NodeID)) }
func (h *idHeap) Pop() interface{} {
	old := *h
	x := old[len(old)-1]
	*h = old[:len(old)-1]
	return x
}

func topoSort(g *Graph, deferred map[Edge]bool) ([]NodeID, error) {
	n := len(g.nodes)
	indegree := make([]int, n)
	adj := make([][]NodeID, n)
	for _, e := range g.edges {
		if deferred[e] {
			continue
		}
		adj[e.From.Node] = append(adj[e.From.Node], e.To.Node)
		indegree[e.To.Node]++
	}
	ready := &idHeap{}
	for id := 0; id < n; id++ {
		if indegree[id] == 0 {
			*ready = append(*ready, NodeID(id))
		}
	}
	heap.Init(ready)
	order := make([]NodeID, 0, n)
	for ready.Len() > 0 {
		id := heap.Pop(ready).(NodeID)
		order = append(order, id)
		for _, to := range adj[id] {
			indegree[to]--
			if indegree[to] == 0 {
				heap.Push(ready, to)
			}
		}
	}
	if len(order) != n {
		// nodes left over include everything downstream of the cycle
		if cycle := firstCycle(g, adj); cycle != nil {
			return nil, cycle
		}
		return nil, &CycleError{}
	}
	return order, nil
}

func buildPlan(g *Graph, order []NodeID) *Plan {
	p := &Plan{
		SampleRate: g.cfg.SampleRate,
		BlockSize:  g.cfg.BlockSize,
		Channels:   len(g.outputs),
		Steps:      make([]Step, len(order)),
		Buffers:    g.buffers,
	}
	slots := make(map[OutputRef]int)
	queues := make(map[InputRef]int)
	for i, id := range order {
		node := g.nodes[id]
		step := Step{
			Node:    id,
			Name:    node.Name(),
			Kind:    node.Kind,
			Config:  node.Config,
			Outputs: make([]OutputBinding, len(node.Outputs)),
			Inputs:  make([]InputBinding, len(node.Inputs)),
		}
		for j, port := range node.Outputs {
			b := OutputBinding{Name: port.Name, Rate: port.Rate, Slot: -1}
			switch port.Rate {
			case Audio:
				b.Slot = p.AudioSlots
				p.AudioSlots++
			case Control:
				b.Slot = p.ControlSlots
				p.ControlSlots++
			}
			slots[OutputRef{Node: id, Index: j}] = b.Slot
			step.Outputs[j] = b
		}
		for j, port := range node.Inputs {
			b := InputBinding{Name: port.Name, Rate: port.Rate, Default: port.Default, Queue: -1}
			if port.Rate == Message {
				b.Queue = p.Queues
				queues[InputRef{Node: id, Index: j}] = b.Queue
				p.Queues++
			}
			step.Inputs[j] = b
		}
		p.Steps[i] = step
	}

	position := make(map[NodeID]int, len(order))
	for i, id := range order {
		position[id] = i
	}
	for _, e := range g.edges {
		src := g.nodes[e.From.Node].Outputs[e.From.Index]
		from := &p.Steps[position[e.From.Node]].Outputs[e.From.Index]
		to := &p.Steps[position[e.To.Node]].Inputs[e.To.Index]
		if src.Rate == Message {
			from.Targets = append(from.Targets, queues[e.To])
			continue
		}
		to.Slot = slots[e.From]
		if src.Rate == Audio {
			to.From = FromAudio
		} else {
			to.From = FromControl
		}
	}
	return p
}
