package audio

import (
	"fmt"
	"maps"
	"slices"
)

// Patcher edits connections inside a single Patch call.
type Patcher interface {
	// Connect routes the output of from into to.
	Connect(from, to NodeID) error
	// Disconnect removes every outgoing connection of from.
	Disconnect(from NodeID) error
	// DisconnectFrom removes the from -> to connection if present.
	DisconnectFrom(from, to NodeID) error
}

// Patch applies a batch of connection edits as one unit. The render thread
// observes either the topology before the batch or the one after it, never an
// intermediate state. If fn or plan compilation fails nothing is committed.
func (c *Context) Patch(fn func(Patcher) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.State() == StateClosed {
		return ErrClosed
	}

	p := &patcher{c: c, edges: cloneEdges(c.edges)}
	if err := fn(p); err != nil {
		return err
	}

	return c.commitLocked(p.edges)
}

type patcher struct {
	c     *Context
	edges map[NodeID][]NodeID
}

func (p *patcher) check(id NodeID) error {
	if _, ok := p.c.nodes[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}

	return nil
}

func (p *patcher) Connect(from, to NodeID) error {
	if err := p.check(from); err != nil {
		return err
	}

	if err := p.check(to); err != nil {
		return err
	}

	if from == p.c.dest {
		return fmt.Errorf("audio: destination has no outputs")
	}

	if !slices.Contains(p.edges[from], to) {
		p.edges[from] = append(p.edges[from], to)
	}

	return nil
}

func (p *patcher) Disconnect(from NodeID) error {
	if err := p.check(from); err != nil {
		return err
	}

	delete(p.edges, from)

	return nil
}

func (p *patcher) DisconnectFrom(from, to NodeID) error {
	if err := p.check(from); err != nil {
		return err
	}

	p.edges[from] = slices.DeleteFunc(p.edges[from], func(id NodeID) bool { return id == to })
	if len(p.edges[from]) == 0 {
		delete(p.edges, from)
	}

	return nil
}

func (c *Context) commitLocked(edges map[NodeID][]NodeID) error {
	pl, err := compile(c.nodes, edges, c.dest, c.cfg.blockSize)
	if err != nil {
		return err
	}

	c.edges = edges
	c.plan.Store(pl)
	c.patches.Add(1)

	return nil
}

func cloneEdges(src map[NodeID][]NodeID) map[NodeID][]NodeID {
	dst := make(map[NodeID][]NodeID, len(src))
	for from, tos := range src {
		dst[from] = slices.Clone(tos)
	}

	return dst
}

// step is one node of a compiled plan.
type step struct {
	id     NodeID
	kernel Kernel
	inputs []int
	buf    []float64
}

// plan is an immutable render schedule. Only the render thread touches buf.
type plan struct {
	steps []step
	dest  int
}

// compile orders the nodes that can reach dest using Kahn's algorithm.
// Nodes that do not feed the destination are not rendered.
func compile(nodes map[NodeID]*node, edges map[NodeID][]NodeID, dest NodeID, blockSize int) (*plan, error) {
	ids := slices.Sorted(maps.Keys(nodes))

	reverse := make(map[NodeID][]NodeID)
	for _, from := range slices.Sorted(maps.Keys(edges)) {
		for _, to := range edges[from] {
			if from == to {
				return nil, fmt.Errorf("%w: %d feeds itself", ErrCycle, from)
			}

			reverse[to] = append(reverse[to], from)
		}
	}

	live := map[NodeID]bool{dest: true}
	stack := []NodeID{dest}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, from := range reverse[cur] {
			if !live[from] {
				live[from] = true
				stack = append(stack, from)
			}
		}
	}

	inDegree := make(map[NodeID]int, len(live))
	for _, id := range ids {
		if !live[id] {
			continue
		}

		for _, from := range reverse[id] {
			if live[from] {
				inDegree[id]++
			}
		}
	}

	queue := make([]NodeID, 0, len(live))
	for _, id := range ids {
		if live[id] && inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]NodeID, 0, len(live))
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		order = append(order, cur)

		for _, to := range edges[cur] {
			if !live[to] {
				continue
			}

			inDegree[to]--
			if inDegree[to] == 0 {
				queue = append(queue, to)
			}
		}
	}

	if len(order) != len(live) {
		return nil, ErrCycle
	}

	index := make(map[NodeID]int, len(order))
	pl := &plan{steps: make([]step, len(order))}

	for i, id := range order {
		index[id] = i
		pl.steps[i] = step{
			id:     id,
			kernel: nodes[id].kernel,
			buf:    make([]float64, blockSize),
		}
	}

	for i, id := range order {
		for _, from := range reverse[id] {
			if j, ok := index[from]; ok {
				pl.steps[i].inputs = append(pl.steps[i].inputs, j)
			}
		}
	}

	pl.dest = index[dest]

	return pl, nil
}
