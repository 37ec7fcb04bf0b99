package effectchain

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/cwbudde/algo-fxrack/dsp/audio"
)

type chainConfig struct {
	seed     []Kind
	nodeOpts []NodeOption
}

// ChainOption configures NewChain.
type ChainOption func(*chainConfig)

// WithSeed appends kinds, in order, when the chain is built.
func WithSeed(kinds ...Kind) ChainOption {
	return func(c *chainConfig) { c.seed = append(c.seed, kinds...) }
}

// WithNodeOptions applies opts to every node the chain creates.
func WithNodeOptions(opts ...NodeOption) ChainOption {
	return func(c *chainConfig) { c.nodeOpts = append(c.nodeOpts, opts...) }
}

// Chain is an ordered signal path of effect nodes between an input and an
// output node of a graph. The connection order always mirrors Nodes().
type Chain struct {
	graph    Graph
	input    audio.NodeID
	output   audio.NodeID
	nodeOpts []NodeOption

	mu     sync.Mutex
	nodes  []*Node
	closed bool
}

// NewChain connects input straight to output and appends any seed kinds.
func NewChain(g Graph, input, output audio.NodeID, opts ...ChainOption) (*Chain, error) {
	var cfg chainConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	for _, k := range cfg.seed {
		if !k.Valid() {
			return nil, fmt.Errorf("%w: %s", ErrUnknownKind, k)
		}
	}

	c := &Chain{
		graph:    g,
		input:    input,
		output:   output,
		nodeOpts: cfg.nodeOpts,
	}

	if err := c.rewire(nil, nil); err != nil {
		return nil, err
	}

	for _, k := range cfg.seed {
		if _, err := c.Append(k); err != nil {
			_ = c.Close()
			return nil, err
		}
	}

	return c, nil
}

// Append creates a node of kind at the tail of the chain.
func (c *Chain) Append(kind Kind) (*Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrChainClosed
	}

	n, err := NewNode(c.graph, kind, c.nodeOpts...)
	if err != nil {
		return nil, err
	}

	next := append(slices.Clone(c.nodes), n)
	if err := c.rewire(c.nodes, next); err != nil {
		_ = n.Destroy()
		return nil, err
	}

	c.nodes = next

	return n, nil
}

// Remove splices the node out of the signal path and destroys it.
// Its predecessor then feeds its successor directly.
func (c *Chain) Remove(id NodeID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrChainClosed
	}

	i := c.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}

	n := c.nodes[i]
	next := slices.Delete(slices.Clone(c.nodes), i, i+1)

	if err := c.rewire(c.nodes, next); err != nil {
		return err
	}

	c.nodes = next

	return n.Destroy()
}

// Reorder moves the node to newIndex and rewires the chain.
func (c *Chain) Reorder(id NodeID, newIndex int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrChainClosed
	}

	i := c.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}

	if newIndex < 0 || newIndex >= len(c.nodes) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfBounds, newIndex, len(c.nodes))
	}

	if i == newIndex {
		return nil
	}

	n := c.nodes[i]
	next := slices.Delete(slices.Clone(c.nodes), i, i+1)
	next = slices.Insert(next, newIndex, n)

	if err := c.rewire(c.nodes, next); err != nil {
		return err
	}

	c.nodes = next

	return nil
}

// SetParam sets a parameter on the node with the given id.
func (c *Chain) SetParam(id NodeID, name string, value float64) (float64, error) {
	n, ok := c.Node(id)
	if !ok {
		if c.Closed() {
			return 0, ErrChainClosed
		}

		return 0, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}

	return n.SetParam(name, value)
}

// Node returns the node with the given id.
func (c *Chain) Node(id NodeID) (*Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, _, ok := lo.FindIndexOf(c.nodes, func(n *Node) bool { return n.id == id })

	return n, ok
}

// Nodes returns the nodes in signal order.
func (c *Chain) Nodes() []*Node {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.nodes)
}

// Len returns the number of nodes.
func (c *Chain) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.nodes)
}

// Snapshot returns read-only views of the nodes in signal order.
func (c *Chain) Snapshot() []NodeSnapshot {
	return lo.Map(c.Nodes(), func(n *Node, _ int) NodeSnapshot { return n.Snapshot() })
}

// Closed reports whether Close has been called.
func (c *Chain) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

// Close disconnects and destroys every node. The chain is unusable
// afterwards; a second call is a no-op.
func (c *Chain) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true

	err := c.graph.Patch(func(p audio.Patcher) error {
		if err := p.Disconnect(c.input); err != nil {
			return err
		}

		for _, n := range c.nodes {
			if err := p.Disconnect(n.handle); err != nil {
				return err
			}
		}

		return nil
	})
	if errors.Is(err, audio.ErrClosed) {
		err = nil
	}

	for _, n := range c.nodes {
		err = errors.Join(err, n.Destroy())
	}

	c.nodes = nil

	return err
}

func (c *Chain) indexLocked(id NodeID) int {
	return slices.IndexFunc(c.nodes, func(n *Node) bool { return n.id == id })
}

// rewire replaces the path through prev with input -> next... -> output in a
// single patch.
func (c *Chain) rewire(prev, next []*Node) error {
	err := c.graph.Patch(func(p audio.Patcher) error {
		if err := p.Disconnect(c.input); err != nil {
			return err
		}

		for _, n := range prev {
			if err := p.Disconnect(n.handle); err != nil {
				return err
			}
		}

		from := c.input
		for _, n := range next {
			if err := p.Connect(from, n.handle); err != nil {
				return err
			}

			from = n.handle
		}

		return p.Connect(from, c.output)
	})
	if err != nil {
		return fmt.Errorf("effectchain: rewire: %w", err)
	}

	return nil
}
