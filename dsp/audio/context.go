package audio

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"sync/atomic"
)

// State is the lifecycle state of a Context.
type State int32

const (
	StateSuspended State = iota
	StateRunning
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateSuspended:
		return "suspended"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// NodeID identifies a node inside one Context.
type NodeID uint64

// Kernel is the per-node processing contract. Process transforms block in
// place and runs on the render thread; it must not block or allocate.
type Kernel interface {
	Process(block []float64)
}

type node struct {
	label  string
	kernel Kernel
}

// Context owns the audio graph, the render clock and the output device.
type Context struct {
	cfg    config
	device Device

	mu     sync.Mutex
	nodes  map[NodeID]*node
	edges  map[NodeID][]NodeID
	nextID NodeID
	dest   NodeID

	plan    atomic.Pointer[plan]
	state   atomic.Int32
	frames  atomic.Int64
	patches atomic.Int64
}

// NewContext opens dev and returns a suspended context rendering into it.
// A nil device means the platform has no audio implementation.
func NewContext(dev Device, opts ...Option) (*Context, error) {
	if dev == nil {
		return nil, ErrUnsupported
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Context{
		cfg:    cfg,
		device: dev,
		nodes:  make(map[NodeID]*node),
		edges:  make(map[NodeID][]NodeID),
	}
	c.state.Store(int32(StateSuspended))

	c.dest = c.addLocked("destination", nil)
	pl, err := compile(c.nodes, c.edges, c.dest, cfg.blockSize)
	if err != nil {
		return nil, err
	}

	c.plan.Store(pl)

	bufferFrames := int(math.Ceil(cfg.latency.Seconds() * cfg.sampleRate))
	if err := dev.Open(cfg.sampleRate, bufferFrames, c.Render); err != nil {
		return nil, fmt.Errorf("audio: open device: %w", err)
	}

	if err := dev.Suspend(); err != nil {
		_ = dev.Close()
		return nil, fmt.Errorf("audio: suspend device: %w", err)
	}

	return c, nil
}

// SampleRate returns the render sample rate in Hz.
func (c *Context) SampleRate() float64 { return c.cfg.sampleRate }

// BlockSize returns the render quantum in frames.
func (c *Context) BlockSize() int { return c.cfg.blockSize }

// State returns the current lifecycle state.
func (c *Context) State() State { return State(c.state.Load()) }

// CurrentTime returns the number of seconds rendered while running.
func (c *Context) CurrentTime() float64 {
	return float64(c.frames.Load()) / c.cfg.sampleRate
}

// Destination returns the final output node.
func (c *Context) Destination() NodeID { return c.dest }

// Patches returns how many topology patches have been committed.
func (c *Context) Patches() int64 { return c.patches.Load() }

// Resume starts (or restarts) rendering. Resuming a running context is a no-op.
func (c *Context) Resume(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.State() {
	case StateClosed:
		return ErrClosed
	case StateRunning:
		return nil
	}

	if err := c.device.Resume(); err != nil {
		return fmt.Errorf("audio: resume device: %w", err)
	}

	c.state.Store(int32(StateRunning))

	return nil
}

// Suspend halts rendering without releasing resources.
func (c *Context) Suspend() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.State() {
	case StateClosed:
		return ErrClosed
	case StateSuspended:
		return nil
	}

	c.state.Store(int32(StateSuspended))

	if err := c.device.Suspend(); err != nil {
		return fmt.Errorf("audio: suspend device: %w", err)
	}

	return nil
}

// Close releases the device and every node. Closing twice is a no-op.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.State() == StateClosed {
		return nil
	}

	c.state.Store(int32(StateClosed))
	c.plan.Store(nil)
	c.nodes = make(map[NodeID]*node)
	c.edges = make(map[NodeID][]NodeID)

	if err := c.device.Close(); err != nil {
		return fmt.Errorf("audio: close device: %w", err)
	}

	return nil
}

// AddNode registers a processing node. It is silent until connected.
func (c *Context) AddNode(label string, k Kernel) (NodeID, error) {
	if k == nil {
		return 0, fmt.Errorf("audio: add node %q: nil kernel", label)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.State() == StateClosed {
		return 0, ErrClosed
	}

	return c.addLocked(label, k), nil
}

// NewGain adds a gain stage whose amount is controlled by the returned Param.
func (c *Context) NewGain(label string, initial, max float64) (NodeID, *Param, error) {
	p := NewParam(initial, 0, max, c.cfg.sampleRate)
	k := &gainKernel{gain: p, ramp: make([]float64, c.cfg.blockSize)}

	id, err := c.AddNode(label, k)
	if err != nil {
		return 0, nil, err
	}

	return id, p, nil
}

// RemoveNode disconnects id from every peer and drops it from the context.
func (c *Context) RemoveNode(id NodeID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.State() == StateClosed {
		return ErrClosed
	}

	if _, ok := c.nodes[id]; !ok || id == c.dest {
		return fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}

	edges := cloneEdges(c.edges)
	delete(edges, id)

	for from, tos := range edges {
		edges[from] = slices.DeleteFunc(tos, func(to NodeID) bool { return to == id })
	}

	delete(c.nodes, id)

	return c.commitLocked(edges)
}

// Label returns the label a node was registered with.
func (c *Context) Label(id NodeID) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.nodes[id]
	if !ok {
		return "", false
	}

	return n.label, true
}

// Has reports whether id is a live node.
func (c *Context) Has(id NodeID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.nodes[id]

	return ok
}

// NumNodes returns the number of live nodes, destination included.
func (c *Context) NumNodes() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.nodes)
}

// Outputs returns the nodes id feeds, in connection order.
func (c *Context) Outputs(id NodeID) []NodeID {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.edges[id])
}

// Inputs returns the nodes feeding id.
func (c *Context) Inputs(id NodeID) []NodeID {
	c.mu.Lock()
	defer c.mu.Unlock()

	var in []NodeID

	for from, tos := range c.edges {
		if slices.Contains(tos, id) {
			in = append(in, from)
		}
	}

	slices.Sort(in)

	return in
}

// SignalPath follows single-output connections starting at from and returns
// every node visited, from included. It stops at a node with zero or several
// outputs.
func (c *Context) SignalPath(from NodeID) []NodeID {
	c.mu.Lock()
	defer c.mu.Unlock()

	path := []NodeID{from}
	seen := map[NodeID]struct{}{from: {}}

	for cur := from; len(c.edges[cur]) == 1; {
		cur = c.edges[cur][0]
		if _, loop := seen[cur]; loop {
			break
		}

		seen[cur] = struct{}{}
		path = append(path, cur)
	}

	return path
}

func (c *Context) addLocked(label string, k Kernel) NodeID {
	c.nextID++
	id := c.nextID
	c.nodes[id] = &node{label: label, kernel: k}

	return id
}
