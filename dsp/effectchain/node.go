package effectchain

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/algo-fxrack/dsp/audio"
	"github.com/cwbudde/algo-fxrack/dsp/core"
)

// DefaultRampTime is the glide applied to parameter writes.
const DefaultRampTime = 20 * time.Millisecond

// NodeID identifies an effect node. IDs are never reused.
type NodeID string

// Graph is the part of an audio context a node or chain needs.
// *audio.Context implements it.
type Graph interface {
	SampleRate() float64
	AddNode(label string, k audio.Kernel) (audio.NodeID, error)
	RemoveNode(id audio.NodeID) error
	Patch(fn func(audio.Patcher) error) error
}

type nodeConfig struct {
	registry *Registry
	ramp     time.Duration
	params   Params
}

// NodeOption configures NewNode.
type NodeOption func(*nodeConfig)

// WithRegistry builds runtimes from r instead of the default registry.
func WithRegistry(r *Registry) NodeOption {
	return func(c *nodeConfig) {
		if r != nil {
			c.registry = r
		}
	}
}

// WithRampTime sets the glide applied to parameter writes. Zero jumps.
func WithRampTime(d time.Duration) NodeOption {
	return func(c *nodeConfig) {
		if d >= 0 {
			c.ramp = d
		}
	}
}

// WithInitialParams overrides defaults at construction. Values are clamped;
// unknown names and non-finite values are ignored.
func WithInitialParams(p Params) NodeOption {
	return func(c *nodeConfig) { c.params = p.Clone() }
}

// Node is one effect instance: kind, identity, ordered parameters and the
// processing unit it owns inside the graph.
type Node struct {
	id   NodeID
	desc Descriptor
	ramp time.Duration

	graph   Graph
	runtime Runtime
	handle  audio.NodeID

	mu        sync.Mutex
	params    Params
	destroyed bool
}

// NodeSnapshot is a read-only view of a node.
type NodeSnapshot struct {
	ID          NodeID `json:"id"`
	Kind        Kind   `json:"kind"`
	DisplayName string `json:"displayName"`
	Params      Params `json:"params"`
}

// NewNode creates a node of kind with default parameters and adds its
// processing unit to g. The unit is active immediately.
func NewNode(g Graph, kind Kind, opts ...NodeOption) (*Node, error) {
	desc, err := Describe(kind)
	if err != nil {
		return nil, err
	}

	cfg := nodeConfig{registry: DefaultRegistry(), ramp: DefaultRampTime}
	for _, opt := range opts {
		opt(&cfg)
	}

	params := desc.Defaults()
	for _, p := range cfg.params {
		if s, ok := desc.Spec(p.Name); ok && core.IsFinite(p.Value) {
			params.set(p.Name, s.Clamp(p.Value))
		}
	}

	rt, err := cfg.registry.Build(Context{SampleRate: g.SampleRate()}, kind, params)
	if err != nil {
		return nil, err
	}

	id, err := newNodeID()
	if err != nil {
		return nil, err
	}

	handle, err := g.AddNode(fmt.Sprintf("%s:%s", kind, id), rt)
	if err != nil {
		return nil, fmt.Errorf("effectchain: add %s unit: %w", kind, err)
	}

	return &Node{
		id:      id,
		desc:    desc,
		ramp:    cfg.ramp,
		graph:   g,
		runtime: rt,
		handle:  handle,
		params:  params,
	}, nil
}

func newNodeID() (NodeID, error) {
	u, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("effectchain: node id: %w", err)
	}

	return NodeID(u.String()), nil
}

// ID returns the node identity.
func (n *Node) ID() NodeID { return n.id }

// Kind returns the effect kind.
func (n *Node) Kind() Kind { return n.desc.Kind }

// DisplayName returns the human-readable label of the kind.
func (n *Node) DisplayName() string { return n.desc.DisplayName }

// Handle returns the processing unit's id inside the graph.
func (n *Node) Handle() audio.NodeID { return n.handle }

// Params returns a copy of the current parameter values.
func (n *Node) Params() Params {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.params.Clone()
}

// Param returns the current value of name.
func (n *Node) Param(name string) (float64, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.params.Get(name)
}

// SetParam clamps value into the parameter range, stores it and ramps the
// live unit towards it. The applied value is returned. NaN and infinities
// fail with ErrOutOfRange and change nothing.
func (n *Node) SetParam(name string, value float64) (float64, error) {
	spec, ok := n.desc.Spec(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s has no %q", ErrUnknownParameter, n.desc.Kind, name)
	}

	if !core.IsFinite(value) {
		return 0, fmt.Errorf("%w: %s.%s = %v", ErrOutOfRange, n.desc.Kind, name, value)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.destroyed {
		return 0, fmt.Errorf("%w: %s", ErrNodeDestroyed, n.id)
	}

	return n.setLocked(spec, value), nil
}

func (n *Node) setLocked(spec ParamSpec, value float64) float64 {
	applied := spec.Clamp(value)
	n.params.set(spec.Name, applied)

	if p, ok := n.runtime.Param(spec.Name); ok {
		p.RampTo(applied, n.ramp)
	}

	return applied
}

// Settings returns the typed parameter record of the node.
func (n *Node) Settings() Settings {
	s, err := SettingsFor(n.desc.Kind, n.Params())
	if err != nil {
		// NewNode only accepts catalog kinds.
		panic(fmt.Sprintf("effectchain: settings for %s: %v", n.desc.Kind, err))
	}

	return s
}

// Apply writes every field of s. All values are validated before any is
// applied.
func (n *Node) Apply(s Settings) error {
	if s == nil || s.Kind() != n.desc.Kind {
		return fmt.Errorf("%w: node is %s", ErrKindMismatch, n.desc.Kind)
	}

	values := s.Params()
	for _, p := range values {
		if _, ok := n.desc.Spec(p.Name); !ok {
			return fmt.Errorf("%w: %s has no %q", ErrUnknownParameter, n.desc.Kind, p.Name)
		}

		if !core.IsFinite(p.Value) {
			return fmt.Errorf("%w: %s.%s = %v", ErrOutOfRange, n.desc.Kind, p.Name, p.Value)
		}
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.destroyed {
		return fmt.Errorf("%w: %s", ErrNodeDestroyed, n.id)
	}

	for _, p := range values {
		spec, _ := n.desc.Spec(p.Name)
		n.setLocked(spec, p.Value)
	}

	return nil
}

// Snapshot returns a read-only copy of the node state.
func (n *Node) Snapshot() NodeSnapshot {
	return NodeSnapshot{
		ID:          n.id,
		Kind:        n.desc.Kind,
		DisplayName: n.desc.DisplayName,
		Params:      n.Params(),
	}
}

// FrequencyResponse returns the magnitude response in dB for bins 0..size/2
// of the current parameter targets. Only equalizer nodes support it.
func (n *Node) FrequencyResponse(size int) ([]float64, error) {
	if n.Destroyed() {
		return nil, fmt.Errorf("%w: %s", ErrNodeDestroyed, n.id)
	}

	r, ok := n.runtime.(Responder)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrResponseUnsupported, n.desc.Kind)
	}

	return r.MagnitudeResponseDB(size)
}

// Destroyed reports whether Destroy has been called.
func (n *Node) Destroyed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.destroyed
}

// Destroy releases the processing unit. It is irreversible; a second call
// is a no-op. A graph that is already closed has released the unit itself.
func (n *Node) Destroy() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.destroyed {
		return nil
	}

	n.destroyed = true

	err := n.graph.RemoveNode(n.handle)
	if err != nil && !errors.Is(err, audio.ErrClosed) {
		return fmt.Errorf("effectchain: destroy %s: %w", n.id, err)
	}

	return nil
}
