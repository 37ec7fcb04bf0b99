package effectchain

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/cwbudde/algo-fxrack/dsp/audio"
)

// recordingGraph is an in-memory Graph that records topology and counts
// committed patches. It never renders.
type recordingGraph struct {
	mu         sync.Mutex
	sampleRate float64
	nextID     audio.NodeID
	kernels    map[audio.NodeID]audio.Kernel
	edges      map[audio.NodeID][]audio.NodeID
	patches    int
	failPatch  error
}

func newRecordingGraph() *recordingGraph {
	g := &recordingGraph{
		sampleRate: 48000,
		kernels:    make(map[audio.NodeID]audio.Kernel),
		edges:      make(map[audio.NodeID][]audio.NodeID),
	}

	return g
}

// endpoint registers a pass-through node such as a chain input or output.
func (g *recordingGraph) endpoint() audio.NodeID {
	id, _ := g.AddNode("endpoint", passKernel{})
	return id
}

func (g *recordingGraph) SampleRate() float64 { return g.sampleRate }

func (g *recordingGraph) AddNode(_ string, k audio.Kernel) (audio.NodeID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.nextID++
	g.kernels[g.nextID] = k

	return g.nextID, nil
}

func (g *recordingGraph) RemoveNode(id audio.NodeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.kernels[id]; !ok {
		return fmt.Errorf("%w: %d", audio.ErrUnknownNode, id)
	}

	delete(g.kernels, id)
	delete(g.edges, id)

	for from, tos := range g.edges {
		g.edges[from] = slices.DeleteFunc(tos, func(to audio.NodeID) bool { return to == id })
	}

	return nil
}

func (g *recordingGraph) Patch(fn func(audio.Patcher) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failPatch != nil {
		return g.failPatch
	}

	p := &recordingPatcher{g: g, edges: make(map[audio.NodeID][]audio.NodeID, len(g.edges))}
	for from, tos := range g.edges {
		p.edges[from] = slices.Clone(tos)
	}

	if err := fn(p); err != nil {
		return err
	}

	g.edges = p.edges
	g.patches++

	return nil
}

// path follows single outputs from start and returns every node visited.
func (g *recordingGraph) path(start audio.NodeID) []audio.NodeID {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := []audio.NodeID{start}
	for cur := start; len(g.edges[cur]) == 1 && len(out) <= len(g.kernels); {
		cur = g.edges[cur][0]
		out = append(out, cur)
	}

	return out
}

func (g *recordingGraph) numKernels() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.kernels)
}

func (g *recordingGraph) numPatches() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.patches
}

func (g *recordingGraph) fanOut() map[audio.NodeID]int {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make(map[audio.NodeID]int)
	for _, from := range slices.Sorted(maps.Keys(g.edges)) {
		out[from] = len(g.edges[from])
	}

	return out
}

type recordingPatcher struct {
	g     *recordingGraph
	edges map[audio.NodeID][]audio.NodeID
}

func (p *recordingPatcher) known(id audio.NodeID) error {
	if _, ok := p.g.kernels[id]; !ok {
		return fmt.Errorf("%w: %d", audio.ErrUnknownNode, id)
	}

	return nil
}

func (p *recordingPatcher) Connect(from, to audio.NodeID) error {
	if err := errors.Join(p.known(from), p.known(to)); err != nil {
		return err
	}

	p.edges[from] = append(p.edges[from], to)

	return nil
}

func (p *recordingPatcher) Disconnect(from audio.NodeID) error {
	if err := p.known(from); err != nil {
		return err
	}

	delete(p.edges, from)

	return nil
}

func (p *recordingPatcher) DisconnectFrom(from, to audio.NodeID) error {
	if err := p.known(from); err != nil {
		return err
	}

	p.edges[from] = slices.DeleteFunc(p.edges[from], func(id audio.NodeID) bool { return id == to })

	return nil
}

type passKernel struct{}

func (passKernel) Process([]float64) {}

// gainRuntime is a minimal runtime used to exercise custom registries.
type gainRuntime struct {
	paramSet
}

func (r *gainRuntime) Process(block []float64) {
	g := r.must("gain").Advance(len(block))
	for i := range block {
		block[i] *= g
	}
}

func handles(nodes []*Node) []audio.NodeID {
	out := make([]audio.NodeID, len(nodes))
	for i, n := range nodes {
		out[i] = n.Handle()
	}

	return out
}

func kindsOf(nodes []*Node) []Kind {
	out := make([]Kind, len(nodes))
	for i, n := range nodes {
		out[i] = n.Kind()
	}

	return out
}
