package effectchain

import (
	"errors"
	"math/rand"
	"slices"
	"testing"

	"github.com/cwbudde/algo-fxrack/dsp/audio"
)

type chainFixture struct {
	g     *recordingGraph
	in    audio.NodeID
	out   audio.NodeID
	chain *Chain
}

func newChainFixture(t *testing.T, opts ...ChainOption) *chainFixture {
	t.Helper()

	g := newRecordingGraph()
	f := &chainFixture{g: g, in: g.endpoint(), out: g.endpoint()}

	c, err := NewChain(g, f.in, f.out, opts...)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}

	f.chain = c

	return f
}

// requireWired checks that the physical path is in -> nodes... -> out and
// that nothing else fans out.
func (f *chainFixture) requireWired(t *testing.T) {
	t.Helper()

	want := append([]audio.NodeID{f.in}, handles(f.chain.Nodes())...)
	want = append(want, f.out)

	if got := f.g.path(f.in); !slices.Equal(got, want) {
		t.Fatalf("physical path = %v, want %v", got, want)
	}

	for from, n := range f.g.fanOut() {
		if n > 1 {
			t.Fatalf("node %d has %d outputs", from, n)
		}
	}
}

func TestEmptyChainIsPassThrough(t *testing.T) {
	t.Parallel()

	f := newChainFixture(t)

	if f.chain.Len() != 0 {
		t.Fatalf("Len = %d", f.chain.Len())
	}

	if got := f.g.path(f.in); !slices.Equal(got, []audio.NodeID{f.in, f.out}) {
		t.Fatalf("path = %v, want pass-through", got)
	}
}

func TestAppendRemoveScenario(t *testing.T) {
	t.Parallel()

	f := newChainFixture(t)

	reverb, err := f.chain.Append(KindReverb)
	if err != nil {
		t.Fatalf("Append(reverb): %v", err)
	}

	if _, err := f.chain.Append(KindDelay); err != nil {
		t.Fatalf("Append(delay): %v", err)
	}

	if got := kindsOf(f.chain.Nodes()); !slices.Equal(got, []Kind{KindReverb, KindDelay}) {
		t.Fatalf("order = %v", got)
	}

	f.requireWired(t)

	if err := f.chain.Remove(reverb.ID()); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	if got := kindsOf(f.chain.Nodes()); !slices.Equal(got, []Kind{KindDelay}) {
		t.Fatalf("order after remove = %v", got)
	}

	f.requireWired(t)

	if !reverb.Destroyed() {
		t.Fatal("removed node not destroyed")
	}

	if f.g.numKernels() != 3 {
		t.Fatalf("graph holds %d nodes, want endpoints + delay", f.g.numKernels())
	}

	if err := f.chain.Remove(f.chain.Nodes()[0].ID()); err != nil {
		t.Fatalf("Remove last: %v", err)
	}

	if got := f.g.path(f.in); !slices.Equal(got, []audio.NodeID{f.in, f.out}) {
		t.Fatalf("path = %v, pass-through not restored", got)
	}
}

func TestEveryTopologyChangeIsOnePatch(t *testing.T) {
	t.Parallel()

	f := newChainFixture(t)
	base := f.g.numPatches()

	a, _ := f.chain.Append(KindEQ)
	b, _ := f.chain.Append(KindDistortion)

	if got := f.g.numPatches() - base; got != 2 {
		t.Fatalf("appends used %d patches, want 2", got)
	}

	if err := f.chain.Reorder(b.ID(), 0); err != nil {
		t.Fatalf("Reorder: %v", err)
	}

	if got := f.g.numPatches() - base; got != 3 {
		t.Fatalf("reorder used %d patches in total, want 3", got)
	}

	if err := f.chain.Reorder(a.ID(), 1); err != nil {
		t.Fatalf("no-op Reorder: %v", err)
	}

	if got := f.g.numPatches() - base; got != 3 {
		t.Fatalf("no-op reorder patched the graph")
	}
}

func TestReorderErrors(t *testing.T) {
	t.Parallel()

	f := newChainFixture(t, WithSeed(KindReverb, KindDelay))
	id := f.chain.Nodes()[0].ID()

	for _, idx := range []int{-1, 2, 10} {
		if err := f.chain.Reorder(id, idx); !errors.Is(err, ErrIndexOutOfBounds) {
			t.Fatalf("Reorder(%d) error = %v, want ErrIndexOutOfBounds", idx, err)
		}
	}

	if err := f.chain.Reorder("missing", 0); !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("Reorder(missing) error = %v, want ErrNodeNotFound", err)
	}

	if err := f.chain.Remove("missing"); !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("Remove(missing) error = %v, want ErrNodeNotFound", err)
	}

	if _, err := f.chain.SetParam("missing", "wet", 1); !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("SetParam(missing) error = %v, want ErrNodeNotFound", err)
	}

	f.requireWired(t)
}

func TestReorderMovesNode(t *testing.T) {
	t.Parallel()

	f := newChainFixture(t, WithSeed(KindReverb, KindDelay, KindEQ))
	eq := f.chain.Nodes()[2]

	if err := f.chain.Reorder(eq.ID(), 0); err != nil {
		t.Fatalf("Reorder: %v", err)
	}

	want := []Kind{KindEQ, KindReverb, KindDelay}
	if got := kindsOf(f.chain.Nodes()); !slices.Equal(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}

	f.requireWired(t)
}

func TestChainSetParamDelegates(t *testing.T) {
	t.Parallel()

	f := newChainFixture(t, WithSeed(KindCompressor))
	id := f.chain.Nodes()[0].ID()

	got, err := f.chain.SetParam(id, "ratio", 40)
	if err != nil || got != 20 {
		t.Fatalf("SetParam = %v, %v; want clamped 20", got, err)
	}

	if _, err := f.chain.SetParam(id, "wet", 1); !errors.Is(err, ErrUnknownParameter) {
		t.Fatalf("error = %v, want ErrUnknownParameter", err)
	}
}

func TestNoIDReuse(t *testing.T) {
	t.Parallel()

	f := newChainFixture(t)
	seen := make(map[NodeID]bool)

	for range 50 {
		n, err := f.chain.Append(KindReverb)
		if err != nil {
			t.Fatalf("Append: %v", err)
		}

		if seen[n.ID()] {
			t.Fatalf("id %s reused", n.ID())
		}

		seen[n.ID()] = true

		if err := f.chain.Remove(n.ID()); err != nil {
			t.Fatalf("Remove: %v", err)
		}
	}
}

func TestRandomOperationsKeepOrder(t *testing.T) {
	t.Parallel()

	f := newChainFixture(t)
	rng := rand.New(rand.NewSource(1))
	kinds := Kinds()

	for step := range 400 {
		nodes := f.chain.Nodes()

		switch op := rng.Intn(3); {
		case op == 0 || len(nodes) == 0:
			if _, err := f.chain.Append(kinds[rng.Intn(len(kinds))]); err != nil {
				t.Fatalf("step %d Append: %v", step, err)
			}
		case op == 1:
			if err := f.chain.Remove(nodes[rng.Intn(len(nodes))].ID()); err != nil {
				t.Fatalf("step %d Remove: %v", step, err)
			}
		default:
			n := nodes[rng.Intn(len(nodes))]
			if err := f.chain.Reorder(n.ID(), rng.Intn(len(nodes))); err != nil {
				t.Fatalf("step %d Reorder: %v", step, err)
			}
		}

		f.requireWired(t)
	}

	if want := 2 + f.chain.Len(); f.g.numKernels() != want {
		t.Fatalf("graph holds %d nodes, want %d", f.g.numKernels(), want)
	}
}

func TestFailedPatchLeavesChainUnchanged(t *testing.T) {
	t.Parallel()

	f := newChainFixture(t, WithSeed(KindReverb, KindDelay))
	before := handles(f.chain.Nodes())
	units := f.g.numKernels()

	f.g.failPatch = errors.New("boom")

	if _, err := f.chain.Append(KindEQ); err == nil {
		t.Fatal("Append succeeded with a failing graph")
	}

	if err := f.chain.Reorder(f.chain.Nodes()[1].ID(), 0); err == nil {
		t.Fatal("Reorder succeeded with a failing graph")
	}

	if err := f.chain.Remove(f.chain.Nodes()[0].ID()); err == nil {
		t.Fatal("Remove succeeded with a failing graph")
	}

	f.g.failPatch = nil

	if got := handles(f.chain.Nodes()); !slices.Equal(got, before) {
		t.Fatalf("nodes = %v, want %v", got, before)
	}

	if f.g.numKernels() != units {
		t.Fatalf("graph holds %d nodes, want %d (failed append must release its unit)", f.g.numKernels(), units)
	}

	f.requireWired(t)
}

func TestSeedRejectsUnknownKind(t *testing.T) {
	t.Parallel()

	g := newRecordingGraph()

	_, err := NewChain(g, g.endpoint(), g.endpoint(), WithSeed(KindReverb, Kind(99)))
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("error = %v, want ErrUnknownKind", err)
	}

	if g.numKernels() != 2 {
		t.Fatal("rejected seed allocated units")
	}
}

func TestCloseDestroysNodes(t *testing.T) {
	t.Parallel()

	f := newChainFixture(t, WithSeed(KindReverb, KindEQ))
	nodes := f.chain.Nodes()

	if err := f.chain.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	for _, n := range nodes {
		if !n.Destroyed() {
			t.Fatalf("node %s survived Close", n.ID())
		}
	}

	if err := f.chain.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if _, err := f.chain.Append(KindDelay); !errors.Is(err, ErrChainClosed) {
		t.Fatalf("Append after Close error = %v, want ErrChainClosed", err)
	}

	if _, err := f.chain.SetParam(nodes[0].ID(), "wet", 0); !errors.Is(err, ErrChainClosed) {
		t.Fatalf("SetParam after Close error = %v, want ErrChainClosed", err)
	}

	if f.g.numKernels() != 2 {
		t.Fatalf("graph holds %d nodes after Close", f.g.numKernels())
	}
}

func TestSnapshotOrder(t *testing.T) {
	t.Parallel()

	f := newChainFixture(t, WithSeed(KindDistortion, KindEQ))

	snap := f.chain.Snapshot()
	if len(snap) != 2 || snap[0].Kind != KindDistortion || snap[1].Kind != KindEQ {
		t.Fatalf("snapshot = %+v", snap)
	}
}
