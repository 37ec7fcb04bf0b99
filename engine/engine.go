package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/samber/lo"

	"github.com/cwbudde/algo-fxrack/dsp/audio"
	"github.com/cwbudde/algo-fxrack/dsp/core"
	"github.com/cwbudde/algo-fxrack/dsp/effectchain"
	"github.com/cwbudde/algo-fxrack/notes"
)

// Engine is the single handle to the rack's audio resources.
type Engine struct {
	cfg config
	log *slog.Logger

	mu         sync.Mutex
	state      TransportState
	masterGain float64
	tempo      int
	score      []notes.GeneratedNote

	device audio.Device
	ac     *audio.Context
	master *audio.Param
	inst   *instrument
	chain  *effectchain.Chain

	masterID audio.NodeID
	instID   audio.NodeID

	pull atomic.Pointer[audio.PullDevice]
}

// Snapshot is a read-only view of the engine for rendering a UI.
type Snapshot struct {
	Initialized bool                       `json:"initialized"`
	State       TransportState             `json:"state"`
	Position    float64                    `json:"position"`
	MasterGain  float64                    `json:"masterGain"`
	TempoBPM    int                        `json:"tempoBPM"`
	SampleRate  float64                    `json:"sampleRate"`
	Notes       int                        `json:"notes"`
	Chain       []effectchain.NodeSnapshot `json:"chain"`
}

// New returns an uninitialized engine.
func New(opts ...Option) *Engine {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Engine{
		cfg:        cfg,
		log:        cfg.logger,
		masterGain: cfg.masterGain,
		tempo:      cfg.tempo,
	}
}

// Derive returns an uninitialized engine configured like e with opts applied
// on top. It starts with e's notes, tempo and master gain unless opts
// override them.
func (e *Engine) Derive(opts ...Option) *Engine {
	e.mu.Lock()
	cfg := e.cfg
	cfg.seed = slices.Clone(cfg.seed)
	cfg.masterGain = e.masterGain
	cfg.tempo = e.tempo
	score := e.score
	e.mu.Unlock()

	for _, opt := range opts {
		opt(&cfg)
	}

	return &Engine{
		cfg:        cfg,
		log:        cfg.logger,
		masterGain: cfg.masterGain,
		tempo:      cfg.tempo,
		score:      score,
	}
}

// Initialize opens the device, creates the master stage and instrument, and
// builds the chain between them. The context starts suspended; Play resumes
// it. Calling Initialize on an initialized engine is a no-op.
func (e *Engine) Initialize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ac != nil {
		return nil
	}

	dev, err := e.openDevice()
	if err != nil {
		e.log.Warn("audio output unavailable", "error", err)
		return err
	}

	ac, err := audio.NewContext(dev,
		audio.WithSampleRate(e.cfg.sampleRate),
		audio.WithBlockSize(e.cfg.blockSize),
		audio.WithLatency(e.cfg.latency),
	)
	if err != nil {
		_ = dev.Close()
		if errors.Is(err, audio.ErrUnsupported) {
			return fmt.Errorf("%w: %v", ErrAudioUnsupported, err)
		}

		return fmt.Errorf("engine: initialize: %w", err)
	}

	if err := e.buildLocked(ac); err != nil {
		_ = ac.Close()
		e.resetLocked()

		return fmt.Errorf("engine: initialize: %w", err)
	}

	e.device = dev
	e.ac = ac
	if pd, ok := dev.(*audio.PullDevice); ok {
		e.pull.Store(pd)
	}
	e.state = Stopped

	e.log.Info("engine initialized",
		"sample_rate", ac.SampleRate(),
		"block_size", ac.BlockSize(),
		"path", e.signalPathLocked(),
	)

	return nil
}

func (e *Engine) openDevice() (audio.Device, error) {
	if e.cfg.device == nil {
		return nil, ErrAudioUnsupported
	}

	dev, err := e.cfg.device()
	switch {
	case errors.Is(err, audio.ErrUnsupported):
		return nil, fmt.Errorf("%w: %v", ErrAudioUnsupported, err)
	case err != nil:
		return nil, fmt.Errorf("engine: open device: %w", err)
	case dev == nil:
		return nil, ErrAudioUnsupported
	}

	return dev, nil
}

func (e *Engine) buildLocked(ac *audio.Context) error {
	masterID, master, err := ac.NewGain("master", e.masterGain, 1)
	if err != nil {
		return err
	}

	inst := newInstrument(ac.SampleRate())
	inst.load(e.score)

	instID, err := ac.AddNode("instrument", inst)
	if err != nil {
		return err
	}

	err = ac.Patch(func(p audio.Patcher) error {
		return p.Connect(masterID, ac.Destination())
	})
	if err != nil {
		return err
	}

	nodeOpts := []effectchain.NodeOption{effectchain.WithRampTime(e.cfg.ramp)}
	if e.cfg.registry != nil {
		nodeOpts = append(nodeOpts, effectchain.WithRegistry(e.cfg.registry))
	}

	chain, err := effectchain.NewChain(ac, instID, masterID,
		effectchain.WithSeed(e.cfg.seed...),
		effectchain.WithNodeOptions(nodeOpts...),
	)
	if err != nil {
		return err
	}

	e.master = master
	e.masterID = masterID
	e.inst = inst
	e.instID = instID
	e.chain = chain

	return nil
}

func (e *Engine) resetLocked() {
	e.pull.Store(nil)
	e.device = nil
	e.ac = nil
	e.master = nil
	e.inst = nil
	e.chain = nil
	e.masterID = 0
	e.instID = 0
	e.state = Stopped
}

// Teardown destroys the chain and closes the audio context. The engine can
// be initialized again afterwards. Repeated calls are no-ops.
func (e *Engine) Teardown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ac == nil {
		return nil
	}

	err := errors.Join(e.chain.Close(), e.ac.Close())
	e.resetLocked()

	if err != nil {
		return fmt.Errorf("engine: teardown: %w", err)
	}

	e.log.Info("engine torn down")

	return nil
}

// Initialized reports whether the engine owns a live audio context.
func (e *Engine) Initialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.ac != nil
}

func (e *Engine) requireLocked() error {
	if e.ac == nil {
		return ErrEngineNotInitialized
	}

	return nil
}

// Play starts or continues playback, resuming a suspended context first.
// It always ends in Playing.
func (e *Engine) Play(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireLocked(); err != nil {
		return err
	}

	if e.ac.State() != audio.StateRunning {
		if err := e.ac.Resume(ctx); err != nil {
			return fmt.Errorf("engine: play: %w", err)
		}
	}

	e.inst.setPlaying(true)

	if e.state != Playing {
		e.log.Debug("transport", "from", e.state, "to", Playing)
	}

	e.state = Playing

	return nil
}

// Pause holds the transport position. It is a no-op unless playing.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireLocked(); err != nil {
		return err
	}

	if e.state != Playing {
		return nil
	}

	e.inst.setPlaying(false)
	e.log.Debug("transport", "from", e.state, "to", Paused)
	e.state = Paused

	return nil
}

// Stop halts playback and rewinds to zero. It is a no-op when stopped.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireLocked(); err != nil {
		return err
	}

	if e.state == Stopped {
		return nil
	}

	e.inst.stop()
	e.log.Debug("transport", "from", e.state, "to", Stopped)
	e.state = Stopped

	return nil
}

// State returns the transport state.
func (e *Engine) State() TransportState {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state
}

// Position returns the transport time in seconds. It is zero when stopped.
func (e *Engine) Position() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.positionLocked()
}

func (e *Engine) positionLocked() float64 {
	if e.inst == nil || e.state == Stopped {
		return 0
	}

	return e.inst.position()
}

// SetMasterGain sets the master level, clamped to [0,1], and returns the
// applied value. Before Initialize the value is kept for the master stage.
// Non-finite values are ignored.
func (e *Engine) SetMasterGain(v float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !core.IsFinite(v) {
		return e.masterGain
	}

	e.masterGain = core.Clamp(v, 0, 1)
	if e.master != nil {
		e.master.RampTo(e.masterGain, e.cfg.ramp)
	}

	return e.masterGain
}

// MasterGain returns the master level target.
func (e *Engine) MasterGain() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.masterGain
}

// Append adds an effect of kind at the end of the chain.
func (e *Engine) Append(kind effectchain.Kind) (effectchain.NodeSnapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireLocked(); err != nil {
		return effectchain.NodeSnapshot{}, err
	}

	n, err := e.chain.Append(kind)
	if err != nil {
		return effectchain.NodeSnapshot{}, err
	}

	e.log.Debug("effect appended", "id", n.ID(), "kind", kind, "path", e.signalPathLocked())

	return n.Snapshot(), nil
}

// Remove deletes the effect id from the chain.
func (e *Engine) Remove(id effectchain.NodeID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireLocked(); err != nil {
		return err
	}

	if err := e.chain.Remove(id); err != nil {
		return err
	}

	e.log.Debug("effect removed", "id", id, "path", e.signalPathLocked())

	return nil
}

// Reorder moves the effect id to index.
func (e *Engine) Reorder(id effectchain.NodeID, index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireLocked(); err != nil {
		return err
	}

	if err := e.chain.Reorder(id, index); err != nil {
		return err
	}

	e.log.Debug("effect moved", "id", id, "index", index, "path", e.signalPathLocked())

	return nil
}

// SignalPath returns the node labels from the instrument to the output.
func (e *Engine) SignalPath() ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireLocked(); err != nil {
		return nil, err
	}

	return e.signalPathLocked(), nil
}

func (e *Engine) signalPathLocked() []string {
	return lo.Map(e.ac.SignalPath(e.instID), func(id audio.NodeID, _ int) string {
		label, _ := e.ac.Label(id)
		return label
	})
}

// SetParam sets one effect parameter and returns the applied value.
func (e *Engine) SetParam(id effectchain.NodeID, name string, value float64) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireLocked(); err != nil {
		return 0, err
	}

	return e.chain.SetParam(id, name, value)
}

// FrequencyResponse returns the magnitude response of effect id in dB.
func (e *Engine) FrequencyResponse(id effectchain.NodeID, size int) ([]float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireLocked(); err != nil {
		return nil, err
	}

	n, ok := e.chain.Node(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", effectchain.ErrNodeNotFound, id)
	}

	return n.FrequencyResponse(size)
}

// ChainSnapshot returns the effects in signal order.
func (e *Engine) ChainSnapshot() ([]effectchain.NodeSnapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireLocked(); err != nil {
		return nil, err
	}

	return e.chain.Snapshot(), nil
}

// LoadNotes replaces the playback material. Malformed notes are dropped and
// returned. Loading works before Initialize.
func (e *Engine) LoadNotes(in []notes.GeneratedNote) []notes.Rejection {
	valid, rejected := notes.Partition(in)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.score = valid
	if e.inst != nil {
		e.inst.load(valid)
	}

	if len(rejected) > 0 {
		e.log.Warn("dropped malformed notes", "count", len(rejected), "first", rejected[0].Err)
	}

	return rejected
}

// Generate asks g for new material and loads it.
func (e *Engine) Generate(ctx context.Context, g notes.Generator, req notes.Request) ([]notes.Rejection, error) {
	if req.TempoBPM == 0 {
		req.TempoBPM = e.Tempo()
	}

	ns, err := g.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("engine: generate: %w", err)
	}

	return e.LoadNotes(ns), nil
}

// Notes returns a copy of the playback material.
func (e *Engine) Notes() []notes.GeneratedNote {
	e.mu.Lock()
	defer e.mu.Unlock()

	return slices.Clone(e.score)
}

// SetTempo sets the export tempo, clamped to notes.MinTempo..notes.MaxTempo,
// and returns the applied value.
func (e *Engine) SetTempo(bpm int) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.tempo = notes.ClampTempo(bpm)

	return e.tempo
}

// Tempo returns the export tempo.
func (e *Engine) Tempo() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.tempo
}

// Export hands the loaded notes and tempo to exp.
func (e *Engine) Export(ctx context.Context, exp notes.Exporter) error {
	e.mu.Lock()
	req, rejected, err := notes.BuildExport(e.score, e.tempo)
	e.mu.Unlock()

	if err != nil {
		return fmt.Errorf("engine: export: %w", err)
	}

	if len(rejected) > 0 {
		e.log.Warn("export skipped notes", "count", len(rejected))
	}

	if err := exp.Export(ctx, req); err != nil {
		return fmt.Errorf("engine: export: %w", err)
	}

	e.log.Info("exported", "notes", len(req.Notes), "tempo", req.TempoBPM, "duration", req.TotalDuration)

	return nil
}

// Render pulls len(out) frames when the engine was initialized with
// PullDevices. Otherwise it writes silence. It never takes the control lock
// and may be called from a real-time callback.
func (e *Engine) Render(out []float64) {
	dev := e.pull.Load()
	if dev == nil {
		core.Zero(out)
		return
	}

	dev.Pull(out)
}

// Snapshot returns the engine state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Snapshot{
		Initialized: e.ac != nil,
		State:       e.state,
		Position:    e.positionLocked(),
		MasterGain:  e.masterGain,
		TempoBPM:    e.tempo,
		SampleRate:  e.cfg.sampleRate,
		Notes:       len(e.score),
	}

	if e.chain != nil {
		s.Chain = e.chain.Snapshot()
	}

	return s
}

// RenderFloat32 is Render for hosts that exchange float32 samples. scratch
// is reused when large enough and returned for the next call.
func (e *Engine) RenderFloat32(out []float32, scratch []float64) []float64 {
	dev := e.pull.Load()
	if dev == nil {
		clear(out)
		return scratch
	}

	return dev.PullFloat32(out, scratch)
}
