// Command fxrack drives the effects rack from a terminal.
//
// Usage:
//
//	fxrack kinds
//	fxrack play [-e reverb,delay] [-p reverb.wet=0.6] [--input song.mid] [--duration 4s]
//	fxrack export [--tempo 120] [--input song.mid] out.mid
//
// The global --sample-rate and --block-size flags fall back to
// FXRACK_SAMPLE_RATE and FXRACK_BLOCK_SIZE.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"

	"github.com/cwbudde/algo-fxrack/dsp/audio"
	"github.com/cwbudde/algo-fxrack/dsp/effectchain"
	"github.com/cwbudde/algo-fxrack/engine"
	"github.com/cwbudde/algo-fxrack/internal/cli"
	"github.com/cwbudde/algo-fxrack/notes"
)

// Globals are flags shared by every command.
type Globals struct {
	SampleRate float64       `name:"sample-rate" default:"48000" env:"FXRACK_SAMPLE_RATE" help:"Render sample rate in Hz."`
	BlockSize  int           `name:"block-size" default:"128" env:"FXRACK_BLOCK_SIZE" help:"Render quantum in frames."`
	Latency    time.Duration `default:"100ms" help:"Output buffer length requested from the speaker."`
	Verbose    bool          `short:"v" help:"Log engine activity to stderr."`
}

func (g *Globals) logger() *slog.Logger {
	level := slog.LevelWarn
	if g.Verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// CLI defines the command-line interface.
type CLI struct {
	Globals

	Kinds  KindsCmd  `cmd:"" help:"List effect kinds and their parameters."`
	Play   PlayCmd   `cmd:"" help:"Play notes through an effects chain on the speaker."`
	Export ExportCmd `cmd:"" help:"Write notes to a Standard MIDI File."`
}

// Material selects the notes a command works on.
type Material struct {
	Input string `type:"existingfile" help:"MIDI file to load instead of generating notes."`
	Seed  int64  `default:"1" help:"Seed for generated notes."`
}

func (m Material) load(ctx context.Context, e *engine.Engine) error {
	if m.Input == "" {
		_, err := e.Generate(ctx, notes.NewFallbackGenerator(m.Seed), notes.Request{})
		return err
	}

	f, err := os.Open(m.Input)
	if err != nil {
		return err
	}
	defer f.Close()

	ns, bpm, err := notes.ReadSMF(f)
	if err != nil {
		return err
	}

	e.SetTempo(bpm)

	if rejected := e.LoadNotes(ns); len(rejected) > 0 {
		return fmt.Errorf("%s: %w", m.Input, rejected[0])
	}

	return nil
}

// KindsCmd lists the effect catalog.
type KindsCmd struct{}

func (c *KindsCmd) Run(_ *Globals) error {
	cli.PrintTitle(os.Stdout, "Effect kinds")

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Kind\tName\tParam\tUnit\tMin\tMax\tDefault\n")
	fmt.Fprintf(tw, "----\t----\t-----\t----\t---\t---\t-------\n")

	for _, k := range effectchain.Kinds() {
		d, err := effectchain.Describe(k)
		if err != nil {
			return err
		}

		for i, p := range d.Params {
			kind, name := "", ""
			if i == 0 {
				kind, name = k.String(), d.DisplayName
			}

			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%g\t%g\t%g\n", kind, name, p.Name, p.Unit, p.Min, p.Max, p.Default)
		}
	}

	return tw.Flush()
}

// PlayCmd plays material through a chain.
type PlayCmd struct {
	Material

	Effects  []string           `short:"e" sep:"," default:"reverb,delay" help:"Effect kinds in signal order."`
	Param    map[string]float64 `short:"p" help:"Parameter override as kind.name=value, applied to the first effect of that kind."`
	Gain     float64            `default:"0.8" help:"Master gain in [0,1]."`
	Duration time.Duration      `default:"4s" help:"How long to play."`
}

func (c *PlayCmd) Run(g *Globals) error {
	if !audio.SpeakerAvailable {
		return fmt.Errorf("%w: built without speaker support", engine.ErrAudioUnsupported)
	}

	kinds := make([]effectchain.Kind, 0, len(c.Effects))
	for _, name := range c.Effects {
		k, err := effectchain.ParseKind(name)
		if err != nil {
			return err
		}

		kinds = append(kinds, k)
	}

	e := engine.New(
		engine.WithDevice(engine.SpeakerDevices()),
		engine.WithSampleRate(g.SampleRate),
		engine.WithBlockSize(g.BlockSize),
		engine.WithLatency(g.Latency),
		engine.WithLogger(g.logger()),
		engine.WithSeed(kinds...),
		engine.WithMasterGain(c.Gain),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := e.Initialize(ctx); err != nil {
		return err
	}
	defer e.Teardown()

	if err := c.load(ctx, e); err != nil {
		return err
	}

	if err := c.applyParams(e); err != nil {
		return err
	}

	if err := e.Play(ctx); err != nil {
		return err
	}

	s := e.Snapshot()
	cli.PrintKV(os.Stdout, "notes", s.Notes)
	cli.PrintKV(os.Stdout, "chain", chainLine(s.Chain))

	if path, err := e.SignalPath(); err == nil {
		cli.PrintKV(os.Stdout, "path", strings.Join(path, " -> "))
	}

	select {
	case <-ctx.Done():
	case <-time.After(c.Duration):
	}

	return e.Stop()
}

func (c *PlayCmd) applyParams(e *engine.Engine) error {
	chain, err := e.ChainSnapshot()
	if err != nil {
		return err
	}

	for key, v := range c.Param {
		kindName, param, ok := strings.Cut(key, ".")
		if !ok {
			return fmt.Errorf("parameter %q: want kind.name=value", key)
		}

		kind, err := effectchain.ParseKind(kindName)
		if err != nil {
			return err
		}

		found := false

		for _, n := range chain {
			if n.Kind != kind {
				continue
			}

			if _, err := e.SetParam(n.ID, param, v); err != nil {
				return err
			}

			found = true

			break
		}

		if !found {
			return fmt.Errorf("parameter %q: no %s in chain", key, kind)
		}
	}

	return nil
}

func chainLine(chain []effectchain.NodeSnapshot) string {
	if len(chain) == 0 {
		return "(empty)"
	}

	names := make([]string, len(chain))
	for i, n := range chain {
		names[i] = n.DisplayName
	}

	return strings.Join(names, " -> ")
}

// ExportCmd writes material to a MIDI file.
type ExportCmd struct {
	Material

	Tempo  int    `default:"120" help:"Tempo in BPM (60..180)."`
	Output string `arg:"" type:"path" help:"Destination .mid file."`
}

func (c *ExportCmd) Run(g *Globals) error {
	e := newOfflineEngine(engine.WithLogger(g.logger()))

	ctx := context.Background()
	if err := c.load(ctx, e); err != nil {
		return err
	}

	if c.Tempo < notes.MinTempo || c.Tempo > notes.MaxTempo {
		return fmt.Errorf("%w: %d", notes.ErrTempoOutOfRange, c.Tempo)
	}

	e.SetTempo(c.Tempo)

	f, err := os.Create(c.Output)
	if err != nil {
		return err
	}

	exportErr := e.Export(ctx, notes.SMFExporter{W: f, TrackName: "fxrack"})

	if err := errors.Join(exportErr, f.Close()); err != nil {
		return errors.Join(err, os.Remove(c.Output))
	}

	cli.PrintKV(os.Stdout, "wrote", c.Output)

	return nil
}

// newOfflineEngine returns an engine used only for its note material.
func newOfflineEngine(opts ...engine.Option) *engine.Engine {
	return engine.New(append([]engine.Option{engine.WithDevice(nil)}, opts...)...)
}

func main() {
	var c CLI

	kctx := kong.Parse(&c,
		kong.Name("fxrack"),
		kong.Description("Effects rack with transport and MIDI export"),
		kong.UsageOnError(),
	)

	if err := kctx.Run(&c.Globals); err != nil {
		cli.PrintError(os.Stderr, err)

		if errors.Is(err, engine.ErrAudioUnsupported) {
			os.Exit(2)
		}

		os.Exit(1)
	}
}
