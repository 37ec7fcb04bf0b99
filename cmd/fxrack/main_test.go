package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-fxrack/dsp/effectchain"
	"github.com/cwbudde/algo-fxrack/notes"
)

func TestChainLine(t *testing.T) {
	t.Parallel()

	if got := chainLine(nil); got != "(empty)" {
		t.Fatalf("chainLine(nil) = %q", got)
	}

	got := chainLine([]effectchain.NodeSnapshot{{DisplayName: "Reverb"}, {DisplayName: "Delay"}})
	if got != "Reverb -> Delay" {
		t.Fatalf("chainLine = %q", got)
	}
}

func TestExportCommandWritesMIDI(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "melody.mid")
	cmd := ExportCmd{Material: Material{Seed: 4}, Tempo: 100, Output: out}

	if err := cmd.Run(&Globals{}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	ns, bpm, err := notes.ReadSMF(f)
	if err != nil {
		t.Fatalf("ReadSMF: %v", err)
	}

	if bpm != 100 || len(ns) != notes.FallbackNotes {
		t.Fatalf("read %d notes at %d bpm", len(ns), bpm)
	}

	again := ExportCmd{Material: Material{Input: out}, Tempo: 100, Output: filepath.Join(t.TempDir(), "copy.mid")}
	if err := again.Run(&Globals{}); err != nil {
		t.Fatalf("re-export: %v", err)
	}
}

func TestExportCommandRejectsTempo(t *testing.T) {
	t.Parallel()

	cmd := ExportCmd{Tempo: 20, Output: filepath.Join(t.TempDir(), "x.mid")}
	if err := cmd.Run(&Globals{}); !errors.Is(err, notes.ErrTempoOutOfRange) {
		t.Fatalf("error = %v, want ErrTempoOutOfRange", err)
	}
}

func TestMaterialGenerates(t *testing.T) {
	t.Parallel()

	var got []notes.GeneratedNote

	exp := notes.ExporterFunc(func(_ context.Context, req notes.ExportRequest) error {
		got = req.Notes
		return nil
	})

	e := newOfflineEngine()
	if err := (Material{Seed: 9}).load(context.Background(), e); err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := e.Export(context.Background(), exp); err != nil {
		t.Fatalf("Export: %v", err)
	}

	if len(got) != notes.FallbackNotes {
		t.Fatalf("generated %d notes", len(got))
	}
}

func TestExportCommandRemovesFailedOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.mid")

	f, err := os.Create(empty)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := (notes.SMFExporter{W: f}).Export(context.Background(), notes.ExportRequest{TempoBPM: 120}); err != nil {
		t.Fatalf("Export: %v", err)
	}

	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	out := filepath.Join(dir, "out.mid")
	cmd := ExportCmd{Material: Material{Input: empty}, Tempo: 120, Output: out}

	if err := cmd.Run(&Globals{}); !errors.Is(err, notes.ErrNoNotes) {
		t.Fatalf("error = %v, want ErrNoNotes", err)
	}

	if _, err := os.Stat(out); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("failed export left %s behind: %v", out, err)
	}
}
