package notes

import (
	"context"
	"errors"
	"testing"
)

func TestFallbackGeneratorShape(t *testing.T) {
	t.Parallel()

	notes, err := NewFallbackGenerator(1).Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(notes) != FallbackNotes {
		t.Fatalf("len = %d, want %d", len(notes), FallbackNotes)
	}

	for i, n := range notes {
		if err := n.Validate(); err != nil {
			t.Fatalf("note %d: %v", i, err)
		}

		if n.Pitch < 60 || n.Pitch > 83 || n.Velocity != 80 {
			t.Fatalf("note %d = %+v", i, n)
		}

		if n.StartTime != float64(i)*0.5 || n.EndTime != float64(i+1)*0.5 {
			t.Fatalf("note %d timing = %v..%v", i, n.StartTime, n.EndTime)
		}
	}

	again, _ := NewFallbackGenerator(1).Generate(context.Background(), Request{})
	for i := range notes {
		if notes[i] != again[i] {
			t.Fatal("same seed produced different sequences")
		}
	}
}

func TestWithFallback(t *testing.T) {
	t.Parallel()

	primaryNotes := []GeneratedNote{{Pitch: 40, Velocity: 90, EndTime: 2}}
	ok := GeneratorFunc(func(context.Context, Request) ([]GeneratedNote, error) { return primaryNotes, nil })
	broken := GeneratorFunc(func(context.Context, Request) ([]GeneratedNote, error) {
		return nil, errors.New("model unavailable")
	})

	got, err := WithFallback(ok, NewFallbackGenerator(3)).Generate(context.Background(), Request{})
	if err != nil || len(got) != 1 || got[0].Pitch != 40 {
		t.Fatalf("primary path = %v, %v", got, err)
	}

	var reported error

	g := WithFallback(broken, NewFallbackGenerator(3), OnPrimaryError(func(err error) { reported = err }))

	got, err = g.Generate(context.Background(), Request{})
	if err != nil || len(got) != FallbackNotes {
		t.Fatalf("fallback path = %v, %v", got, err)
	}

	if reported == nil {
		t.Fatal("primary error not reported")
	}
}

func TestWithFallbackKeepsCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	slow := GeneratorFunc(func(ctx context.Context, _ Request) ([]GeneratedNote, error) { return nil, ctx.Err() })

	if _, err := WithFallback(slow, NewFallbackGenerator(1)).Generate(ctx, Request{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}
