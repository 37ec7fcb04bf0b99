package notes

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
)

// Request parameterizes one generation.
type Request struct {
	Style    string
	Bars     int
	TempoBPM int
}

// Generator produces note sequences. Implementations live outside the core;
// the core treats every returned sequence the same way.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]GeneratedNote, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) ([]GeneratedNote, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) ([]GeneratedNote, error) {
	return f(ctx, req)
}

// Fallback sequence shape.
const (
	FallbackNotes    = 8
	FallbackStep     = 0.5
	FallbackLowPitch = 60
	FallbackRange    = 24
	FallbackVelocity = 80
)

// FallbackGenerator returns FallbackNotes back-to-back notes of FallbackStep
// seconds with pitches drawn from FallbackLowPitch..FallbackLowPitch+23.
type FallbackGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewFallbackGenerator returns a fallback generator with a fixed seed.
func NewFallbackGenerator(seed int64) *FallbackGenerator {
	return &FallbackGenerator{rng: rand.New(rand.NewSource(seed))}
}

// Generate implements Generator. It never fails unless ctx is done.
func (g *FallbackGenerator) Generate(ctx context.Context, _ Request) ([]GeneratedNote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]GeneratedNote, FallbackNotes)
	for i := range out {
		out[i] = GeneratedNote{
			Pitch:     FallbackLowPitch + g.rng.Intn(FallbackRange),
			Velocity:  FallbackVelocity,
			StartTime: float64(i) * FallbackStep,
			EndTime:   float64(i+1) * FallbackStep,
		}
	}

	return out, nil
}

type fallbackGenerator struct {
	primary  Generator
	fallback Generator
	onError  func(error)
}

// FallbackOption configures WithFallback.
type FallbackOption func(*fallbackGenerator)

// OnPrimaryError registers a callback for primary failures, for logging.
func OnPrimaryError(fn func(error)) FallbackOption {
	return func(g *fallbackGenerator) { g.onError = fn }
}

// WithFallback returns a Generator that asks primary first and returns the
// fallback sequence when primary fails. Cancellation of ctx is not masked.
func WithFallback(primary, fallback Generator, opts ...FallbackOption) Generator {
	g := &fallbackGenerator{primary: primary, fallback: fallback}
	for _, opt := range opts {
		opt(g)
	}

	return g
}

func (g *fallbackGenerator) Generate(ctx context.Context, req Request) ([]GeneratedNote, error) {
	notes, err := g.primary.Generate(ctx, req)
	if err == nil {
		return notes, nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	if g.onError != nil {
		g.onError(err)
	}

	notes, ferr := g.fallback.Generate(ctx, req)
	if ferr != nil {
		return nil, fmt.Errorf("notes: fallback after %v: %w", err, ferr)
	}

	return notes, nil
}
