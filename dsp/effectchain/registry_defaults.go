package effectchain

import (
	"sync"

	"github.com/cwbudde/algo-fxrack/dsp/fx"
)

// delayCapacity is the longest delay time a delay runtime can reach.
const delayCapacity = 2.0

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the shared registry with the five built-in runtimes.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewBuiltinRegistry()
	})

	return defaultRegistry
}

// NewBuiltinRegistry returns a fresh registry with the five built-in runtimes.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()

	r.MustRegister(KindReverb, func(ctx Context, p Params) (Runtime, error) {
		set, err := newParamSet(KindReverb, ctx, p)
		if err != nil {
			return nil, err
		}

		return newReverbRuntime(fx.NewReverb(ctx.SampleRate), set), nil
	})
	r.MustRegister(KindDelay, func(ctx Context, p Params) (Runtime, error) {
		set, err := newParamSet(KindDelay, ctx, p)
		if err != nil {
			return nil, err
		}

		return newDelayRuntime(fx.NewDelay(ctx.SampleRate, delayCapacity), set), nil
	})
	r.MustRegister(KindDistortion, func(ctx Context, p Params) (Runtime, error) {
		set, err := newParamSet(KindDistortion, ctx, p)
		if err != nil {
			return nil, err
		}

		return newDistortionRuntime(fx.NewDistortion(ctx.SampleRate), set), nil
	})
	r.MustRegister(KindCompressor, func(ctx Context, p Params) (Runtime, error) {
		set, err := newParamSet(KindCompressor, ctx, p)
		if err != nil {
			return nil, err
		}

		return newCompressorRuntime(fx.NewCompressor(ctx.SampleRate), set), nil
	})
	r.MustRegister(KindEQ, func(ctx Context, p Params) (Runtime, error) {
		set, err := newParamSet(KindEQ, ctx, p)
		if err != nil {
			return nil, err
		}

		return newEQRuntime(ctx.SampleRate, set), nil
	})

	return r
}
