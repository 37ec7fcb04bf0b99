package effectchain

import (
	"github.com/cwbudde/algo-fxrack/dsp/audio"
	"github.com/cwbudde/algo-fxrack/dsp/fx"
)

type compressorRuntime struct {
	paramSet

	fx                                *fx.Compressor
	threshold, ratio, attack, release *audio.Param
}

func newCompressorRuntime(c *fx.Compressor, set paramSet) *compressorRuntime {
	rt := &compressorRuntime{
		paramSet:  set,
		fx:        c,
		threshold: set.must("threshold"),
		ratio:     set.must("ratio"),
		attack:    set.must("attack"),
		release:   set.must("release"),
	}
	rt.apply(0)

	return rt
}

func (r *compressorRuntime) apply(n int) {
	r.fx.SetThreshold(r.threshold.Advance(n))
	r.fx.SetRatio(r.ratio.Advance(n))
	r.fx.SetAttack(r.attack.Advance(n))
	r.fx.SetRelease(r.release.Advance(n))
}

func (r *compressorRuntime) Process(block []float64) {
	r.apply(len(block))
	r.fx.ProcessInPlace(block)
}
