package effectchain

import (
	"github.com/cwbudde/algo-fxrack/dsp/audio"
	"github.com/cwbudde/algo-fxrack/dsp/fx"
)

type distortionRuntime struct {
	paramSet

	fx         *fx.Distortion
	gain, tone *audio.Param
}

func newDistortionRuntime(d *fx.Distortion, set paramSet) *distortionRuntime {
	rt := &distortionRuntime{
		paramSet: set,
		fx:       d,
		gain:     set.must("gain"),
		tone:     set.must("tone"),
	}
	rt.fx.SetGain(rt.gain.Current())
	rt.fx.SetTone(rt.tone.Current())

	return rt
}

func (r *distortionRuntime) Process(block []float64) {
	n := len(block)
	r.fx.SetGain(r.gain.Advance(n))
	r.fx.SetTone(r.tone.Advance(n))
	r.fx.ProcessInPlace(block)
}

// eqRuntime recomputes band coefficients only when a gain moved.
type eqRuntime struct {
	paramSet

	sampleRate     float64
	fx             *fx.EQ
	low, mid, high *audio.Param
}

func newEQRuntime(sampleRate float64, set paramSet) *eqRuntime {
	rt := &eqRuntime{
		paramSet:   set,
		sampleRate: sampleRate,
		fx:         fx.NewEQ(sampleRate),
		low:        set.must("low"),
		mid:        set.must("mid"),
		high:       set.must("high"),
	}
	rt.fx.SetLow(rt.low.Current())
	rt.fx.SetMid(rt.mid.Current())
	rt.fx.SetHigh(rt.high.Current())

	return rt
}

func (r *eqRuntime) Process(block []float64) {
	n := len(block)
	low, mid, high := r.fx.Gains()

	if v := r.low.Advance(n); v != low {
		r.fx.SetLow(v)
	}

	if v := r.mid.Advance(n); v != mid {
		r.fx.SetMid(v)
	}

	if v := r.high.Advance(n); v != high {
		r.fx.SetHigh(v)
	}

	r.fx.ProcessInPlace(block)
}

// MagnitudeResponseDB evaluates the response of the parameter targets on a
// private filter copy; it never touches render-side state.
func (r *eqRuntime) MagnitudeResponseDB(size int) ([]float64, error) {
	eq := fx.NewEQ(r.sampleRate)
	eq.SetLow(r.low.Target())
	eq.SetMid(r.mid.Target())
	eq.SetHigh(r.high.Target())

	return eq.MagnitudeResponseDB(size)
}
