package effectchain

import (
	"github.com/cwbudde/algo-fxrack/dsp/audio"
	"github.com/cwbudde/algo-fxrack/dsp/fx"
)

type reverbRuntime struct {
	paramSet

	fx              *fx.Reverb
	room, damp, wet *audio.Param
}

func newReverbRuntime(r *fx.Reverb, set paramSet) *reverbRuntime {
	rt := &reverbRuntime{
		paramSet: set,
		fx:       r,
		room:     set.must("room"),
		damp:     set.must("damp"),
		wet:      set.must("wet"),
	}
	rt.fx.SetRoom(rt.room.Current())
	rt.fx.SetDamp(rt.damp.Current())
	rt.fx.SetWet(rt.wet.Current())

	return rt
}

func (r *reverbRuntime) Process(block []float64) {
	n := len(block)
	r.fx.SetRoom(r.room.Advance(n))
	r.fx.SetDamp(r.damp.Advance(n))
	r.fx.SetWet(r.wet.Advance(n))
	r.fx.ProcessInPlace(block)
}

// delayRuntime updates the delay time per sample so time ramps glide
// instead of jumping between read positions.
type delayRuntime struct {
	paramSet

	fx                  *fx.Delay
	time, feedback, wet *audio.Param
}

func newDelayRuntime(d *fx.Delay, set paramSet) *delayRuntime {
	rt := &delayRuntime{
		paramSet: set,
		fx:       d,
		time:     set.must("time"),
		feedback: set.must("feedback"),
		wet:      set.must("wet"),
	}
	rt.fx.SetTime(rt.time.Current())
	rt.fx.SetFeedback(rt.feedback.Current())
	rt.fx.SetWet(rt.wet.Current())

	return rt
}

func (r *delayRuntime) Process(block []float64) {
	n := len(block)
	r.fx.SetFeedback(r.feedback.Advance(n))
	r.fx.SetWet(r.wet.Advance(n))

	for i, x := range block {
		r.fx.SetTime(r.time.Next())
		block[i] = r.fx.ProcessSample(x)
	}
}
