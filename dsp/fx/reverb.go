package fx

import (
	"math"

	"github.com/cwbudde/algo-fxrack/dsp/core"
)

const (
	reverbInputGain = 0.015
	reverbWetScale  = 3
	reverbTuningSR  = 44100

	reverbRoomOffset = 0.7
	reverbRoomScale  = 0.28
	reverbDampScale  = 0.4
	reverbAllpassFB  = 0.5
)

// Comb and allpass lengths tuned at 44.1 kHz.
var (
	reverbCombTuning    = [...]int{1116, 1188, 1277, 1356, 1422, 1491, 1557, 1617}
	reverbAllpassTuning = [...]int{556, 441, 341, 225}
)

// Reverb is a Schroeder/Freeverb reverb with a wet/dry crossfade.
type Reverb struct {
	room float64
	damp float64
	wet  float64

	combs   []comb
	allpass []allpass
}

type comb struct {
	buf      []float64
	idx      int
	store    float64
	feedback float64
	damp     float64
}

func (c *comb) process(x float64) float64 {
	out := c.buf[c.idx]
	c.store = core.FlushDenormals(out*(1-c.damp) + c.store*c.damp)
	c.buf[c.idx] = x + c.store*c.feedback

	if c.idx++; c.idx == len(c.buf) {
		c.idx = 0
	}

	return out
}

type allpass struct {
	buf []float64
	idx int
}

func (a *allpass) process(x float64) float64 {
	delayed := a.buf[a.idx]
	a.buf[a.idx] = x + delayed*reverbAllpassFB

	if a.idx++; a.idx == len(a.buf) {
		a.idx = 0
	}

	return delayed - x
}

// NewReverb builds a reverb for sampleRate. Delay lengths scale with the rate.
func NewReverb(sampleRate float64) *Reverb {
	scale := sampleRate / reverbTuningSR
	if scale <= 0 || !core.IsFinite(scale) {
		scale = 1
	}

	r := &Reverb{
		combs:   make([]comb, len(reverbCombTuning)),
		allpass: make([]allpass, len(reverbAllpassTuning)),
	}

	for i, n := range reverbCombTuning {
		r.combs[i].buf = make([]float64, max(1, int(math.Round(float64(n)*scale))))
	}

	for i, n := range reverbAllpassTuning {
		r.allpass[i].buf = make([]float64, max(1, int(math.Round(float64(n)*scale))))
	}

	r.SetRoom(0.5)
	r.SetDamp(0.3)
	r.SetWet(0.4)

	return r
}

// SetRoom sets the room size in [0, 1]; larger rooms decay longer.
func (r *Reverb) SetRoom(v float64) {
	r.room = core.Clamp(v, 0, 1)

	fb := reverbRoomOffset + r.room*reverbRoomScale
	for i := range r.combs {
		r.combs[i].feedback = fb
	}
}

// SetDamp sets high-frequency damping in [0, 1].
func (r *Reverb) SetDamp(v float64) {
	r.damp = core.Clamp(v, 0, 1)

	d := r.damp * reverbDampScale
	for i := range r.combs {
		r.combs[i].damp = d
	}
}

// SetWet sets the wet/dry mix in [0, 1]; 0 is fully dry.
func (r *Reverb) SetWet(v float64) { r.wet = core.Clamp(v, 0, 1) }

// Room returns the room size.
func (r *Reverb) Room() float64 { return r.room }

// Damp returns the damping amount.
func (r *Reverb) Damp() float64 { return r.damp }

// Wet returns the wet/dry mix.
func (r *Reverb) Wet() float64 { return r.wet }

// ProcessSample processes one sample.
func (r *Reverb) ProcessSample(x float64) float64 {
	in := x * reverbInputGain

	var acc float64
	for i := range r.combs {
		acc += r.combs[i].process(in)
	}

	for i := range r.allpass {
		acc = r.allpass[i].process(acc)
	}

	return x*(1-r.wet) + acc*reverbWetScale*r.wet
}

// ProcessInPlace applies the reverb to buf.
func (r *Reverb) ProcessInPlace(buf []float64) {
	for i, x := range buf {
		buf[i] = r.ProcessSample(x)
	}
}

// Reset clears the reverb tail.
func (r *Reverb) Reset() {
	for i := range r.combs {
		core.Zero(r.combs[i].buf)
		r.combs[i].idx = 0
		r.combs[i].store = 0
	}

	for i := range r.allpass {
		core.Zero(r.allpass[i].buf)
		r.allpass[i].idx = 0
	}
}
