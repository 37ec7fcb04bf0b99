package fx

import (
	"math"

	"github.com/cwbudde/algo-fxrack/dsp/core"
)

const (
	distortionMaxDrive = 20
	toneMinHz          = 300
	toneOctaves        = 6
)

// Distortion is a tanh waveshaper followed by a one-pole tone filter.
type Distortion struct {
	sampleRate float64

	gain  float64
	tone  float64
	drive float64
	norm  float64

	coeff float64
	state float64
}

// NewDistortion builds a distortion for sampleRate.
func NewDistortion(sampleRate float64) *Distortion {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		sampleRate = 48000
	}

	d := &Distortion{sampleRate: sampleRate}
	d.SetGain(0.5)
	d.SetTone(0.5)

	return d
}

// SetGain sets the drive amount in [0, 1]. 0 is a gentle saturation.
func (d *Distortion) SetGain(v float64) {
	d.gain = core.Clamp(v, 0, 1)
	d.drive = 1 + d.gain*(distortionMaxDrive-1)
	d.norm = 1 / math.Tanh(d.drive)
}

// SetTone sets the brightness in [0, 1], mapped exponentially onto the
// tone filter cutoff.
func (d *Distortion) SetTone(v float64) {
	d.tone = core.Clamp(v, 0, 1)

	cutoff := min(toneMinHz*math.Exp2(d.tone*toneOctaves), 0.45*d.sampleRate)
	d.coeff = 1 - math.Exp(-2*math.Pi*cutoff/d.sampleRate)
}

// Gain returns the drive amount.
func (d *Distortion) Gain() float64 { return d.gain }

// Tone returns the tone setting.
func (d *Distortion) Tone() float64 { return d.tone }

// ProcessSample processes one sample. Output stays within [-1, 1].
func (d *Distortion) ProcessSample(x float64) float64 {
	shaped := math.Tanh(d.drive*x) * d.norm
	d.state = core.FlushDenormals(d.state + d.coeff*(shaped-d.state))

	return d.state
}

// ProcessInPlace applies the distortion to buf.
func (d *Distortion) ProcessInPlace(buf []float64) {
	for i, x := range buf {
		buf[i] = d.ProcessSample(x)
	}
}

// Reset clears the tone filter state.
func (d *Distortion) Reset() { d.state = 0 }
