package fx

import (
	"math"

	"github.com/cwbudde/algo-fxrack/dsp/core"
)

const (
	delayMinTime     = 0.001
	delayMaxFeedback = 0.99
)

// Delay is a feedback delay line with a fractional, modulatable delay time.
type Delay struct {
	sampleRate float64
	maxTime    float64

	time     float64
	samples  float64
	feedback float64
	wet      float64

	buf   []float64
	write int
}

// NewDelay builds a delay able to reach maxTime seconds.
func NewDelay(sampleRate, maxTime float64) *Delay {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		sampleRate = 48000
	}

	maxTime = max(maxTime, delayMinTime)

	d := &Delay{
		sampleRate: sampleRate,
		maxTime:    maxTime,
		buf:        make([]float64, int(math.Ceil(maxTime*sampleRate))+2),
	}

	d.SetTime(0.3)
	d.SetFeedback(0.2)
	d.SetWet(0.3)

	return d
}

// SetTime sets the delay time in seconds, limited to the buffer capacity.
func (d *Delay) SetTime(seconds float64) {
	d.time = core.Clamp(seconds, delayMinTime, d.maxTime)
	d.samples = d.time * d.sampleRate
}

// SetFeedback sets the fraction of the delayed signal fed back.
func (d *Delay) SetFeedback(v float64) { d.feedback = core.Clamp(v, 0, delayMaxFeedback) }

// SetWet sets the wet/dry mix in [0, 1].
func (d *Delay) SetWet(v float64) { d.wet = core.Clamp(v, 0, 1) }

// Time returns the delay time in seconds.
func (d *Delay) Time() float64 { return d.time }

// Feedback returns the feedback amount.
func (d *Delay) Feedback() float64 { return d.feedback }

// Wet returns the wet/dry mix.
func (d *Delay) Wet() float64 { return d.wet }

// ProcessSample processes one sample.
func (d *Delay) ProcessSample(x float64) float64 {
	delayed := d.read()

	d.buf[d.write] = core.FlushDenormals(x + delayed*d.feedback)
	if d.write++; d.write == len(d.buf) {
		d.write = 0
	}

	return x*(1-d.wet) + delayed*d.wet
}

// ProcessInPlace applies the delay to buf.
func (d *Delay) ProcessInPlace(buf []float64) {
	for i, x := range buf {
		buf[i] = d.ProcessSample(x)
	}
}

// Reset clears the delay line.
func (d *Delay) Reset() {
	core.Zero(d.buf)
	d.write = 0
}

// read returns the sample written d.samples ago, linearly interpolated.
func (d *Delay) read() float64 {
	n := len(d.buf)
	pos := float64(d.write) - d.samples

	for pos < 0 {
		pos += float64(n)
	}

	i0 := int(pos)
	frac := pos - float64(i0)
	i1 := i0 + 1

	if i0 >= n {
		i0 -= n
	}

	if i1 >= n {
		i1 -= n
	}

	return d.buf[i0]*(1-frac) + d.buf[i1]*frac
}
