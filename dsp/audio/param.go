package audio

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-fxrack/dsp/core"
)

// Param is a continuously adjustable node parameter.
//
// Control code calls RampTo or SetValue from any goroutine. The render thread
// reads the value through Next, Fill or Advance; those methods are not safe
// for concurrent use with each other.
type Param struct {
	min        float64
	max        float64
	sampleRate float64

	target  atomic.Uint64
	ramp    atomic.Int64
	version atomic.Uint64

	// render side
	current   float64
	goal      float64
	step      float64
	remaining int64
	seen      uint64
}

// NewParam returns a parameter bounded to [min, max] starting at value.
func NewParam(value, min, max, sampleRate float64) *Param {
	if min > max {
		min, max = max, min
	}

	value = core.Clamp(value, min, max)
	p := &Param{
		min:        min,
		max:        max,
		sampleRate: sampleRate,
		current:    value,
		goal:       value,
	}
	p.target.Store(math.Float64bits(value))

	return p
}

// Min returns the lower bound.
func (p *Param) Min() float64 { return p.min }

// Max returns the upper bound.
func (p *Param) Max() float64 { return p.max }

// Target returns the most recently requested value.
func (p *Param) Target() float64 {
	return math.Float64frombits(p.target.Load())
}

// RampTo schedules a linear ramp from the current value to value over d.
// The value is clamped into the parameter range; the applied target is returned.
// Non-finite values are ignored and the previous target is returned.
func (p *Param) RampTo(value float64, d time.Duration) float64 {
	if !core.IsFinite(value) {
		return p.Target()
	}

	value = core.Clamp(value, p.min, p.max)

	samples := int64(math.Round(d.Seconds() * p.sampleRate))
	if samples < 0 {
		samples = 0
	}

	p.target.Store(math.Float64bits(value))
	p.ramp.Store(samples)
	p.version.Add(1)

	return value
}

// SetValue jumps to value at the start of the next rendered sample.
func (p *Param) SetValue(value float64) float64 {
	return p.RampTo(value, 0)
}

// Next advances the parameter by one sample and returns the new value.
func (p *Param) Next() float64 {
	p.refresh()

	return p.tick()
}

// Fill writes the next len(dst) per-sample values into dst.
func (p *Param) Fill(dst []float64) {
	p.refresh()

	if p.remaining == 0 {
		core.Fill(dst, p.current)
		return
	}

	for i := range dst {
		dst[i] = p.tick()
	}
}

// Advance moves the parameter forward by n samples and returns the value
// reached. Kernels that update coefficients per block use it.
func (p *Param) Advance(n int) float64 {
	p.refresh()

	if p.remaining == 0 || n <= 0 {
		return p.current
	}

	k := min(int64(n), p.remaining)
	p.remaining -= k

	if p.remaining == 0 {
		p.current = p.goal
	} else {
		p.current += p.step * float64(k)
	}

	return p.current
}

// Current returns the value reached by the render side so far.
func (p *Param) Current() float64 {
	return p.current
}

func (p *Param) tick() float64 {
	if p.remaining > 0 {
		p.remaining--
		if p.remaining == 0 {
			p.current = p.goal
		} else {
			p.current += p.step
		}
	}

	return p.current
}

func (p *Param) refresh() {
	v := p.version.Load()
	if v == p.seen {
		return
	}

	p.seen = v
	p.goal = math.Float64frombits(p.target.Load())

	n := p.ramp.Load()
	if n <= 0 {
		p.current = p.goal
		p.remaining = 0

		return
	}

	p.step = (p.goal - p.current) / float64(n)
	p.remaining = n
}
