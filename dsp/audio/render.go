package audio

import (
	"github.com/cwbudde/algo-fxrack/dsp/core"
	vecmath "github.com/cwbudde/algo-vecmath"
)

// Render fills out with the next len(out) mono frames. A context that is not
// running renders silence and does not advance the clock.
func (c *Context) Render(out []float64) {
	if c.State() != StateRunning {
		core.Zero(out)
		return
	}

	pl := c.plan.Load()
	if pl == nil {
		core.Zero(out)
		return
	}

	bs := c.cfg.blockSize
	for off := 0; off < len(out); off += bs {
		n := min(bs, len(out)-off)
		pl.run(n)
		copy(out[off:off+n], pl.steps[pl.dest].buf[:n])
	}

	c.frames.Add(int64(len(out)))
}

func (pl *plan) run(n int) {
	for i := range pl.steps {
		s := &pl.steps[i]
		buf := s.buf[:n]
		core.Zero(buf)

		for _, j := range s.inputs {
			vecmath.AddBlockInPlace(buf, pl.steps[j].buf[:n])
		}

		if s.kernel != nil {
			s.kernel.Process(buf)
		}
	}
}

type gainKernel struct {
	gain *Param
	ramp []float64
}

func (g *gainKernel) Process(block []float64) {
	ramp := core.EnsureLen(g.ramp, len(block))
	g.ramp = ramp
	g.gain.Fill(ramp)
	vecmath.MulBlockInPlace(block, ramp)
}
