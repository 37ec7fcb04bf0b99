package audio

import "sync"

// RenderFunc produces the next len(out) mono frames.
type RenderFunc func(out []float64)

// Device is an output sink that pulls audio from a Context.
type Device interface {
	// Open prepares the device. bufferFrames is a latency hint.
	Open(sampleRate float64, bufferFrames int, render RenderFunc) error
	Suspend() error
	Resume() error
	Close() error
}

// PullDevice is a Device driven by its caller: nothing is rendered until
// Pull is called. It backs offline rendering, tests and hosts that own the
// real-time callback themselves (for example a browser AudioWorklet).
type PullDevice struct {
	mu     sync.Mutex
	render RenderFunc
	closed bool
}

// NewPullDevice returns an unopened PullDevice.
func NewPullDevice() *PullDevice {
	return &PullDevice{}
}

func (d *PullDevice) Open(_ float64, _ int, render RenderFunc) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}

	d.render = render

	return nil
}

func (d *PullDevice) Suspend() error { return nil }

func (d *PullDevice) Resume() error { return nil }

func (d *PullDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	d.render = nil

	return nil
}

// Pull renders len(out) frames. Before Open or after Close it writes silence.
func (d *PullDevice) Pull(out []float64) {
	d.mu.Lock()
	render := d.render
	d.mu.Unlock()

	if render == nil {
		for i := range out {
			out[i] = 0
		}

		return
	}

	render(out)
}

// PullFloat32 is Pull for hosts that exchange float32 samples.
func (d *PullDevice) PullFloat32(out []float32, scratch []float64) []float64 {
	if cap(scratch) < len(out) {
		scratch = make([]float64, len(out))
	}

	scratch = scratch[:len(out)]
	d.Pull(scratch)

	for i, v := range scratch {
		out[i] = float32(v)
	}

	return scratch
}
