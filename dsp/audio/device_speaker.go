//go:build (linux && cgo) || windows || darwin

package audio

import (
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// SpeakerAvailable reports whether this build can drive the system speaker.
const SpeakerAvailable = true

// SpeakerDevice plays a Context through the process-wide beep speaker.
// Only one SpeakerDevice should be open at a time.
type SpeakerDevice struct {
	mu      sync.Mutex
	opened  bool
	scratch []float64
}

// NewSpeakerDevice returns a device for the default system output.
func NewSpeakerDevice() (*SpeakerDevice, error) {
	return &SpeakerDevice{}, nil
}

func (d *SpeakerDevice) Open(sampleRate float64, bufferFrames int, render RenderFunc) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	sr := beep.SampleRate(int(sampleRate))
	if err := speaker.Init(sr, max(bufferFrames, 1)); err != nil {
		return err
	}

	d.opened = true

	speaker.Play(beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if cap(d.scratch) < len(samples) {
			d.scratch = make([]float64, len(samples))
		}

		mono := d.scratch[:len(samples)]
		render(mono)

		for i, v := range mono {
			samples[i][0] = v
			samples[i][1] = v
		}

		return len(samples), true
	}))

	return nil
}

func (d *SpeakerDevice) Suspend() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.opened {
		return nil
	}

	return speaker.Suspend()
}

func (d *SpeakerDevice) Resume() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.opened {
		return nil
	}

	return speaker.Resume()
}

func (d *SpeakerDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.opened {
		return nil
	}

	d.opened = false
	speaker.Clear()
	speaker.Close()

	return nil
}
