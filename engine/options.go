package engine

import (
	"log/slog"
	"time"

	"github.com/cwbudde/algo-fxrack/dsp/audio"
	"github.com/cwbudde/algo-fxrack/dsp/core"
	"github.com/cwbudde/algo-fxrack/dsp/effectchain"
	"github.com/cwbudde/algo-fxrack/notes"
)

// Defaults applied by New.
const (
	DefaultSampleRate = 48000.0
	DefaultBlockSize  = 128
	DefaultMasterGain = 0.8
)

// DeviceFactory opens the output device at Initialize. Returning an error
// wrapping audio.ErrUnsupported (or a nil device) means no audio is available.
type DeviceFactory func() (audio.Device, error)

// SpeakerDevices opens the system speaker.
func SpeakerDevices() DeviceFactory {
	return func() (audio.Device, error) {
		return audio.NewSpeakerDevice()
	}
}

// PullDevices opens a fresh audio.PullDevice on every Initialize. Audio is
// then produced by calling (*Engine).Render.
func PullDevices() DeviceFactory {
	return func() (audio.Device, error) {
		return audio.NewPullDevice(), nil
	}
}

type config struct {
	sampleRate float64
	blockSize  int
	latency    time.Duration
	device     DeviceFactory
	ramp       time.Duration
	logger     *slog.Logger
	seed       []effectchain.Kind
	registry   *effectchain.Registry
	masterGain float64
	tempo      int
}

func defaultConfig() config {
	return config{
		sampleRate: DefaultSampleRate,
		blockSize:  DefaultBlockSize,
		device:     SpeakerDevices(),
		ramp:       effectchain.DefaultRampTime,
		logger:     slog.New(slog.DiscardHandler),
		masterGain: DefaultMasterGain,
		tempo:      notes.DefaultTempo,
	}
}

// Option configures New.
type Option func(*config)

// WithSampleRate sets the render sample rate in Hz. Non-positive values are ignored.
func WithSampleRate(sampleRate float64) Option {
	return func(c *config) {
		if sampleRate > 0 {
			c.sampleRate = sampleRate
		}
	}
}

// WithBlockSize sets the render quantum in frames. Non-positive values are ignored.
func WithBlockSize(blockSize int) Option {
	return func(c *config) {
		if blockSize > 0 {
			c.blockSize = blockSize
		}
	}
}

// WithLatency sets the output buffer length requested from the device.
// Non-positive values keep the device default.
func WithLatency(d time.Duration) Option {
	return func(c *config) { c.latency = d }
}

// WithDevice selects the output device.
func WithDevice(f DeviceFactory) Option {
	return func(c *config) { c.device = f }
}

// WithRampTime sets the glide for parameter and master gain writes.
func WithRampTime(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.ramp = d
		}
	}
}

// WithLogger sets the structured logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDefaultRack seeds the chain with a reverb followed by a delay.
func WithDefaultRack() Option {
	return WithSeed(effectchain.KindReverb, effectchain.KindDelay)
}

// WithSeed seeds the chain with kinds, in order.
func WithSeed(kinds ...effectchain.Kind) Option {
	return func(c *config) { c.seed = append([]effectchain.Kind(nil), kinds...) }
}

// WithRegistry builds effect units from r.
func WithRegistry(r *effectchain.Registry) Option {
	return func(c *config) { c.registry = r }
}

// WithMasterGain sets the initial master gain, clamped to [0,1].
func WithMasterGain(v float64) Option {
	return func(c *config) {
		if core.IsFinite(v) {
			c.masterGain = min(max(v, 0), 1)
		}
	}
}
