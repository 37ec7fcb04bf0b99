package audio

import "time"

const (
	defaultSampleRate = 48000
	defaultBlockSize  = 128
	defaultLatency    = 100 * time.Millisecond
)

type config struct {
	sampleRate float64
	blockSize  int
	latency    time.Duration
}

// Option configures a Context.
type Option func(*config)

func defaultConfig() config {
	return config{
		sampleRate: defaultSampleRate,
		blockSize:  defaultBlockSize,
		latency:    defaultLatency,
	}
}

// WithSampleRate sets the context sample rate in Hz.
func WithSampleRate(sampleRate float64) Option {
	return func(c *config) {
		if sampleRate > 0 {
			c.sampleRate = sampleRate
		}
	}
}

// WithBlockSize sets the render quantum in frames.
func WithBlockSize(blockSize int) Option {
	return func(c *config) {
		if blockSize > 0 {
			c.blockSize = blockSize
		}
	}
}

// WithLatency sets the output buffer length requested from the device.
func WithLatency(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.latency = d
		}
	}
}
