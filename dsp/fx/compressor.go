package fx

import (
	"math"

	"github.com/cwbudde/algo-fxrack/dsp/core"
)

const (
	compressorKneeDB    = 6.0
	compressorMinTime   = 0.0001
	compressorMinRatio  = 1.0
	compressorMaxRatio  = 20.0
	compressorMinThresh = -96.0
	compressorLog2PerDB = 0.166096404744 // log2(10) / 20
	compressorDBPerLog2 = 1 / compressorLog2PerDB
)

// Compressor is a feed-forward peak compressor with a fixed soft knee,
// computed in the log2 domain.
type Compressor struct {
	sampleRate float64

	thresholdDB float64
	ratio       float64
	attack      float64
	release     float64

	thresholdLog2 float64
	slope         float64
	attackCoeff   float64
	releaseCoeff  float64

	envelope   float64
	lastGainDB float64
}

// NewCompressor builds a compressor for sampleRate.
func NewCompressor(sampleRate float64) *Compressor {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		sampleRate = 48000
	}

	c := &Compressor{sampleRate: sampleRate}
	c.SetThreshold(-20)
	c.SetRatio(4)
	c.SetAttack(0.1)
	c.SetRelease(0.3)

	return c
}

// SetThreshold sets the threshold in dBFS.
func (c *Compressor) SetThreshold(db float64) {
	c.thresholdDB = core.Clamp(db, compressorMinThresh, 0)
	c.thresholdLog2 = c.thresholdDB * compressorLog2PerDB
}

// SetRatio sets the compression ratio (n:1).
func (c *Compressor) SetRatio(ratio float64) {
	c.ratio = core.Clamp(ratio, compressorMinRatio, compressorMaxRatio)
	c.slope = 1 - 1/c.ratio
}

// SetAttack sets the attack time in seconds.
func (c *Compressor) SetAttack(seconds float64) {
	c.attack = max(seconds, compressorMinTime)
	c.attackCoeff = 1 - math.Exp(-math.Ln2/(c.attack*c.sampleRate))
}

// SetRelease sets the release time in seconds.
func (c *Compressor) SetRelease(seconds float64) {
	c.release = max(seconds, compressorMinTime)
	c.releaseCoeff = math.Exp(-math.Ln2 / (c.release * c.sampleRate))
}

// Threshold returns the threshold in dBFS.
func (c *Compressor) Threshold() float64 { return c.thresholdDB }

// Ratio returns the compression ratio.
func (c *Compressor) Ratio() float64 { return c.ratio }

// Attack returns the attack time in seconds.
func (c *Compressor) Attack() float64 { return c.attack }

// Release returns the release time in seconds.
func (c *Compressor) Release() float64 { return c.release }

// GainReductionDB returns the reduction applied to the last sample, as a
// non-negative number of decibels.
func (c *Compressor) GainReductionDB() float64 { return -c.lastGainDB }

// ProcessSample processes one sample.
func (c *Compressor) ProcessSample(x float64) float64 {
	level := math.Abs(x)

	if level > c.envelope {
		c.envelope += (level - c.envelope) * c.attackCoeff
	} else {
		c.envelope = level + (c.envelope-level)*c.releaseCoeff
	}

	c.envelope = core.FlushDenormals(c.envelope)

	gainLog2 := c.gainLog2(c.envelope)
	c.lastGainDB = gainLog2 * compressorDBPerLog2

	if gainLog2 == 0 {
		return x
	}

	return x * mathPower2(gainLog2)
}

// ProcessInPlace compresses buf.
func (c *Compressor) ProcessInPlace(buf []float64) {
	for i, x := range buf {
		buf[i] = c.ProcessSample(x)
	}
}

// StaticGainDB returns the steady-state gain change in dB for a constant
// input peak level given in dBFS.
func (c *Compressor) StaticGainDB(levelDB float64) float64 {
	return c.gainLog2(core.DBToLinear(levelDB)) * compressorDBPerLog2
}

// Reset clears the envelope follower.
func (c *Compressor) Reset() {
	c.envelope = 0
	c.lastGainDB = 0
}

func (c *Compressor) gainLog2(peak float64) float64 {
	if peak <= 0 {
		return 0
	}

	over := mathLog2(peak) - c.thresholdLog2
	half := compressorKneeDB * compressorLog2PerDB * 0.5

	switch {
	case over <= -half:
		return 0
	case over < half:
		s := over + half
		over = s * s / (4 * half)
	}

	return -over * c.slope
}
