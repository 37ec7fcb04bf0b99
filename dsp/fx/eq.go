package fx

import (
	"errors"
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-fxrack/dsp/core"
)

// Band centre frequencies of the three-band equalizer.
const (
	EQLowFreq  = 100.0
	EQMidFreq  = 1000.0
	EQHighFreq = 6000.0
	EQMidQ     = 1.2

	eqMaxGainDB = 24.0
)

// ErrResponseSize is returned for response sizes that are not a power of two
// of at least 16.
var ErrResponseSize = errors.New("fx: response size must be a power of two >= 16")

// EQ is a three-band equalizer: low shelf, mid peak and high shelf.
type EQ struct {
	sampleRate float64

	low, mid, high float64
	bands          [3]Biquad
}

// NewEQ builds a flat equalizer for sampleRate.
func NewEQ(sampleRate float64) *EQ {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		sampleRate = 48000
	}

	e := &EQ{sampleRate: sampleRate}
	e.SetLow(0)
	e.SetMid(0)
	e.SetHigh(0)

	return e
}

// SetLow sets the low shelf gain in dB.
func (e *EQ) SetLow(db float64) {
	e.low = core.Clamp(db, -eqMaxGainDB, eqMaxGainDB)
	e.bands[0].Coefficients = LowShelfRBJ(EQLowFreq, e.low, e.sampleRate)
}

// SetMid sets the mid peak gain in dB.
func (e *EQ) SetMid(db float64) {
	e.mid = core.Clamp(db, -eqMaxGainDB, eqMaxGainDB)
	e.bands[1].Coefficients = PeakRBJ(EQMidFreq, e.mid, EQMidQ, e.sampleRate)
}

// SetHigh sets the high shelf gain in dB.
func (e *EQ) SetHigh(db float64) {
	e.high = core.Clamp(db, -eqMaxGainDB, eqMaxGainDB)
	e.bands[2].Coefficients = HighShelfRBJ(EQHighFreq, e.high, e.sampleRate)
}

// Gains returns the low, mid and high gains in dB.
func (e *EQ) Gains() (low, mid, high float64) { return e.low, e.mid, e.high }

// ProcessInPlace filters buf through all three bands.
func (e *EQ) ProcessInPlace(buf []float64) {
	for i := range e.bands {
		e.bands[i].ProcessInPlace(buf)
	}
}

// Reset clears the filter state.
func (e *EQ) Reset() {
	for i := range e.bands {
		e.bands[i].Reset()
	}
}

// responseLength is the minimum impulse response length transformed by
// MagnitudeResponseDB. The low shelf needs several thousand samples to decay.
const responseLength = 16384

// MagnitudeResponseDB returns the magnitude response of the current settings
// in dB for bins 0..size/2. Bin k lies at k*sampleRate/size Hz. The live
// filter state is not touched.
func (e *EQ) MagnitudeResponseDB(size int) ([]float64, error) {
	if size < 16 || size&(size-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrResponseSize, size)
	}

	n := max(size, responseLength)
	step := n / size

	var bands [3]Biquad
	for i := range bands {
		bands[i].Coefficients = e.bands[i].Coefficients
	}

	ir := make([]float64, n)
	ir[0] = 1

	for i := range bands {
		bands[i].ProcessInPlace(ir)
	}

	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("fx: fft plan: %w", err)
	}

	spec := make([]complex128, n)
	for i, v := range ir {
		spec[i] = complex(v, 0)
	}

	if err := plan.Forward(spec, spec); err != nil {
		return nil, fmt.Errorf("fx: fft: %w", err)
	}

	bins := size/2 + 1
	re := make([]float64, bins)
	im := make([]float64, bins)

	for k := range bins {
		re[k] = real(spec[k*step])
		im[k] = imag(spec[k*step])
	}

	mag := make([]float64, bins)
	vecmath.Magnitude(mag, re, im)

	for k, m := range mag {
		mag[k] = core.LinearToDB(max(m, 1e-12))
	}

	return mag, nil
}

// BinFrequency returns the centre frequency of response bin k.
func BinFrequency(k, size int, sampleRate float64) float64 {
	return float64(k) * sampleRate / float64(size)
}
