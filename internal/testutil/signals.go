package testutil

import (
	"math"
	"math/rand"
)

// Sine returns length samples of a sine wave at freqHz.
func Sine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate

	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}

	return out
}

// Noise returns seeded white noise in [-amplitude, amplitude].
func Noise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))

	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}

	return out
}

// Impulse returns a unit impulse at pos.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}

	return out
}

// DC returns a constant signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}

	return out
}

// RMS returns the root mean square of x. An empty slice has RMS 0.
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}

	var sum float64
	for _, v := range x {
		sum += v * v
	}

	return math.Sqrt(sum / float64(len(x)))
}

// Peak returns the largest absolute sample value in x.
func Peak(x []float64) float64 {
	var peak float64
	for _, v := range x {
		peak = max(peak, math.Abs(v))
	}

	return peak
}

// FirstNonZero returns the index of the first sample whose magnitude exceeds
// eps, or -1.
func FirstNonZero(x []float64, eps float64) int {
	for i, v := range x {
		if math.Abs(v) > eps {
			return i
		}
	}

	return -1
}
