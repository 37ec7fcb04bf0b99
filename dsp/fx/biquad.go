package fx

import (
	"math"

	"github.com/cwbudde/algo-fxrack/dsp/core"
)

// Coefficients of one normalized second-order section (a0 = 1).
//
//	y  = B0*x + d0
//	d0 = B1*x - A1*y + d1
//	d1 = B2*x - A2*y
type Coefficients struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// Identity passes the signal unchanged.
var Identity = Coefficients{B0: 1}

// Biquad is a Direct Form II Transposed section.
type Biquad struct {
	Coefficients

	d0, d1 float64
}

// ProcessSample filters one sample.
func (s *Biquad) ProcessSample(x float64) float64 {
	y := s.B0*x + s.d0
	s.d0 = s.B1*x - s.A1*y + s.d1
	s.d1 = s.B2*x - s.A2*y

	return y
}

// ProcessInPlace filters buf.
func (s *Biquad) ProcessInPlace(buf []float64) {
	for i, x := range buf {
		buf[i] = s.ProcessSample(x)
	}

	s.d0 = core.FlushDenormals(s.d0)
	s.d1 = core.FlushDenormals(s.d1)
}

// Reset clears the filter state.
func (s *Biquad) Reset() { s.d0, s.d1 = 0, 0 }

// PeakRBJ designs a peaking bell (RBJ cookbook).
func PeakRBJ(freq, gainDB, q, sampleRate float64) Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return Identity
	}

	cw, sw := math.Cos(w0), math.Sin(w0)
	alpha := sw / (2 * q)
	a := math.Pow(10, gainDB/40)

	return normalize(
		1+alpha*a, -2*cw, 1-alpha*a,
		1+alpha/a, -2*cw, 1-alpha/a,
	)
}

// LowShelfRBJ designs a low shelf with slope 1 (RBJ cookbook).
func LowShelfRBJ(freq, gainDB, sampleRate float64) Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return Identity
	}

	cw, sw := math.Cos(w0), math.Sin(w0)
	a := math.Pow(10, gainDB/40)
	beta := 2 * math.Sqrt(a) * sw / math.Sqrt2

	return normalize(
		a*((a+1)-(a-1)*cw+beta), 2*a*((a-1)-(a+1)*cw), a*((a+1)-(a-1)*cw-beta),
		(a+1)+(a-1)*cw+beta, -2*((a-1)+(a+1)*cw), (a+1)+(a-1)*cw-beta,
	)
}

// HighShelfRBJ designs a high shelf with slope 1 (RBJ cookbook).
func HighShelfRBJ(freq, gainDB, sampleRate float64) Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return Identity
	}

	cw, sw := math.Cos(w0), math.Sin(w0)
	a := math.Pow(10, gainDB/40)
	beta := 2 * math.Sqrt(a) * sw / math.Sqrt2

	return normalize(
		a*((a+1)+(a-1)*cw+beta), -2*a*((a-1)+(a+1)*cw), a*((a+1)+(a-1)*cw-beta),
		(a+1)-(a-1)*cw+beta, 2*((a-1)-(a+1)*cw), (a+1)-(a-1)*cw-beta,
	)
}

func normalizedW0(freq, sampleRate float64) (float64, bool) {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) || !core.IsFinite(freq) {
		return 0, false
	}

	if freq <= 0 || freq >= sampleRate/2 {
		return 0, false
	}

	return 2 * math.Pi * freq / sampleRate, true
}

func normalize(b0, b1, b2, a0, a1, a2 float64) Coefficients {
	if a0 == 0 || !core.IsFinite(a0) {
		return Identity
	}

	return Coefficients{B0: b0 / a0, B1: b1 / a0, B2: b2 / a0, A1: a1 / a0, A2: a2 / a0}
}
