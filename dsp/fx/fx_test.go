package fx

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/cwbudde/algo-fxrack/internal/testutil"
)

func TestReverbDryAtZeroWet(t *testing.T) {
	t.Parallel()

	r := NewReverb(48000)
	r.SetWet(0)

	in := testutil.Noise(7, 0.5, 512)
	out := append([]float64(nil), in...)
	r.ProcessInPlace(out)

	testutil.RequireSliceNearlyEqual(t, out, in, 0)
}

func TestReverbTail(t *testing.T) {
	t.Parallel()

	short := NewReverb(48000)
	short.SetWet(1)
	short.SetRoom(0)

	long := NewReverb(48000)
	long.SetWet(1)
	long.SetRoom(1)

	a := testutil.Impulse(48000, 0)
	b := testutil.Impulse(48000, 0)
	short.ProcessInPlace(a)
	long.ProcessInPlace(b)

	testutil.RequireFinite(t, a)
	testutil.RequireFinite(t, b)

	if testutil.Peak(b) == 0 {
		t.Fatal("reverb produced no tail")
	}

	lateShort := testutil.RMS(a[24000:])
	lateLong := testutil.RMS(b[24000:])

	if lateLong <= lateShort {
		t.Fatalf("late energy room=1 %v <= room=0 %v", lateLong, lateShort)
	}
}

func TestReverbSetterClamps(t *testing.T) {
	t.Parallel()

	r := NewReverb(44100)
	r.SetRoom(3)
	r.SetDamp(-1)
	r.SetWet(2)

	if r.Room() != 1 || r.Damp() != 0 || r.Wet() != 1 {
		t.Fatalf("got room=%v damp=%v wet=%v", r.Room(), r.Damp(), r.Wet())
	}
}

func TestDelayEchoPosition(t *testing.T) {
	t.Parallel()

	d := NewDelay(1000, 2)
	d.SetTime(0.01)
	d.SetFeedback(0.5)
	d.SetWet(1)

	out := testutil.Impulse(40, 0)
	d.ProcessInPlace(out)

	want := make([]float64, 40)
	want[10] = 1
	want[20] = 0.5
	want[30] = 0.25

	testutil.RequireSliceNearlyEqual(t, out, want, 1e-12)
}

func TestDelayFractionalTime(t *testing.T) {
	t.Parallel()

	d := NewDelay(1000, 1)
	d.SetTime(0.0105)
	d.SetFeedback(0)
	d.SetWet(1)

	out := testutil.Impulse(16, 0)
	d.ProcessInPlace(out)

	testutil.RequireNearlyEqual(t, out[10], 0.5, 1e-12)
	testutil.RequireNearlyEqual(t, out[11], 0.5, 1e-12)
}

func TestDelayClampsTime(t *testing.T) {
	t.Parallel()

	d := NewDelay(48000, 2)
	d.SetTime(10)

	if d.Time() != 2 {
		t.Fatalf("Time = %v, want 2", d.Time())
	}

	d.SetFeedback(5)

	if d.Feedback() >= 1 {
		t.Fatalf("Feedback = %v, want < 1", d.Feedback())
	}
}

func TestDistortionBounded(t *testing.T) {
	t.Parallel()

	for _, gain := range []float64{0, 0.5, 1} {
		d := NewDistortion(48000)
		d.SetGain(gain)
		d.SetTone(1)

		buf := testutil.Sine(220, 48000, 4, 4800)
		d.ProcessInPlace(buf)

		testutil.RequireFinite(t, buf)

		if p := testutil.Peak(buf); p > 1+1e-12 {
			t.Fatalf("gain %v: peak %v exceeds 1", gain, p)
		}
	}
}

func TestDistortionToneDarkens(t *testing.T) {
	t.Parallel()

	dark := NewDistortion(48000)
	dark.SetTone(0)

	bright := NewDistortion(48000)
	bright.SetTone(1)

	a := testutil.Sine(5000, 48000, 0.5, 4800)
	b := testutil.Sine(5000, 48000, 0.5, 4800)
	dark.ProcessInPlace(a)
	bright.ProcessInPlace(b)

	if testutil.RMS(a[2400:]) >= testutil.RMS(b[2400:]) {
		t.Fatal("tone=0 is not darker than tone=1")
	}
}

func TestCompressorStaticCurve(t *testing.T) {
	t.Parallel()

	c := NewCompressor(48000)
	c.SetThreshold(-20)
	c.SetRatio(4)

	tests := []struct {
		levelDB float64
		want    float64
	}{
		{-40, 0},
		{0, -15},
		{-8, -9},
	}

	for _, tc := range tests {
		testutil.RequireNearlyEqual(t, c.StaticGainDB(tc.levelDB), tc.want, 1e-6)
	}
}

func TestCompressorReducesLoudSignal(t *testing.T) {
	t.Parallel()

	c := NewCompressor(48000)
	c.SetThreshold(-30)
	c.SetRatio(10)
	c.SetAttack(0.001)

	in := testutil.Sine(440, 48000, 1, 24000)
	out := append([]float64(nil), in...)
	c.ProcessInPlace(out)

	testutil.RequireFinite(t, out)

	if c.GainReductionDB() < 10 {
		t.Fatalf("gain reduction %v dB, want > 10", c.GainReductionDB())
	}

	if testutil.RMS(out[12000:]) >= testutil.RMS(in[12000:]) {
		t.Fatal("compressor did not reduce the level")
	}
}

func TestCompressorUnityRatioIsTransparent(t *testing.T) {
	t.Parallel()

	c := NewCompressor(48000)
	c.SetRatio(1)

	in := testutil.Sine(440, 48000, 1, 1024)
	out := append([]float64(nil), in...)
	c.ProcessInPlace(out)

	testutil.RequireSliceNearlyEqual(t, out, in, 1e-12)
}

func TestEQFlatResponse(t *testing.T) {
	t.Parallel()

	e := NewEQ(48000)

	resp, err := e.MagnitudeResponseDB(1024)
	if err != nil {
		t.Fatalf("MagnitudeResponseDB: %v", err)
	}

	if len(resp) != 513 {
		t.Fatalf("len = %d, want 513", len(resp))
	}

	testutil.RequireSliceNearlyEqual(t, resp, make([]float64, 513), 1e-6)
}

func TestEQBandGains(t *testing.T) {
	t.Parallel()

	const (
		sr   = 48000.0
		size = 8192
	)

	e := NewEQ(sr)
	e.SetLow(12)
	e.SetMid(-6)
	e.SetHigh(6)

	resp, err := e.MagnitudeResponseDB(size)
	if err != nil {
		t.Fatalf("MagnitudeResponseDB: %v", err)
	}

	at := func(hz float64) float64 {
		return resp[int(math.Round(hz*size/sr))]
	}

	testutil.RequireNearlyEqual(t, at(EQMidFreq), -6, 0.6)
	testutil.RequireNearlyEqual(t, at(20000), 6, 0.5)

	if at(12) < 11 {
		t.Fatalf("low shelf gain at 12 Hz = %v dB, want ~12", at(12))
	}

	testutil.RequireNearlyEqual(t, BinFrequency(size/2, size, sr), sr/2, 0)
}

// transferDB evaluates H(e^jw) of the three bands directly.
func transferDB(e *EQ, freq float64) float64 {
	w := 2 * math.Pi * freq / e.sampleRate
	z1 := cmplx.Exp(complex(0, -w))
	z2 := cmplx.Exp(complex(0, -2*w))
	h := complex(1, 0)

	for _, b := range e.bands {
		num := complex(b.B0, 0) + complex(b.B1, 0)*z1 + complex(b.B2, 0)*z2
		den := 1 + complex(b.A1, 0)*z1 + complex(b.A2, 0)*z2
		h *= num / den
	}

	return 20 * math.Log10(cmplx.Abs(h))
}

func TestEQResponseSmallSizes(t *testing.T) {
	t.Parallel()

	const sr = 48000.0

	e := NewEQ(sr)
	e.SetLow(12)
	e.SetMid(4)
	e.SetHigh(-8)

	for _, size := range []int{16, 64, 512, 4096, 32768} {
		resp, err := e.MagnitudeResponseDB(size)
		if err != nil {
			t.Fatalf("size %d: %v", size, err)
		}

		if len(resp) != size/2+1 {
			t.Fatalf("size %d: len = %d", size, len(resp))
		}

		for k, got := range resp {
			want := transferDB(e, BinFrequency(k, size, sr))
			if math.Abs(got-want) > 0.05 {
				t.Fatalf("size %d bin %d: %v dB, want %v dB", size, k, got, want)
			}
		}
	}

	resp, _ := e.MagnitudeResponseDB(16)
	testutil.RequireNearlyEqual(t, resp[0], 12, 0.05)
}

func TestEQResponseSize(t *testing.T) {
	t.Parallel()

	e := NewEQ(48000)

	for _, size := range []int{0, 8, 1000} {
		if _, err := e.MagnitudeResponseDB(size); err == nil {
			t.Fatalf("size %d accepted", size)
		}
	}
}

func TestEQProcessesFinite(t *testing.T) {
	t.Parallel()

	e := NewEQ(44100)
	e.SetLow(-12)
	e.SetHigh(12)

	buf := testutil.Noise(3, 1, 4096)
	e.ProcessInPlace(buf)
	testutil.RequireFinite(t, buf)
}
