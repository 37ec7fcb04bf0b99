package fx

import (
	"testing"

	"github.com/cwbudde/algo-fxrack/internal/testutil"
)

func BenchmarkReverbProcessInPlace(b *testing.B) {
	r := NewReverb(48000)
	block := testutil.Noise(1, 0.5, 128)

	b.ResetTimer()

	for range b.N {
		r.ProcessInPlace(block)
	}
}

func BenchmarkCompressorProcessInPlace(b *testing.B) {
	c := NewCompressor(48000)
	block := testutil.Sine(220, 48000, 0.9, 128)

	b.ResetTimer()

	for range b.N {
		c.ProcessInPlace(block)
	}
}

func BenchmarkEQMagnitudeResponse(b *testing.B) {
	eq := NewEQ(48000)
	eq.SetMid(6)

	b.ResetTimer()

	for range b.N {
		if _, err := eq.MagnitudeResponseDB(1024); err != nil {
			b.Fatal(err)
		}
	}
}
