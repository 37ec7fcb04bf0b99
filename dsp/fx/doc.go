// Package fx contains the processing kernels behind the effect rack:
// a Freeverb-style reverb, a feedback delay, a waveshaping distortion with a
// tone filter, a feed-forward compressor and a three-band equalizer.
//
// Kernels are plain single-threaded DSP objects. They take semantic
// parameters through setters and process mono blocks in place. Parameter
// smoothing and thread hand-off are the caller's job (see dsp/effectchain).
package fx
