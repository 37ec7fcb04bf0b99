// Package audio is a small pull-based audio graph: the "audio context" the
// effect chain and the engine are built against.
//
// A Context owns a set of nodes (processing kernels, gain stages and a single
// destination) and the connections between them. Topology edits are grouped
// into patches: Patch runs the edit function against a private copy of the
// connection table, compiles the result into an immutable render plan and
// publishes it with one atomic pointer swap. The render callback loads the
// plan once per block, so it always observes either the old or the new
// topology and never a half-applied edit.
//
// Parameters that change while audio is running are Param values. Writers
// publish a target and a ramp length through atomics; the render side ramps
// towards the target sample by sample.
//
// Output is delegated to a Device. PullDevice leaves rendering to the caller
// (tests, the WebAssembly host); SpeakerDevice plays through the system
// speaker on builds that have native audio.
package audio
