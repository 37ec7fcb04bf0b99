// Package effectchain implements the effect rack: a closed catalog of effect
// kinds with typed parameter schemas, effect nodes that own one processing
// unit inside an audio graph, and an ordered chain of nodes that keeps the
// physical connection order in step with its logical order.
//
// All topology edits go through Graph.Patch, so the render thread sees
// either the old or the new signal path. Parameter writes are clamped into
// the parameter's range and handed to the processing unit as short ramps.
package effectchain
