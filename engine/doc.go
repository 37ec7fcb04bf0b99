// Package engine owns the audio context of an effects rack: the master gain
// stage, the instrument that plays note material, the effects chain wired
// between them and the play/pause/stop transport.
//
// An Engine is constructed once and handed to every consumer. Initialize
// opens the output device; Teardown releases it. Control methods are safe
// for concurrent use and never block the render callback.
package engine
