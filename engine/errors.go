package engine

import "errors"

var (
	// ErrAudioUnsupported is returned by Initialize when the platform has no
	// audio output. The engine stays uninitialized.
	ErrAudioUnsupported = errors.New("engine: audio unsupported")
	// ErrEngineNotInitialized is returned by chain and transport operations
	// before a successful Initialize or after Teardown.
	ErrEngineNotInitialized = errors.New("engine: not initialized")
)
