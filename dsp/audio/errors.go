package audio

import "errors"

var (
	// ErrUnsupported is returned when no audio output implementation is available.
	ErrUnsupported = errors.New("audio: no audio context implementation available")
	// ErrClosed is returned for operations on a closed context.
	ErrClosed = errors.New("audio: context closed")
	// ErrUnknownNode is returned when a node id is not part of the context.
	ErrUnknownNode = errors.New("audio: unknown node")
	// ErrCycle is returned when a patch would introduce a feedback loop.
	ErrCycle = errors.New("audio: connection would create a cycle")
)
