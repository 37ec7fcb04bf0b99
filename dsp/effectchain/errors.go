package effectchain

import "errors"

var (
	// ErrUnknownKind is returned for effect kinds outside the catalog.
	ErrUnknownKind = errors.New("effectchain: unknown effect kind")
	// ErrUnknownParameter is returned for parameter names a kind does not define.
	ErrUnknownParameter = errors.New("effectchain: unknown parameter")
	// ErrOutOfRange is returned for parameter values that cannot be clamped (NaN, Inf).
	ErrOutOfRange = errors.New("effectchain: parameter value out of range")
	// ErrNodeNotFound is returned when no node in the chain has the given id.
	ErrNodeNotFound = errors.New("effectchain: node not found")
	// ErrIndexOutOfBounds is returned for reorder targets outside the chain.
	ErrIndexOutOfBounds = errors.New("effectchain: index out of bounds")
	// ErrNodeDestroyed is returned for operations on a destroyed node.
	ErrNodeDestroyed = errors.New("effectchain: node destroyed")
	// ErrChainClosed is returned for operations on a closed chain.
	ErrChainClosed = errors.New("effectchain: chain closed")
	// ErrKindMismatch is returned when settings of one kind are applied to a node of another.
	ErrKindMismatch = errors.New("effectchain: settings kind does not match node kind")
	// ErrResponseUnsupported is returned when a kind has no frequency response view.
	ErrResponseUnsupported = errors.New("effectchain: frequency response not supported for this kind")

	errDuplicateKind = errors.New("effectchain: duplicate factory")
)
