package effectchain

import (
	"fmt"
	"strings"
)

// Kind is one of the closed set of effect types.
type Kind int

const (
	KindReverb Kind = iota + 1
	KindDelay
	KindDistortion
	KindCompressor
	KindEQ
)

var kindNames = map[Kind]string{
	KindReverb:     "reverb",
	KindDelay:      "delay",
	KindDistortion: "distortion",
	KindCompressor: "compressor",
	KindEQ:         "eq",
}

// String returns the lower-case kind name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// Valid reports whether k is part of the catalog.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind maps a kind name (case-insensitive) to its Kind.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}

	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}

	*k = parsed

	return nil
}
