package engine

import (
	"fmt"
	"strings"
)

// TransportState is the play state of the transport.
type TransportState int

const (
	Stopped TransportState = iota
	Playing
	Paused
)

func (s TransportState) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return fmt.Sprintf("TransportState(%d)", int(s))
	}
}

func (s TransportState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *TransportState) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "stopped":
		*s = Stopped
	case "playing":
		*s = Playing
	case "paused":
		*s = Paused
	default:
		return fmt.Errorf("engine: unknown transport state %q", b)
	}

	return nil
}
