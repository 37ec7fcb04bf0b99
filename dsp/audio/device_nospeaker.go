//go:build !((linux && cgo) || windows || darwin)

package audio

// SpeakerAvailable reports whether this build can drive the system speaker.
// Native output needs cgo on Linux.
const SpeakerAvailable = false

// SpeakerDevice is unavailable in this build.
type SpeakerDevice struct{}

// NewSpeakerDevice always fails with ErrUnsupported in this build.
func NewSpeakerDevice() (*SpeakerDevice, error) {
	return nil, ErrUnsupported
}

func (d *SpeakerDevice) Open(float64, int, RenderFunc) error { return ErrUnsupported }

func (d *SpeakerDevice) Suspend() error { return ErrUnsupported }

func (d *SpeakerDevice) Resume() error { return ErrUnsupported }

func (d *SpeakerDevice) Close() error { return nil }
