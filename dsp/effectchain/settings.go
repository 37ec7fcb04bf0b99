package effectchain

import "fmt"

// Settings is a typed parameter record for one effect kind.
type Settings interface {
	Kind() Kind
	Params() Params
}

// ReverbSettings are the parameters of a reverb node.
type ReverbSettings struct {
	Room float64
	Damp float64
	Wet  float64
}

func (ReverbSettings) Kind() Kind { return KindReverb }

func (s ReverbSettings) Params() Params {
	return Params{{"room", s.Room}, {"damp", s.Damp}, {"wet", s.Wet}}
}

// DelaySettings are the parameters of a delay node. Time is in seconds.
type DelaySettings struct {
	Time     float64
	Feedback float64
	Wet      float64
}

func (DelaySettings) Kind() Kind { return KindDelay }

func (s DelaySettings) Params() Params {
	return Params{{"time", s.Time}, {"feedback", s.Feedback}, {"wet", s.Wet}}
}

// DistortionSettings are the parameters of a distortion node.
type DistortionSettings struct {
	Gain float64
	Tone float64
}

func (DistortionSettings) Kind() Kind { return KindDistortion }

func (s DistortionSettings) Params() Params {
	return Params{{"gain", s.Gain}, {"tone", s.Tone}}
}

// CompressorSettings are the parameters of a compressor node.
// Threshold is in dBFS, Attack and Release in seconds.
type CompressorSettings struct {
	Threshold float64
	Ratio     float64
	Attack    float64
	Release   float64
}

func (CompressorSettings) Kind() Kind { return KindCompressor }

func (s CompressorSettings) Params() Params {
	return Params{{"threshold", s.Threshold}, {"ratio", s.Ratio}, {"attack", s.Attack}, {"release", s.Release}}
}

// EQSettings are the band gains of an equalizer node in dB.
type EQSettings struct {
	Low  float64
	Mid  float64
	High float64
}

func (EQSettings) Kind() Kind { return KindEQ }

func (s EQSettings) Params() Params {
	return Params{{"low", s.Low}, {"mid", s.Mid}, {"high", s.High}}
}

// SettingsFor builds the typed record of kind from p. Missing names take
// the kind's defaults.
func SettingsFor(kind Kind, p Params) (Settings, error) {
	d, err := Describe(kind)
	if err != nil {
		return nil, err
	}

	values := p.Map()
	get := func(name string) float64 {
		if v, ok := values[name]; ok {
			return v
		}

		s, _ := d.Spec(name)

		return s.Default
	}

	switch kind {
	case KindReverb:
		return ReverbSettings{Room: get("room"), Damp: get("damp"), Wet: get("wet")}, nil
	case KindDelay:
		return DelaySettings{Time: get("time"), Feedback: get("feedback"), Wet: get("wet")}, nil
	case KindDistortion:
		return DistortionSettings{Gain: get("gain"), Tone: get("tone")}, nil
	case KindCompressor:
		return CompressorSettings{
			Threshold: get("threshold"),
			Ratio:     get("ratio"),
			Attack:    get("attack"),
			Release:   get("release"),
		}, nil
	case KindEQ:
		return EQSettings{Low: get("low"), Mid: get("mid"), High: get("high")}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
}
