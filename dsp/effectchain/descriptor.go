package effectchain

import (
	"fmt"
	"slices"

	"github.com/cwbudde/algo-fxrack/dsp/core"
)

// ParamSpec describes one parameter of an effect kind.
type ParamSpec struct {
	Name    string  `json:"name"`
	Unit    string  `json:"unit,omitempty"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
}

// Clamp limits v to the parameter range.
func (s ParamSpec) Clamp(v float64) float64 {
	return core.Clamp(v, s.Min, s.Max)
}

// Normalize maps v from the parameter range onto [0, 1].
func (s ParamSpec) Normalize(v float64) float64 {
	if s.Max == s.Min {
		return 0
	}

	return (s.Clamp(v) - s.Min) / (s.Max - s.Min)
}

// Denormalize maps a [0, 1] control position onto the parameter range.
func (s ParamSpec) Denormalize(n float64) float64 {
	return s.Min + core.Clamp(n, 0, 1)*(s.Max-s.Min)
}

// Descriptor is the catalog entry of one effect kind.
type Descriptor struct {
	Kind        Kind        `json:"kind"`
	DisplayName string      `json:"displayName"`
	Params      []ParamSpec `json:"params"`
}

// Spec returns the schema entry for name.
func (d Descriptor) Spec(name string) (ParamSpec, bool) {
	i := slices.IndexFunc(d.Params, func(s ParamSpec) bool { return s.Name == name })
	if i < 0 {
		return ParamSpec{}, false
	}

	return d.Params[i], true
}

// Defaults returns the default parameter values in schema order.
func (d Descriptor) Defaults() Params {
	p := make(Params, len(d.Params))
	for i, s := range d.Params {
		p[i] = Param{Name: s.Name, Value: s.Default}
	}

	return p
}

var catalog = map[Kind]Descriptor{
	KindReverb: {
		Kind:        KindReverb,
		DisplayName: "Reverb",
		Params: []ParamSpec{
			{Name: "room", Min: 0, Max: 1, Default: 0.5},
			{Name: "damp", Min: 0, Max: 1, Default: 0.3},
			{Name: "wet", Min: 0, Max: 1, Default: 0.4},
		},
	},
	KindDelay: {
		Kind:        KindDelay,
		DisplayName: "Delay",
		Params: []ParamSpec{
			{Name: "time", Unit: "s", Min: 0.01, Max: 2, Default: 0.3},
			{Name: "feedback", Min: 0, Max: 0.95, Default: 0.2},
			{Name: "wet", Min: 0, Max: 1, Default: 0.3},
		},
	},
	KindDistortion: {
		Kind:        KindDistortion,
		DisplayName: "Distortion",
		Params: []ParamSpec{
			{Name: "gain", Min: 0, Max: 1, Default: 0.5},
			{Name: "tone", Min: 0, Max: 1, Default: 0.5},
		},
	},
	KindCompressor: {
		Kind:        KindCompressor,
		DisplayName: "Compressor",
		Params: []ParamSpec{
			{Name: "threshold", Unit: "dB", Min: -60, Max: 0, Default: -20},
			{Name: "ratio", Unit: ":1", Min: 1, Max: 20, Default: 4},
			{Name: "attack", Unit: "s", Min: 0.001, Max: 1, Default: 0.1},
			{Name: "release", Unit: "s", Min: 0.01, Max: 2, Default: 0.3},
		},
	},
	KindEQ: {
		Kind:        KindEQ,
		DisplayName: "Equalizer",
		Params: []ParamSpec{
			{Name: "low", Unit: "dB", Min: -12, Max: 12, Default: 0},
			{Name: "mid", Unit: "dB", Min: -12, Max: 12, Default: 0},
			{Name: "high", Unit: "dB", Min: -12, Max: 12, Default: 0},
		},
	},
}

// Kinds returns every effect kind in catalog order.
func Kinds() []Kind {
	return []Kind{KindReverb, KindDelay, KindDistortion, KindCompressor, KindEQ}
}

// Describe returns the catalog entry for kind.
func Describe(kind Kind) (Descriptor, error) {
	d, ok := catalog[kind]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	d.Params = slices.Clone(d.Params)

	return d, nil
}

// DefaultParams returns the default parameter set of kind.
func DefaultParams(kind Kind) (Params, error) {
	d, err := Describe(kind)
	if err != nil {
		return nil, err
	}

	return d.Defaults(), nil
}

// ValidRange returns the inclusive value range of a parameter.
func ValidRange(kind Kind, name string) (min, max float64, err error) {
	d, err := Describe(kind)
	if err != nil {
		return 0, 0, err
	}

	s, ok := d.Spec(name)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s has no %q", ErrUnknownParameter, kind, name)
	}

	return s.Min, s.Max, nil
}
