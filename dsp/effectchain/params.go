package effectchain

import (
	"slices"

	"github.com/samber/lo"
)

// Param is one named parameter value.
type Param struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Params is an ordered parameter mapping. Order follows the kind's schema.
type Params []Param

// Get returns the value stored under name.
func (p Params) Get(name string) (float64, bool) {
	i := slices.IndexFunc(p, func(x Param) bool { return x.Name == name })
	if i < 0 {
		return 0, false
	}

	return p[i].Value, true
}

// GetOr returns the value stored under name, or def.
func (p Params) GetOr(name string, def float64) float64 {
	if v, ok := p.Get(name); ok {
		return v
	}

	return def
}

// Names returns the parameter names in order.
func (p Params) Names() []string {
	return lo.Map(p, func(x Param, _ int) string { return x.Name })
}

// Map returns the parameters as an unordered map.
func (p Params) Map() map[string]float64 {
	return lo.SliceToMap(p, func(x Param) (string, float64) { return x.Name, x.Value })
}

// Clone returns a copy of p.
func (p Params) Clone() Params {
	return slices.Clone(p)
}

// set replaces the value of an existing name and reports whether it existed.
func (p Params) set(name string, v float64) bool {
	i := slices.IndexFunc(p, func(x Param) bool { return x.Name == name })
	if i < 0 {
		return false
	}

	p[i].Value = v

	return true
}
