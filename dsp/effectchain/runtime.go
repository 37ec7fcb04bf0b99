package effectchain

import (
	"fmt"

	"github.com/cwbudde/algo-fxrack/dsp/audio"
)

// Context provides environmental information that effect runtimes need.
type Context struct {
	SampleRate float64
}

// Runtime is the processing unit behind a node. Process runs on the render
// thread; parameter changes reach it only through the returned audio.Params.
type Runtime interface {
	audio.Kernel
	Param(name string) (*audio.Param, bool)
}

// Responder is implemented by runtimes that can report a magnitude response
// for their current parameter targets.
type Responder interface {
	MagnitudeResponseDB(size int) ([]float64, error)
}

// paramSet holds the live parameters of a runtime, keyed by schema name.
type paramSet map[string]*audio.Param

func newParamSet(kind Kind, ctx Context, init Params) (paramSet, error) {
	d, err := Describe(kind)
	if err != nil {
		return nil, err
	}

	set := make(paramSet, len(d.Params))
	for _, s := range d.Params {
		set[s.Name] = audio.NewParam(init.GetOr(s.Name, s.Default), s.Min, s.Max, ctx.SampleRate)
	}

	return set, nil
}

func (s paramSet) Param(name string) (*audio.Param, bool) {
	p, ok := s[name]
	return p, ok
}

// must returns the parameter for a schema name; runtimes only ask for names
// of their own kind.
func (s paramSet) must(name string) *audio.Param {
	p, ok := s[name]
	if !ok {
		panic(fmt.Sprintf("effectchain: runtime parameter %q missing", name))
	}

	return p
}
