//go:build js && wasm

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/cwbudde/algo-fxrack/dsp/audio"
	"github.com/cwbudde/algo-fxrack/dsp/effectchain"
	"github.com/cwbudde/algo-fxrack/engine"
	"github.com/cwbudde/algo-fxrack/notes"
)

var (
	rack    = engine.New(engine.WithDevice(browserDevices()), engine.WithDefaultRack())
	scratch []float64
	funcs   []js.Func
)

// browserDevices yields pull devices when the page has a Web Audio
// implementation to drive them.
func browserDevices() engine.DeviceFactory {
	pull := engine.PullDevices()

	return func() (audio.Device, error) {
		if ac := js.Global().Get("AudioContext"); ac.IsUndefined() || ac.IsNull() {
			return nil, fmt.Errorf("%w: no AudioContext", audio.ErrUnsupported)
		}

		return pull()
	}
}

func main() {
	api := js.Global().Get("Object").New()

	api.Set("init", export(func(args []js.Value) any {
		if rack.Initialized() {
			return js.Null()
		}

		var opts []engine.Option
		if len(args) > 0 {
			opts = append(opts, engine.WithSampleRate(args[0].Float()))
		}

		if len(args) > 1 {
			opts = append(opts, engine.WithBlockSize(args[1].Int()))
		}

		e := rack.Derive(opts...)
		if err := e.Initialize(context.Background()); err != nil {
			return err.Error()
		}

		rack = e

		return js.Null()
	}))

	api.Set("teardown", export(func([]js.Value) any {
		return errorValue(rack.Teardown())
	}))

	api.Set("kinds", export(func([]js.Value) any {
		out := make([]any, 0, len(effectchain.Kinds()))
		for _, k := range effectchain.Kinds() {
			d, err := effectchain.Describe(k)
			if err != nil {
				continue
			}

			out = append(out, d)
		}

		return toJS(out)
	}))

	api.Set("append", export(func(args []js.Value) any {
		if len(args) < 1 {
			return "missing arguments"
		}

		kind, err := effectchain.ParseKind(args[0].String())
		if err != nil {
			return err.Error()
		}

		n, err := rack.Append(kind)
		if err != nil {
			return err.Error()
		}

		return toJS(n)
	}))

	api.Set("remove", export(func(args []js.Value) any {
		if len(args) < 1 {
			return "missing arguments"
		}

		return errorValue(rack.Remove(effectchain.NodeID(args[0].String())))
	}))

	api.Set("reorder", export(func(args []js.Value) any {
		if len(args) < 2 {
			return "missing arguments"
		}

		return errorValue(rack.Reorder(effectchain.NodeID(args[0].String()), args[1].Int()))
	}))

	api.Set("setParam", export(func(args []js.Value) any {
		if len(args) < 3 {
			return "missing arguments"
		}

		v, err := rack.SetParam(effectchain.NodeID(args[0].String()), args[1].String(), args[2].Float())
		if err != nil {
			return err.Error()
		}

		return v
	}))

	api.Set("response", export(func(args []js.Value) any {
		if len(args) < 1 {
			return js.Global().Get("Float32Array").New(0)
		}

		size := 512
		if len(args) > 1 {
			size = args[1].Int()
		}

		resp, err := rack.FrequencyResponse(effectchain.NodeID(args[0].String()), size)
		if err != nil {
			return js.Global().Get("Float32Array").New(0)
		}

		arr := js.Global().Get("Float32Array").New(len(resp))
		for i, v := range resp {
			arr.SetIndex(i, v)
		}

		return arr
	}))

	api.Set("play", export(func([]js.Value) any {
		return errorValue(rack.Play(context.Background()))
	}))

	api.Set("pause", export(func([]js.Value) any {
		return errorValue(rack.Pause())
	}))

	api.Set("stop", export(func([]js.Value) any {
		return errorValue(rack.Stop())
	}))

	api.Set("setMasterGain", export(func(args []js.Value) any {
		if len(args) < 1 {
			return js.Null()
		}

		return rack.SetMasterGain(args[0].Float())
	}))

	api.Set("setTempo", export(func(args []js.Value) any {
		if len(args) < 1 {
			return js.Null()
		}

		return rack.SetTempo(args[0].Int())
	}))

	api.Set("snapshot", export(func([]js.Value) any {
		return toJS(rack.Snapshot())
	}))

	api.Set("loadNotes", export(func(args []js.Value) any {
		if len(args) < 1 {
			return js.Null()
		}

		arr := args[0]
		in := make([]notes.GeneratedNote, arr.Length())

		for i := range in {
			item := arr.Index(i)
			in[i] = notes.GeneratedNote{
				Pitch:     item.Get("pitch").Int(),
				Velocity:  item.Get("velocity").Int(),
				StartTime: item.Get("startTime").Float(),
				EndTime:   item.Get("endTime").Float(),
			}
		}

		rejected := rack.LoadNotes(in)

		msgs := make([]any, len(rejected))
		for i, r := range rejected {
			msgs[i] = r.Error()
		}

		return js.ValueOf(msgs)
	}))

	api.Set("exportMidi", export(func([]js.Value) any {
		var buf bytes.Buffer
		if err := rack.Export(context.Background(), notes.SMFExporter{W: &buf}); err != nil {
			return err.Error()
		}

		arr := js.Global().Get("Uint8Array").New(buf.Len())
		js.CopyBytesToJS(arr, buf.Bytes())

		return arr
	}))

	api.Set("render", export(func(args []js.Value) any {
		if len(args) < 1 {
			return js.Global().Get("Float32Array").New(0)
		}

		n := args[0].Int()
		buf := make([]float32, n)
		scratch = rack.RenderFloat32(buf, scratch)

		arr := js.Global().Get("Float32Array").New(n)
		for i := range buf {
			arr.SetIndex(i, buf[i])
		}

		return arr
	}))

	js.Global().Set("AlgoFXRack", api)
	select {}
}

func errorValue(err error) any {
	if err != nil {
		return err.Error()
	}

	return js.Null()
}

// toJS round-trips v through JSON so struct tags shape the JS object.
func toJS(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return err.Error()
	}

	return js.Global().Get("JSON").Call("parse", string(b))
}

func export(fn func([]js.Value) any) js.Func {
	f := js.FuncOf(func(_ js.Value, args []js.Value) any {
		return fn(args)
	})
	funcs = append(funcs, f)

	return f
}
