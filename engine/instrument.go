package engine

import (
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-fxrack/dsp/core"
	"github.com/cwbudde/algo-fxrack/notes"
)

const (
	maxVoices     = 64
	attackSeconds = 0.005
)

// score is an immutable, start-ordered note list shared with the renderer.
type score struct {
	notes []notes.GeneratedNote
}

type voice struct {
	phase     float64
	phaseStep float64
	amp       float64
	age       int
	length    int
}

// instrument is the source kernel of the rack. Control code publishes the
// score and transport flags through atomics; everything else is owned by the
// render goroutine.
type instrument struct {
	sampleRate float64
	attack     int

	score   atomic.Pointer[score]
	playing atomic.Bool
	rewind  atomic.Uint64
	applied atomic.Uint64
	frames  atomic.Int64

	seen *score
	pos        int64
	next       int
	voices     []voice
}

func newInstrument(sampleRate float64) *instrument {
	return &instrument{
		sampleRate: sampleRate,
		attack:     max(int(attackSeconds*sampleRate), 1),
		voices:     make([]voice, 0, maxVoices),
	}
}

func (k *instrument) load(ns []notes.GeneratedNote) {
	k.score.Store(&score{notes: ns})
}

func (k *instrument) setPlaying(on bool) { k.playing.Store(on) }

// stop halts playback and rewinds to zero at the next block.
func (k *instrument) stop() {
	k.playing.Store(false)
	k.rewind.Add(1)
}

// position returns the last rendered transport time in seconds. It is zero
// while a rewind is still pending on the render side.
func (k *instrument) position() float64 {
	if k.rewind.Load() != k.applied.Load() {
		return 0
	}

	return float64(k.frames.Load()) / k.sampleRate
}

func (k *instrument) Process(block []float64) {
	sc := k.score.Load()

	if g := k.rewind.Load(); g != k.applied.Load() {
		k.pos = 0
		k.next = 0
		k.voices = k.voices[:0]
		k.frames.Store(0)
		k.applied.Store(g)
	}

	if sc != k.seen {
		k.seen = sc
		k.next = firstFrom(sc, float64(k.pos)/k.sampleRate)
	}

	if !k.playing.Load() {
		k.voices = k.voices[:0]
		core.Zero(block)

		return
	}

	for i := range block {
		now := float64(k.pos) / k.sampleRate
		for sc != nil && k.next < len(sc.notes) && sc.notes[k.next].StartTime <= now {
			k.trigger(sc.notes[k.next])
			k.next++
		}

		k.pos++
		block[i] = k.nextSample()
	}

	k.frames.Store(k.pos)
}

func firstFrom(sc *score, t float64) int {
	if sc == nil {
		return 0
	}

	for i, n := range sc.notes {
		if n.StartTime >= t {
			return i
		}
	}

	return len(sc.notes)
}

func (k *instrument) trigger(n notes.GeneratedNote) {
	if len(k.voices) >= maxVoices {
		copy(k.voices, k.voices[1:])
		k.voices = k.voices[:maxVoices-1]
	}

	k.voices = append(k.voices, voice{
		phaseStep: 2 * math.Pi * core.PitchToHz(n.Pitch) / k.sampleRate,
		amp:       float64(n.Velocity) / 127,
		length:    max(int(n.Duration()*k.sampleRate), k.attack+1),
	})
}

func (k *instrument) nextSample() float64 {
	sum := 0.0
	write := 0

	for _, v := range k.voices {
		if v.age >= v.length {
			continue
		}

		sum += v.amp * envelope(v.age, k.attack, v.length) * math.Sin(v.phase)

		v.phase += v.phaseStep
		if v.phase > math.Pi {
			v.phase -= 2 * math.Pi
		}

		v.age++
		k.voices[write] = v
		write++
	}

	k.voices = k.voices[:write]

	return sum
}

// envelope is an exponential attack to a fixed peak followed by an
// exponential decay over the rest of the note.
func envelope(age, attack, length int) float64 {
	const (
		floor = 0.0001
		peak  = 0.22
	)

	if age < attack {
		t := float64(age) / float64(attack)
		return floor * math.Pow(peak/floor, t)
	}

	t := float64(age-attack) / float64(length-attack)

	return peak * math.Pow(floor/peak, t)
}
