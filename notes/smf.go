package notes

import (
	"context"
	"fmt"
	"io"
	"math"
	"slices"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// DefaultTicksPerQuarter is the SMF resolution used when none is set.
const DefaultTicksPerQuarter = 960

// SMFExporter writes export requests as a type-1 Standard MIDI File with a
// tempo/meter track and one note track.
type SMFExporter struct {
	W               io.Writer
	TicksPerQuarter uint16
	Channel         uint8
	TrackName       string
}

type smfEvent struct {
	tick uint32
	on   bool
	key  uint8
	vel  uint8
}

// Export implements Exporter.
func (e SMFExporter) Export(ctx context.Context, req ExportRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if e.W == nil {
		return fmt.Errorf("notes: smf export: nil writer")
	}

	tpq := e.TicksPerQuarter
	if tpq == 0 {
		tpq = DefaultTicksPerQuarter
	}

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(tpq)

	var meta smf.Track
	meta.Add(0, smf.MetaMeter(4, 4))
	meta.Add(0, smf.MetaTempo(float64(req.TempoBPM)))
	meta.Close(0)

	if err := sm.Add(meta); err != nil {
		return fmt.Errorf("notes: smf export: %w", err)
	}

	ticksPerSecond := float64(tpq) * float64(req.TempoBPM) / 60
	toTick := func(sec float64) uint32 {
		return uint32(math.Round(max(sec, 0) * ticksPerSecond))
	}

	events := make([]smfEvent, 0, 2*len(req.Notes))
	for _, n := range req.Notes {
		key := uint8(min(max(n.Pitch, 0), 127))
		vel := uint8(min(max(n.Velocity, 1), 127))
		on := toTick(n.StartTime)
		// A note shorter than one tick still lasts one tick, so its off
		// never sorts ahead of its own on.
		off := max(toTick(n.EndTime), on+1)
		events = append(events,
			smfEvent{tick: on, on: true, key: key, vel: vel},
			smfEvent{tick: off, key: key},
		)
	}

	// Offs sort before ons at the same tick so repeated keys retrigger.
	slices.SortStableFunc(events, func(a, b smfEvent) int {
		if a.tick != b.tick {
			return int(int64(a.tick) - int64(b.tick))
		}

		switch {
		case a.on == b.on:
			return 0
		case !a.on:
			return -1
		default:
			return 1
		}
	})

	var track smf.Track
	if e.TrackName != "" {
		track.Add(0, smf.MetaTrackSequenceName(e.TrackName))
	}

	var last uint32
	for _, ev := range events {
		delta := ev.tick - last
		last = ev.tick

		if ev.on {
			track.Add(delta, midi.NoteOn(e.Channel, ev.key, ev.vel))
		} else {
			track.Add(delta, midi.NoteOff(e.Channel, ev.key))
		}
	}

	end := max(toTick(req.TotalDuration), last)
	track.Close(end - last)

	if err := sm.Add(track); err != nil {
		return fmt.Errorf("notes: smf export: %w", err)
	}

	if _, err := sm.WriteTo(e.W); err != nil {
		return fmt.Errorf("notes: smf export: write: %w", err)
	}

	return nil
}

// ReadSMF decodes the notes of a Standard MIDI File. Times use the first
// tempo found (DefaultTempo if none); later tempo changes are ignored.
func ReadSMF(r io.Reader) ([]GeneratedNote, int, error) {
	sm, err := smf.ReadFrom(r)
	if err != nil {
		return nil, 0, fmt.Errorf("notes: read smf: %w", err)
	}

	mt, ok := sm.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, 0, fmt.Errorf("notes: read smf: unsupported time format %v", sm.TimeFormat)
	}

	bpm := float64(DefaultTempo)

found:
	for _, tr := range sm.Tracks {
		for _, ev := range tr {
			var t float64
			if ev.Message.GetMetaTempo(&t) {
				bpm = t
				break found
			}
		}
	}

	secondsPerTick := 60 / (bpm * float64(mt))

	type held struct {
		start float64
		vel   uint8
	}

	var out []GeneratedNote

	for _, tr := range sm.Tracks {
		var abs int64

		open := make(map[[2]uint8]held)

		for _, ev := range tr {
			abs += int64(ev.Delta)
			now := float64(abs) * secondsPerTick
			msg := midi.Message(ev.Message)

			var ch, key, vel uint8

			switch {
			case msg.GetNoteStart(&ch, &key, &vel):
				open[[2]uint8{ch, key}] = held{start: now, vel: vel}
			case msg.GetNoteEnd(&ch, &key):
				h, ok := open[[2]uint8{ch, key}]
				if !ok {
					continue
				}

				delete(open, [2]uint8{ch, key})
				out = append(out, GeneratedNote{
					Pitch:     int(key),
					Velocity:  int(h.vel),
					StartTime: h.start,
					EndTime:   now,
				})
			}
		}
	}

	valid, _ := Partition(out)

	return valid, int(math.Round(bpm)), nil
}
