// Package notes holds the note-event material exchanged with the melody
// generator and the MIDI exporter: validation of generated notes, export
// requests, a Standard MIDI File exporter and generator fallback wiring.
package notes
