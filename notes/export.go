package notes

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// Tempo bounds accepted for export, in beats per minute.
const (
	MinTempo     = 60
	MaxTempo     = 180
	DefaultTempo = 120
)

var (
	// ErrTempoOutOfRange is returned for tempos outside MinTempo..MaxTempo.
	ErrTempoOutOfRange = errors.New("notes: tempo out of range")
	// ErrNoNotes is returned when there is nothing to export.
	ErrNoNotes = errors.New("notes: no valid notes")
)

// ExportRequest is what the MIDI exporter receives: notes ordered by start
// time, one global tempo and the total duration in seconds.
type ExportRequest struct {
	Notes         []GeneratedNote `json:"notes"`
	TempoBPM      int             `json:"tempoBPM"`
	TotalDuration float64         `json:"totalDuration"`
}

// Exporter encodes and delivers an export request.
type Exporter interface {
	Export(ctx context.Context, req ExportRequest) error
}

// ExporterFunc adapts a function to Exporter.
type ExporterFunc func(ctx context.Context, req ExportRequest) error

func (f ExporterFunc) Export(ctx context.Context, req ExportRequest) error { return f(ctx, req) }

// ClampTempo limits bpm to MinTempo..MaxTempo.
func ClampTempo(bpm int) int {
	return min(max(bpm, MinTempo), MaxTempo)
}

// BuildExport validates notes and tempo and assembles the request.
// Malformed notes are left out and reported.
func BuildExport(in []GeneratedNote, tempoBPM int) (ExportRequest, []Rejection, error) {
	if tempoBPM < MinTempo || tempoBPM > MaxTempo {
		return ExportRequest{}, nil, fmt.Errorf("%w: %d not in %d..%d", ErrTempoOutOfRange, tempoBPM, MinTempo, MaxTempo)
	}

	valid, rejected := Partition(in)
	if len(valid) == 0 {
		return ExportRequest{}, rejected, ErrNoNotes
	}

	return ExportRequest{
		Notes:         slices.Clip(valid),
		TempoBPM:      tempoBPM,
		TotalDuration: TotalDuration(valid),
	}, rejected, nil
}
