package notes

import (
	"errors"
	"fmt"
	"slices"

	"github.com/cwbudde/algo-fxrack/dsp/core"
)

// ErrInvalidNote is returned for notes that violate the structural bounds.
var ErrInvalidNote = errors.New("notes: invalid note")

// GeneratedNote is one note event. Times are in seconds.
type GeneratedNote struct {
	Pitch     int     `json:"pitch"`
	Velocity  int     `json:"velocity"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
}

// Validate checks the structural constraints: pitch and velocity in
// 0..127, finite non-negative times and EndTime > StartTime.
func (n GeneratedNote) Validate() error {
	switch {
	case n.Pitch < 0 || n.Pitch > 127:
		return fmt.Errorf("%w: pitch %d not in 0..127", ErrInvalidNote, n.Pitch)
	case n.Velocity < 0 || n.Velocity > 127:
		return fmt.Errorf("%w: velocity %d not in 0..127", ErrInvalidNote, n.Velocity)
	case !core.IsFinite(n.StartTime) || !core.IsFinite(n.EndTime):
		return fmt.Errorf("%w: non-finite time", ErrInvalidNote)
	case n.StartTime < 0:
		return fmt.Errorf("%w: start %v before zero", ErrInvalidNote, n.StartTime)
	case n.EndTime <= n.StartTime:
		return fmt.Errorf("%w: end %v not after start %v", ErrInvalidNote, n.EndTime, n.StartTime)
	}

	return nil
}

// Duration returns EndTime - StartTime.
func (n GeneratedNote) Duration() float64 { return n.EndTime - n.StartTime }

// Rejection records a note discarded by Partition.
type Rejection struct {
	Index int
	Note  GeneratedNote
	Err   error
}

func (r Rejection) Error() string {
	return fmt.Sprintf("note %d: %v", r.Index, r.Err)
}

func (r Rejection) Unwrap() error { return r.Err }

// Partition splits in into valid notes, ordered by start time, and
// rejections for the rest. The input is not modified.
func Partition(in []GeneratedNote) ([]GeneratedNote, []Rejection) {
	valid := make([]GeneratedNote, 0, len(in))

	var rejected []Rejection

	for i, n := range in {
		if err := n.Validate(); err != nil {
			rejected = append(rejected, Rejection{Index: i, Note: n, Err: err})
			continue
		}

		valid = append(valid, n)
	}

	slices.SortStableFunc(valid, func(a, b GeneratedNote) int {
		switch {
		case a.StartTime < b.StartTime:
			return -1
		case a.StartTime > b.StartTime:
			return 1
		default:
			return 0
		}
	})

	return valid, rejected
}

// TotalDuration returns the largest EndTime, or 0 for no notes.
func TotalDuration(notes []GeneratedNote) float64 {
	var total float64
	for _, n := range notes {
		total = max(total, n.EndTime)
	}

	return total
}
