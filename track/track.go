package track

import (
	"fmt"
	"sort"

	"github.com/cowriter/vox2midi/errs"
	"github.com/cowriter/vox2midi/model"
)

// Assemble groups note events into a named track at a fixed tempo. The
// encoder requires notes sorted by start time; when the input is not
// already sorted (multiple upstream sources may interleave) a copy is
// stable-sorted so that notes sharing a start time keep their relative
// order. The caller's slice is never mutated.
func Assemble(name string, tempoBPM float64, notes []model.NoteEvent) (model.Track, error) {
	if tempoBPM <= 0 {
		return model.Track{}, fmt.Errorf("%w: tempo must be positive, got %v", errs.ErrInvalidInput, tempoBPM)
	}

	sorted := make([]model.NoteEvent, len(notes))
	copy(sorted, notes)
	if !sort.SliceIsSorted(sorted, byStart(sorted)) {
		sort.SliceStable(sorted, byStart(sorted))
	}

	return model.Track{
		Name:     name,
		TempoBPM: tempoBPM,
		Notes:    sorted,
	}, nil
}

func byStart(notes []model.NoteEvent) func(i, j int) bool {
	return func(i, j int) bool {
		return notes[i].StartTimeSeconds < notes[j].StartTimeSeconds
	}
}
