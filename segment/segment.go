package segment

import (
	"fmt"
	"math"

	"github.com/cowriter/vox2midi/constants"
	"github.com/cowriter/vox2midi/errs"
	"github.com/cowriter/vox2midi/model"
	"github.com/cowriter/vox2midi/util"
)

type state int

const (
	idle state = iota
	inNote
)

// openNote is the note currently being tracked while in the inNote state.
// Velocity is fixed when the note opens and never updated afterwards.
type openNote struct {
	pitch    int
	start    float64
	velocity int
}

// Segment converts a time-ordered pitch track into discrete note events in
// a single pass. A frame is accepted when its confidence reaches
// minConfidence and its frequency is positive; an accepted frame either
// opens a note, continues one of the same pitch, or closes the current one
// (a pitch change closes and immediately reopens, same as a silence would
// close). A closed note is kept only when it spans at least
// minNoteDuration seconds; shorter candidates are dropped, not merged.
//
// A note closes at the time of the first frame that disqualifies it, so
// its duration is one frame step short of the span over which the pitch
// was actually detected. That matches the behavior the rest of the product
// was built against; see Segment's tests before changing it.
func Segment(frames []model.Frame, minConfidence, minNoteDuration float64) ([]model.NoteEvent, error) {
	notes := []model.NoteEvent{}
	var cur openNote
	st := idle
	lastTime := math.Inf(-1)

	for i, fr := range frames {
		if fr.TimeSeconds < lastTime {
			return nil, fmt.Errorf("%w: frame %d time %.6f precedes previous frame time %.6f",
				errs.ErrInvalidInput, i, fr.TimeSeconds, lastTime)
		}
		lastTime = fr.TimeSeconds

		accepted := fr.Confidence >= minConfidence && fr.FrequencyHz > 0

		switch st {
		case idle:
			if accepted {
				cur = open(fr)
				st = inNote
			}
		case inNote:
			switch {
			case !accepted:
				notes = emit(notes, cur, fr.TimeSeconds, minNoteDuration)
				st = idle
			case PitchFromFrequency(fr.FrequencyHz) != cur.pitch:
				notes = emit(notes, cur, fr.TimeSeconds, minNoteDuration)
				cur = open(fr)
			}
		}
	}

	// End of stream closes at the last processed frame's time, with no
	// synthetic one-step extension.
	if st == inNote {
		notes = emit(notes, cur, lastTime, minNoteDuration)
	}

	return notes, nil
}

func open(fr model.Frame) openNote {
	return openNote{
		pitch:    PitchFromFrequency(fr.FrequencyHz),
		start:    fr.TimeSeconds,
		velocity: VelocityFromConfidence(fr.Confidence),
	}
}

func emit(notes []model.NoteEvent, cur openNote, closeTime, minNoteDuration float64) []model.NoteEvent {
	duration := closeTime - cur.start
	if duration < minNoteDuration {
		return notes
	}
	return append(notes, model.NoteEvent{
		Pitch:            cur.pitch,
		StartTimeSeconds: cur.start,
		DurationSeconds:  duration,
		Velocity:         cur.velocity,
	})
}

// PitchFromFrequency maps a positive frequency in Hz to the nearest MIDI
// note number, clamped to [0,127]. 440 Hz maps to 69 (A4).
func PitchFromFrequency(freq float64) int {
	pitch := int(math.Round(69 + 12*math.Log2(freq/440)))
	return util.Clamp(pitch, 0, 127)
}

// VelocityFromConfidence maps oracle confidence to a MIDI velocity,
// clamped to [0,127].
func VelocityFromConfidence(confidence float64) int {
	return util.Clamp(int(confidence*100)+constants.VelocityOffset, 0, 127)
}
