package model

import "github.com/cowriter/vox2midi/util"

// Frame is one pitch estimate from the oracle: a timestamp, the detected
// fundamental frequency and the model's confidence in [0,1]. Frames arrive
// at a fixed step (tens of milliseconds) in non-decreasing time order.
type Frame struct {
	TimeSeconds float64 `json:"time"`
	FrequencyHz float64 `json:"frequency"`
	Confidence  float64 `json:"confidence"`
}

// NoteEvent is a segmented note: pitch and velocity are MIDI numbers in
// [0,127], times are seconds at full precision. Rounding for display
// happens in NotePayload, never here.
type NoteEvent struct {
	Pitch            int
	StartTimeSeconds float64
	DurationSeconds  float64
	Velocity         int
}

// Track is one instrument/voice line ready for encoding. Notes must be
// sorted by start time (track.Assemble guarantees this).
type Track struct {
	Name     string
	TempoBPM float64
	Notes    []NoteEvent
}

// NotePayload is the JSON shape returned to callers that only want
// symbolic notes. Start and duration carry 3-decimal rounding.
type NotePayload struct {
	Pitch     int     `json:"pitch"`
	StartTime float64 `json:"start_time"`
	Duration  float64 `json:"duration"`
	Velocity  int     `json:"velocity"`
}

func NewNotePayload(n NoteEvent) NotePayload {
	return NotePayload{
		Pitch:     n.Pitch,
		StartTime: util.Round3(n.StartTimeSeconds),
		Duration:  util.Round3(n.DurationSeconds),
		Velocity:  n.Velocity,
	}
}

func NewNotePayloads(notes []NoteEvent) []NotePayload {
	res := make([]NotePayload, 0, len(notes))
	for _, n := range notes {
		res = append(res, NewNotePayload(n))
	}
	return res
}

// NoteEvent converts a payload back to the internal representation, for
// callers (the export API, the export CLI) that submit notes as JSON.
func (p NotePayload) NoteEvent() NoteEvent {
	return NoteEvent{
		Pitch:            p.Pitch,
		StartTimeSeconds: p.StartTime,
		DurationSeconds:  p.Duration,
		Velocity:         p.Velocity,
	}
}
