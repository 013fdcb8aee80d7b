package midi

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/cowriter/vox2midi/errs"
	"github.com/cowriter/vox2midi/model"
	"github.com/cowriter/vox2midi/util"
)

// Encode serializes tracks into a standard multi-track MIDI byte stream.
// All tempos, note times, and the tick resolution are validated before
// any bytes are produced. Within a track the delta-time cursor only moves forward, so
// every emitted delta is >= 0; this relies on notes being pre-sorted by
// start time (track.Assemble guarantees it). Notes sharing a start time
// are encoded in input order with a zero delta between them.
func Encode(tracks []model.Track, ticksPerQuarter uint16) ([]byte, error) {
	if ticksPerQuarter == 0 {
		return nil, fmt.Errorf("%w: ticks per quarter must be positive", errs.ErrInvalidInput)
	}
	for _, t := range tracks {
		if t.TempoBPM <= 0 {
			return nil, fmt.Errorf("%w: track %q has non-positive tempo %v", errs.ErrInvalidInput, t.Name, t.TempoBPM)
		}
		for _, n := range t.Notes {
			if n.StartTimeSeconds < 0 {
				return nil, fmt.Errorf("%w: track %q has a note with negative start time %v", errs.ErrInvalidInput, t.Name, n.StartTimeSeconds)
			}
			if n.DurationSeconds < 0 {
				return nil, fmt.Errorf("%w: track %q has a note with negative duration %v", errs.ErrInvalidInput, t.Name, n.DurationSeconds)
			}
		}
	}

	var s smf.SMF
	s.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	for _, t := range tracks {
		var tr smf.Track
		tr.Add(0, smf.MetaTrackSequenceName(t.Name))
		tr.Add(0, smf.MetaTempo(t.TempoBPM))

		var cursor int64
		for _, n := range t.Notes {
			pitch := uint8(util.Clamp(n.Pitch, 0, 127))
			velocity := uint8(util.Clamp(n.Velocity, 0, 127))

			startTicks := SecondsToTicks(n.StartTimeSeconds, t.TempoBPM, ticksPerQuarter)
			durationTicks := SecondsToTicks(n.DurationSeconds, t.TempoBPM, ticksPerQuarter)

			deltaOn := startTicks - cursor
			if deltaOn < 0 {
				deltaOn = 0
			}
			tr.Add(uint32(deltaOn), gomidi.NoteOn(0, pitch, velocity))
			cursor += deltaOn

			tr.Add(uint32(durationTicks), gomidi.NoteOff(0, pitch))
			cursor += durationTicks
		}

		tr.Close(0)
		s.Tracks = append(s.Tracks, tr)
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write smf: %w", err)
	}
	return buf.Bytes(), nil
}

// SecondsToTicks converts a time in seconds to ticks at the given tempo
// and resolution, rounding to the nearest tick.
func SecondsToTicks(seconds, tempoBPM float64, ticksPerQuarter uint16) int64 {
	secondsPerBeat := 60 / tempoBPM
	return int64(math.Round(seconds / secondsPerBeat * float64(ticksPerQuarter)))
}

// TicksToSeconds is the inverse of SecondsToTicks, used when reading
// timing back out of an encoded file.
func TicksToSeconds(ticks int64, tempoBPM float64, ticksPerQuarter uint16) float64 {
	secondsPerBeat := 60 / tempoBPM
	return float64(ticks) / float64(ticksPerQuarter) * secondsPerBeat
}

// ReadFile parses a MIDI file from disk.
func ReadFile(filepath string) (s *smf.SMF, e error) {
	// handle panics
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r, ok := recover().(string); ok {
			e = errors.New(r)
		}
	}()

	dat, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("error reading midi file: %w", err)
	}
	return Read(dat)
}

// Read parses an encoded MIDI byte stream.
func Read(data []byte) (*smf.SMF, error) {
	res, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("error parsing midi file: %w", err)
	}
	return res, nil
}
