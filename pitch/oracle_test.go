package pitch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cowriter/vox2midi/errs"
)

func TestParseTrack(t *testing.T) {
	out := []byte(`{
		"sample_rate": 16000,
		"duration_seconds": 1.25,
		"frames": [
			{"time": 0.0, "frequency": 440.0, "confidence": 0.91},
			{"time": 0.01, "frequency": 441.2, "confidence": 0.88}
		]
	}`)

	track, err := ParseTrack(out)

	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal(16000, track.SampleRate)
	assert.Equal(1.25, track.DurationSeconds)
	assert.Len(track.Frames, 2)
	assert.Equal(0.01, track.Frames[1].TimeSeconds)
	assert.Equal(441.2, track.Frames[1].FrequencyHz)
	assert.Equal(0.88, track.Frames[1].Confidence)
}

func TestParseTrackGarbageIsOracleFailure(t *testing.T) {
	_, err := ParseTrack([]byte("Traceback (most recent call last):"))
	assert.True(t, errors.Is(err, errs.ErrOracleFailure))
}

func TestParseTrackEmptyFramesIsValid(t *testing.T) {
	// zero frames means a valid silence, not a failure
	track, err := ParseTrack([]byte(`{"sample_rate": 16000, "duration_seconds": 0.5, "frames": []}`))

	assert := assert.New(t)
	assert.NoError(err)
	assert.Empty(track.Frames)
}
