package export

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cowriter/vox2midi/errs"
	"github.com/cowriter/vox2midi/midi"
	"github.com/cowriter/vox2midi/model"
	"github.com/cowriter/vox2midi/store"
)

func testRequest() model.ExportRequest {
	return model.ExportRequest{
		ProjectName: "My Song (demo)",
		TempoBPM:    120,
		Tracks: []model.ExportTrack{
			{
				TrackName: "Vocals",
				Notes: []model.NotePayload{
					{Pitch: 60, StartTime: 0.5, Duration: 0.5, Velocity: 90},
					{Pitch: 64, StartTime: 0, Duration: 0.25, Velocity: 80},
				},
			},
		},
	}
}

func newTestOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	s, err := store.NewDirStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewOrchestrator(s, nil)
}

func TestExportStoresPlayableMidi(t *testing.T) {
	o := newTestOrchestrator(t)
	resp, err := o.Export(context.Background(), "user-1", testRequest())

	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal("user-1", resp.UserID)
	assert.Equal("My Song (demo)", resp.ProjectName)
	assert.True(strings.HasPrefix(resp.MidiFile.Filename, "My_Song__demo_"))
	assert.True(strings.HasSuffix(resp.MidiFile.Filename, ".mid"))
	assert.Greater(resp.MidiFile.SizeBytes, 0)
	assert.Equal(DownloadLink("user-1", resp.MidiFile.Filename), resp.MidiFile.DownloadLink)

	// the stored bytes parse as a standard MIDI file with sorted notes
	data, err := o.Store.Get(context.Background(), "user-1", resp.MidiFile.Filename)
	assert.NoError(err)
	s, err := midi.Read(data)
	assert.NoError(err)
	assert.Len(s.Tracks, 1)
}

func TestExportWritesPlaceholderStems(t *testing.T) {
	o := newTestOrchestrator(t)
	resp, err := o.Export(context.Background(), "user-1", testRequest())

	assert := assert.New(t)
	assert.NoError(err)
	assert.Len(resp.WavStems, 1)
	assert.Equal("Vocals", resp.WavStems[0].TrackName)
	assert.Contains(resp.WavStems[0].Message, "Placeholder")

	data, err := o.Store.Get(context.Background(), "user-1", resp.WavStems[0].Filename)
	assert.NoError(err)
	assert.Contains(string(data), "Placeholder WAV for Vocals")
}

func TestExportRejectsEmptyRequest(t *testing.T) {
	o := newTestOrchestrator(t)
	_, err := o.Export(context.Background(), "user-1", model.ExportRequest{ProjectName: "x", TempoBPM: 120})
	assert.True(t, errors.Is(err, errs.ErrInvalidInput))
}

func TestExportRejectsBadTempoWithoutStoring(t *testing.T) {
	o := newTestOrchestrator(t)
	req := testRequest()
	req.TempoBPM = -1
	_, err := o.Export(context.Background(), "user-1", req)

	assert := assert.New(t)
	assert.True(errors.Is(err, errs.ErrInvalidInput))
}

func TestSanitizeProjectName(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("My_Song", SanitizeProjectName("My Song"))
	assert.Equal("a_b_c", SanitizeProjectName("a/b:c"))
	assert.Equal("untitled", SanitizeProjectName(""))
	assert.Equal("Track7", SanitizeProjectName("Track7"))
}
