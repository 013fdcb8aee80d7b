package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cowriter/vox2midi/auth"
	"github.com/cowriter/vox2midi/errs"
	"github.com/cowriter/vox2midi/export"
	"github.com/cowriter/vox2midi/job"
	"github.com/cowriter/vox2midi/midi"
	"github.com/cowriter/vox2midi/model"
	"github.com/cowriter/vox2midi/pitch"
	"github.com/cowriter/vox2midi/store"
)

type fakeOracle struct {
	track *pitch.PitchTrack
	err   error
}

func (f fakeOracle) Detect(ctx context.Context, audioPath string) (*pitch.PitchTrack, error) {
	return f.track, f.err
}

func steadyPitchTrack() *pitch.PitchTrack {
	track := &pitch.PitchTrack{SampleRate: 16000, DurationSeconds: 0.1}
	for i := 0; i < 10; i++ {
		track.Frames = append(track.Frames, model.Frame{
			TimeSeconds: float64(i) * 0.01,
			FrequencyHz: 440,
			Confidence:  0.9,
		})
	}
	return track
}

func newTestAPI(t *testing.T, oracle pitch.Oracle) *api {
	t.Helper()
	st, err := store.NewDirStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
	return &api{
		logger:       logger,
		auth:         auth.NewStaticAuthenticator(map[string]auth.User{"tok-1": {ID: "user-1"}}),
		oracle:       oracle,
		pool:         job.NewPool(1),
		store:        st,
		orchestrator: export.NewOrchestrator(st, logger),
	}
}

func uploadRequest(t *testing.T, contentType string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="audio_file"; filename="take.wav"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("not real audio, the oracle is faked"))
	w.Close()

	req := httptest.NewRequest("POST", "/api/v1/process/voice-to-midi", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer tok-1")
	return req
}

func TestVoiceToMIDIReturnsNotes(t *testing.T) {
	a := newTestAPI(t, fakeOracle{track: steadyPitchTrack()})

	rec := httptest.NewRecorder()
	a.newRouter().ServeHTTP(rec, uploadRequest(t, "audio/wav"))

	assert := assert.New(t)
	assert.Equal(http.StatusOK, rec.Code)

	var resp model.TranscriptionResponse
	assert.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal("success", resp.Status)
	assert.Equal("take.wav", resp.Filename)
	assert.Equal(16000, resp.SampleRateProcessed)
	assert.Equal(120.0, resp.TempoBPM)
	assert.Len(resp.Notes, 1)
	assert.Equal(69, resp.Notes[0].Pitch)
	assert.Equal(0.09, resp.Notes[0].Duration)
	assert.Equal(117, resp.Notes[0].Velocity)
}

func TestVoiceToMIDIEmptyTranscriptionIsSuccess(t *testing.T) {
	a := newTestAPI(t, fakeOracle{track: &pitch.PitchTrack{SampleRate: 16000}})

	rec := httptest.NewRecorder()
	a.newRouter().ServeHTTP(rec, uploadRequest(t, "audio/wav"))

	assert := assert.New(t)
	assert.Equal(http.StatusOK, rec.Code)

	var resp model.TranscriptionResponse
	assert.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal("success", resp.Status)
	assert.Empty(resp.Notes)
}

func TestVoiceToMIDIOracleFailureIsBadGateway(t *testing.T) {
	a := newTestAPI(t, fakeOracle{err: &errs.OracleError{Tool: "crepe", ExitCode: 1, Stderr: "no module named crepe"}})

	rec := httptest.NewRecorder()
	a.newRouter().ServeHTTP(rec, uploadRequest(t, "audio/wav"))

	assert := assert.New(t)
	assert.Equal(http.StatusBadGateway, rec.Code)

	var resp model.ErrorResponse
	assert.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(resp.Error, "crepe")
}

func TestVoiceToMIDIRejectsNonAudioUpload(t *testing.T) {
	a := newTestAPI(t, fakeOracle{track: steadyPitchTrack()})

	rec := httptest.NewRecorder()
	a.newRouter().ServeHTTP(rec, uploadRequest(t, "text/plain"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestsWithoutTokenAreUnauthorized(t *testing.T) {
	a := newTestAPI(t, fakeOracle{track: steadyPitchTrack()})

	req := uploadRequest(t, "audio/wav")
	req.Header.Del("Authorization")

	rec := httptest.NewRecorder()
	a.newRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExportThenDownload(t *testing.T) {
	a := newTestAPI(t, fakeOracle{})

	body, _ := json.Marshal(model.ExportRequest{
		ProjectName: "Demo",
		TempoBPM:    120,
		Tracks: []model.ExportTrack{
			{TrackName: "Vocals", Notes: []model.NotePayload{
				{Pitch: 60, StartTime: 0.5, Duration: 0.5, Velocity: 90},
			}},
		},
	})
	req := httptest.NewRequest("POST", "/api/v1/exports/export-project", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer tok-1")
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	a.newRouter().ServeHTTP(rec, req)

	assert := assert.New(t)
	assert.Equal(http.StatusOK, rec.Code)

	var resp model.ExportResponse
	assert.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal("user-1", resp.UserID)
	assert.NotEmpty(resp.MidiFile.Filename)

	// download it back through the API
	dlReq := httptest.NewRequest("GET", resp.MidiFile.DownloadLink, nil)
	dlReq.Header.Set("Authorization", "Bearer tok-1")
	dlRec := httptest.NewRecorder()
	a.newRouter().ServeHTTP(dlRec, dlReq)

	assert.Equal(http.StatusOK, dlRec.Code)
	assert.Equal("audio/midi", dlRec.Header().Get("Content-Type"))

	s, err := midi.Read(dlRec.Body.Bytes())
	assert.NoError(err)
	assert.Len(s.Tracks, 1)
}

func TestDownloadingAnotherUsersFileIsForbidden(t *testing.T) {
	a := newTestAPI(t, fakeOracle{})

	req := httptest.NewRequest("GET", fmt.Sprintf("/api/v1/exports/download/%s/%s", "user-2", "song.mid"), nil)
	req.Header.Set("Authorization", "Bearer tok-1")

	rec := httptest.NewRecorder()
	a.newRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDownloadingMissingFileIs404(t *testing.T) {
	a := newTestAPI(t, fakeOracle{})

	req := httptest.NewRequest("GET", "/api/v1/exports/download/user-1/gone.mid", nil)
	req.Header.Set("Authorization", "Bearer tok-1")

	rec := httptest.NewRecorder()
	a.newRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportWithBadTempoIsBadRequest(t *testing.T) {
	a := newTestAPI(t, fakeOracle{})

	body, _ := json.Marshal(model.ExportRequest{
		ProjectName: "Demo",
		TempoBPM:    0,
		Tracks:      []model.ExportTrack{{TrackName: "Vocals"}},
	})
	req := httptest.NewRequest("POST", "/api/v1/exports/export-project", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer tok-1")

	rec := httptest.NewRecorder()
	a.newRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
