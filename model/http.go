package model

// ErrorResponse mirrors the error body shape the frontend already
// consumes: {"detail": "..."}.
type ErrorResponse struct {
	Error string `json:"detail"`
}

// TranscriptionResponse is returned by the voice-to-midi endpoint and the
// transcribe CLI. Tempo is a placeholder; estimation is out of scope.
type TranscriptionResponse struct {
	Filename            string        `json:"filename"`
	Status              string        `json:"status"`
	Message             string        `json:"message"`
	SampleRateProcessed int           `json:"sample_rate_processed"`
	DurationSeconds     float64       `json:"duration_seconds"`
	Notes               []NotePayload `json:"notes"`
	TempoBPM            float64       `json:"tempo_bpm"`
}

// ExportTrack is one track in an export request.
type ExportTrack struct {
	TrackName string        `json:"track_name"`
	Notes     []NotePayload `json:"notes"`
}

type ExportRequest struct {
	ProjectName string        `json:"project_name"`
	TempoBPM    float64       `json:"tempo_bpm"`
	Tracks      []ExportTrack `json:"midi_tracks"`
	Lyrics      string        `json:"lyrics,omitempty"`
}

type ExportedFile struct {
	Filename     string `json:"filename"`
	Location     string `json:"location"`
	SizeBytes    int    `json:"size_bytes"`
	DownloadLink string `json:"download_link"`
}

// ExportedStem is a placeholder entry for a not-yet-rendered audio stem.
type ExportedStem struct {
	TrackName    string `json:"track_name"`
	Filename     string `json:"filename"`
	Message      string `json:"message"`
	DownloadLink string `json:"download_link,omitempty"`
}

type ExportResponse struct {
	Message     string         `json:"message"`
	UserID      string         `json:"user_id"`
	ProjectName string         `json:"project_name"`
	MidiFile    ExportedFile   `json:"midi_file"`
	WavStems    []ExportedStem `json:"wav_stems"`
}
