package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/cowriter/vox2midi/constants"
	"github.com/cowriter/vox2midi/errs"
	"github.com/cowriter/vox2midi/midi"
	"github.com/cowriter/vox2midi/model"
	"github.com/cowriter/vox2midi/store"
	"github.com/cowriter/vox2midi/track"
)

// Orchestrator turns an export request into a stored MIDI file plus
// placeholder stem entries. It is an explicit value with explicit
// dependencies; nothing here reads process-global state.
type Orchestrator struct {
	Store           store.Store
	TicksPerQuarter uint16
	Logger          *slog.Logger
}

func NewOrchestrator(s store.Store, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		Store:           s,
		TicksPerQuarter: constants.TicksPerQuarter,
		Logger:          logger,
	}
}

// Export assembles the request's tracks, encodes them, and stores the
// result under the user's namespace. Stem rendering is not implemented;
// a placeholder is stored per track so the download links resolve.
func (o *Orchestrator) Export(ctx context.Context, userID string, req model.ExportRequest) (*model.ExportResponse, error) {
	if len(req.Tracks) == 0 {
		return nil, fmt.Errorf("%w: export request has no tracks", errs.ErrInvalidInput)
	}

	tracks := make([]model.Track, 0, len(req.Tracks))
	for _, t := range req.Tracks {
		name := t.TrackName
		if name == "" {
			name = "Unnamed Track"
		}
		notes := make([]model.NoteEvent, 0, len(t.Notes))
		for _, n := range t.Notes {
			notes = append(notes, n.NoteEvent())
		}
		assembled, err := track.Assemble(name, req.TempoBPM, notes)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, assembled)
	}

	data, err := midi.Encode(tracks, o.TicksPerQuarter)
	if err != nil {
		return nil, err
	}

	session := fmt.Sprintf("%s_%s", SanitizeProjectName(req.ProjectName), uuid.New().String()[:8])

	midiFilename := session + ".mid"
	location, err := o.Store.Put(ctx, userID, midiFilename, data)
	if err != nil {
		return nil, err
	}
	o.Logger.Info("midi export stored",
		slog.String("user", userID),
		slog.String("file", midiFilename),
		slog.Int("tracks", len(tracks)),
		slog.Int("bytes", len(data)))

	stems := make([]model.ExportedStem, 0, len(tracks))
	for _, t := range tracks {
		stemFilename := fmt.Sprintf("%s_%s.wav", session, strings.ReplaceAll(t.Name, " ", "_"))
		placeholder := []byte(fmt.Sprintf("Placeholder WAV for %s - User: %s", t.Name, userID))
		if _, err := o.Store.Put(ctx, userID, stemFilename, placeholder); err != nil {
			o.Logger.Warn("placeholder stem not stored",
				slog.String("file", stemFilename), slog.Any("error", err))
			stems = append(stems, model.ExportedStem{
				TrackName: t.Name,
				Message:   fmt.Sprintf("Failed to create placeholder WAV: %v", err),
			})
			continue
		}
		stems = append(stems, model.ExportedStem{
			TrackName:    t.Name,
			Filename:     stemFilename,
			Message:      "Placeholder WAV stem. Actual rendering TBD.",
			DownloadLink: DownloadLink(userID, stemFilename),
		})
	}

	return &model.ExportResponse{
		Message:     "Project export complete. MIDI file generated. WAV stems are placeholders.",
		UserID:      userID,
		ProjectName: req.ProjectName,
		MidiFile: model.ExportedFile{
			Filename:     midiFilename,
			Location:     location,
			SizeBytes:    len(data),
			DownloadLink: DownloadLink(userID, midiFilename),
		},
		WavStems: stems,
	}, nil
}

// SanitizeProjectName replaces anything that isn't a letter or digit with
// an underscore, so project names are safe as filename prefixes.
func SanitizeProjectName(name string) string {
	if name == "" {
		return "untitled"
	}
	var b strings.Builder
	for _, c := range name {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			b.WriteRune(c)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

// DownloadLink builds the API path a client uses to fetch a stored
// export.
func DownloadLink(userID, filename string) string {
	return fmt.Sprintf("/api/v1/exports/download/%s/%s", userID, filename)
}
