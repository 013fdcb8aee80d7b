package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/cowriter/vox2midi/auth"
	"github.com/cowriter/vox2midi/constants"
	"github.com/cowriter/vox2midi/errs"
	"github.com/cowriter/vox2midi/export"
	"github.com/cowriter/vox2midi/job"
	"github.com/cowriter/vox2midi/model"
	"github.com/cowriter/vox2midi/pitch"
	"github.com/cowriter/vox2midi/segment"
	"github.com/cowriter/vox2midi/store"
)

const maxUploadSize = 50 * 1024 * 1024 // 50MB

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the HTTP API",
	Long:  `Runs the voice-to-MIDI HTTP API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

// api holds the server's dependencies as explicit values. No handler
// reads process-global state.
type api struct {
	logger       *slog.Logger
	auth         auth.Authenticator
	oracle       pitch.Oracle
	pool         *job.Pool
	store        store.Store
	orchestrator *export.Orchestrator
}

func serve() error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	authn, err := auth.FromEnv()
	if err != nil {
		return err
	}

	st, err := buildStore()
	if err != nil {
		return err
	}

	a := &api{
		logger:       logger,
		auth:         authn,
		oracle:       pitch.NewCrepeOracle(constants.GetPythonPath(), constants.GetOracleScript()),
		pool:         job.NewPool(constants.GetOracleWorkers()),
		store:        st,
		orchestrator: export.NewOrchestrator(st, logger),
	}

	c := cors.New(cors.Options{
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})

	srv := &http.Server{
		Addr:         constants.GetListenAddr(),
		Handler:      c.Handler(a.newRouter()),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server starting", slog.String("addr", srv.Addr))
	return srv.ListenAndServe()
}

func buildStore() (store.Store, error) {
	if bucket := constants.GetExportBucket(); bucket != "" {
		return store.NewS3Store(bucket, constants.GetExportBucketRegion())
	}
	return store.NewDirStore(constants.GetExportDir())
}

func (a *api) newRouter() *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/", a.handleRoot).Methods("GET")
	router.HandleFunc("/healthz", a.handleHealth).Methods("GET")

	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/process/voice-to-midi", a.withUser(a.handleVoiceToMIDI)).Methods("POST")
	v1.HandleFunc("/exports/export-project", a.withUser(a.handleExportProject)).Methods("POST")
	v1.HandleFunc("/exports/download/{userID}/{filename}", a.withUser(a.handleDownload)).Methods("GET")
	return router
}

func (a *api) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the Cowriter API!"})
}

func (a *api) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type userHandler func(w http.ResponseWriter, r *http.Request, user auth.User)

func (a *api) withUser(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		user, err := a.auth.Authenticate(r.Context(), token)
		if err != nil {
			a.writeError(w, err)
			return
		}
		next(w, r, user)
	}
}

func (a *api) handleVoiceToMIDI(w http.ResponseWriter, r *http.Request, user auth.User) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	file, header, err := r.FormFile("audio_file")
	if err != nil {
		a.writeErrorStatus(w, http.StatusBadRequest, "Please upload an audio file in the audio_file field.")
		return
	}
	defer file.Close()

	if !strings.HasPrefix(header.Header.Get("Content-Type"), "audio/") {
		a.writeErrorStatus(w, http.StatusBadRequest,
			fmt.Sprintf("Invalid audio file type: %v. Please upload a supported audio format.", header.Header.Get("Content-Type")))
		return
	}

	workDir, err := os.MkdirTemp("", "vox2midi-*")
	if err != nil {
		a.writeError(w, err)
		return
	}
	defer os.RemoveAll(workDir)

	inputPath := filepath.Join(workDir, "input"+filepath.Ext(header.Filename))
	dst, err := os.Create(inputPath)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		a.writeError(w, err)
		return
	}
	dst.Close()

	// Estimation is the long-running stage; it waits for a worker slot so
	// concurrent uploads don't serialize the whole server behind it.
	var ptrack *pitch.PitchTrack
	if err := a.pool.Do(r.Context(), func() error {
		var detectErr error
		ptrack, detectErr = a.oracle.Detect(r.Context(), inputPath)
		return detectErr
	}); err != nil {
		a.logger.Error("pitch estimation failed",
			slog.String("user", user.ID), slog.Any("error", err))
		a.writeError(w, err)
		return
	}

	notes, err := segment.Segment(ptrack.Frames, constants.GetMinConfidence(), constants.GetMinNoteDuration())
	if err != nil {
		a.writeError(w, err)
		return
	}

	a.logger.Info("transcription complete",
		slog.String("user", user.ID),
		slog.String("file", header.Filename),
		slog.Int("frames", len(ptrack.Frames)),
		slog.Int("notes", len(notes)))

	writeJSON(w, http.StatusOK, model.TranscriptionResponse{
		Filename:            header.Filename,
		Status:              "success",
		Message:             "MIDI conversion using CREPE complete.",
		SampleRateProcessed: ptrack.SampleRate,
		DurationSeconds:     math.Round(ptrack.DurationSeconds*100) / 100,
		Notes:               model.NewNotePayloads(notes),
		TempoBPM:            constants.DefaultTempoBPM,
	})
}

func (a *api) handleExportProject(w http.ResponseWriter, r *http.Request, user auth.User) {
	var req model.ExportRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadSize)).Decode(&req); err != nil {
		a.writeErrorStatus(w, http.StatusBadRequest, "Could not parse export request: "+err.Error())
		return
	}

	resp, err := a.orchestrator.Export(r.Context(), user.ID, req)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *api) handleDownload(w http.ResponseWriter, r *http.Request, user auth.User) {
	vars := mux.Vars(r)
	userID := vars["userID"]
	filename := vars["filename"]

	if user.ID != userID {
		a.writeErrorStatus(w, http.StatusForbidden, "Forbidden: You do not have access to this file.")
		return
	}

	data, err := a.store.Get(r.Context(), userID, filename)
	if errors.Is(err, errs.ErrNotFound) {
		a.writeErrorStatus(w, http.StatusNotFound, "File not found or export session expired.")
		return
	}
	if err != nil {
		a.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", store.ContentTypeFor(filename))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(data); err != nil {
		// headers are already sent, so all that is left is to log it
		a.logger.Error("download write failed",
			slog.String("user", user.ID), slog.String("file", filename), slog.Any("error", err))
	}
}

func (a *api) writeError(w http.ResponseWriter, err error) {
	a.writeErrorStatus(w, statusFor(err), err.Error())
}

func (a *api) writeErrorStatus(w http.ResponseWriter, status int, detail string) {
	if status >= 500 {
		a.logger.Error("request failed", slog.Int("status", status), slog.String("detail", detail))
	}
	writeJSON(w, status, model.ErrorResponse{Error: detail})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrOracleFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
