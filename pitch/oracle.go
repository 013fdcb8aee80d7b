package pitch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/cowriter/vox2midi/errs"
	"github.com/cowriter/vox2midi/model"
)

// PitchTrack is the oracle's output: the frame sequence plus the audio
// facts the caller reports back (the estimator resamples to 16 kHz).
type PitchTrack struct {
	SampleRate      int           `json:"sample_rate"`
	DurationSeconds float64       `json:"duration_seconds"`
	Frames          []model.Frame `json:"frames"`
}

// Oracle produces a frame-level pitch track for an audio file. The
// estimation model itself is external; the pipeline trusts its output.
type Oracle interface {
	Detect(ctx context.Context, audioPath string) (*PitchTrack, error)
}

// CrepeOracle shells out to a Python helper that runs the CREPE model
// (tiny capacity, viterbi smoothing, 10 ms step) and prints a PitchTrack
// as JSON on stdout.
type CrepeOracle struct {
	PythonPath string
	ScriptPath string
}

func NewCrepeOracle(pythonPath, scriptPath string) *CrepeOracle {
	if pythonPath == "" {
		pythonPath = "python3"
	}
	return &CrepeOracle{PythonPath: pythonPath, ScriptPath: scriptPath}
}

func (o *CrepeOracle) Detect(ctx context.Context, audioPath string) (*PitchTrack, error) {
	cmd := exec.CommandContext(ctx, o.PythonPath, o.ScriptPath, audioPath)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return nil, &errs.OracleError{
			Tool:     "crepe",
			ExitCode: exitCode,
			Stderr:   stderr.String(),
			Cause:    err,
		}
	}

	return ParseTrack(stdout.Bytes())
}

// ParseTrack decodes the oracle's JSON output.
func ParseTrack(data []byte) (*PitchTrack, error) {
	var track PitchTrack
	if err := json.Unmarshal(data, &track); err != nil {
		return nil, fmt.Errorf("%w: unparseable oracle output: %v", errs.ErrOracleFailure, err)
	}
	return &track, nil
}
