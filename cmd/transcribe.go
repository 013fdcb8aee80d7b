package cmd

import (
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cowriter/vox2midi/constants"
	"github.com/cowriter/vox2midi/model"
	"github.com/cowriter/vox2midi/pitch"
	"github.com/cowriter/vox2midi/segment"
)

var (
	transcribeInput         string
	transcribeMinConfidence float64
	transcribeMinDuration   float64
)

func init() {
	transcribeCmd.Flags().StringVarP(&transcribeInput, "input", "i", "", "audio file to transcribe")
	transcribeCmd.Flags().Float64Var(&transcribeMinConfidence, "min-confidence", constants.GetMinConfidence(), "minimum pitch confidence")
	transcribeCmd.Flags().Float64Var(&transcribeMinDuration, "min-duration", constants.GetMinNoteDuration(), "minimum note duration in seconds")
	transcribeCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(transcribeCmd)
}

var transcribeCmd = &cobra.Command{
	Use:   "transcribe",
	Short: "Transcribes an audio file to notes",
	Long:  `Runs pitch estimation on an audio file and prints the segmented notes as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return transcribe(cmd)
	},
}

func transcribe(cmd *cobra.Command) error {
	oracle := pitch.NewCrepeOracle(constants.GetPythonPath(), constants.GetOracleScript())

	ptrack, err := oracle.Detect(cmd.Context(), transcribeInput)
	if err != nil {
		return err
	}

	notes, err := segment.Segment(ptrack.Frames, transcribeMinConfidence, transcribeMinDuration)
	if err != nil {
		return err
	}

	resp := model.TranscriptionResponse{
		Filename:            filepath.Base(transcribeInput),
		Status:              "success",
		Message:             fmt.Sprintf("Transcribed %v frames into %v notes.", len(ptrack.Frames), len(notes)),
		SampleRateProcessed: ptrack.SampleRate,
		DurationSeconds:     math.Round(ptrack.DurationSeconds*100) / 100,
		Notes:               model.NewNotePayloads(notes),
		TempoBPM:            constants.DefaultTempoBPM,
	}

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
