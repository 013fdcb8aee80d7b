package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cowriter/vox2midi/constants"
	"github.com/cowriter/vox2midi/midi"
	"github.com/cowriter/vox2midi/model"
	"github.com/cowriter/vox2midi/track"
)

var (
	exportNotesPath string
	exportOutPath   string
)

func init() {
	exportCmd.Flags().StringVarP(&exportNotesPath, "notes", "n", "", "export request JSON file")
	exportCmd.Flags().StringVarP(&exportOutPath, "out", "o", "out.mid", "output MIDI path")
	exportCmd.MarkFlagRequired("notes")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Encodes a notes JSON file as MIDI",
	Long:  `Reads an export request (project name, tempo, tracks of notes) and writes a MIDI file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return exportToFile()
	},
}

func exportToFile() error {
	data, err := os.ReadFile(exportNotesPath)
	if err != nil {
		return err
	}

	var req model.ExportRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("could not parse %v: %w", exportNotesPath, err)
	}

	var tracks []model.Track
	for _, t := range req.Tracks {
		notes := make([]model.NoteEvent, 0, len(t.Notes))
		for _, n := range t.Notes {
			notes = append(notes, n.NoteEvent())
		}
		assembled, err := track.Assemble(t.TrackName, req.TempoBPM, notes)
		if err != nil {
			return err
		}
		tracks = append(tracks, assembled)
	}

	encoded, err := midi.Encode(tracks, constants.TicksPerQuarter)
	if err != nil {
		return err
	}

	if err := os.WriteFile(exportOutPath, encoded, 0644); err != nil {
		return err
	}
	fmt.Printf("Wrote %v tracks (%v bytes) to %v\n", len(tracks), len(encoded), exportOutPath)
	return nil
}
