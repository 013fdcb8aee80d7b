package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cowriter/vox2midi/midi"
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspects a MIDI file",
	Long:  `Inspects a MIDI file`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return inspect(args[0])
	},
}

func inspect(path string) error {
	s, err := midi.ReadFile(path)
	if err != nil {
		return err
	}

	fmt.Printf("time format: %v\n", s.TimeFormat)
	for i, tr := range s.Tracks {
		fmt.Printf("track %v:\n", i)
		var absTicks uint64
		for _, ev := range tr {
			absTicks += uint64(ev.Delta)
			fmt.Printf("  %8d %s\n", absTicks, ev.Message.String())
		}
	}
	return nil
}
