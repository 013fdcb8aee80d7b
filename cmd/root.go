package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vox2midi",
	Short: "Voice-to-MIDI transcription",
	Long:  `Transcribes vocal recordings into note sequences and MIDI files.`,
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
