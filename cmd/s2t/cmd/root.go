package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"stream2text/cmd/s2t/cmd/collect"
	"stream2text/cmd/s2t/cmd/run"
	"stream2text/cmd/s2t/cmd/version"
)

var Verbose bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "s2t",
	Short: "Batch-transcribe streaming media into text files",
	Long: `Batch-transcribe streaming media into text files.
- Reads an input list of (output name, stream URL) line pairs
- Captures each stream to audio with ffmpeg
- Uploads the audio to object storage and submits a transcription job
- Waits for completion, saves the transcript and cleans up every artifact`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(run.Cmd)
	rootCmd.AddCommand(collect.Cmd)
	rootCmd.AddCommand(version.Cmd)

	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "V", false, "verbose output")
}
