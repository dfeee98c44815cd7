package collect

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stream2text/internal/app"
	"stream2text/internal/app/config"
	"stream2text/internal/app/logging"
)

var (
	jobID        string
	outputName   string
	settingsPath string
)

func init() {
	Cmd.Flags().StringVarP(&jobID, "jobId", "j", "",
		"ID of a transcription job submitted earlier")
	Cmd.Flags().StringVarP(&outputName, "output", "o", "",
		"base name of the transcript file to write, without extension")
	Cmd.Flags().StringVarP(&settingsPath, "config", "c", "",
		"optional YAML settings file, example: ./settings.yaml")

	Cmd.MarkFlagRequired("jobId")
	Cmd.MarkFlagRequired("output")
}

// Cmd represents the collect command
var Cmd = &cobra.Command{
	Use:   "collect",
	Short: "Fetch the transcript of an already-submitted job",
	Long: `Fetch the transcript of an already-submitted job

Recovers the result of a job whose original run was interrupted after
submission. Waits for the job to finish if it is still running, then
writes the transcript. No audio is captured or uploaded and nothing
is deleted.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
		log := logging.MustNewLogger(verbose)
		defer log.Sync()

		cfg, err := config.LoadSpeech(settingsPath)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(cfg.Local.TranscriptDir, 0o755); err != nil {
			return fmt.Errorf("create transcript dir: %w", err)
		}

		p, sc := app.InitializeCollector(cfg, log)
		return p.CollectJob(cmd.Context(), sc.JobURL(jobID), outputName)
	},
}
