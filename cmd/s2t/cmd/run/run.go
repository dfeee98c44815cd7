package run

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stream2text/internal/app"
	"stream2text/internal/app/config"
	"stream2text/internal/app/logging"
	"stream2text/internal/app/pipeline"
)

var settingsPath string

func init() {
	Cmd.Flags().StringVarP(&settingsPath, "config", "c", "",
		"optional YAML settings file, example: ./settings.yaml")
}

// Cmd represents the run command
var Cmd = &cobra.Command{
	Use:   "run <input-list>",
	Short: "Transcribe every stream listed in the input file",
	Long: `Transcribe every stream listed in the input file

The input file alternates output names and stream URLs, one per line:

    lecture1
    https://example.com/stream1/playlist.m3u8
    lecture2
    https://example.com/stream2/playlist.m3u8

Each pair is captured to mp3, uploaded to object storage, transcribed
by the speech service and written to the transcript directory. The
uploaded audio and the local capture are removed afterwards whether
the item succeeded or not.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
		log := logging.MustNewLogger(verbose)
		defer log.Sync()

		cfg, err := config.Load(settingsPath)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(cfg.Local.TempAudioDir, 0o755); err != nil {
			return fmt.Errorf("create temp audio dir: %w", err)
		}
		if err := os.MkdirAll(cfg.Local.TranscriptDir, 0o755); err != nil {
			return fmt.Errorf("create transcript dir: %w", err)
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open input list: %w", err)
		}
		items, err := pipeline.ParseInput(f, log)
		f.Close()
		if err != nil {
			return fmt.Errorf("read input list: %w", err)
		}
		if len(items) == 0 {
			log.Warn("input list contains no work items", zap.String("path", args[0]))
			return nil
		}

		ctx := cmd.Context()
		p, err := app.InitializePipeline(ctx, cfg, !verbose, log)
		if err != nil {
			return err
		}

		summary := p.Run(ctx, items)
		if summary.Failed > 0 {
			return fmt.Errorf("%d of %d items failed", summary.Failed, summary.Total)
		}
		return nil
	},
}
