package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/lexiqai/voice-satellite/internal/observability"
	"github.com/lexiqai/voice-satellite/internal/wakeword"
)

var wakeWordsCmd = &cobra.Command{
	Use:   "wakewords",
	Short: "List installed wake and stop words",
	Long: `List the wake and stop words found in WAKE_WORDS_DIR and STOP_WORDS_DIR.

Each word is a <id>.json manifest next to its .tflite model.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := observability.Component("wakewords")
		fs := afero.NewOsFs()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KIND\tID\tPHRASE\tLANGUAGES\tCUTOFF\tWINDOW")
		for _, dir := range []struct{ kind, path string }{
			{"wake", cfg.WakeWordsDir},
			{"stop", cfg.StopWordsDir},
		} {
			words, err := wakeword.NewDirProvider(fs, dir.path, logger).Words()
			if err != nil {
				return fmt.Errorf("list %s words: %w", dir.kind, err)
			}
			for _, word := range words {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%d\n",
					dir.kind, word.ID, word.Phrase, strings.Join(word.Languages, ","),
					word.ProbabilityCutoff, word.SlidingWindowSize)
			}
		}
		return w.Flush()
	},
}
