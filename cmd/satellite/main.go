// Command satellite runs a voice satellite that a home automation controller
// drives over the ESPHome native API.
//
// Usage:
//
//	satellite [--debug]        run the satellite
//	satellite wakewords        list installed wake and stop words
//
// Configuration is read from the environment and an optional .env file.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lexiqai/voice-satellite/internal/config"
	"github.com/lexiqai/voice-satellite/internal/observability"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:   "satellite",
	Short: "ESPHome native API voice satellite",
	Long: `Voice satellite for a home automation controller.

Listens for wake words on the local microphone, streams speech to the
controller's voice pipeline and plays back the spoken responses, timer
alerts and announcements it sends.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return run(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging with console output")
	rootCmd.AddCommand(wakeWordsCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.LogLevel = "debug"
		cfg.LogPretty = true
	}
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
