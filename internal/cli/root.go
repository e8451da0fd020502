package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/synheart/physiosim/internal/config"
	"github.com/synheart/physiosim/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "physiosim",
	Short: "physiosim - physiological signal simulator for clinical training tools",
	Long: `physiosim synthesizes clinical waveforms (defibrillator monitor, 12-lead EKG,
EEG, CTG, esophageal manometry, spirometry) from scripted scenarios and streams
them as sample events over WebSocket, SSE, UDP and NATS.

Sessions are seeded and run on simulated time, so a scenario and seed always
produce the same samples.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalOpts.LogLevel, "log-level", "", "Log level: info|debug|trace (default from PHYSIOSIM_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.LogFormat, "log-format", "", "Log format: text|json (default from PHYSIOSIM_LOG_FORMAT)")
	rootCmd.PersistentFlags().BoolVar(&globalOpts.NoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.Quiet, "quiet", "q", false, "Only print warnings and errors")

	rootCmd.AddCommand(simCmd)
	rootCmd.AddCommand(caseCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads the environment configuration and installs the logger.
// Explicit flags win over the environment.
func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	appConfig = cfg

	if globalOpts.LogLevel == "" {
		globalOpts.LogLevel = cfg.LogLevel
	}
	if globalOpts.LogFormat == "" {
		globalOpts.LogFormat = cfg.LogFormat
	}
	slog.SetDefault(logging.NewLogger(globalOpts.LogLevel, cmd.ErrOrStderr(), globalOpts.LogFormat))
	return nil
}

func newUI(cmd *cobra.Command) *UI {
	return NewUI(cmd.OutOrStdout(), cmd.ErrOrStderr(), globalOpts.NoColor, globalOpts.Quiet)
}
