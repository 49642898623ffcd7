package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/encodeous/tint"
	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
	logFile string

	logger = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "otr",
	Short: "OpenTraceFPGA - global signal router",
	Long: `OpenTraceFPGA (otr) routes the global nets of a placed FPGA design:
  - GND and VCC nets, sourced from tie-offs or LUTs turned into constants
  - clock nets, distributed symmetrically from a clock buffer

Examples:
  otr device synth -o xcsyn8.dev             # Write the synthetic device
  otr device info xcsyn8.dev                 # Summarize a device file
  otr route --design top.yaml -o routed.yaml # Route the global nets`,
	Version:           "0.3.0",
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this file")
}

// setupLogging sends colored logs to stderr and, with --log-file, plain text
// logs to the file as well.
func setupLogging(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handlers := []slog.Handler{
		tint.NewHandler(os.Stderr, &tint.Options{
			Level: level,
			ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
				if attr.Key == "time" {
					return slog.Attr{}
				}
				return attr
			},
		}),
	}
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			return err
		}
		f, err := os.OpenFile(logFile, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	}
	logger = slog.New(slogmulti.Fanout(handlers...))
	slog.SetDefault(logger)
	return nil
}
