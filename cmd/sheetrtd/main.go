// Command sheetrtd is the composition root for the spreadsheet agent
// runtime: it loads a config file, opens the scoped persistence layer,
// wires the engine's collaborators, and drives an interactive chat loop
// against one session. Concrete spreadsheet read/write tools, the LLM
// provider SDKs, and the CLI/config layer itself are the system's
// declared external collaborators (only their interfaces are
// specified) — this command is the thin, ambient wiring around them,
// not part of the core runtime it starts.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sheetrtd/sheetrt/pkg/config"
	"github.com/sheetrtd/sheetrt/pkg/logger"
)

// cli holds the flags shared by every sheetrtd subcommand.
var cli = struct {
	Config    string
	LogLevel  string
	LogFile   string
	LogFormat string
}{}

var rootCmd = &cobra.Command{
	Use:   "sheetrtd",
	Short: "Spreadsheet agent runtime",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logger.ParseLevel(cli.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		output := os.Stderr
		if cli.LogFile != "" {
			f, cleanup, err := logger.OpenLogFile(cli.LogFile)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			output = f
			cmd.Root().PersistentPostRunE = func(*cobra.Command, []string) error {
				cleanup()
				return nil
			}
		}
		logger.Init(level, output, cli.LogFormat)

		if err := config.LoadEnvFiles(); err != nil {
			slog.Warn("failed to load .env files", "error", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cli.Config, "config", "c", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&cli.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&cli.LogFile, "log-file", "", "log file path (empty = stderr)")
	rootCmd.PersistentFlags().StringVar(&cli.LogFormat, "log-format", "simple", "log format (simple, verbose, or custom)")

	rootCmd.AddCommand(chatCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("sheetrtd exited with error", "error", err)
		os.Exit(1)
	}
}

// setupSignalContext returns a context cancelled on SIGINT/SIGTERM.
func setupSignalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down")
		cancel()
	}()
	return ctx, cancel
}
