// Command quizsolver answers highlighted questions from the terminal.
//
// It runs the coordinator and a foreground agent in one process, connected
// by an in-process bus, and stores the credential in the OS keyring.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := NewRootCmd(version).Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// NewRootCmd creates the root command with every subcommand registered.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "quizsolver",
		Short: "Answer quiz questions with an AI provider",
		Long: `quizsolver sends a question to Gemini, ChatGPT, or a custom endpoint
and prints the answer.

Examples:
  quizsolver key set AIza...
  quizsolver solve "What is 2+2? A. 3 B. 4"
  quizsolver select "Which planet is largest? A) Mars B) Jupiter"
  quizsolver probe http://localhost:8080 "What is 2+2?"`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newSolveCmd(),
		newSelectCmd(),
		newKeyCmd(),
		newProbeCmd(),
	)

	rootCmd.PersistentFlags().StringP("config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	return rootCmd
}

// loadConfig reads configuration for cmd and installs the default logger.
func loadConfig(cmd *cobra.Command) (*Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	lvl, err := cfg.Level()
	if err != nil {
		return nil, err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: lvl})))
	return cfg, nil
}
