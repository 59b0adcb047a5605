// Package cli implements the jarvisctl command tree.
package cli

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

type rootOptions struct {
	verbose    bool
	configPath string
	dir        string
}

// NewRootCommand builds the jarvisctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "jarvisctl",
		Short:         "JarvisFi dashboard launcher and operations tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "launcher.yaml", "launcher configuration file")
	cmd.PersistentFlags().StringVarP(&opts.dir, "dir", "d", ".", "dashboard working directory")

	cmd.AddCommand(
		newLaunchCommand(opts),
		newDoctorCommand(opts),
		newVersionCommand(),
	)
	return cmd
}

// Execute runs jarvisctl and returns a process exit code.
func Execute() int {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		slog.New(tint.NewHandler(os.Stderr, nil)).Error("command failed", "error", err)
		return 1
	}
	return 0
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}
