package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jarvisfi/jarvisfi/internal/config"
	"github.com/jarvisfi/jarvisfi/internal/launcher"
)

func newLaunchCommand(opts *rootOptions) *cobra.Command {
	var (
		install bool
		port    int
	)

	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Verify prerequisites and run the dashboard under supervision",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(opts.verbose)

			cfg, err := config.LoadLauncherConfigOrDefault(opts.configPath)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Port = port
			}

			sup := launcher.New(cfg, opts.dir, log)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := sup.CheckRequirements(ctx); err != nil {
				if !install {
					return err
				}
				log.Warn("requirements missing; attempting install", "error", err)
				if ierr := sup.Install(ctx); ierr != nil {
					return ierr
				}
				if rerr := sup.CheckRequirements(ctx); rerr != nil {
					return rerr
				}
			}

			return sup.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&install, "install", false, "run the install command when requirements are missing")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "override the dashboard port")
	return cmd
}
