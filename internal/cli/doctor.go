package cli

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/spf13/cobra"

	"github.com/jarvisfi/jarvisfi/internal/config"
	"github.com/jarvisfi/jarvisfi/internal/launcher"
)

func newDoctorCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the launch environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(opts.verbose)
			ctx := cmd.Context()

			cfg, err := config.LoadLauncherConfigOrDefault(opts.configPath)
			if err != nil {
				return err
			}
			sup := launcher.New(cfg, opts.dir, log)

			healthy := true

			if info, err := host.InfoWithContext(ctx); err == nil {
				log.Info("host", "os", info.OS, "platform", info.Platform, "uptime_s", info.Uptime)
			}
			if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
				log.Info("memory", "total_mb", vm.Total/1024/1024, "used_percent", fmt.Sprintf("%.1f", vm.UsedPercent))
			}
			log.Info("runtime", "go", runtime.Version(), "cpus", runtime.NumCPU())

			if err := sup.CheckRequirements(ctx); err != nil {
				log.Error("requirement check failed", "error", err)
				healthy = false
			} else {
				log.Info("all requirements satisfied")
			}

			if entrypoint, err := sup.ResolveEntrypoint(); err != nil {
				log.Error("no dashboard entrypoint found", "error", err)
				healthy = false
			} else {
				log.Info("dashboard entrypoint resolved", "path", entrypoint)
			}

			if !healthy {
				return fmt.Errorf("environment is not ready; fix the issues above and rerun")
			}
			log.Info("environment is ready")
			return nil
		},
	}
}
