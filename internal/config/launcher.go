package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration unmarshals YAML durations written as strings ("3s", "500ms").
// Bare integers are read as seconds. yaml.v3 decodes time.Duration only
// from raw nanosecond counts, which nobody wants to write by hand.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		*d = Duration(time.Duration(secs) * time.Second)
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// LauncherConfig describes how jarvisctl verifies prerequisites and
// supervises the dashboard process. It mirrors launcher.yaml.
type LauncherConfig struct {
	// Requirements lists commands that must be runnable before launch.
	Requirements []Requirement `yaml:"requirements,omitempty"`
	// InstallCommand is run with --install to provision missing requirements.
	InstallCommand []string `yaml:"installCommand,omitempty"`
	// Entrypoints is the priority-ordered list of dashboard entry files.
	Entrypoints []string `yaml:"entrypoints"`
	// Command is the command template used to run the chosen entrypoint.
	// The placeholder {entrypoint} is replaced with the resolved path.
	Command []string `yaml:"command"`
	// Port is the dashboard port, exported as DASHBOARD_PORT to the child.
	Port int `yaml:"port,omitempty"`
	// EarlyExitWindow treats child exits inside this window as startup
	// failures rather than restartable crashes.
	EarlyExitWindow Duration `yaml:"earlyExitWindow,omitempty"`
	// MaxRestarts bounds automatic restarts after the early window.
	MaxRestarts int `yaml:"maxRestarts,omitempty"`
	// RestartDelay is the pause between restart attempts.
	RestartDelay Duration `yaml:"restartDelay,omitempty"`
	// StopGracePeriod is how long to wait after SIGTERM before SIGKILL.
	StopGracePeriod Duration `yaml:"stopGracePeriod,omitempty"`
}

// Requirement is a single prerequisite command check.
type Requirement struct {
	// Name is the command looked up on PATH.
	Name string `yaml:"name"`
	// Args are passed to the command for a cheap liveness check.
	Args []string `yaml:"args,omitempty"`
}

// DefaultLauncherConfig returns the configuration used when no launcher.yaml
// is present.
func DefaultLauncherConfig() *LauncherConfig {
	return &LauncherConfig{
		Entrypoints: []string{
			"dashboard/jarvisfi-dashboard",
			"bin/jarvisfi-dashboard",
		},
		Command:         []string{"{entrypoint}"},
		Port:            8501,
		EarlyExitWindow: Duration(3 * time.Second),
		MaxRestarts:     1,
		RestartDelay:    Duration(2 * time.Second),
		StopGracePeriod: Duration(5 * time.Second),
	}
}

// LoadLauncherConfig reads a launcher YAML file and applies defaults.
func LoadLauncherConfig(path string) (*LauncherConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read launcher config: %w", err)
	}

	cfg := DefaultLauncherConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse launcher config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadLauncherConfigOrDefault loads the file when present, otherwise the
// built-in defaults. A file that exists but fails to parse or validate is
// an error; falling back to defaults there would hide typos.
func LoadLauncherConfigOrDefault(path string) (*LauncherConfig, error) {
	cfg, err := LoadLauncherConfig(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultLauncherConfig(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// Validate checks the launcher configuration for usable values.
func (c *LauncherConfig) Validate() error {
	if len(c.Entrypoints) == 0 {
		return fmt.Errorf("at least one entrypoint is required")
	}
	if len(c.Command) == 0 {
		return fmt.Errorf("command is required")
	}
	if c.EarlyExitWindow <= 0 {
		c.EarlyExitWindow = Duration(3 * time.Second)
	}
	if c.RestartDelay <= 0 {
		c.RestartDelay = Duration(2 * time.Second)
	}
	if c.StopGracePeriod <= 0 {
		c.StopGracePeriod = Duration(5 * time.Second)
	}
	if c.MaxRestarts < 0 {
		c.MaxRestarts = 0
	}
	return nil
}
