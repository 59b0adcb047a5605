// Package launcher verifies prerequisites and supervises the dashboard
// process for jarvisctl.
package launcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/jarvisfi/jarvisfi/internal/config"
)

// stderrTailSize bounds how much child stderr is kept for error reporting.
const stderrTailSize = 4 * 1024

// Supervisor runs the dashboard child process under the configured policy.
type Supervisor struct {
	cfg *config.LauncherConfig
	dir string
	log *slog.Logger

	// overridable in tests
	lookPath func(string) (string, error)
}

// New creates a supervisor rooted at dir. A nil logger discards output.
func New(cfg *config.LauncherConfig, dir string, log *slog.Logger) *Supervisor {
	if cfg == nil {
		cfg = config.DefaultLauncherConfig()
	}
	if dir == "" {
		dir = "."
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Supervisor{cfg: cfg, dir: dir, log: log, lookPath: exec.LookPath}
}

// CheckRequirements verifies every configured prerequisite command. All
// failures are collected so the operator sees the full picture at once.
func (s *Supervisor) CheckRequirements(ctx context.Context) error {
	var failures []string
	for _, req := range s.cfg.Requirements {
		if err := s.checkRequirement(ctx, req); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", req.Name, err))
			continue
		}
		s.log.Debug("requirement satisfied", "name", req.Name)
	}
	if len(failures) > 0 {
		return fmt.Errorf("missing requirements: %s", strings.Join(failures, "; "))
	}
	return nil
}

func (s *Supervisor) checkRequirement(ctx context.Context, req config.Requirement) error {
	path, err := s.lookPath(req.Name)
	if err != nil {
		return fmt.Errorf("not found on PATH")
	}
	if len(req.Args) == 0 {
		return nil
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(checkCtx, path, req.Args...)
	cmd.Dir = s.dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("check failed: %v (%s)", err, firstLine(out))
	}
	return nil
}

// Install runs the configured provisioning command.
func (s *Supervisor) Install(ctx context.Context) error {
	if len(s.cfg.InstallCommand) == 0 {
		return fmt.Errorf("no install command configured")
	}

	s.log.Info("running install command", "command", strings.Join(s.cfg.InstallCommand, " "))
	cmd := exec.CommandContext(ctx, s.cfg.InstallCommand[0], s.cfg.InstallCommand[1:]...)
	cmd.Dir = s.dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("install command failed: %w", err)
	}
	return nil
}

// ResolveEntrypoint returns the first configured entrypoint that exists on
// disk, in priority order.
func (s *Supervisor) ResolveEntrypoint() (string, error) {
	for _, candidate := range s.cfg.Entrypoints {
		path := candidate
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.dir, candidate)
		}
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("no entrypoint found; tried %s", strings.Join(s.cfg.Entrypoints, ", "))
}

// buildCommand expands the {entrypoint} placeholder in the command template.
func (s *Supervisor) buildCommand(entrypoint string) []string {
	out := make([]string, len(s.cfg.Command))
	for i, arg := range s.cfg.Command {
		out[i] = strings.ReplaceAll(arg, "{entrypoint}", entrypoint)
	}
	return out
}

// Run launches the dashboard and supervises it until ctx is cancelled or the
// restart budget is exhausted. An exit inside the early window is treated as
// a startup failure and never restarted.
func (s *Supervisor) Run(ctx context.Context) error {
	entrypoint, err := s.ResolveEntrypoint()
	if err != nil {
		return err
	}
	argv := s.buildCommand(entrypoint)

	restarts := 0
	for {
		start := time.Now()
		err := s.runOnce(ctx, argv)

		if ctx.Err() != nil {
			return nil
		}

		elapsed := time.Since(start)
		if elapsed < s.cfg.EarlyExitWindow.Std() {
			if err == nil {
				err = fmt.Errorf("exited immediately")
			}
			return fmt.Errorf("dashboard failed to start: %w", err)
		}

		if restarts >= s.cfg.MaxRestarts {
			if err != nil {
				return fmt.Errorf("dashboard crashed and restart budget is exhausted: %w", err)
			}
			return nil
		}

		restarts++
		s.log.Warn("dashboard exited; restarting",
			"attempt", restarts, "max", s.cfg.MaxRestarts, "error", err)

		select {
		case <-time.After(s.cfg.RestartDelay.Std()):
		case <-ctx.Done():
			return nil
		}
	}
}

// runOnce starts the child and waits for it to exit. Cancellation sends
// SIGTERM and escalates to SIGKILL after the grace period.
func (s *Supervisor) runOnce(ctx context.Context, argv []string) error {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = s.dir
	cmd.Env = append(os.Environ(), fmt.Sprintf("DASHBOARD_PORT=%d", s.cfg.Port))
	cmd.Stdout = os.Stdout

	tail := newTailBuffer(stderrTailSize)
	cmd.Stderr = io.MultiWriter(os.Stderr, tail)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", argv[0], err)
	}
	s.log.Info("dashboard started", "pid", cmd.Process.Pid, "port", s.cfg.Port)

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	select {
	case err := <-waitCh:
		if err != nil {
			return fmt.Errorf("%w; stderr: %s", err, firstLine(tail.Bytes()))
		}
		return nil
	case <-ctx.Done():
		s.terminate(cmd, waitCh)
		return ctx.Err()
	}
}

// terminate asks the child to stop and kills it if it ignores the request.
func (s *Supervisor) terminate(cmd *exec.Cmd, waitCh <-chan error) {
	_ = cmd.Process.Signal(syscall.SIGTERM)

	select {
	case <-waitCh:
		s.log.Info("dashboard stopped")
	case <-time.After(s.cfg.StopGracePeriod.Std()):
		s.log.Warn("dashboard ignored SIGTERM; killing")
		_ = cmd.Process.Kill()
		<-waitCh
	}
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
	max int
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.buf.Write(p)
	if t.buf.Len() > t.max {
		data := t.buf.Bytes()
		trimmed := make([]byte, t.max)
		copy(trimmed, data[len(data)-t.max:])
		t.buf.Reset()
		t.buf.Write(trimmed)
	}
	return len(p), nil
}

func (t *tailBuffer) Bytes() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]byte, t.buf.Len())
	copy(out, t.buf.Bytes())
	return out
}

func firstLine(b []byte) string {
	text := strings.TrimSpace(string(b))
	if text == "" {
		return "no output"
	}
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	return text
}
