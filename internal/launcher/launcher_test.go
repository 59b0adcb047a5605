package launcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jarvisfi/jarvisfi/internal/config"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestCheckRequirements(t *testing.T) {
	cfg := &config.LauncherConfig{
		Requirements: []config.Requirement{
			{Name: "sh"},
		},
		Entrypoints: []string{"x"},
		Command:     []string{"{entrypoint}"},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	sup := New(cfg, t.TempDir(), nil)
	if err := sup.CheckRequirements(context.Background()); err != nil {
		t.Fatalf("expected sh to be available: %v", err)
	}

	cfg.Requirements = append(cfg.Requirements, config.Requirement{Name: "definitely-not-a-real-command-xyz"})
	err := sup.CheckRequirements(context.Background())
	if err == nil {
		t.Fatalf("expected missing requirement error")
	}
	if !strings.Contains(err.Error(), "definitely-not-a-real-command-xyz") {
		t.Fatalf("error should name the missing command, got %v", err)
	}
}

func TestResolveEntrypointPriority(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "second", "exit 0")

	cfg := &config.LauncherConfig{
		Entrypoints: []string{"first", "second"},
		Command:     []string{"{entrypoint}"},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	sup := New(cfg, dir, nil)
	got, err := sup.ResolveEntrypoint()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if filepath.Base(got) != "second" {
		t.Fatalf("expected second entrypoint, got %s", got)
	}

	// The higher-priority file wins once it exists.
	writeScript(t, dir, "first", "exit 0")
	got, err = sup.ResolveEntrypoint()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if filepath.Base(got) != "first" {
		t.Fatalf("expected first entrypoint, got %s", got)
	}
}

func TestResolveEntrypointMissing(t *testing.T) {
	cfg := &config.LauncherConfig{
		Entrypoints: []string{"nope"},
		Command:     []string{"{entrypoint}"},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	sup := New(cfg, t.TempDir(), nil)
	if _, err := sup.ResolveEntrypoint(); err == nil {
		t.Fatalf("expected error for missing entrypoints")
	}
}

func TestBuildCommandExpandsPlaceholder(t *testing.T) {
	cfg := &config.LauncherConfig{
		Entrypoints: []string{"x"},
		Command:     []string{"sh", "{entrypoint}", "--port", "8501"},
	}
	sup := New(cfg, ".", nil)

	got := sup.buildCommand("/srv/dash/main.sh")
	want := []string{"sh", "/srv/dash/main.sh", "--port", "8501"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRunReportsEarlyExit(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "dash", "echo boom >&2; exit 3")

	cfg := &config.LauncherConfig{
		Entrypoints:     []string{"dash"},
		Command:         []string{"sh", "{entrypoint}"},
		EarlyExitWindow: config.Duration(5 * time.Second),
		MaxRestarts:     3,
		RestartDelay:    config.Duration(10 * time.Millisecond),
		StopGracePeriod: config.Duration(time.Second),
	}

	sup := New(cfg, dir, nil)
	err := sup.Run(context.Background())
	if err == nil {
		t.Fatalf("expected startup failure")
	}
	if !strings.Contains(err.Error(), "failed to start") {
		t.Fatalf("expected startup failure message, got %v", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected captured stderr in error, got %v", err)
	}
}

func TestRunRestartBudget(t *testing.T) {
	dir := t.TempDir()
	// Survives the early window, then crashes.
	writeScript(t, dir, "dash", "sleep 0.2; exit 1")

	cfg := &config.LauncherConfig{
		Entrypoints:     []string{"dash"},
		Command:         []string{"sh", "{entrypoint}"},
		EarlyExitWindow: config.Duration(50 * time.Millisecond),
		MaxRestarts:     1,
		RestartDelay:    config.Duration(10 * time.Millisecond),
		StopGracePeriod: config.Duration(time.Second),
	}

	sup := New(cfg, dir, nil)
	err := sup.Run(context.Background())
	if err == nil {
		t.Fatalf("expected crash after restart budget")
	}
	if !strings.Contains(err.Error(), "restart budget") {
		t.Fatalf("expected restart budget message, got %v", err)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "dash", "sleep 30")

	cfg := &config.LauncherConfig{
		Entrypoints:     []string{"dash"},
		Command:         []string{"sh", "{entrypoint}"},
		EarlyExitWindow: config.Duration(50 * time.Millisecond),
		MaxRestarts:     0,
		RestartDelay:    config.Duration(10 * time.Millisecond),
		StopGracePeriod: config.Duration(2 * time.Second),
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()

	sup := New(cfg, dir, nil)
	start := time.Now()
	if err := sup.Run(ctx); err != nil {
		t.Fatalf("cancelled run should return nil, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("shutdown took too long")
	}
}

func TestTailBufferKeepsLastBytes(t *testing.T) {
	tail := newTailBuffer(8)
	tail.Write([]byte("0123456789abcdef"))
	if got := string(tail.Bytes()); got != "89abcdef" {
		t.Fatalf("expected trailing bytes, got %q", got)
	}
}
