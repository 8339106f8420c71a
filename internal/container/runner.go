package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
)

// Supported engines.
const (
	EngineDocker = "docker"
	EnginePodman = "podman"
)

// ExecCommandFunc creates the engine command. Tests inject a fake.
type ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

// Option configures a Runner.
type Option func(*Runner)

// WithEngine selects the container engine binary (docker or podman).
func WithEngine(engine string) Option {
	return func(r *Runner) {
		r.engine = engine
	}
}

// WithExecCommand replaces exec.CommandContext.
func WithExecCommand(fn ExecCommandFunc) Option {
	return func(r *Runner) {
		r.execCommand = fn
	}
}

// WithStdio sets the streams attached to the engine process.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		r.stdin = stdin
		r.stdout = stdout
		r.stderr = stderr
	}
}

// WithLogger sets a logger for the runner.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// Runner runs builds through a container engine CLI.
type Runner struct {
	engine      string
	execCommand ExecCommandFunc
	stdin       io.Reader
	stdout      io.Writer
	stderr      io.Writer
	logger      *slog.Logger
}

// NewRunner creates a Runner. The default engine is docker.
func NewRunner(opts ...Option) (*Runner, error) {
	r := &Runner{
		engine:      EngineDocker,
		execCommand: exec.CommandContext,
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	switch r.engine {
	case EngineDocker, EnginePodman:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEngine, r.engine)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	return r, nil
}

// Engine returns the engine binary name.
func (r *Runner) Engine() string {
	return r.engine
}

// Build runs the request and returns the container's exit status.
//
// The output directory is created if missing and must be empty; this is
// checked before anything is started. A non-zero exit status is not an
// error. The returned error is non-nil only when the engine could not be
// run at all.
func (r *Runner) Build(ctx context.Context, req BuildRequest) (int, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}
	req, err := req.absolute()
	if err != nil {
		return 0, err
	}
	if err := EnsureOutputEmpty(req.OutputDir); err != nil {
		return 0, err
	}
	for _, dir := range req.cacheDirs() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("create cache directory: %w", err)
		}
	}

	args := req.RunArgs()
	r.logger.Info("running build container", "engine", r.engine, "image", req.Image, "args", args)

	cmd := r.execCommand(ctx, r.engine, args...)
	cmd.Stdin = r.stdin
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			r.logger.Warn("build container failed", "exit_code", code)
			return code, nil
		}
		return 0, fmt.Errorf("run %s: %w", r.engine, err)
	}
	r.logger.Info("build container finished", "output", req.OutputDir)
	return 0, nil
}

// EnsureOutputEmpty creates dir if missing and fails with
// *OutputNotEmptyError if it already has entries.
func EnsureOutputEmpty(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read output directory: %w", err)
	}
	if len(entries) > 0 {
		return &OutputNotEmptyError{Dir: dir, Entries: len(entries)}
	}
	return nil
}
