// Package orchestrator wraps the container tooling that starts, stops
// and inspects the deployed services. The core treats it as an opaque
// collaborator; callers needing timeouts wrap the context they pass in.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
)

// ProcessResult carries the outcome of one orchestrator invocation.
type ProcessResult struct {
	// ReturnCode is the subprocess exit code.
	ReturnCode int
	// Stdout is the captured standard output.
	Stdout string
}

// Orchestrator is the collaborator interface consumed by the lifecycle
// commands.
type Orchestrator interface {
	Start(ctx context.Context, services []string) (ProcessResult, error)
	Shutdown(ctx context.Context, services []string) (ProcessResult, error)
	Status(ctx context.Context, services []string) (ProcessResult, error)
	Logs(ctx context.Context, services []string) (ProcessResult, error)
	// Custom passes args through to the orchestrator binary verbatim.
	Custom(ctx context.Context, args []string) (ProcessResult, error)
}

// CommandRunner executes an external command and returns its stdout and
// exit code. This interface allows mocking in tests.
type CommandRunner interface {
	Run(ctx context.Context, dir, bin string, args ...string) (ProcessResult, error)
}

// ExecRunner is the default CommandRunner.
type ExecRunner struct{}

// Run executes the command, capturing stdout. A non-zero exit is not an
// error at this level; it is reported through ReturnCode.
func (ExecRunner) Run(ctx context.Context, dir, bin string, args ...string) (ProcessResult, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	out, err := cmd.Output()
	result := ProcessResult{Stdout: string(out)}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ReturnCode = exitErr.ExitCode()
			return result, nil
		}
		return result, fmt.Errorf("run %s: %w", bin, err)
	}
	return result, nil
}

// Compose drives a compose-style orchestrator binary against a manifest
// in the generated tree.
type Compose struct {
	// Binary is the orchestrator executable.
	Binary string
	// BaseArgs are inserted before every subcommand.
	BaseArgs []string
	// Manifest is the compose file handed to every invocation.
	Manifest string
	// Dir is the working directory, normally the generated tree.
	Dir string
	// Runner executes the subprocess; nil defaults to ExecRunner.
	Runner CommandRunner

	log *slog.Logger
}

// NewCompose builds a Compose orchestrator.
func NewCompose(binary string, baseArgs []string, manifest, dir string, runner CommandRunner, log *slog.Logger) *Compose {
	if runner == nil {
		runner = ExecRunner{}
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Compose{
		Binary:   binary,
		BaseArgs: baseArgs,
		Manifest: manifest,
		Dir:      dir,
		Runner:   runner,
		log:      log,
	}
}

func (c *Compose) run(ctx context.Context, subcommand []string, services []string) (ProcessResult, error) {
	args := append([]string{}, c.BaseArgs...)
	if c.Manifest != "" {
		args = append(args, "--file", c.Manifest)
	}
	args = append(args, subcommand...)
	args = append(args, services...)
	c.log.Debug("invoking orchestrator", "binary", c.Binary, "args", args)
	return c.Runner.Run(ctx, c.Dir, c.Binary, args...)
}

func (c *Compose) Start(ctx context.Context, services []string) (ProcessResult, error) {
	return c.run(ctx, []string{"up", "--detach"}, services)
}

func (c *Compose) Shutdown(ctx context.Context, services []string) (ProcessResult, error) {
	if len(services) == 0 {
		return c.run(ctx, []string{"down"}, nil)
	}
	return c.run(ctx, []string{"stop"}, services)
}

func (c *Compose) Status(ctx context.Context, services []string) (ProcessResult, error) {
	return c.run(ctx, []string{"ps", "--all"}, services)
}

func (c *Compose) Logs(ctx context.Context, services []string) (ProcessResult, error) {
	return c.run(ctx, []string{"logs", "--no-color"}, services)
}

func (c *Compose) Custom(ctx context.Context, args []string) (ProcessResult, error) {
	return c.run(ctx, args, nil)
}
