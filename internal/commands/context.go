// Package commands maps the fixed command vocabulary onto handler
// functions. The cobra layer stays a thin shell: every command is
// verified against the derived configuration state and dispatched
// through the table here.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/skaphos/stackkeeper/internal/config"
	"github.com/skaphos/stackkeeper/internal/gitx"
	"github.com/skaphos/stackkeeper/internal/layout"
	"github.com/skaphos/stackkeeper/internal/lifecycle"
	"github.com/skaphos/stackkeeper/internal/orchestrator"
	"github.com/skaphos/stackkeeper/internal/repo"
	"github.com/skaphos/stackkeeper/internal/state"
	"github.com/skaphos/stackkeeper/internal/vars"
)

// Context carries everything a handler needs, constructed once per
// invocation and passed by parameter. There is no global carrier.
type Context struct {
	// Dir is the configuration directory; empty means none provided.
	Dir string
	// AppVersion is the running application's version string.
	AppVersion string
	// SeedDir optionally points at seed files for configure-init.
	SeedDir string

	// Force downgrades blocked-unless-forced denials.
	Force bool
	// Message is the commit message for configure-apply.
	Message string
	// Decrypt resolves encrypted scalars in configure-get.
	Decrypt bool
	// SetPath, when given to encrypt, stores the envelope at that
	// setting path instead of only printing it.
	SetPath string
	// ColorEnabled turns on ANSI color in tabular output.
	ColorEnabled bool

	// Out and Err are the command's output streams.
	Out io.Writer
	Err io.Writer
	// In is the interactive input stream. A nil In marks the invocation
	// non-interactive: forced downgrades then proceed unprompted.
	In io.Reader

	// Log is the injected logger.
	Log *slog.Logger

	// Runner executes git; nil shells out to the installed binary.
	Runner gitx.Runner
	// OrchRunner executes the orchestrator binary; nil shells out.
	OrchRunner orchestrator.CommandRunner
	// Orch overrides the orchestrator entirely when non-nil (tests).
	Orch orchestrator.Orchestrator

	// Hooks are passed through to the lifecycle manager.
	Hooks lifecycle.Hooks

	// state is the variant derived by Dispatch, available to handlers
	// that report on it.
	state state.State
}

func (c *Context) log() *slog.Logger {
	if c.Log == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Log
}

func (c *Context) paths() layout.Paths { return layout.New(c.Dir) }

func (c *Context) manager() *lifecycle.Manager {
	return lifecycle.New(lifecycle.Config{
		Dir:        c.Dir,
		AppVersion: c.AppVersion,
		SeedDir:    c.SeedDir,
	}, c.Runner, c.Hooks, c.log())
}

func (c *Context) store() *vars.Store {
	return c.manager().Store()
}

// deriveState snapshots both repositories and computes the current
// configuration directory state.
func (c *Context) deriveState(ctx context.Context) (state.State, error) {
	if c.Dir == "" {
		return state.Derive(state.Inputs{DirProvided: false, AppVersion: c.AppVersion}), nil
	}
	paths := c.paths()
	confSnap, err := repo.New(c.Dir, c.Runner, c.log()).Snapshot(ctx)
	if err != nil {
		return state.State{}, err
	}
	genSnap, err := repo.New(paths.GeneratedDir(), c.Runner, c.log()).Snapshot(ctx)
	if err != nil {
		return state.State{}, err
	}
	return state.Derive(state.Inputs{
		DirProvided: true,
		Conf:        confSnap,
		Gen:         genSnap,
		AppVersion:  c.AppVersion,
	}), nil
}

// stackSettings loads the stack settings next to the primary variables.
func (c *Context) stackSettings() (*config.StackSettings, error) {
	return config.Load(c.paths().StackSettings())
}

// buildOrchestrator assembles the compose orchestrator from the stack
// settings, pointed at the given manifest (normally inside the
// generated tree).
func (c *Context) buildOrchestrator(settings *config.StackSettings, manifest string) orchestrator.Orchestrator {
	if c.Orch != nil {
		return c.Orch
	}
	return orchestrator.NewCompose(
		settings.Orchestrator.Binary,
		settings.Orchestrator.Args,
		manifest,
		c.paths().GeneratedDir(),
		c.OrchRunner,
		c.log(),
	)
}

// manifestPath resolves the configured manifest inside the generated
// tree.
func (c *Context) manifestPath(settings *config.StackSettings) string {
	return filepath.Join(c.paths().GeneratedDir(), settings.Orchestrator.Manifest)
}

// ensureWriters fills in defaults for direct library use.
func (c *Context) ensureWriters() {
	if c.Out == nil {
		c.Out = os.Stdout
	}
	if c.Err == nil {
		c.Err = os.Stderr
	}
}
