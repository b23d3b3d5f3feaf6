// Package lifecycle orchestrates the variable store, template renderer
// and repositories to implement initialise, apply and migrate. It is
// the only component that mutates repository contents.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/skaphos/stackkeeper/internal/crypt"
	"github.com/skaphos/stackkeeper/internal/gitx"
	"github.com/skaphos/stackkeeper/internal/layout"
	"github.com/skaphos/stackkeeper/internal/render"
	"github.com/skaphos/stackkeeper/internal/repo"
	"github.com/skaphos/stackkeeper/internal/vars"
)

// Config is the plain configuration struct every component receives by
// parameter. There is no implicit global carrier.
type Config struct {
	// Dir is the configuration directory.
	Dir string
	// AppVersion is the running application's version string.
	AppVersion string
	// BaseBranch is the fork point for version branches. Defaults to
	// repo.BaseBranch.
	BaseBranch string
	// SeedDir optionally holds seed variable files and template layers
	// copied in by initialise.
	SeedDir string
}

// HookError wraps a failure raised by a caller-supplied hook.
type HookError struct {
	// Stage names the hook that failed.
	Stage string
	// Err is the hook's error.
	Err error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("%s hook failed: %v", e.Stage, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }

// Hooks are optional callables invoked around each lifecycle operation.
// Nil hooks are no-ops.
type Hooks struct {
	PreInitialise  func(ctx context.Context) error
	PostInitialise func(ctx context.Context) error
	PreApply       func(ctx context.Context) error
	PostApply      func(ctx context.Context) error
	PreMigrate     func(ctx context.Context) error
	PostMigrate    func(ctx context.Context) error

	// MigrateVariables maps the old variable tree onto the new
	// version. clean is the pristine tree at the new version; the
	// default keeps the old tree unchanged.
	MigrateVariables func(old map[string]any, oldVersion string, clean map[string]any) (map[string]any, error)
}

func runHook(ctx context.Context, stage string, hook func(ctx context.Context) error) error {
	if hook == nil {
		return nil
	}
	if err := hook(ctx); err != nil {
		return &HookError{Stage: stage, Err: err}
	}
	return nil
}

// Manager implements the lifecycle operations over one configuration
// directory.
type Manager struct {
	cfg      Config
	paths    layout.Paths
	conf     *repo.Repository
	gen      *repo.Repository
	renderer *render.Renderer
	hooks    Hooks
	log      *slog.Logger
}

// New builds a Manager. A nil runner shells out to the git binary.
func New(cfg Config, runner gitx.Runner, hooks Hooks, log *slog.Logger) *Manager {
	if cfg.BaseBranch == "" {
		cfg.BaseBranch = repo.BaseBranch
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	paths := layout.New(cfg.Dir)
	return &Manager{
		cfg:      cfg,
		paths:    paths,
		conf:     repo.New(cfg.Dir, runner, log),
		gen:      repo.New(paths.GeneratedDir(), runner, log),
		renderer: render.New(log),
		hooks:    hooks,
		log:      log,
	}
}

// Paths exposes the resolved directory layout.
func (m *Manager) Paths() layout.Paths { return m.paths }

// ConfRepo exposes the configuration repository.
func (m *Manager) ConfRepo() *repo.Repository { return m.conf }

// GenRepo exposes the generated repository.
func (m *Manager) GenRepo() *repo.Repository { return m.gen }

// Encryptor opens the encryptor bound to the directory's key file, or
// nil when no key exists yet.
func (m *Manager) Encryptor() crypt.Encryptor {
	if _, err := os.Stat(m.paths.KeyFile()); err != nil {
		return nil
	}
	enc, err := crypt.OpenEncryptor(m.paths.KeyFile())
	if err != nil {
		m.log.Warn("cannot open encryption key", "path", m.paths.KeyFile(), "error", err)
		return nil
	}
	return enc
}

// Store builds the variable store over the directory's settings files.
func (m *Manager) Store() *vars.Store {
	return vars.New(m.paths.Settings(), m.cfg.Dir, m.Encryptor(), m.log)
}
