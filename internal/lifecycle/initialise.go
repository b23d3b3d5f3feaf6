package lifecycle

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/skaphos/stackkeeper/internal/crypt"
	"github.com/skaphos/stackkeeper/internal/layout"
)

// confIgnorePatterns keeps the generated output and the key material
// out of the configuration repository.
var confIgnorePatterns = []string{
	layout.GeneratedDirname + "/",
	layout.KeyFilename,
}

// seedLayerNames are the template layers copied from the seed directory
// into the working templates area, in precedence order.
var seedLayerNames = []string{"baseline", "configurable"}

// Initialise creates the configuration directory tree, copies seed
// variables and template layers, generates a key when absent and
// initialises the configuration repository on the version branch. The
// caller has already confirmed the command is allowed.
func (m *Manager) Initialise(ctx context.Context) error {
	if err := runHook(ctx, "pre-initialise", m.hooks.PreInitialise); err != nil {
		return err
	}

	for _, dir := range []string{m.cfg.Dir, m.paths.TemplatesDir(), m.paths.OverridesDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := m.copySeeds(); err != nil {
		return err
	}
	if err := m.ensureKey(); err != nil {
		return err
	}

	if err := m.conf.EnsureInitialised(ctx, confIgnorePatterns); err != nil {
		return err
	}
	if err := m.ensureVersionBranch(ctx); err != nil {
		return err
	}
	m.log.Info("initialised configuration directory",
		"dir", m.cfg.Dir, "version", m.cfg.AppVersion)

	return runHook(ctx, "post-initialise", m.hooks.PostInitialise)
}

// ensureVersionBranch moves a freshly initialised repository from the
// base branch onto the version branch for the running application.
func (m *Manager) ensureVersionBranch(ctx context.Context) error {
	branch, err := m.conf.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	if branch != m.cfg.BaseBranch {
		return nil
	}
	target := m.conf.VersionBranch(m.cfg.AppVersion)
	if m.conf.BranchExists(ctx, target) {
		return m.conf.CheckoutExisting(ctx, target)
	}
	return m.conf.CheckoutNewBranchFromBase(ctx, m.cfg.BaseBranch, target)
}

// ensureKey generates encryption key material unless it already exists.
func (m *Manager) ensureKey() error {
	path := m.paths.KeyFile()
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	key, err := crypt.GenerateKey()
	if err != nil {
		return err
	}
	if err := crypt.WriteKeyFile(path, key); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	m.log.Info("generated encryption key", "path", path)
	return nil
}

// copySeeds installs the seed variable files and template layers. Seed
// variables never overwrite files already present.
func (m *Manager) copySeeds() error {
	if m.cfg.SeedDir == "" {
		return nil
	}
	for _, name := range []string{layout.SettingsFilename, layout.StackSettingsFilename} {
		src := filepath.Join(m.cfg.SeedDir, name)
		dst := filepath.Join(m.cfg.Dir, name)
		if err := copyFileIfMissing(src, dst); err != nil {
			return err
		}
	}
	for _, name := range seedLayerNames {
		src := filepath.Join(m.cfg.SeedDir, "templates", name)
		if err := copyTree(src, m.paths.TemplatesDir()); err != nil {
			return err
		}
	}
	return nil
}

func copyFileIfMissing(src, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		return nil
	}
	data, err := os.ReadFile(src)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

// copyTree merges src into dst, later calls overwriting earlier files
// at the same relative path.
func copyTree(src, dst string) error {
	info, err := os.Stat(src)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("seed layer %s is not a directory", src)
	}
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
}
