package lifecycle

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/skaphos/stackkeeper/internal/layout"
	"github.com/skaphos/stackkeeper/internal/repo"
)

// Migrate moves the configuration repository onto the version branch of
// the running application. It is a logged no-op when the versions
// already match. Tracked files outside the variable schema are
// preserved byte-for-byte unless the migration hook changes them.
func (m *Manager) Migrate(ctx context.Context) error {
	current, err := m.conf.CurrentVersion(ctx)
	if err != nil {
		return err
	}
	if current == m.cfg.AppVersion {
		m.log.Info("configuration already at application version", "version", current)
		return nil
	}
	if err := runHook(ctx, "pre-migrate", m.hooks.PreMigrate); err != nil {
		return err
	}

	oldVars, err := m.Store().PrimaryTree()
	if err != nil {
		return err
	}
	snapshot, err := snapshotTree(m.cfg.Dir)
	if err != nil {
		return err
	}
	oldBranch, err := m.conf.CurrentBranch(ctx)
	if err != nil {
		return err
	}

	if err := m.switchToVersionBranch(ctx); err != nil {
		return err
	}
	// The pristine variable tree as the new version ships it, read
	// before the old worktree is restored on top.
	cleanVars, err := m.Store().PrimaryTree()
	if err != nil {
		return err
	}
	if err := restoreTree(m.cfg.Dir, snapshot); err != nil {
		return err
	}

	newVars := oldVars
	if m.hooks.MigrateVariables != nil {
		newVars, err = m.hooks.MigrateVariables(oldVars, current, cleanVars)
		if err != nil {
			if abortErr := m.abortMigration(ctx, oldBranch); abortErr != nil {
				m.log.Error("cannot roll back aborted migration", "error", abortErr)
			}
			return &HookError{Stage: "migrate-variables", Err: err}
		}
	}
	if err := m.Store().ReplacePrimary(newVars); err != nil {
		return err
	}

	message := fmt.Sprintf("[migration] migrate configuration from %s to %s", current, m.cfg.AppVersion)
	if _, err := m.conf.CommitChanges(ctx, message, repo.CommitOptions{}); err != nil {
		return err
	}
	m.log.Info("migrated configuration", "from", current, "to", m.cfg.AppVersion)

	return runHook(ctx, "post-migrate", m.hooks.PostMigrate)
}

// switchToVersionBranch locates or creates the branch for the target
// version. With no base branch to fork from, the current branch is
// renamed instead.
func (m *Manager) switchToVersionBranch(ctx context.Context) error {
	target := m.conf.VersionBranch(m.cfg.AppVersion)
	switch {
	case m.conf.BranchExists(ctx, target):
		return m.conf.CheckoutExisting(ctx, target)
	case m.conf.BranchExists(ctx, m.cfg.BaseBranch):
		return m.conf.CheckoutNewBranchFromBase(ctx, m.cfg.BaseBranch, target)
	default:
		return m.conf.RenameCurrentBranch(ctx, target)
	}
}

// abortMigration discards the half-finished worktree and returns to the
// branch the migration started from.
func (m *Manager) abortMigration(ctx context.Context, oldBranch string) error {
	if err := m.conf.DiscardChanges(ctx); err != nil {
		return err
	}
	return m.conf.CheckoutExisting(ctx, oldBranch)
}

// treeSnapshot captures file contents and modes of a configuration
// directory, excluding the repositories themselves.
type treeSnapshot map[string]snapshotEntry

type snapshotEntry struct {
	data []byte
	mode fs.FileMode
}

// snapshotSkipDirs are never captured: the generated tree is its own
// repository and .git belongs to the branch being switched.
var snapshotSkipDirs = map[string]bool{
	".git":                  true,
	layout.GeneratedDirname: true,
}

func snapshotTree(root string) (treeSnapshot, error) {
	snapshot := treeSnapshot{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			if snapshotSkipDirs[rel] {
				return filepath.SkipDir
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		snapshot[rel] = snapshotEntry{data: data, mode: info.Mode().Perm()}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", root, err)
	}
	return snapshot, nil
}

func restoreTree(root string, snapshot treeSnapshot) error {
	for rel, entry := range snapshot {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, entry.data, entry.mode); err != nil {
			return fmt.Errorf("restore %s: %w", path, err)
		}
	}
	return nil
}
