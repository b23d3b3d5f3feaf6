// Package repo wraps a directory as a version-controlled repository with
// a branch-encoded configuration version.
package repo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/skaphos/stackkeeper/internal/gitx"
)

const (
	// DefaultBranchPrefix is the naming convention for version branches.
	DefaultBranchPrefix = "deployment/"
	// BaseBranch is the fork point for new version branches.
	BaseBranch = "master"

	ignoreFilename = ".gitignore"
	initMessage    = "[autocommit] Initialised repository"
)

// autocommitAuthor is the fixed synthetic author for repository-managed
// commits.
var autocommitAuthor = gitx.Author{
	Name:  "stackkeeper",
	Email: "stackkeeper@localhost",
}

// ErrBranchExists reports an attempt to create a branch that is already
// present.
var ErrBranchExists = errors.New("branch already exists")

// ErrUnversionedBranch reports a repository whose active branch does not
// follow the version branch naming convention.
var ErrUnversionedBranch = errors.New("branch does not follow the version naming convention")

// Repository is a version-controlled directory. The zero value is not
// usable; construct with New.
type Repository struct {
	path         string
	branchPrefix string
	runner       gitx.Runner
	log          *slog.Logger
}

// New wraps path as a Repository. A nil runner defaults to the git
// binary; a nil logger discards.
func New(path string, runner gitx.Runner, log *slog.Logger) *Repository {
	if runner == nil {
		runner = &gitx.GitRunner{}
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Repository{
		path:         path,
		branchPrefix: DefaultBranchPrefix,
		runner:       runner,
		log:          log,
	}
}

// Path returns the repository working directory.
func (r *Repository) Path() string { return r.path }

// Exists reports whether the directory is itself an initialised
// repository root. The rev-parse probe alone is not enough: it answers
// yes anywhere inside an enclosing worktree, and the generated tree
// lives inside the configuration repository.
func (r *Repository) Exists(ctx context.Context) bool {
	if _, err := os.Stat(filepath.Join(r.path, ".git")); err != nil {
		return false
	}
	ok, _ := gitx.IsRepo(ctx, r.runner, r.path)
	return ok
}

// EnsureInitialised creates the repository if it is absent, writes an
// ignore file from ignorePatterns and commits everything under the
// synthetic author. It is an idempotent no-op on an existing repository.
func (r *Repository) EnsureInitialised(ctx context.Context, ignorePatterns []string) error {
	if r.Exists(ctx) {
		return nil
	}
	if err := os.MkdirAll(r.path, 0o755); err != nil {
		return fmt.Errorf("create repository directory: %w", err)
	}
	if err := gitx.Init(ctx, r.runner, r.path, BaseBranch); err != nil {
		return err
	}
	if err := r.WriteIgnoreFile(ignorePatterns); err != nil {
		return err
	}
	if err := gitx.AddAll(ctx, r.runner, r.path); err != nil {
		return err
	}
	if err := gitx.Commit(ctx, r.runner, r.path, initMessage, autocommitAuthor, false); err != nil {
		return err
	}
	r.log.Debug("initialised repository", "path", r.path)
	return nil
}

// WriteIgnoreFile replaces the repository ignore file with the given
// patterns. The file is written even with no patterns, so the initial
// commit always has content.
func (r *Repository) WriteIgnoreFile(ignorePatterns []string) error {
	body := strings.Join(ignorePatterns, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(r.path, ignoreFilename), []byte(body), 0o644); err != nil {
		return fmt.Errorf("write ignore file: %w", err)
	}
	return nil
}

// CommitOptions adjusts how CommitChanges records a commit.
type CommitOptions struct {
	// Amend rewrites the tip commit instead of adding a new one.
	Amend bool
}

// CommitChanges stages all tracked and untracked changes except ignored
// paths and commits them. It reports whether a commit was made; a clean
// worktree is a no-op that does not advance history.
func (r *Repository) CommitChanges(ctx context.Context, message string, opts CommitOptions) (bool, error) {
	dirty, err := r.IsDirty(ctx, true)
	if err != nil {
		return false, err
	}
	if !dirty {
		r.log.Debug("nothing to commit", "path", r.path)
		return false, nil
	}
	if err := gitx.AddAll(ctx, r.runner, r.path); err != nil {
		return false, err
	}
	if err := gitx.Commit(ctx, r.runner, r.path, message, autocommitAuthor, opts.Amend); err != nil {
		return false, err
	}
	r.log.Debug("committed changes", "path", r.path, "amend", opts.Amend)
	return true, nil
}

// IsDirty reports whether the worktree has uncommitted changes,
// optionally counting untracked files.
func (r *Repository) IsDirty(ctx context.Context, includeUntracked bool) (bool, error) {
	wt, err := gitx.WorktreeStatus(ctx, r.runner, r.path, includeUntracked)
	if err != nil {
		return false, err
	}
	return wt.Dirty, nil
}

// CommitCount returns the count of all reachable commits.
func (r *Repository) CommitCount(ctx context.Context) (int, error) {
	return gitx.CommitCount(ctx, r.runner, r.path)
}

// CurrentVersion derives the configuration version from the active
// branch name by stripping the branch prefix. A branch outside the
// convention yields ErrUnversionedBranch.
func (r *Repository) CurrentVersion(ctx context.Context) (string, error) {
	branch, err := gitx.CurrentBranch(ctx, r.runner, r.path)
	if err != nil {
		return "", err
	}
	version, ok := strings.CutPrefix(branch, r.branchPrefix)
	if !ok || version == "" {
		return "", fmt.Errorf("branch %q: %w", branch, ErrUnversionedBranch)
	}
	return version, nil
}

// CurrentBranch returns the active branch name.
func (r *Repository) CurrentBranch(ctx context.Context) (string, error) {
	return gitx.CurrentBranch(ctx, r.runner, r.path)
}

// VersionBranch returns the branch name encoding the given version.
func (r *Repository) VersionBranch(version string) string {
	return r.branchPrefix + version
}

// BranchExists reports whether the named local branch exists.
func (r *Repository) BranchExists(ctx context.Context, name string) bool {
	return gitx.BranchExists(ctx, r.runner, r.path, name)
}

// CheckoutNewBranchFromBase creates newBranchName starting at baseBranch
// and switches to it. Creating a branch that already exists is an error.
func (r *Repository) CheckoutNewBranchFromBase(ctx context.Context, baseBranch, newBranchName string) error {
	if gitx.BranchExists(ctx, r.runner, r.path, newBranchName) {
		return fmt.Errorf("branch %q: %w", newBranchName, ErrBranchExists)
	}
	return gitx.CreateBranch(ctx, r.runner, r.path, newBranchName, baseBranch)
}

// CheckoutExisting switches the worktree to an existing branch.
func (r *Repository) CheckoutExisting(ctx context.Context, branchName string) error {
	return gitx.CheckoutBranch(ctx, r.runner, r.path, branchName)
}

// RenameCurrentBranch renames the active branch.
func (r *Repository) RenameCurrentBranch(ctx context.Context, name string) error {
	return gitx.RenameCurrentBranch(ctx, r.runner, r.path, name)
}
