// Package gitx provides helpers for executing git commands and parsing
// their output. It shells out to the installed git binary.
package gitx

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes git commands in a given repo directory.
// This interface allows mocking in tests.
type Runner interface {
	// Run executes a git command in the given directory and returns
	// combined stdout/stderr output.
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// GitRunner is the default Runner implementation that shells out to git.
type GitRunner struct {
	// GitBin is the path to the git binary. Defaults to "git".
	GitBin string
}

// Run executes a git command.
func (g *GitRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	bin := g.GitBin
	if bin == "" {
		bin = "git"
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	out, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

// Author identifies the committer used for synthetic commits.
type Author struct {
	Name  string
	Email string
}

// IsRepo checks whether the given path is inside a git working tree.
func IsRepo(ctx context.Context, r Runner, dir string) (bool, error) {
	out, err := r.Run(ctx, dir, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		return false, nil
	}
	return strings.TrimSpace(out) == "true", nil
}

// Init creates a new repository in dir with the given initial branch.
func Init(ctx context.Context, r Runner, dir, branch string) error {
	out, err := r.Run(ctx, dir, "init", "--initial-branch", branch)
	if err != nil {
		return fmt.Errorf("git init: %s: %w", out, err)
	}
	return nil
}

// CurrentBranch returns the branch name HEAD points at. A detached HEAD
// is reported as an error.
func CurrentBranch(ctx context.Context, r Runner, dir string) (string, error) {
	out, err := r.Run(ctx, dir, "symbolic-ref", "--quiet", "--short", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git symbolic-ref: %s: %w", out, err)
	}
	return strings.TrimSpace(out), nil
}

// WorktreeStatus returns the working tree staged/unstaged/untracked
// counts. Untracked files are excluded when includeUntracked is false.
func WorktreeStatus(ctx context.Context, r Runner, dir string, includeUntracked bool) (*Worktree, error) {
	args := []string{"status", "--porcelain=v1"}
	if !includeUntracked {
		args = append(args, "--untracked-files=no")
	}
	out, err := r.Run(ctx, dir, args...)
	if err != nil {
		return nil, fmt.Errorf("git status: %s: %w", out, err)
	}
	return ParsePorcelainStatus(out), nil
}

// CommitCount returns the number of commits reachable from any ref.
func CommitCount(ctx context.Context, r Runner, dir string) (int, error) {
	out, err := r.Run(ctx, dir, "rev-list", "--all", "--count")
	if err != nil {
		return 0, fmt.Errorf("git rev-list: %s: %w", out, err)
	}
	return ParseCount(out)
}

// AddAll stages every tracked and untracked change except ignored paths.
func AddAll(ctx context.Context, r Runner, dir string) error {
	out, err := r.Run(ctx, dir, "add", "--all")
	if err != nil {
		return fmt.Errorf("git add: %s: %w", out, err)
	}
	return nil
}

// Commit records the staged changes with the given author. When amend is
// true the current tip commit is rewritten instead of a new one added.
func Commit(ctx context.Context, r Runner, dir, message string, author Author, amend bool) error {
	args := []string{
		"-c", "user.name=" + author.Name,
		"-c", "user.email=" + author.Email,
		"commit", "-m", message,
	}
	if amend {
		args = append(args, "--amend")
	}
	out, err := r.Run(ctx, dir, args...)
	if err != nil {
		return fmt.Errorf("git commit: %s: %w", out, err)
	}
	return nil
}

// BranchExists reports whether a local branch with the given name exists.
func BranchExists(ctx context.Context, r Runner, dir, name string) bool {
	_, err := r.Run(ctx, dir, "rev-parse", "--verify", "--quiet", "refs/heads/"+name)
	return err == nil
}

// CheckoutBranch switches the working tree to an existing branch.
func CheckoutBranch(ctx context.Context, r Runner, dir, name string) error {
	out, err := r.Run(ctx, dir, "checkout", name)
	if err != nil {
		return fmt.Errorf("git checkout: %s: %w", out, err)
	}
	return nil
}

// CreateBranch creates a new branch starting at base and switches to it.
func CreateBranch(ctx context.Context, r Runner, dir, name, base string) error {
	out, err := r.Run(ctx, dir, "checkout", "-b", name, base)
	if err != nil {
		return fmt.Errorf("git checkout -b: %s: %w", out, err)
	}
	return nil
}

// ResetHard discards every change to tracked files in the worktree.
func ResetHard(ctx context.Context, r Runner, dir string) error {
	out, err := r.Run(ctx, dir, "reset", "--hard")
	if err != nil {
		return fmt.Errorf("git reset --hard: %s: %w", out, err)
	}
	return nil
}

// CleanUntracked removes untracked files and directories. Ignored paths
// are left alone.
func CleanUntracked(ctx context.Context, r Runner, dir string) error {
	out, err := r.Run(ctx, dir, "clean", "-fd")
	if err != nil {
		return fmt.Errorf("git clean: %s: %w", out, err)
	}
	return nil
}

// RenameCurrentBranch renames the branch HEAD points at, replacing any
// branch that already carries the new name.
func RenameCurrentBranch(ctx context.Context, r Runner, dir, name string) error {
	out, err := r.Run(ctx, dir, "branch", "-M", name)
	if err != nil {
		return fmt.Errorf("git branch -M: %s: %w", out, err)
	}
	return nil
}
