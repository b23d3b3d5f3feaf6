package gitx

import (
	"fmt"
	"strconv"
	"strings"
)

// Worktree represents the working tree status of a repository.
type Worktree struct {
	// Dirty indicates whether the worktree has any local modifications.
	Dirty bool
	// Staged is the count of staged file changes.
	Staged int
	// Unstaged is the count of unstaged file changes.
	Unstaged int
	// Untracked is the count of untracked files.
	Untracked int
}

// ParsePorcelainStatus parses the output of `git status --porcelain=v1`
// into a Worktree struct.
func ParsePorcelainStatus(output string) *Worktree {
	wt := &Worktree{}
	lines := strings.Split(output, "\n")
	for _, line := range lines {
		if len(line) < 2 {
			continue
		}
		x := line[0]
		y := line[1]

		if x == '?' && y == '?' {
			wt.Untracked++
			continue
		}
		if x != ' ' && x != '?' {
			wt.Staged++
		}
		if y != ' ' && y != '?' {
			wt.Unstaged++
		}
	}
	wt.Dirty = wt.Staged > 0 || wt.Unstaged > 0 || wt.Untracked > 0
	return wt
}

// ParseCount parses a single non-negative integer as printed by
// `git rev-list --count`.
func ParseCount(output string) (int, error) {
	trimmed := strings.TrimSpace(output)
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("parse commit count %q: %w", trimmed, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("parse commit count %q: negative", trimmed)
	}
	return n, nil
}
