package repo

import (
	"context"
	"errors"
)

// Snapshot is a read-only view of a repository at one instant. It is the
// input the state derivation works from; taking a snapshot never mutates
// the repository.
type Snapshot struct {
	// Exists reports whether the directory is an initialised repository.
	Exists bool
	// Dirty reports uncommitted changes, untracked files included.
	Dirty bool
	// Commits is the count of all reachable commits.
	Commits int
	// Version is the branch-encoded configuration version. Empty when
	// the active branch is outside the naming convention.
	Version string
	// VersionOK reports whether the active branch carried a well-formed
	// version name.
	VersionOK bool
	// VersionProblem holds the branch problem description when
	// VersionOK is false.
	VersionProblem string
}

// Snapshot captures the current repository condition. A missing
// repository yields the zero snapshot without error.
func (r *Repository) Snapshot(ctx context.Context) (Snapshot, error) {
	if !r.Exists(ctx) {
		return Snapshot{}, nil
	}
	snap := Snapshot{Exists: true}

	dirty, err := r.IsDirty(ctx, true)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Dirty = dirty

	commits, err := r.CommitCount(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Commits = commits

	// Missing tooling would have surfaced on the status call above, so a
	// failure here means the branch itself is out of convention
	// (detached HEAD included). That is an Invalid state, not a fatal
	// error.
	version, err := r.CurrentVersion(ctx)
	if err != nil {
		if !errors.Is(err, ErrUnversionedBranch) {
			snap.VersionProblem = "cannot determine active branch"
		} else {
			snap.VersionProblem = err.Error()
		}
		return snap, nil
	}
	snap.Version = version
	snap.VersionOK = true
	return snap, nil
}
