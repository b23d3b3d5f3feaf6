package repo

import (
	"context"

	"github.com/skaphos/stackkeeper/internal/gitx"
)

// DiscardChanges throws away every uncommitted change, tracked and
// untracked, leaving ignored paths in place. It is the abort path for
// multi-step operations that must not leave a partial switch behind.
func (r *Repository) DiscardChanges(ctx context.Context) error {
	if err := gitx.ResetHard(ctx, r.runner, r.path); err != nil {
		return err
	}
	return gitx.CleanUntracked(ctx, r.runner, r.path)
}
