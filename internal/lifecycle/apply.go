package lifecycle

import (
	"context"

	"github.com/skaphos/stackkeeper/internal/layout"
	"github.com/skaphos/stackkeeper/internal/repo"
)

// genIgnorePatterns keeps the apply-timestamp record out of the
// generated repository, so a re-apply with unchanged output stays a
// no-op commit.
var genIgnorePatterns = []string{layout.MetadataFilename}

// ApplyResult reports which repositories actually advanced.
type ApplyResult struct {
	// GeneratedCommitted is true when the generated repository
	// recorded a change.
	GeneratedCommitted bool
	// ConfigurationCommitted is true when the configuration repository
	// recorded a change.
	ConfigurationCommitted bool
}

// Apply renders every template layer plus the user overrides into the
// generated tree and commits both repositories with message. On any
// rendering failure nothing is committed. The generated repository is
// committed first, so a crash between the two commits is surfaced by
// the dirty-conf detection rather than silently lost.
func (m *Manager) Apply(ctx context.Context, message string, force bool) (ApplyResult, error) {
	var result ApplyResult
	if err := runHook(ctx, "pre-apply", m.hooks.PreApply); err != nil {
		return result, err
	}

	variables, err := m.Store().All()
	if err != nil {
		return result, err
	}
	layers := []string{m.paths.TemplatesDir(), m.paths.OverridesDir()}
	if err := m.renderer.Render(layers, variables, m.paths.GeneratedDir()); err != nil {
		return result, err
	}

	// On the first apply the initialisation commit below already captures
	// the rendered tree, so the amend that follows is a no-op.
	created := !m.gen.Exists(ctx)
	if err := m.gen.EnsureInitialised(ctx, genIgnorePatterns); err != nil {
		return result, err
	}
	if err := m.ensureGenVersionBranch(ctx); err != nil {
		return result, err
	}
	// Promotion clears the output root apart from .git, the ignore file
	// included, so it is restored before committing.
	if err := m.gen.WriteIgnoreFile(genIgnorePatterns); err != nil {
		return result, err
	}

	// The generated repository stays at exactly one commit: every
	// apply amends it. Extra commits mean someone committed there by
	// hand, which the state derivation reports as Invalid.
	committed, err := m.gen.CommitChanges(ctx, message, repo.CommitOptions{Amend: true})
	if err != nil {
		return result, err
	}
	result.GeneratedCommitted = committed || created
	result.ConfigurationCommitted, err = m.conf.CommitChanges(ctx, message, repo.CommitOptions{})
	if err != nil {
		return result, err
	}

	if err := writeMetadata(m.paths.Metadata()); err != nil {
		return result, err
	}
	m.log.Info("applied configuration",
		"dir", m.cfg.Dir,
		"generated_committed", result.GeneratedCommitted,
		"configuration_committed", result.ConfigurationCommitted,
		"forced", force)

	return result, runHook(ctx, "post-apply", m.hooks.PostApply)
}

// ensureGenVersionBranch keeps the generated repository's branch name
// aligned with the application version.
func (m *Manager) ensureGenVersionBranch(ctx context.Context) error {
	target := m.gen.VersionBranch(m.cfg.AppVersion)
	branch, err := m.gen.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	if branch == target {
		return nil
	}
	return m.gen.RenameCurrentBranch(ctx, target)
}
