package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/skaphos/stackkeeper/internal/cliio"
	"github.com/skaphos/stackkeeper/internal/lifecycle"
	"github.com/skaphos/stackkeeper/internal/state"
	"github.com/skaphos/stackkeeper/internal/termstyle"
)

func runDebugInfo(ctx context.Context, c *Context, _ []string) error {
	pairs := [][2]string{
		{"version", c.AppVersion},
		{"directory", displayOrNone(c.Dir)},
		{"state", termstyle.Colorize(c.ColorEnabled, c.state.String(), termstyle.ForState(string(c.state.Kind)))},
	}
	if c.state.Kind == state.RequiresMigration {
		pairs = append(pairs,
			[2]string{"configured version", c.state.FromVersion},
			[2]string{"target version", c.state.ToVersion})
	}

	if c.Dir != "" {
		paths := c.paths()
		meta, err := lifecycle.ReadMetadata(paths.Metadata())
		if err != nil {
			return err
		}
		lastApplied := "never"
		if !meta.LastApplied.IsZero() {
			lastApplied = meta.LastApplied.Format("2006-01-02 15:04:05 MST")
		}
		keyPresent := "no"
		if _, err := os.Stat(paths.KeyFile()); err == nil {
			keyPresent = "yes"
		}
		branch := "(none)"
		if b, err := c.manager().ConfRepo().CurrentBranch(ctx); err == nil {
			branch = b
		}
		pairs = append(pairs,
			[2]string{"branch", branch},
			[2]string{"last applied", lastApplied},
			[2]string{"encryption key", keyPresent})
	}
	return cliio.WriteKeyValues(c.Out, pairs)
}

func displayOrNone(value string) string {
	if value == "" {
		return "(none)"
	}
	return value
}

func runEncrypt(_ context.Context, c *Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one value to encrypt")
	}
	enc := c.manager().Encryptor()
	if enc == nil {
		return fmt.Errorf("no encryption key in %s; run configure init first", c.Dir)
	}
	envelope, err := enc.Encrypt(args[0])
	if err != nil {
		return err
	}
	if c.SetPath != "" {
		if err := c.store().Set(c.SetPath, envelope); err != nil {
			return err
		}
		fmt.Fprintf(c.Out, "Stored encrypted value at %s\n", c.SetPath)
		return nil
	}
	fmt.Fprintln(c.Out, envelope)
	return nil
}

func runInstall(_ context.Context, c *Context, _ []string) error {
	if c.Dir == "" {
		fmt.Fprintln(c.Out, "No configuration directory selected.")
		fmt.Fprintln(c.Out, "Pass --dir to choose where the configuration should live, then run 'stackkeeper configure init'.")
		return nil
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", c.Dir, err)
	}
	fmt.Fprintf(c.Out, "Prepared %s.\n", c.Dir)
	fmt.Fprintln(c.Out, "Next: run 'stackkeeper configure init' to set up the configuration.")
	return nil
}

func runMigrate(ctx context.Context, c *Context, _ []string) error {
	if err := c.manager().Migrate(ctx); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "Configuration is at version %s.\n", c.AppVersion)
	return nil
}
