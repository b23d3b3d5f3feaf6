package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/skaphos/stackkeeper/internal/config"
	"github.com/skaphos/stackkeeper/internal/crypt"
	"github.com/skaphos/stackkeeper/internal/orchestrator"
)

// invokeFunc selects the orchestrator operation to run once the
// manifest and service list are resolved.
type invokeFunc func(ctx context.Context, orch orchestrator.Orchestrator, services []string) (orchestrator.ProcessResult, error)

// orchestratorAction is the shared body of every orchestrator-backed
// command. With decryptManifest set, a manifest carrying encrypted
// envelopes is rewritten through the encryptor into a short-lived
// temporary file before the orchestrator sees it.
func orchestratorAction(ctx context.Context, c *Context, decryptManifest bool, services []string, invoke invokeFunc) error {
	settings, err := c.stackSettings()
	if err != nil {
		return err
	}
	manifest := settings.Orchestrator.Manifest
	if decryptManifest {
		resolved, cleanup, err := c.decryptedManifest(settings)
		if err != nil {
			return err
		}
		if cleanup != nil {
			defer cleanup()
		}
		manifest = resolved
	}
	if len(services) == 0 {
		services = settings.Services
	}

	result, err := invoke(ctx, c.buildOrchestrator(settings, manifest), services)
	if err != nil {
		return err
	}
	if result.Stdout != "" {
		fmt.Fprint(c.Out, result.Stdout)
	}
	if result.ReturnCode != 0 {
		return fmt.Errorf("orchestrator exited with status %d", result.ReturnCode)
	}
	return nil
}

// decryptedManifest returns the manifest path to hand to the
// orchestrator, plus a cleanup function when a decrypted copy was
// written. A manifest without envelopes is used in place.
func (c *Context) decryptedManifest(settings *config.StackSettings) (string, func(), error) {
	path := c.manifestPath(settings)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read manifest: %w", err)
	}
	if !crypt.ContainsEnvelope(string(data)) {
		return settings.Orchestrator.Manifest, nil, nil
	}

	enc := c.manager().Encryptor()
	if enc == nil {
		return "", nil, fmt.Errorf("manifest %s holds encrypted values but no key is available", path)
	}
	plain, err := crypt.DecryptAll(enc, string(data))
	if err != nil {
		return "", nil, err
	}
	tmp, err := os.CreateTemp("", "stackkeeper-manifest-*"+filepath.Ext(path))
	if err != nil {
		return "", nil, err
	}
	name := tmp.Name()
	cleanup := func() { os.Remove(name) }
	if err := os.Chmod(name, 0o600); err != nil {
		tmp.Close()
		cleanup()
		return "", nil, err
	}
	if _, err := tmp.WriteString(plain); err != nil {
		tmp.Close()
		cleanup()
		return "", nil, err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	c.log().Debug("decrypted manifest for orchestrator", "manifest", path)
	return name, cleanup, nil
}

func runServiceStart(ctx context.Context, c *Context, args []string) error {
	return orchestratorAction(ctx, c, true, args,
		func(ctx context.Context, orch orchestrator.Orchestrator, services []string) (orchestrator.ProcessResult, error) {
			return orch.Start(ctx, services)
		})
}

func runServiceShutdown(ctx context.Context, c *Context, args []string) error {
	return orchestratorAction(ctx, c, false, args,
		func(ctx context.Context, orch orchestrator.Orchestrator, services []string) (orchestrator.ProcessResult, error) {
			return orch.Shutdown(ctx, services)
		})
}

func runServiceStatus(ctx context.Context, c *Context, args []string) error {
	return orchestratorAction(ctx, c, false, args,
		func(ctx context.Context, orch orchestrator.Orchestrator, services []string) (orchestrator.ProcessResult, error) {
			return orch.Status(ctx, services)
		})
}

func runServiceLogs(ctx context.Context, c *Context, args []string) error {
	return orchestratorAction(ctx, c, false, args,
		func(ctx context.Context, orch orchestrator.Orchestrator, services []string) (orchestrator.ProcessResult, error) {
			return orch.Logs(ctx, services)
		})
}

func runLauncher(ctx context.Context, c *Context, _ []string) error {
	return orchestratorAction(ctx, c, true, nil,
		func(ctx context.Context, orch orchestrator.Orchestrator, _ []string) (orchestrator.ProcessResult, error) {
			settings, err := c.stackSettings()
			if err != nil {
				return orchestrator.ProcessResult{}, err
			}
			if len(settings.Launcher.Command) == 0 {
				return orchestrator.ProcessResult{}, fmt.Errorf("no launcher command configured")
			}
			return orch.Custom(ctx, settings.Launcher.Command)
		})
}

func runTaskRun(ctx context.Context, c *Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("expected a task service name")
	}
	custom := append([]string{"run", "--rm"}, args...)
	return orchestratorAction(ctx, c, true, nil,
		func(ctx context.Context, orch orchestrator.Orchestrator, _ []string) (orchestrator.ProcessResult, error) {
			return orch.Custom(ctx, custom)
		})
}

func runOrchestratorCustom(ctx context.Context, c *Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("expected orchestrator arguments")
	}
	return orchestratorAction(ctx, c, false, nil,
		func(ctx context.Context, orch orchestrator.Orchestrator, _ []string) (orchestrator.ProcessResult, error) {
			return orch.Custom(ctx, args)
		})
}
