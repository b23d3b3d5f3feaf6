// Package config handles loading and validating the stack settings
// file: the orchestration, launcher and backup configuration that sits
// next to the primary variables.
package config

import (
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"go.yaml.in/yaml/v3"
)

// OrchestratorSettings selects the container tooling the lifecycle
// commands shell out to.
type OrchestratorSettings struct {
	// Binary is the orchestrator executable.
	Binary string `yaml:"binary"`
	// Args are inserted before every subcommand.
	Args []string `yaml:"args"`
	// Manifest is the compose manifest inside the generated tree.
	Manifest string `yaml:"manifest"`
}

// LauncherSettings configures the launcher command.
type LauncherSettings struct {
	// Command is the full argv handed to the orchestrator verbatim.
	Command []string `yaml:"command"`
}

// BackupSettings configures backup archive naming and contents.
type BackupSettings struct {
	// Name is the archive base name.
	Name string `yaml:"name"`
	// Include holds doublestar patterns selecting files to archive.
	Include []string `yaml:"include"`
}

// StackSettings is the parsed stack-settings.yml.
type StackSettings struct {
	// Services are the orchestrated service names, in start order.
	Services []string `yaml:"services"`

	Orchestrator OrchestratorSettings `yaml:"orchestrator"`
	Launcher     LauncherSettings     `yaml:"launcher"`
	Backups      BackupSettings       `yaml:"backups"`
}

// DefaultStackSettings returns a StackSettings with sensible defaults
// applied.
func DefaultStackSettings() StackSettings {
	return StackSettings{
		Orchestrator: OrchestratorSettings{
			Binary:   "docker",
			Args:     []string{"compose"},
			Manifest: "docker-compose.yml",
		},
		Launcher: LauncherSettings{
			Command: []string{"up", "--detach"},
		},
		Backups: BackupSettings{
			Name:    "full",
			Include: []string{"**"},
		},
	}
}

// Load reads the stack settings from path. A missing file yields the
// defaults; a malformed file is an error.
func Load(path string) (*StackSettings, error) {
	settings := DefaultStackSettings()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &settings, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := Validate(&settings); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &settings, nil
}

// Validate checks the semantic constraints a parsed settings struct
// must satisfy.
func Validate(settings *StackSettings) error {
	if settings.Orchestrator.Binary == "" {
		return fmt.Errorf("orchestrator binary must not be empty")
	}
	if settings.Orchestrator.Manifest == "" {
		return fmt.Errorf("orchestrator manifest must not be empty")
	}
	for _, pattern := range settings.Backups.Include {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid backup include pattern %q", pattern)
		}
	}
	return nil
}
