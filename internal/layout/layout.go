// Package layout fixes the on-disk shape of a configuration directory.
package layout

import "path/filepath"

// Well-known names inside a configuration directory.
const (
	SettingsFilename      = "settings.yml"
	StackSettingsFilename = "stack-settings.yml"
	TemplatesDirname      = "templates"
	OverridesDirname      = "overrides"
	GeneratedDirname      = ".generated"
	MetadataFilename      = ".metadata-configure.json"
	KeyFilename           = "key"

	// TemplateSuffix marks files the renderer expands; everything else
	// is copied byte-for-byte.
	TemplateSuffix = ".tmpl"
)

// Paths resolves the fixed layout against one configuration directory.
type Paths struct {
	// Root is the configuration directory. Empty means no directory
	// was provided.
	Root string
}

// New returns the layout rooted at dir.
func New(dir string) Paths { return Paths{Root: dir} }

// Provided reports whether a configuration directory path is known.
func (p Paths) Provided() bool { return p.Root != "" }

// Settings is the primary variable namespace file.
func (p Paths) Settings() string { return filepath.Join(p.Root, SettingsFilename) }

// StackSettings is the secondary variable namespace file holding
// orchestration, backup and archive configuration.
func (p Paths) StackSettings() string { return filepath.Join(p.Root, StackSettingsFilename) }

// TemplatesDir is the working copy of the merged template layers.
func (p Paths) TemplatesDir() string { return filepath.Join(p.Root, TemplatesDirname) }

// OverridesDir holds the highest-precedence template overrides.
func (p Paths) OverridesDir() string { return filepath.Join(p.Root, OverridesDirname) }

// GeneratedDir is the rendered output tree, itself a repository.
func (p Paths) GeneratedDir() string { return filepath.Join(p.Root, GeneratedDirname) }

// Metadata is the last-successful-apply record inside the generated
// tree.
func (p Paths) Metadata() string {
	return filepath.Join(p.GeneratedDir(), MetadataFilename)
}

// KeyFile is the raw symmetric key material.
func (p Paths) KeyFile() string { return filepath.Join(p.Root, KeyFilename) }
