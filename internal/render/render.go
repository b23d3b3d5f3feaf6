// Package render walks layered template directories and produces the
// generated output tree. Rendering is strict: referencing an undefined
// variable aborts the whole operation and nothing is promoted.
package render

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/skaphos/stackkeeper/internal/layout"
)

// missingKeyRe pulls the offending key out of text/template's
// missingkey=error message.
var missingKeyRe = regexp.MustCompile(`map has no entry for key "([^"]+)"`)

// Error reports a failed render. Nothing has been written to the output
// root when it is returned.
type Error struct {
	// Template is the source file (or template name) that failed.
	Template string
	// MissingKey is the undefined variable, when determinable.
	MissingKey string
	// Err is the underlying cause.
	Err error
}

func (e *Error) Error() string {
	if e.MissingKey != "" {
		return fmt.Sprintf("render %s: undefined variable %q", e.Template, e.MissingKey)
	}
	return fmt.Sprintf("render %s: %v", e.Template, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// newError classifies err, extracting the missing key when present.
func newError(name string, err error) *Error {
	renderErr := &Error{Template: name, Err: err}
	if m := missingKeyRe.FindStringSubmatch(err.Error()); m != nil {
		renderErr.MissingKey = m[1]
	}
	return renderErr
}

// String renders a single template text against vars with strict
// undefined-variable semantics.
func String(name, text string, vars map[string]any) (string, error) {
	tmpl, err := template.New(name).
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(text)
	if err != nil {
		return "", newError(name, err)
	}
	var out strings.Builder
	if err := tmpl.Execute(&out, vars); err != nil {
		return "", newError(name, err)
	}
	return out.String(), nil
}

// Renderer produces a generated tree from ordered template layers.
type Renderer struct {
	// Suffix marks template files; it is stripped from rendered output
	// names. Other files are copied byte-for-byte.
	Suffix string
	// Exclude holds doublestar patterns, matched against layer-relative
	// paths, that are skipped entirely.
	Exclude []string

	log *slog.Logger
}

// New returns a Renderer with the standard template suffix.
func New(log *slog.Logger) *Renderer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Renderer{Suffix: layout.TemplateSuffix, log: log}
}

// Render walks each layer in order and writes the combined result into
// outputRoot. Later layers overwrite earlier layers at the same
// relative path. The whole tree is staged first and promoted only on
// full success; a failure leaves outputRoot untouched.
func (r *Renderer) Render(layers []string, vars map[string]any, outputRoot string) error {
	parent := filepath.Dir(outputRoot)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("create output parent: %w", err)
	}
	staging, err := os.MkdirTemp(parent, ".render-staging-")
	if err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	for _, layer := range layers {
		if err := r.renderLayer(layer, vars, staging); err != nil {
			return err
		}
	}
	if err := promote(staging, outputRoot); err != nil {
		return fmt.Errorf("promote rendered output: %w", err)
	}
	r.log.Debug("rendered template layers", "layers", len(layers), "output", outputRoot)
	return nil
}

// renderLayer merges a single layer into the staging tree. A missing
// layer directory contributes nothing.
func (r *Renderer) renderLayer(layer string, vars map[string]any, staging string) error {
	info, err := os.Stat(layer)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("template layer %s is not a directory", layer)
	}

	return filepath.WalkDir(layer, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(layer, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		excluded, err := r.isExcluded(rel)
		if err != nil {
			return err
		}
		if excluded {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return os.MkdirAll(filepath.Join(staging, rel), 0o755)
		}
		if strings.HasSuffix(rel, r.Suffix) {
			return r.renderFile(path, vars, filepath.Join(staging, strings.TrimSuffix(rel, r.Suffix)))
		}
		return copyFile(path, filepath.Join(staging, rel))
	})
}

func (r *Renderer) isExcluded(rel string) (bool, error) {
	slashRel := filepath.ToSlash(rel)
	for _, pattern := range r.Exclude {
		ok, err := doublestar.Match(pattern, slashRel)
		if err != nil {
			return false, fmt.Errorf("exclude pattern %q: %w", pattern, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (r *Renderer) renderFile(src string, vars map[string]any, dst string) error {
	raw, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	rendered, err := String(src, string(raw), vars)
	if err != nil {
		return err
	}
	return writeFileLike(src, dst, []byte(rendered))
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return writeFileLike(src, dst, data)
}

// writeFileLike writes data to dst carrying over the source file mode,
// so executable templates stay executable after rendering.
func writeFileLike(src, dst string, data []byte) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, data, info.Mode().Perm())
}

// promote swaps the staged tree into outputRoot. Entries already in
// outputRoot are removed first, except the version-control directory
// the generated repository lives in.
func promote(staging, outputRoot string) error {
	if err := os.MkdirAll(outputRoot, 0o755); err != nil {
		return err
	}
	existing, err := os.ReadDir(outputRoot)
	if err != nil {
		return err
	}
	for _, entry := range existing {
		if entry.Name() == ".git" {
			continue
		}
		if err := os.RemoveAll(filepath.Join(outputRoot, entry.Name())); err != nil {
			return err
		}
	}
	staged, err := os.ReadDir(staging)
	if err != nil {
		return err
	}
	for _, entry := range staged {
		from := filepath.Join(staging, entry.Name())
		to := filepath.Join(outputRoot, entry.Name())
		if err := os.Rename(from, to); err != nil {
			return err
		}
	}
	return nil
}
