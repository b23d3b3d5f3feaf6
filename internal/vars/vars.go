// Package vars loads, merges and persists the namespaced variable trees
// backing configuration.
package vars

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/skaphos/stackkeeper/internal/crypt"
	"github.com/skaphos/stackkeeper/internal/layout"
	"github.com/skaphos/stackkeeper/internal/render"
)

// namespaceRe is the invariant every namespace key must satisfy.
var namespaceRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// SettingNotFoundError reports a dotted path with a missing segment.
type SettingNotFoundError struct {
	// Path is the full requested path.
	Path string
}

func (e *SettingNotFoundError) Error() string {
	return fmt.Sprintf("setting %q not found", e.Path)
}

// Store reads and writes the variable tree. The primary file owns all
// writes; auxiliary files in the same directory contribute read-only
// namespaces.
type Store struct {
	primaryPath string
	auxDir      string
	enc         crypt.Encryptor
	log         *slog.Logger
}

// New builds a Store over primaryPath with auxiliary files discovered
// in auxDir. enc may be nil when no key is available; decryption then
// fails explicitly.
func New(primaryPath, auxDir string, enc crypt.Encryptor, log *slog.Logger) *Store {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Store{
		primaryPath: primaryPath,
		auxDir:      auxDir,
		enc:         enc,
		log:         log,
	}
}

// PrimaryNamespace returns the namespace key of the primary file.
func (s *Store) PrimaryNamespace() string {
	return namespaceForFile(s.primaryPath)
}

// namespaceForFile derives a namespace key from a file name: the stem
// with hyphens normalised to underscores.
func namespaceForFile(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, layout.TemplateSuffix)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.ReplaceAll(name, "-", "_")
}

// Get resolves a dotted path against the merged namespace tree. With
// decrypt set, a resolved scalar matching the envelope pattern is
// decrypted; any other value is returned unchanged.
func (s *Store) Get(path string, decrypt bool) (any, error) {
	tree, err := s.All()
	if err != nil {
		return nil, err
	}
	value, err := walk(tree, path)
	if err != nil {
		return nil, err
	}
	if !decrypt {
		return value, nil
	}
	str, ok := value.(string)
	if !ok || !crypt.IsEnvelope(str) {
		return value, nil
	}
	if s.enc == nil {
		return nil, fmt.Errorf("setting %q is encrypted but no key is available", path)
	}
	return s.enc.Decrypt(str)
}

// Set writes value at a dotted path in the primary namespace, creating
// intermediate mappings as needed. Sibling keys at untouched levels are
// preserved; only the primary file is persisted.
func (s *Store) Set(path string, value any) error {
	segments := strings.Split(path, ".")
	for _, seg := range segments {
		if seg == "" {
			return fmt.Errorf("invalid setting path %q", path)
		}
	}
	primary := s.PrimaryNamespace()
	if segments[0] != primary {
		return fmt.Errorf("can only set values in the %q namespace, got %q", primary, path)
	}
	if len(segments) < 2 {
		return fmt.Errorf("setting path %q names no key inside the namespace", path)
	}

	tree, err := s.PrimaryTree()
	if err != nil {
		return err
	}
	node := tree
	for _, seg := range segments[1 : len(segments)-1] {
		child, ok := node[seg].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[seg] = child
		}
		node = child
	}
	node[segments[len(segments)-1]] = value
	return s.ReplacePrimary(tree)
}

// All returns the union of the primary namespace and every auxiliary
// namespace. Auxiliary files are processed in lexicographic filename
// order; template auxiliaries are rendered once against the primary
// namespace before parsing.
func (s *Store) All() (map[string]any, error) {
	primaryTree, err := s.PrimaryTree()
	if err != nil {
		return nil, err
	}
	primary := s.PrimaryNamespace()
	if !namespaceRe.MatchString(primary) {
		return nil, fmt.Errorf("invalid namespace %q for file %s", primary, s.primaryPath)
	}
	tree := map[string]any{primary: primaryTree}

	files, err := s.auxFiles()
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		ns := namespaceForFile(file)
		if !namespaceRe.MatchString(ns) {
			return nil, fmt.Errorf("invalid namespace %q for file %s", ns, file)
		}
		auxTree, err := s.loadAux(file, map[string]any{primary: primaryTree})
		if err != nil {
			return nil, err
		}
		tree[ns] = auxTree
	}
	return tree, nil
}

// PrimaryTree loads the primary file's mapping. A missing file is an
// empty tree.
func (s *Store) PrimaryTree() (map[string]any, error) {
	return loadMapping(s.primaryPath)
}

// ReplacePrimary persists tree as the new content of the primary file.
func (s *Store) ReplacePrimary(tree map[string]any) error {
	data, err := yaml.Marshal(tree)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", s.primaryPath, err)
	}
	if err := os.WriteFile(s.primaryPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.primaryPath, err)
	}
	s.log.Debug("persisted primary variables", "path", s.primaryPath)
	return nil
}

// auxFiles lists the auxiliary variable files in deterministic
// lexicographic order. Directory-listing order is never relied on.
func (s *Store) auxFiles() ([]string, error) {
	entries, err := os.ReadDir(s.auxDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list auxiliary files: %w", err)
	}
	primaryBase := filepath.Base(s.primaryPath)
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == primaryBase {
			continue
		}
		if isVariableFile(name) {
			files = append(files, filepath.Join(s.auxDir, name))
		}
	}
	sort.Strings(files)
	return files, nil
}

func isVariableFile(name string) bool {
	base := strings.TrimSuffix(name, layout.TemplateSuffix)
	ext := filepath.Ext(base)
	return ext == ".yml" || ext == ".yaml"
}

// loadAux parses one auxiliary file. Template auxiliaries see only the
// primary namespace: auxiliary files cannot reference each other.
func (s *Store) loadAux(path string, primaryView map[string]any) (map[string]any, error) {
	if !strings.HasSuffix(path, layout.TemplateSuffix) {
		return loadMapping(path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	rendered, err := render.String(filepath.Base(path), string(raw), primaryView)
	if err != nil {
		return nil, err
	}
	return parseMapping(path, []byte(rendered))
}

func loadMapping(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return parseMapping(path, data)
}

func parseMapping(path string, data []byte) (map[string]any, error) {
	tree := map[string]any{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return tree, nil
}

// walk descends the merged tree along a dotted path.
func walk(tree map[string]any, path string) (any, error) {
	segments := strings.Split(path, ".")
	var current any = tree
	for _, seg := range segments {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, &SettingNotFoundError{Path: path}
		}
		current, ok = node[seg]
		if !ok {
			return nil, &SettingNotFoundError{Path: path}
		}
	}
	return current, nil
}
