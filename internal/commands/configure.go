package commands

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/skaphos/stackkeeper/internal/cliio"
	"github.com/skaphos/stackkeeper/internal/layout"
	"github.com/skaphos/stackkeeper/internal/render"
)

// defaultApplyMessage is used when the operator supplies no message.
const defaultApplyMessage = "[autocommit] Applied configuration"

func runConfigureInit(ctx context.Context, c *Context, _ []string) error {
	if err := c.manager().Initialise(ctx); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "Initialised configuration in %s\n", c.Dir)
	return nil
}

func runConfigureApply(ctx context.Context, c *Context, _ []string) error {
	message := c.Message
	if message == "" {
		message = defaultApplyMessage
	}
	result, err := c.manager().Apply(ctx, message, c.Force)
	if err != nil {
		return err
	}
	if result.GeneratedCommitted || result.ConfigurationCommitted {
		fmt.Fprintln(c.Out, "Configuration applied.")
	} else {
		fmt.Fprintln(c.Out, "Configuration applied, no changes to record.")
	}
	return nil
}

func runConfigureGet(_ context.Context, c *Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one setting path")
	}
	value, err := c.store().Get(args[0], c.Decrypt)
	if err != nil {
		return err
	}
	// Scalars print bare; composite values print as YAML.
	if str, ok := value.(string); ok {
		fmt.Fprintln(c.Out, str)
		return nil
	}
	data, err := yaml.Marshal(value)
	if err != nil {
		return err
	}
	_, err = c.Out.Write(data)
	return err
}

func runConfigureSet(_ context.Context, c *Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("expected a setting path and a value")
	}
	// The raw argument is parsed as a YAML scalar so booleans and
	// numbers round-trip with their types.
	var value any
	if err := yaml.Unmarshal([]byte(args[1]), &value); err != nil {
		value = args[1]
	}
	if err := c.store().Set(args[0], value); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "Set %s\n", args[0])
	return nil
}

func runTemplateList(_ context.Context, c *Context, _ []string) error {
	paths := c.paths()
	layers := [][2]string{
		{"templates", paths.TemplatesDir()},
		{"overrides", paths.OverridesDir()},
	}
	// Later layers shadow earlier ones at the same relative path, same
	// as rendering precedence.
	layerOf := map[string]string{}
	for _, layer := range layers {
		files, err := listLayer(layer[1])
		if err != nil {
			return err
		}
		for _, file := range files {
			layerOf[file] = layer[0]
		}
	}

	names := make([]string, 0, len(layerOf))
	for name := range layerOf {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{name, layerOf[name]})
	}
	return cliio.WriteTable(c.Out, false, false, []string{"TEMPLATE", "LAYER"}, rows)
}

func runTemplateRender(_ context.Context, c *Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one template path")
	}
	path, err := resolveTemplate(c.paths(), args[0])
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	variables, err := c.store().All()
	if err != nil {
		return err
	}
	rendered, err := render.String(args[0], string(raw), variables)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(c.Out, rendered)
	return err
}

// resolveTemplate locates a template by its layer-relative path,
// preferring the override layer and tolerating an omitted suffix.
func resolveTemplate(paths layout.Paths, name string) (string, error) {
	for _, dir := range []string{paths.OverridesDir(), paths.TemplatesDir()} {
		for _, candidate := range []string{name, name + layout.TemplateSuffix} {
			full := filepath.Join(dir, candidate)
			if info, err := os.Stat(full); err == nil && !info.IsDir() {
				return full, nil
			}
		}
	}
	return "", fmt.Errorf("template %q not found", name)
}

// listLayer returns the slash-separated relative paths of every file in
// one template layer. A missing layer directory is empty, not an error.
func listLayer(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == root {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, strings.ReplaceAll(rel, string(os.PathSeparator), "/"))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
