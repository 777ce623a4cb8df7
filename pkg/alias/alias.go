// Package alias lets users rename commands without renaming their files.
package alias

import (
	"os"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/ribbonsync/pkg/errors"
)

// Resolver maps an original identity to the identity shown in the UI.
// Implementations must be pure lookups.
type Resolver interface {
	Alias(original string) string
}

// Identity is the Resolver that renames nothing.
type Identity struct{}

// Alias implements Resolver.
func (Identity) Alias(original string) string { return original }

// Map is a Resolver backed by a fixed table.
type Map map[string]string

// Alias implements Resolver.
func (m Map) Alias(original string) string {
	if a, ok := m[original]; ok && a != "" {
		return a
	}
	return original
}

// file is the on-disk shape of an alias file:
//
//	aliases:
//	  reloadScripts: Reload
//	  Hello: Say Hello
type file struct {
	Aliases map[string]string `yaml:"aliases"`
}

// Load reads an alias file. A missing file yields an empty Map.
func Load(path string) (Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Map{}, nil
		}
		return nil, errors.WrapIO("read", path, err)
	}
	return Parse(data, path)
}

// Parse decodes alias YAML; source is only used in errors.
func Parse(data []byte, source string) (Map, error) {
	var f file
	if err := yaml.UnmarshalWithOptions(data, &f, yaml.Strict()); err != nil {
		return nil, errors.WrapParse("yaml", source, err)
	}
	m := make(Map, len(f.Aliases))
	for k, v := range f.Aliases {
		if k == "" {
			return nil, errors.NewValidationError("aliases", v, "empty original name")
		}
		m[k] = v
	}
	return m, nil
}
