package resolve

import (
	_ "embed"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed parameters.yaml
var parametersYAML []byte

type staticFile struct {
	Parameters []struct {
		Name    string   `yaml:"name"`
		Aliases []string `yaml:"aliases"`
	} `yaml:"parameters"`
}

// StaticTable is the read-only fallback alias → canonical name table.
type StaticTable struct {
	byKey map[string]string
}

// ParseStaticTable decodes a YAML alias table.
func ParseStaticTable(data []byte) (*StaticTable, error) {
	var f staticFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "resolve: decode static parameter table")
	}

	t := &StaticTable{byKey: make(map[string]string)}
	for _, p := range f.Parameters {
		if p.Name == "" {
			return nil, eris.New("resolve: static parameter with empty name")
		}
		// The canonical name is always an alias of itself.
		t.byKey[ParameterKey(p.Name)] = p.Name
		for _, a := range p.Aliases {
			k := ParameterKey(a)
			if prev, ok := t.byKey[k]; ok && prev != p.Name {
				return nil, eris.Errorf("resolve: alias %q maps to both %q and %q", a, prev, p.Name)
			}
			t.byKey[k] = p.Name
		}
	}
	return t, nil
}

var defaultStatic = sync.OnceValues(func() (*StaticTable, error) {
	return ParseStaticTable(parametersYAML)
})

// DefaultStaticTable returns the embedded fallback table.
func DefaultStaticTable() (*StaticTable, error) {
	return defaultStatic()
}

// Lookup returns the canonical name for a normalized key.
func (t *StaticTable) Lookup(key string) (string, bool) {
	if t == nil {
		return "", false
	}
	name, ok := t.byKey[key]
	return name, ok
}

// Len returns the number of alias keys.
func (t *StaticTable) Len() int { return len(t.byKey) }
