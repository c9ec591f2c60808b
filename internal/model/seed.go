package model

import (
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ReferenceSeed is the YAML document loaded by `edd seed` to populate the
// permit, outfall and parameter reference tables.
type ReferenceSeed struct {
	Parameters []SeedParameter `yaml:"parameters"`
	Permits    []SeedPermit    `yaml:"permits"`
}

// SeedParameter is a canonical parameter with its known aliases.
type SeedParameter struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

// SeedPermit is a permit owned by an organization and its outfalls.
type SeedPermit struct {
	OrgID    string   `yaml:"organization_id"`
	Number   string   `yaml:"permit_number"`
	Outfalls []string `yaml:"outfalls"`
}

// ParseReferenceSeed decodes and validates a seed document.
func ParseReferenceSeed(data []byte) (*ReferenceSeed, error) {
	var s ReferenceSeed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, eris.Wrap(err, "model: parse reference seed")
	}
	for i, p := range s.Parameters {
		if p.Name == "" {
			return nil, eris.Errorf("model: seed parameter %d has no name", i)
		}
	}
	for i, p := range s.Permits {
		if p.OrgID == "" || p.Number == "" {
			return nil, eris.Errorf("model: seed permit %d needs organization_id and permit_number", i)
		}
	}
	return &s, nil
}
