package resolve

import (
	"sort"

	"github.com/sells-group/edd-cli/internal/model"
)

// Inputs are the reference rows loaded at the start of one parse run.
type Inputs struct {
	OrgID            string
	ParameterAliases []model.ParameterAlias
	OutfallAliases   []model.OutfallAlias
	Outfalls         []model.Outfall
	Static           *StaticTable
}

// Cache holds every lookup table for a single parse run. It is built once per
// invocation and passed by pointer to the resolver methods; nothing here is
// shared between runs.
type Cache struct {
	orgID  string
	static *StaticTable

	params map[string]model.ParameterAlias

	outfalls         []model.Outfall
	outfallsByPermit map[string][]model.Outfall
	outfallByID      map[string]model.Outfall

	// aliases holds persisted aliases plus matches learned during this run,
	// keyed by permit then alias text.
	aliases map[string]map[string]model.OutfallAlias
	learned map[string]map[string]model.OutfallAlias
}

// NewCache indexes the reference inputs for one parse run.
func NewCache(in Inputs) *Cache {
	c := &Cache{
		orgID:            in.OrgID,
		static:           in.Static,
		params:           make(map[string]model.ParameterAlias, len(in.ParameterAliases)),
		outfalls:         in.Outfalls,
		outfallsByPermit: make(map[string][]model.Outfall),
		outfallByID:      make(map[string]model.Outfall, len(in.Outfalls)),
		aliases:          make(map[string]map[string]model.OutfallAlias),
		learned:          make(map[string]map[string]model.OutfallAlias),
	}

	for _, a := range in.ParameterAliases {
		k := ParameterKey(a.Alias)
		if k == "" {
			continue
		}
		c.params[k] = a
	}

	for _, o := range in.Outfalls {
		pk := permitKey(o.PermitNumber)
		c.outfallsByPermit[pk] = append(c.outfallsByPermit[pk], o)
		c.outfallByID[o.ID] = o
	}

	for _, a := range in.OutfallAliases {
		// Aliases pointing at outfalls outside the loaded scope are stale.
		if _, ok := c.outfallByID[a.OutfallID]; !ok {
			continue
		}
		c.putAlias(c.aliases, a)
	}

	return c
}

func (c *Cache) putAlias(m map[string]map[string]model.OutfallAlias, a model.OutfallAlias) {
	pk := permitKey(a.PermitNumber)
	byAlias, ok := m[pk]
	if !ok {
		byAlias = make(map[string]model.OutfallAlias)
		m[pk] = byAlias
	}
	byAlias[aliasKey(a.Alias)] = a
}

func (c *Cache) getAlias(permit, raw string) (model.OutfallAlias, bool) {
	byAlias, ok := c.aliases[permitKey(permit)]
	if !ok {
		return model.OutfallAlias{}, false
	}
	a, ok := byAlias[aliasKey(raw)]
	return a, ok
}

// Learned returns the fuzzy matches discovered during this run that were not
// already persisted, sorted for stable output.
func (c *Cache) Learned() []model.OutfallAlias {
	var out []model.OutfallAlias
	for _, byAlias := range c.learned {
		for _, a := range byAlias {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PermitNumber != out[j].PermitNumber {
			return out[i].PermitNumber < out[j].PermitNumber
		}
		return out[i].Alias < out[j].Alias
	})
	return out
}
