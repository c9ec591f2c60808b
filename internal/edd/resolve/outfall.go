package resolve

import (
	"strings"

	"github.com/sells-group/edd-cli/internal/model"
)

// OutfallResult is the outcome of resolving raw outfall text.
type OutfallResult struct {
	Outfall *model.Outfall
	Method  *model.MatchMethod
	// Cached is set when the match came from the alias cache.
	Cached bool
}

// Matched reports whether an outfall identity was found.
func (r OutfallResult) Matched() bool { return r.Outfall != nil }

// ResolveOutfall maps raw outfall text on a row of the given permit to an
// outfall. Matching order: alias cache, exact, leading zeros stripped, digits
// only (with then without leading zeros). Every stage must yield exactly one
// candidate. New fuzzy matches are remembered for this run and reported by
// Learned.
func (c *Cache) ResolveOutfall(permit, raw string) OutfallResult {
	if strings.TrimSpace(raw) == "" {
		return OutfallResult{}
	}

	if a, ok := c.getAlias(permit, raw); ok {
		o := c.outfallByID[a.OutfallID]
		m := a.Method
		return OutfallResult{Outfall: &o, Method: &m, Cached: true}
	}

	candidates := c.outfallsByPermit[permitKey(permit)]
	if len(candidates) == 0 {
		candidates = c.outfalls
	}

	o, method, ok := matchOutfall(candidates, raw)
	if !ok {
		return OutfallResult{}
	}

	alias := model.OutfallAlias{
		OrgID:        c.orgID,
		PermitNumber: o.PermitNumber,
		Alias:        strings.TrimSpace(raw),
		OutfallID:    o.ID,
		DisplayID:    o.DisplayID,
		Method:       method,
	}
	// Cache under the row's permit so repeats hit stage (a); persist under the
	// outfall's own permit.
	c.putAlias(c.aliases, withPermit(alias, permit))
	c.putAlias(c.learned, alias)

	return OutfallResult{Outfall: &o, Method: &method}
}

func withPermit(a model.OutfallAlias, permit string) model.OutfallAlias {
	a.PermitNumber = permit
	return a
}

type matchStage struct {
	method model.MatchMethod
	norm   func(string) string
}

var matchStages = []matchStage{
	{model.MatchExact, outfallExact},
	{model.MatchZeroStrip, func(s string) string { return stripZeros(outfallExact(s)) }},
	{model.MatchDigitsOnly, func(s string) string { return digitsOnly(outfallExact(s)) }},
	{model.MatchDigitsOnly, func(s string) string { return stripZeros(digitsOnly(outfallExact(s))) }},
}

func matchOutfall(candidates []model.Outfall, raw string) (model.Outfall, model.MatchMethod, bool) {
	for _, st := range matchStages {
		want := st.norm(raw)
		if want == "" {
			continue
		}

		var found []model.Outfall
		for _, o := range candidates {
			if st.norm(o.DisplayID) == want {
				found = append(found, o)
			}
		}
		switch len(found) {
		case 0:
			continue
		case 1:
			return found[0], st.method, true
		default:
			// Ambiguous at this stage; looser stages would only widen it.
			return model.Outfall{}, "", false
		}
	}
	return model.Outfall{}, "", false
}

func trimmed(s string) string { return strings.TrimSpace(s) }
