package resolve

// ParameterResult is the outcome of resolving one raw parameter name.
type ParameterResult struct {
	// Skip is set for placeholder names; the row is not a measurement.
	Skip bool
	// Name is the canonical name, or the raw text when unresolved.
	Name string
	// ID is the parameter identity when the alias store knew the name.
	ID *string
	// Known is false when neither the alias store nor the static table matched.
	Known bool
}

// ResolveParameter maps raw parameter text to a canonical parameter. The alias
// store wins over the static table; only the alias store yields an identity.
func (c *Cache) ResolveParameter(raw string) ParameterResult {
	key := ParameterKey(raw)
	if IsIgnoredParameter(key) {
		return ParameterResult{Skip: true}
	}

	if a, ok := c.params[key]; ok {
		id := a.ParameterID
		return ParameterResult{Name: a.CanonicalName, ID: &id, Known: true}
	}

	if name, ok := c.static.Lookup(key); ok {
		return ParameterResult{Name: name, Known: true}
	}

	return ParameterResult{Name: trimmed(raw)}
}
