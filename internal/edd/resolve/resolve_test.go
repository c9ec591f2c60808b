package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/edd-cli/internal/model"
)

func testCache(t *testing.T, outfalls []model.Outfall, aliases []model.OutfallAlias) *Cache {
	t.Helper()
	static, err := DefaultStaticTable()
	require.NoError(t, err)
	return NewCache(Inputs{
		OrgID: "org-1",
		ParameterAliases: []model.ParameterAlias{
			{Alias: "pH", ParameterID: "p-ph", CanonicalName: "pH"},
			{Alias: "Total Suspended Solids", ParameterID: "p-tss", CanonicalName: "Total Suspended Solids"},
		},
		OutfallAliases: aliases,
		Outfalls:       outfalls,
		Static:         static,
	})
}

func TestDefaultStaticTable(t *testing.T) {
	tbl, err := DefaultStaticTable()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, tbl.Len(), 70)

	name, ok := tbl.Lookup("bod5")
	assert.True(t, ok)
	assert.Equal(t, "Biochemical Oxygen Demand", name)
}

func TestParseStaticTable_ConflictingAlias(t *testing.T) {
	_, err := ParseStaticTable([]byte(`
parameters:
  - name: A
    aliases: [x]
  - name: B
    aliases: [x]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maps to both")
}

func TestParameterKey(t *testing.T) {
	assert.Equal(t, "total suspended solids", ParameterKey("  Total   Suspended\tSolids "))
	assert.Equal(t, "ph", ParameterKey("pH"))
	// NFKC folds the non-breaking space and the fullwidth letters.
	assert.Equal(t, "oil and grease", ParameterKey("Oil and Grease"))
	assert.Equal(t, "bod", ParameterKey("ＢＯＤ"))
}

func TestResolveParameter(t *testing.T) {
	c := testCache(t, nil, nil)

	tests := []struct {
		name      string
		raw       string
		wantSkip  bool
		wantName  string
		wantID    bool
		wantKnown bool
	}{
		{"alias store hit", " PH ", false, "pH", true, true},
		{"static fallback", "TSS", false, "Total Suspended Solids", false, true},
		{"alias store beats static", "total suspended solids", false, "Total Suspended Solids", true, true},
		{"static only", "bod, 5-day", false, "Biochemical Oxygen Demand", false, true},
		{"unknown passes through", " Widget Count ", false, "Widget Count", false, false},
		{"txt sentinel", "txt", true, "", false, false},
		{"empty", "   ", true, "", false, false},
		{"n/a", "N/A", true, "", false, false},
		{"none", "None", true, "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.ResolveParameter(tt.raw)
			assert.Equal(t, tt.wantSkip, got.Skip)
			if tt.wantSkip {
				return
			}
			assert.Equal(t, tt.wantName, got.Name)
			assert.Equal(t, tt.wantID, got.ID != nil)
			assert.Equal(t, tt.wantKnown, got.Known)
		})
	}
}

func TestResolveOutfall_ZeroStripVariants(t *testing.T) {
	outfalls := []model.Outfall{{ID: "o-1", PermitID: "pm-1", PermitNumber: "TX0001234", DisplayID: "001"}}

	for _, raw := range []string{"01", "1", "1.0"} {
		t.Run(raw, func(t *testing.T) {
			c := testCache(t, outfalls, nil)
			got := c.ResolveOutfall("TX0001234", raw)
			require.True(t, got.Matched())
			assert.Equal(t, "o-1", got.Outfall.ID)
			assert.Equal(t, model.MatchZeroStrip, *got.Method)
			assert.False(t, got.Cached)
		})
	}
}

func TestResolveOutfall_Stages(t *testing.T) {
	outfalls := []model.Outfall{
		{ID: "o-1", PermitNumber: "TX1", DisplayID: "001"},
		{ID: "o-2", PermitNumber: "TX1", DisplayID: "Outfall 002"},
		{ID: "o-3", PermitNumber: "TX1", DisplayID: "003A"},
	}

	tests := []struct {
		raw    string
		wantID string
		method model.MatchMethod
	}{
		{"001", "o-1", model.MatchExact},
		{" 001.0 ", "o-1", model.MatchExact},
		{"OUTFALL 002", "o-2", model.MatchExact},
		{"002", "o-2", model.MatchDigitsOnly},
		{"Outfall #2", "o-2", model.MatchDigitsOnly},
		{"003a", "o-3", model.MatchExact},
		{"03A", "o-3", model.MatchZeroStrip},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			c := testCache(t, outfalls, nil)
			got := c.ResolveOutfall("TX1", tt.raw)
			require.True(t, got.Matched(), "expected a match for %q", tt.raw)
			assert.Equal(t, tt.wantID, got.Outfall.ID)
			assert.Equal(t, tt.method, *got.Method)
		})
	}
}

func TestResolveOutfall_NoMatch(t *testing.T) {
	c := testCache(t, []model.Outfall{{ID: "o-1", PermitNumber: "TX1", DisplayID: "001"}}, nil)
	assert.False(t, c.ResolveOutfall("TX1", "999").Matched())
	assert.False(t, c.ResolveOutfall("TX1", "").Matched())
	assert.False(t, c.ResolveOutfall("TX1", "abc").Matched())
	assert.Empty(t, c.Learned())
}

func TestResolveOutfall_AmbiguousIsUnmatched(t *testing.T) {
	c := testCache(t, []model.Outfall{
		{ID: "o-1", PermitNumber: "TX1", DisplayID: "001"},
		{ID: "o-2", PermitNumber: "TX2", DisplayID: "001"},
	}, nil)
	// Unknown permit widens the scope to every outfall; "1" fits both.
	assert.False(t, c.ResolveOutfall("TX9", "1").Matched())
	// Known permit narrows it to one.
	got := c.ResolveOutfall("TX2", "1")
	require.True(t, got.Matched())
	assert.Equal(t, "o-2", got.Outfall.ID)
}

func TestResolveOutfall_AliasCacheHit(t *testing.T) {
	outfalls := []model.Outfall{{ID: "o-1", PermitNumber: "TX1", DisplayID: "001"}}
	aliases := []model.OutfallAlias{{OrgID: "org-1", PermitNumber: "tx1", Alias: "Main Discharge", OutfallID: "o-1", DisplayID: "001", Method: model.MatchDigitsOnly}}
	c := testCache(t, outfalls, aliases)

	got := c.ResolveOutfall("TX1", "main discharge")
	require.True(t, got.Matched())
	assert.True(t, got.Cached)
	assert.Equal(t, model.MatchDigitsOnly, *got.Method)
	assert.Empty(t, c.Learned())
}

func TestResolveOutfall_StaleAliasIgnored(t *testing.T) {
	outfalls := []model.Outfall{{ID: "o-1", PermitNumber: "TX1", DisplayID: "001"}}
	aliases := []model.OutfallAlias{{PermitNumber: "TX1", Alias: "1", OutfallID: "gone", Method: model.MatchExact}}
	c := testCache(t, outfalls, aliases)

	got := c.ResolveOutfall("TX1", "1")
	require.True(t, got.Matched())
	assert.False(t, got.Cached)
	assert.Equal(t, "o-1", got.Outfall.ID)
}

func TestLearned_QueuedOncePerAlias(t *testing.T) {
	outfalls := []model.Outfall{
		{ID: "o-1", PermitNumber: "TX1", DisplayID: "001"},
		{ID: "o-2", PermitNumber: "TX1", DisplayID: "002"},
	}
	c := testCache(t, outfalls, nil)

	for i := 0; i < 3; i++ {
		c.ResolveOutfall("TX1", "1")
	}
	second := c.ResolveOutfall("TX1", "1")
	assert.True(t, second.Cached)
	c.ResolveOutfall("TX1", "2.0")
	c.ResolveOutfall("TX1", "002") // exact match is still learned

	learned := c.Learned()
	require.Len(t, learned, 3)
	assert.Equal(t, "002", learned[0].Alias)
	assert.Equal(t, model.MatchExact, learned[0].Method)
	assert.Equal(t, "1", learned[1].Alias)
	assert.Equal(t, "org-1", learned[1].OrgID)
	assert.Equal(t, "TX1", learned[1].PermitNumber)
	assert.Equal(t, "2.0", learned[2].Alias)
}
