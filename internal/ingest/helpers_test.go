package ingest

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/edd-cli/internal/blob"
	"github.com/sells-group/edd-cli/internal/config"
	"github.com/sells-group/edd-cli/internal/edd"
	"github.com/sells-group/edd-cli/internal/model"
	"github.com/sells-group/edd-cli/internal/store"
)

var eddHeader = []string{
	"Permittee", "Permit #", "Facility/Site", "Site Address", "City", "State",
	"County", "Outfall", "Latitude", "Longitude", "Receiving Water", "Sample Date",
	"Sample Time", "Sample Type", "Sample ID", "Lab Name", "Lab ID", "Analysis Date",
	"Analysis Time", "Method", "Parameter", "Value", "Unit", "Qualifier",
	"Detection Limit", "Comments",
}

func eddRow(overrides map[int]string) []string {
	row := make([]string, edd.TemplateColumns)
	row[edd.ColPermittee] = "Acme Utility District"
	row[edd.ColPermitNumber] = "TX0001234"
	row[edd.ColSite] = "North Plant"
	row[edd.ColState] = "TX"
	row[edd.ColOutfall] = "001"
	row[edd.ColSampleDate] = "3/1/2024"
	row[edd.ColSampleTime] = "08:30"
	row[edd.ColLabName] = "Gulf Coast Labs"
	row[edd.ColAnalysisDate] = "3/3/2024"
	row[edd.ColParameter] = "TSS"
	row[edd.ColValue] = "12.5"
	row[edd.ColUnit] = "mg/L"
	for i, v := range overrides {
		row[i] = v
	}
	return row
}

func eddCSV(rows ...[]string) string {
	var b strings.Builder
	b.WriteString(strings.Join(eddHeader, ","))
	b.WriteString("\n")
	for _, r := range rows {
		b.WriteString(strings.Join(r, ","))
		b.WriteString("\n")
	}
	return b.String()
}

var testSeed = &model.ReferenceSeed{
	Parameters: []model.SeedParameter{
		{Name: "Total Suspended Solids", Aliases: []string{"TSS"}},
		{Name: "pH"},
	},
	Permits: []model.SeedPermit{
		{OrgID: "org-1", Number: "TX0001234", Outfalls: []string{"001", "002"}},
	},
}

func testParseConfig() config.ParseConfig {
	return config.ParseConfig{
		MaxFileBytes:          1 << 20,
		MaxRows:               1000,
		MaxRecords:            5000,
		MaxValidationErrors:   50,
		MaxHoldTimeViolations: 50,
		DedupMaxSpanDays:      400,
		WarningLogLines:       100,
		ErrorDetailChars:      800,
		TimeoutSecs:           30,
	}
}

type testEnv struct {
	store   *store.SQLiteStore
	blobs   *blob.Local
	aliases *AliasWriter
	svc     *Service
}

func newTestEnv(t *testing.T, cfg config.ParseConfig) *testEnv {
	t.Helper()
	ctx := context.Background()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "edd.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(ctx))
	require.NoError(t, st.SeedReference(ctx, testSeed))

	blobs, err := blob.NewLocal(t.TempDir())
	require.NoError(t, err)

	aliases := NewAliasWriter(st, config.AliasConfig{QueueSize: 4})
	t.Cleanup(aliases.Close)

	svc, err := NewService(st, blobs, cfg, WithAliasWriter(aliases))
	require.NoError(t, err)
	return &testEnv{store: st, blobs: blobs, aliases: aliases, svc: svc}
}

// upload stores content and queues it for org-1.
func (e *testEnv) upload(t *testing.T, fileName, content string) *model.QueueEntry {
	t.Helper()
	ctx := context.Background()
	key := "org-1/" + fileName
	require.NoError(t, e.blobs.Put(ctx, key, strings.NewReader(content)))
	entry := &model.QueueEntry{
		OrgID:       "org-1",
		UploadedBy:  "user-1",
		StoragePath: key,
		FileName:    fileName,
		Category:    model.CategoryLabData,
	}
	require.NoError(t, e.store.CreateUpload(ctx, entry))
	return entry
}
