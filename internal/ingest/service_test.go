package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/edd-cli/internal/edd"
	"github.com/sells-group/edd-cli/internal/model"
)

func TestParse_Success(t *testing.T) {
	env := newTestEnv(t, testParseConfig())
	ctx := context.Background()

	entry := env.upload(t, "march.csv", eddCSV(
		eddRow(nil),
		eddRow(map[int]string{edd.ColOutfall: "2", edd.ColParameter: "pH", edd.ColValue: "7.1", edd.ColUnit: "SU"}),
		eddRow(map[int]string{edd.ColParameter: "Widget Index", edd.ColValue: "TNTC"}),
	))

	out, err := env.svc.Parse(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, out.UploadID)
	assert.NotEmpty(t, out.ImportRecordID)
	assert.Equal(t, 3, out.Data.TotalRows)
	assert.Equal(t, 3, out.Data.ParsedRows)
	assert.Equal(t, 2, out.LearnedAliases)

	got, err := env.store.GetUpload(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.QueueParsed, got.Status)
	assert.Equal(t, 3, got.RecordCount)
	require.NotNil(t, got.RegionCode)
	assert.Equal(t, "TX", *got.RegionCode)
	require.NotNil(t, got.ImportRecordID)
	assert.Equal(t, out.ImportRecordID, *got.ImportRecordID)
	assert.NotEmpty(t, got.ErrorLog, "non-numeric value is reported")

	data, err := model.DecodeLabData(got.Extraction)
	require.NoError(t, err)
	assert.Equal(t, "march.csv", data.FileName)
	assert.Len(t, data.Records, 3)
	assert.Equal(t, []string{"Widget Index"}, data.UnknownParameters)

	rec, err := env.store.GetImportRecord(ctx, out.ImportRecordID)
	require.NoError(t, err)
	assert.Equal(t, model.ImportParsed, rec.Status)
	assert.Equal(t, 3, rec.TotalRows)

	// Learned matches are written in the background.
	env.aliases.Close()
	aliases, err := env.store.OutfallAliases(ctx, "org-1", []string{"TX0001234"})
	require.NoError(t, err)
	require.Len(t, aliases, 2)
	byAlias := map[string]model.OutfallAlias{}
	for _, a := range aliases {
		byAlias[a.Alias] = a
	}
	assert.Equal(t, "002", byAlias["2"].DisplayID)
	assert.Equal(t, model.MatchZeroStrip, byAlias["2"].Method)
	assert.Equal(t, model.MatchExact, byAlias["001"].Method)
}

func TestParse_UnsupportedFileFailsAndAllowsRetry(t *testing.T) {
	env := newTestEnv(t, testParseConfig())
	ctx := context.Background()
	entry := env.upload(t, "march.pdf", "%PDF-1.4")

	_, err := env.svc.Parse(ctx, entry.ID)
	var ie *Error
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, KindParseFailed, ie.Kind)
	assert.Equal(t, 422, ie.HTTPStatus())

	got, err := env.store.GetUpload(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.QueueFailed, got.Status)
	require.Len(t, got.ErrorLog, 2)
	assert.Equal(t, (&edd.FormatError{Kind: edd.KindUnsupportedFile}).Category(), got.ErrorLog[0])
	assert.Contains(t, got.ErrorLog[1], "unsupported")

	// A failed upload can be claimed again.
	_, err = env.svc.Parse(ctx, entry.ID)
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, KindParseFailed, ie.Kind)
}

func TestParse_NoData(t *testing.T) {
	env := newTestEnv(t, testParseConfig())
	ctx := context.Background()
	entry := env.upload(t, "empty.csv", strings.Join(eddHeader, ",")+"\n")

	_, err := env.svc.Parse(ctx, entry.ID)
	var ie *Error
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, KindParseFailed, ie.Kind)
	assert.Equal(t, (&edd.FormatError{Kind: edd.KindNoData}).Category(), ie.Message)
}

func TestParse_FileTooLarge(t *testing.T) {
	cfg := testParseConfig()
	cfg.MaxFileBytes = 64
	env := newTestEnv(t, cfg)
	entry := env.upload(t, "big.csv", eddCSV(eddRow(nil), eddRow(nil)))

	_, err := env.svc.Parse(context.Background(), entry.ID)
	var le *edd.LimitError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, edd.KindFileTooLarge, le.Kind)
}

func TestParse_TooManyRowsLeavesEntryFailed(t *testing.T) {
	cfg := testParseConfig()
	cfg.MaxRows = 1
	env := newTestEnv(t, cfg)
	ctx := context.Background()
	entry := env.upload(t, "march.csv", eddCSV(eddRow(nil), eddRow(map[int]string{edd.ColOutfall: "2"})))

	_, err := env.svc.Parse(ctx, entry.ID)
	var ie *Error
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, KindParseFailed, ie.Kind)
	var le *edd.LimitError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, edd.KindTooManyRows, le.Kind)

	got, err := env.store.GetUpload(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.QueueFailed, got.Status)
	assert.Empty(t, got.Extraction)
	assert.Zero(t, got.RecordCount)
	require.Len(t, got.ErrorLog, 2)
	assert.Equal(t, le.Category(), got.ErrorLog[0])
	assert.Contains(t, got.ErrorLog[1], "2 exceeds limit 1")
}

func TestParse_Rejections(t *testing.T) {
	env := newTestEnv(t, testParseConfig())
	ctx := context.Background()

	_, err := env.svc.Parse(ctx, "missing")
	var ie *Error
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, KindNotFound, ie.Kind)

	permit := &model.QueueEntry{OrgID: "org-1", StoragePath: "org-1/permit.pdf", FileName: "permit.pdf", Category: "permit"}
	require.NoError(t, env.store.CreateUpload(ctx, permit))
	_, err = env.svc.Parse(ctx, permit.ID)
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, KindBadRequest, ie.Kind)

	entry := env.upload(t, "march.csv", eddCSV(eddRow(nil)))
	_, err = env.svc.Parse(ctx, entry.ID)
	require.NoError(t, err)
	_, err = env.svc.Parse(ctx, entry.ID)
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, KindConflict, ie.Kind)
}

func TestReadFile(t *testing.T) {
	c, err := ReadFile("a.csv", []byte(eddCSV(eddRow(nil), eddRow(nil))), 0, 0)
	require.NoError(t, err)
	assert.Len(t, c.Rows, 2)

	_, err = ReadFile("a.csv", []byte(eddCSV(eddRow(nil), eddRow(nil))), 0, 1)
	var le *edd.LimitError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, edd.KindTooManyRows, le.Kind)

	_, err = ReadFile("a.xlsx", []byte("not a zip"), 0, 0)
	var fe *edd.FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, edd.KindUnsupportedFile, fe.Kind)
}

func TestWarningLog(t *testing.T) {
	d := &model.ExtractedLabData{
		Warnings: []string{"w1"},
		ValidationErrors: []model.ValidationError{
			{Row: 3, Field: "value", Value: "TNTC", Message: "non-numeric result"},
			{Row: 4, Field: "permit_number", Message: "missing permit number"},
		},
	}
	assert.Equal(t, []string{
		"w1",
		`Row 3: value: non-numeric result ("TNTC")`,
		"Row 4: permit_number: missing permit number",
	}, warningLog(d, 0))
	assert.Len(t, warningLog(d, 2), 2)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, "héé", truncate("héé", 3))
	assert.Equal(t, "hé", truncate("héé!", 2))
}
