package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/edd-cli/internal/db"
	"github.com/sells-group/edd-cli/internal/edd/resolve"
	"github.com/sells-group/edd-cli/internal/model"
)

// batchWriter is the transaction surface CommitBatch needs. Both backends
// adapt their native transaction to it so the batching logic is shared.
type batchWriter interface {
	// upsertEvents runs an event upsert and scans its RETURNING rows.
	upsertEvents(ctx context.Context, query string, args []any) ([]model.SamplingEvent, error)
	// exec runs a statement and reports rows affected.
	exec(ctx context.Context, query string, args []any) (int64, error)
}

func eventUpsert(sampleDateExpr string) db.UpsertConfig {
	return db.UpsertConfig{
		Table:        "sampling_events",
		Columns:      []string{"id", "outfall_id", "sample_date", "sample_time", "import_record_id", "created_at", "updated_at"},
		ConflictKeys: []string{"outfall_id", "sample_date", "sample_time"},
		UpdateCols:   []string{"updated_at"},
		Returning:    []string{"id", "outfall_id", sampleDateExpr, "sample_time"},
	}
}

var resultUpsert = db.UpsertConfig{
	Table: "lab_results",
	Columns: []string{
		"id", "sampling_event_id", "parameter_id", "value", "below_detection", "qualifier", "unit",
		"analysis_date", "hold_time_days", "hold_time_compliant", "import_record_id", "row_number", "created_at",
	},
	ConflictKeys: []string{"sampling_event_id", "parameter_id"},
	DoNothing:    true,
}

// mergeGroups collapses groups sharing a key so one statement never touches
// the same event row twice.
func mergeGroups(groups []model.EventGroup) []model.EventGroup {
	idx := make(map[model.EventKey]int, len(groups))
	out := make([]model.EventGroup, 0, len(groups))
	for _, g := range groups {
		if i, ok := idx[g.Key]; ok {
			out[i].Results = append(out[i].Results, g.Results...)
			continue
		}
		idx[g.Key] = len(out)
		out = append(out, model.EventGroup{Key: g.Key, Results: append([]model.LabResult(nil), g.Results...)})
	}
	return out
}

// commitGroups writes events chunk by chunk, then the results of each chunk
// against the event ids the database returned. An event counts as created
// when the returned id is the one proposed for it.
func commitGroups(ctx context.Context, w batchWriter, ph db.Placeholder, events db.UpsertConfig, req CommitRequest, newID func() string, now time.Time) (model.CommitStats, error) {
	size := req.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	var stats model.CommitStats
	for _, chunk := range db.Chunk(mergeGroups(req.Groups), size) {
		proposed := make(map[model.EventKey]string, len(chunk))
		rows := make([][]any, 0, len(chunk))
		for _, g := range chunk {
			id := newID()
			proposed[g.Key] = id
			rows = append(rows, []any{id, g.Key.OutfallID, g.Key.SampleDate, g.Key.SampleTime, req.ImportRecordID, now, now})
		}

		query, err := db.BuildUpsert(events, len(rows), ph)
		if err != nil {
			return stats, err
		}
		returned, err := w.upsertEvents(ctx, query, db.Flatten(rows))
		if err != nil {
			return stats, eris.Wrap(err, "store: upsert sampling events")
		}

		eventIDs := make(map[model.EventKey]string, len(returned))
		for _, e := range returned {
			eventIDs[e.Key] = e.ID
			if e.ID == proposed[e.Key] {
				stats.EventsCreated++
			} else {
				stats.EventsReused++
			}
		}

		var results [][]any
		for _, g := range chunk {
			eventID, ok := eventIDs[g.Key]
			if !ok {
				return stats, eris.Errorf("store: no sampling event returned for outfall %s on %s %s",
					g.Key.OutfallID, g.Key.SampleDate, g.Key.SampleTime)
			}
			for _, r := range g.Results {
				results = append(results, []any{
					newID(), eventID, r.ParameterID, deref(r.Value), r.BelowDetection, deref(r.Qualifier), r.Unit,
					deref(r.AnalysisDate), deref(r.HoldTimeDays), deref(r.HoldTimeCompliant), req.ImportRecordID, r.RowNumber, now,
				})
			}
		}

		for _, rc := range db.Chunk(results, size) {
			query, err := db.BuildUpsert(resultUpsert, len(rc), ph)
			if err != nil {
				return stats, err
			}
			n, err := w.exec(ctx, query, db.Flatten(rc))
			if err != nil {
				return stats, eris.Wrap(err, "store: insert lab results")
			}
			stats.ResultsCreated += int(n)
			stats.ResultsIgnored += len(rc) - int(n)
		}
	}

	if err := markImported(ctx, w, ph, req, now); err != nil {
		return stats, err
	}
	return stats, nil
}

// markImported moves the upload from processing to imported. Zero rows
// affected means the claim was lost, which aborts the transaction.
func markImported(ctx context.Context, w batchWriter, ph db.Placeholder, req CommitRequest, now time.Time) error {
	if req.UploadID == "" {
		return nil
	}
	query := fmt.Sprintf(
		`UPDATE upload_queue SET status = %s, import_record_id = %s, error_log = NULL, updated_at = %s WHERE id = %s AND status = %s`,
		ph(1), ph(2), ph(3), ph(4), ph(5),
	)
	n, err := w.exec(ctx, query, []any{
		string(model.QueueImported), req.ImportRecordID, now, req.UploadID, string(model.QueueProcessing),
	})
	if err != nil {
		return eris.Wrapf(err, "store: mark upload %s imported", req.UploadID)
	}
	if n == 0 {
		return eris.Wrapf(ErrNotProcessing, "upload %s", req.UploadID)
	}
	return nil
}

// seedNamespace scopes the deterministic ids of seeded reference rows, so
// seeding the same document twice is a no-op.
var seedNamespace = uuid.MustParse("6f1c2d4e-8a3b-4c5d-9e7f-0a1b2c3d4e5f")

func seedID(kind string, parts ...string) string {
	return uuid.NewSHA1(seedNamespace, []byte(kind+":"+strings.Join(parts, "|"))).String()
}

// seedRows are the reference-table rows of a seed document.
type seedRows struct {
	parameters [][]any // id, name
	aliases    [][]any // alias, parameter_id
	permits    [][]any // id, organization_id, permit_number
	outfalls   [][]any // id, permit_id, display_id
}

func buildSeedRows(seed *model.ReferenceSeed) seedRows {
	var out seedRows
	seenAlias := make(map[string]bool)
	for _, p := range seed.Parameters {
		pid := seedID("parameter", strings.ToLower(p.Name))
		out.parameters = append(out.parameters, []any{pid, p.Name})
		for _, a := range append([]string{p.Name}, p.Aliases...) {
			key := resolve.ParameterKey(a)
			if key == "" || seenAlias[key] {
				continue
			}
			seenAlias[key] = true
			out.aliases = append(out.aliases, []any{key, pid})
		}
	}
	for _, p := range seed.Permits {
		number := strings.ToUpper(strings.TrimSpace(p.Number))
		permitID := seedID("permit", p.OrgID, number)
		out.permits = append(out.permits, []any{permitID, p.OrgID, number})
		for _, o := range p.Outfalls {
			out.outfalls = append(out.outfalls, []any{seedID("outfall", permitID, o), permitID, o})
		}
	}
	return out
}

var seedUpserts = struct {
	parameters, aliases, permits, outfalls db.UpsertConfig
}{
	parameters: db.UpsertConfig{Table: "parameters", Columns: []string{"id", "name"}, ConflictKeys: []string{"id"}, DoNothing: true},
	aliases:    db.UpsertConfig{Table: "parameter_aliases", Columns: []string{"alias", "parameter_id"}, ConflictKeys: []string{"alias"}},
	permits:    db.UpsertConfig{Table: "permits", Columns: []string{"id", "organization_id", "permit_number"}, ConflictKeys: []string{"id"}, DoNothing: true},
	outfalls:   db.UpsertConfig{Table: "outfalls", Columns: []string{"id", "permit_id", "display_id"}, ConflictKeys: []string{"id"}, DoNothing: true},
}

var outfallAliasUpsert = db.UpsertConfig{
	Table:        "outfall_aliases",
	Columns:      []string{"organization_id", "permit_number", "alias", "outfall_id", "display_id", "match_method"},
	ConflictKeys: []string{"organization_id", "permit_number", "alias"},
}

func outfallAliasRows(aliases []model.OutfallAlias) [][]any {
	rows := make([][]any, 0, len(aliases))
	seen := make(map[string]bool, len(aliases))
	for _, a := range aliases {
		permit := strings.ToUpper(strings.TrimSpace(a.PermitNumber))
		alias := strings.ToLower(strings.TrimSpace(a.Alias))
		key := a.OrgID + "|" + permit + "|" + alias
		if seen[key] {
			continue
		}
		seen[key] = true
		rows = append(rows, []any{a.OrgID, permit, alias, a.OutfallID, a.DisplayID, string(a.Method)})
	}
	return rows
}

// deref turns a nil pointer into a NULL bind argument and anything else
// into its value.
func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// upperAll uppercases permit numbers for lookups.
func upperAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToUpper(strings.TrimSpace(s))
	}
	return out
}
