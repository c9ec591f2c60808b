package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/edd-cli/internal/compliance"
	"github.com/sells-group/edd-cli/internal/db"
	"github.com/sells-group/edd-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It backs local runs
// of the CLI and the end-to-end tests.
type SQLiteStore struct {
	db    *sql.DB
	newID func() string
	now   func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// Pragmas are per connection; a single connection keeps them in force.
	conn.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{
		db:    conn,
		newID: func() string { return uuid.New().String() },
		now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS permits (
	id              TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL,
	permit_number   TEXT NOT NULL,
	UNIQUE (organization_id, permit_number)
);

CREATE TABLE IF NOT EXISTS outfalls (
	id         TEXT PRIMARY KEY,
	permit_id  TEXT NOT NULL REFERENCES permits(id),
	display_id TEXT NOT NULL,
	UNIQUE (permit_id, display_id)
);

CREATE TABLE IF NOT EXISTS parameters (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS parameter_aliases (
	alias        TEXT PRIMARY KEY,
	parameter_id TEXT NOT NULL REFERENCES parameters(id)
);

CREATE TABLE IF NOT EXISTS outfall_aliases (
	organization_id TEXT NOT NULL,
	permit_number   TEXT NOT NULL,
	alias           TEXT NOT NULL,
	outfall_id      TEXT NOT NULL REFERENCES outfalls(id),
	display_id      TEXT NOT NULL,
	match_method    TEXT NOT NULL,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (organization_id, permit_number, alias)
);

CREATE TABLE IF NOT EXISTS upload_queue (
	id               TEXT PRIMARY KEY,
	organization_id  TEXT NOT NULL,
	uploaded_by      TEXT NOT NULL DEFAULT '',
	storage_path     TEXT NOT NULL,
	file_name        TEXT NOT NULL,
	category         TEXT NOT NULL,
	region_code      TEXT,
	status           TEXT NOT NULL DEFAULT 'queued',
	extraction       BLOB,
	record_count     INTEGER NOT NULL DEFAULT 0,
	error_log        TEXT,
	import_record_id TEXT,
	pending_audit    BLOB,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS import_records (
	id              TEXT PRIMARY KEY,
	upload_id       TEXT NOT NULL REFERENCES upload_queue(id),
	organization_id TEXT NOT NULL,
	status          TEXT NOT NULL,
	total_rows      INTEGER NOT NULL DEFAULT 0,
	parsed_rows     INTEGER NOT NULL DEFAULT 0,
	skipped_rows    INTEGER NOT NULL DEFAULT 0,
	duplicate_rows  INTEGER NOT NULL DEFAULT 0,
	events_created  INTEGER NOT NULL DEFAULT 0,
	results_created INTEGER NOT NULL DEFAULT 0,
	results_skipped INTEGER NOT NULL DEFAULT 0,
	can_rollback    INTEGER NOT NULL DEFAULT 0,
	error           TEXT NOT NULL DEFAULT '',
	metadata        TEXT,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS sampling_events (
	id               TEXT PRIMARY KEY,
	outfall_id       TEXT NOT NULL REFERENCES outfalls(id),
	sample_date      TEXT NOT NULL,
	sample_time      TEXT NOT NULL DEFAULT '',
	import_record_id TEXT,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (outfall_id, sample_date, sample_time)
);

CREATE TABLE IF NOT EXISTS lab_results (
	id                  TEXT PRIMARY KEY,
	sampling_event_id   TEXT NOT NULL REFERENCES sampling_events(id),
	parameter_id        TEXT NOT NULL REFERENCES parameters(id),
	value               REAL,
	below_detection     INTEGER NOT NULL DEFAULT 0,
	qualifier           TEXT,
	unit                TEXT NOT NULL DEFAULT '',
	analysis_date       TEXT,
	hold_time_days      REAL,
	hold_time_compliant INTEGER,
	import_record_id    TEXT,
	row_number          INTEGER NOT NULL DEFAULT 0,
	created_at          DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (sampling_event_id, parameter_id)
);

CREATE INDEX IF NOT EXISTS idx_lab_results_import_record ON lab_results(import_record_id);

CREATE TABLE IF NOT EXISTS audit_log (
	id              TEXT PRIMARY KEY,
	action          TEXT NOT NULL,
	upload_id       TEXT NOT NULL,
	file_name       TEXT NOT NULL DEFAULT '',
	organization_id TEXT NOT NULL DEFAULT '',
	actor_id        TEXT NOT NULL DEFAULT '',
	outcome         TEXT NOT NULL,
	counts          TEXT,
	error           TEXT NOT NULL DEFAULT '',
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// inList renders n comma-separated placeholders.
func inList(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

// --- Queue ---

func (s *SQLiteStore) CreateUpload(ctx context.Context, e *model.QueueEntry) error {
	if e.ID == "" {
		e.ID = s.newID()
	}
	if e.Status == "" {
		e.Status = model.QueueQueued
	}
	now := s.now()
	e.CreatedAt, e.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO upload_queue (id, organization_id, uploaded_by, storage_path, file_name, category, region_code, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OrgID, e.UploadedBy, e.StoragePath, e.FileName, e.Category, deref(e.RegionCode), string(e.Status), now, now,
	)
	return eris.Wrapf(err, "sqlite: create upload %s", e.ID)
}

func (s *SQLiteStore) GetUpload(ctx context.Context, id string) (*model.QueueEntry, error) {
	var e model.QueueEntry
	var errLog sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, organization_id, uploaded_by, storage_path, file_name, category, region_code, status, extraction, record_count, error_log, import_record_id, pending_audit, created_at, updated_at FROM upload_queue WHERE id = ?`,
		id,
	).Scan(
		&e.ID, &e.OrgID, &e.UploadedBy, &e.StoragePath, &e.FileName, &e.Category, &e.RegionCode,
		&e.Status, &e.Extraction, &e.RecordCount, &errLog, &e.ImportRecordID, &e.PendingAudit,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "upload %s", id)
		}
		return nil, eris.Wrapf(err, "sqlite: get upload %s", id)
	}
	if errLog.Valid && errLog.String != "" {
		if err := json.Unmarshal([]byte(errLog.String), &e.ErrorLog); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal error log")
		}
	}
	return &e, nil
}

func (s *SQLiteStore) ClaimForParse(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE upload_queue SET status = ?, updated_at = ? WHERE id = ? AND status IN (?, ?)`,
		string(model.QueueProcessing), s.now(), id, string(model.QueueQueued), string(model.QueueFailed),
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: claim parse %s", id)
	}
	n, err := res.RowsAffected()
	return n > 0, eris.Wrap(err, "sqlite: claim parse rows affected")
}

func (s *SQLiteStore) CompleteParse(ctx context.Context, id string, out model.ParseOutcome) error {
	warnings, err := json.Marshal(out.Warnings)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal warnings")
	}
	var recordID *string
	if out.ImportRecordID != "" {
		recordID = &out.ImportRecordID
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE upload_queue SET status = ?, extraction = ?, record_count = ?, error_log = ?, region_code = COALESCE(?, region_code), import_record_id = COALESCE(?, import_record_id), updated_at = ? WHERE id = ?`,
		string(model.QueueParsed), out.Extraction, out.RecordCount, string(warnings), deref(out.RegionCode), deref(recordID), s.now(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete parse %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return eris.Wrapf(ErrNotFound, "upload %s", id)
	}
	return nil
}

func (s *SQLiteStore) FailParse(ctx context.Context, id string, errLog []string) error {
	return s.fail(ctx, id, errLog, "fail parse")
}

func (s *SQLiteStore) FailImport(ctx context.Context, id, message string) error {
	return s.fail(ctx, id, []string{message}, "fail import")
}

func (s *SQLiteStore) fail(ctx context.Context, id string, errLog []string, action string) error {
	logJSON, err := json.Marshal(errLog)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal error log")
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE upload_queue SET status = ?, error_log = ?, updated_at = ? WHERE id = ?`,
		string(model.QueueFailed), string(logJSON), s.now(), id,
	)
	return eris.Wrapf(err, "sqlite: %s %s", action, id)
}

func (s *SQLiteStore) ClaimForImport(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE upload_queue SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(model.QueueProcessing), s.now(), id, string(model.QueueParsed),
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: claim import %s", id)
	}
	n, err := res.RowsAffected()
	return n > 0, eris.Wrap(err, "sqlite: claim import rows affected")
}

func (s *SQLiteStore) SetPendingAudit(ctx context.Context, id string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE upload_queue SET pending_audit = ?, updated_at = ? WHERE id = ?`,
		payload, s.now(), id,
	)
	return eris.Wrapf(err, "sqlite: set pending audit %s", id)
}

// --- Import records ---

func (s *SQLiteStore) CreateImportRecord(ctx context.Context, r *model.ImportRecord) error {
	if r.ID == "" {
		r.ID = s.newID()
	}
	now := s.now()
	r.CreatedAt, r.UpdatedAt = now, now

	meta, err := marshalMetadata(r.Metadata)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO import_records (id, upload_id, organization_id, status, metadata, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UploadID, r.OrgID, string(r.Status), nullableText(meta), now, now,
	)
	return eris.Wrapf(err, "sqlite: create import record %s", r.ID)
}

func (s *SQLiteStore) UpdateImportRecord(ctx context.Context, r *model.ImportRecord) error {
	meta, err := marshalMetadata(r.Metadata)
	if err != nil {
		return err
	}
	r.UpdatedAt = s.now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE import_records SET status = ?, total_rows = ?, parsed_rows = ?, skipped_rows = ?, duplicate_rows = ?, events_created = ?, results_created = ?, results_skipped = ?, can_rollback = ?, error = ?, metadata = ?, updated_at = ? WHERE id = ?`,
		string(r.Status), r.TotalRows, r.ParsedRows, r.SkippedRows, r.DuplicateRows,
		r.EventsCreated, r.ResultsCreated, r.ResultsSkipped, r.CanRollback, r.Error, nullableText(meta), r.UpdatedAt, r.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update import record %s", r.ID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return eris.Wrapf(ErrNotFound, "import record %s", r.ID)
	}
	return nil
}

func (s *SQLiteStore) GetImportRecord(ctx context.Context, id string) (*model.ImportRecord, error) {
	var r model.ImportRecord
	var meta sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, upload_id, organization_id, status, total_rows, parsed_rows, skipped_rows, duplicate_rows, events_created, results_created, results_skipped, can_rollback, error, metadata, created_at, updated_at FROM import_records WHERE id = ?`,
		id,
	).Scan(&r.ID, &r.UploadID, &r.OrgID, &r.Status, &r.TotalRows, &r.ParsedRows, &r.SkippedRows,
		&r.DuplicateRows, &r.EventsCreated, &r.ResultsCreated, &r.ResultsSkipped, &r.CanRollback,
		&r.Error, &meta, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "import record %s", id)
		}
		return nil, eris.Wrapf(err, "sqlite: get import record %s", id)
	}
	if meta.Valid && meta.String != "" {
		if err := json.Unmarshal([]byte(meta.String), &r.Metadata); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal metadata")
		}
	}
	return &r, nil
}

func nullableText(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}

// --- References ---

func (s *SQLiteStore) ParameterAliases(ctx context.Context) ([]model.ParameterAlias, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.alias, p.id, p.name FROM parameter_aliases a JOIN parameters p ON p.id = a.parameter_id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query parameter aliases")
	}
	defer rows.Close()

	var out []model.ParameterAlias
	for rows.Next() {
		var a model.ParameterAlias
		if err := rows.Scan(&a.Alias, &a.ParameterID, &a.CanonicalName); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan parameter alias")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate parameter aliases")
}

func (s *SQLiteStore) OutfallsForPermits(ctx context.Context, orgID string, permits []string) ([]model.Outfall, error) {
	if len(permits) == 0 {
		return nil, nil
	}
	args := append([]any{orgID}, stringArgs(upperAll(permits))...)
	rows, err := s.db.QueryContext(ctx,
		`SELECT o.id, p.id, p.permit_number, o.display_id FROM outfalls o JOIN permits p ON p.id = o.permit_id WHERE p.organization_id = ? AND upper(p.permit_number) IN (`+inList(len(permits))+`) ORDER BY p.permit_number, o.display_id`,
		args...,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query outfalls")
	}
	defer rows.Close()

	var out []model.Outfall
	for rows.Next() {
		var o model.Outfall
		if err := rows.Scan(&o.ID, &o.PermitID, &o.PermitNumber, &o.DisplayID); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan outfall")
		}
		out = append(out, o)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate outfalls")
}

func (s *SQLiteStore) OutfallAliases(ctx context.Context, orgID string, permits []string) ([]model.OutfallAlias, error) {
	if len(permits) == 0 {
		return nil, nil
	}
	args := append([]any{orgID}, stringArgs(upperAll(permits))...)
	rows, err := s.db.QueryContext(ctx,
		`SELECT organization_id, permit_number, alias, outfall_id, display_id, match_method FROM outfall_aliases WHERE organization_id = ? AND permit_number IN (`+inList(len(permits))+`)`,
		args...,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query outfall aliases")
	}
	defer rows.Close()

	var out []model.OutfallAlias
	for rows.Next() {
		var a model.OutfallAlias
		if err := rows.Scan(&a.OrgID, &a.PermitNumber, &a.Alias, &a.OutfallID, &a.DisplayID, &a.Method); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan outfall alias")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate outfall aliases")
}

func (s *SQLiteStore) ExistingResultKeys(ctx context.Context, orgID string, w compliance.Window) ([]model.ResultKey, error) {
	if w.Empty() {
		return nil, nil
	}
	query := `SELECT p.permit_number, o.display_id, e.sample_date, e.sample_time, pr.name
FROM lab_results r
JOIN sampling_events e ON e.id = r.sampling_event_id
JOIN outfalls o ON o.id = e.outfall_id
JOIN permits p ON p.id = o.permit_id
JOIN parameters pr ON pr.id = r.parameter_id
WHERE p.organization_id = ? AND upper(p.permit_number) IN (` + inList(len(w.Permits)) + `)`
	args := append([]any{orgID}, stringArgs(w.Permits)...)
	if w.Exact() {
		query += ` AND e.sample_date IN (` + inList(len(w.Dates)) + `)`
		args = append(args, stringArgs(w.Dates)...)
	} else {
		query += ` AND e.sample_date BETWEEN ? AND ?`
		args = append(args, w.From, w.To)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query existing results")
	}
	defer rows.Close()

	var out []model.ResultKey
	for rows.Next() {
		var k model.ResultKey
		if err := rows.Scan(&k.PermitNumber, &k.OutfallID, &k.SampleDate, &k.SampleTime, &k.Parameter); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan result key")
		}
		out = append(out, k)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate existing results")
}

func (s *SQLiteStore) SaveOutfallAliases(ctx context.Context, aliases []model.OutfallAlias) error {
	for _, chunk := range db.Chunk(outfallAliasRows(aliases), DefaultBatchSize) {
		query, err := db.BuildUpsert(outfallAliasUpsert, len(chunk), db.Question)
		if err != nil {
			return err
		}
		if _, err := s.db.ExecContext(ctx, query, db.Flatten(chunk)...); err != nil {
			return eris.Wrap(err, "sqlite: save outfall aliases")
		}
	}
	return nil
}

// --- Domain ---

type sqliteBatch struct{ tx *sql.Tx }

func (b sqliteBatch) upsertEvents(ctx context.Context, query string, args []any) ([]model.SamplingEvent, error) {
	rows, err := b.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SamplingEvent
	for rows.Next() {
		var e model.SamplingEvent
		if err := rows.Scan(&e.ID, &e.Key.OutfallID, &e.Key.SampleDate, &e.Key.SampleTime); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (b sqliteBatch) exec(ctx context.Context, query string, args []any) (int64, error) {
	res, err := b.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) CommitBatch(ctx context.Context, req CommitRequest) (model.CommitStats, error) {
	if len(req.Groups) == 0 && req.UploadID == "" {
		return model.CommitStats{}, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.CommitStats{}, eris.Wrap(err, "sqlite: begin commit")
	}
	defer tx.Rollback() //nolint:errcheck

	stats, err := commitGroups(ctx, sqliteBatch{tx: tx}, db.Question, eventUpsert("sample_date"), req, s.newID, s.now())
	if err != nil {
		return model.CommitStats{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.CommitStats{}, eris.Wrap(err, "sqlite: commit batch")
	}
	return stats, nil
}

// --- Audit ---

func (s *SQLiteStore) WriteAudit(ctx context.Context, e model.AuditEntry) error {
	counts, err := json.Marshal(e.Counts)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal audit counts")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, action, upload_id, file_name, organization_id, actor_id, outcome, counts, error, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.newID(), e.Action, e.UploadID, e.FileName, e.OrgID, e.ActorID, e.Outcome, string(counts), e.Error, e.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: write audit")
}

// --- Seeding ---

func (s *SQLiteStore) SeedReference(ctx context.Context, seed *model.ReferenceSeed) error {
	rows := buildSeedRows(seed)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin seed")
	}
	defer tx.Rollback() //nolint:errcheck

	steps := []struct {
		cfg  db.UpsertConfig
		rows [][]any
	}{
		{seedUpserts.parameters, rows.parameters},
		{seedUpserts.aliases, rows.aliases},
		{seedUpserts.permits, rows.permits},
		{seedUpserts.outfalls, rows.outfalls},
	}
	for _, step := range steps {
		for _, chunk := range db.Chunk(step.rows, DefaultBatchSize) {
			query, err := db.BuildUpsert(step.cfg, len(chunk), db.Question)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, db.Flatten(chunk)...); err != nil {
				return eris.Wrapf(err, "sqlite: seed %s", step.cfg.Table)
			}
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit seed")
}
