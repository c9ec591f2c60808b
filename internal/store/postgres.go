package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/edd-cli/internal/compliance"
	"github.com/sells-group/edd-cli/internal/db"
	"github.com/sells-group/edd-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
	newID   func() string
	now     func() time.Time
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	pgClaimParse  = `UPDATE upload_queue SET status = $1, updated_at = $2 WHERE id = $3 AND status IN ($4, $5)`
	pgClaimImport = `UPDATE upload_queue SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	pgGetUpload   = `SELECT id, organization_id, uploaded_by, storage_path, file_name, category, region_code, status, extraction, record_count, error_log, import_record_id, pending_audit, created_at, updated_at FROM upload_queue WHERE id = $1`
)

// preparedStatements are prepared on each new connection.
var preparedStatements = map[string]string{
	"claim_parse":  pgClaimParse,
	"claim_import": pgClaimImport,
	"get_upload":   pgGetUpload,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return newPostgresStore(pool, pool.Close), nil
}

func newPostgresStore(pool db.Pool, closeFn func()) *PostgresStore {
	return &PostgresStore{
		pool:    pool,
		closeFn: closeFn,
		newID:   func() string { return uuid.New().String() },
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Pool returns the underlying database pool.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
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
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
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
	extraction       JSONB,
	record_count     INTEGER NOT NULL DEFAULT 0,
	error_log        JSONB,
	import_record_id TEXT,
	pending_audit    JSONB,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_upload_queue_status ON upload_queue(status);

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
	can_rollback    BOOLEAN NOT NULL DEFAULT false,
	error           TEXT NOT NULL DEFAULT '',
	metadata        JSONB,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sampling_events (
	id               TEXT PRIMARY KEY,
	outfall_id       TEXT NOT NULL REFERENCES outfalls(id),
	sample_date      DATE NOT NULL,
	sample_time      TEXT NOT NULL DEFAULT '',
	import_record_id TEXT,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (outfall_id, sample_date, sample_time)
);

CREATE TABLE IF NOT EXISTS lab_results (
	id                  TEXT PRIMARY KEY,
	sampling_event_id   TEXT NOT NULL REFERENCES sampling_events(id),
	parameter_id        TEXT NOT NULL REFERENCES parameters(id),
	value               DOUBLE PRECISION,
	below_detection     BOOLEAN NOT NULL DEFAULT false,
	qualifier           TEXT,
	unit                TEXT NOT NULL DEFAULT '',
	analysis_date       DATE,
	hold_time_days      DOUBLE PRECISION,
	hold_time_compliant BOOLEAN,
	import_record_id    TEXT,
	row_number          INTEGER NOT NULL DEFAULT 0,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (sampling_event_id, parameter_id)
);

CREATE INDEX IF NOT EXISTS idx_lab_results_import_record ON lab_results(import_record_id);
CREATE INDEX IF NOT EXISTS idx_sampling_events_date ON sampling_events(sample_date);

CREATE TABLE IF NOT EXISTS audit_log (
	id              TEXT PRIMARY KEY,
	action          TEXT NOT NULL,
	upload_id       TEXT NOT NULL,
	file_name       TEXT NOT NULL DEFAULT '',
	organization_id TEXT NOT NULL DEFAULT '',
	actor_id        TEXT NOT NULL DEFAULT '',
	outcome         TEXT NOT NULL,
	counts          JSONB,
	error           TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// --- Queue ---

func (s *PostgresStore) CreateUpload(ctx context.Context, e *model.QueueEntry) error {
	if e.ID == "" {
		e.ID = s.newID()
	}
	if e.Status == "" {
		e.Status = model.QueueQueued
	}
	now := s.now()
	e.CreatedAt, e.UpdatedAt = now, now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO upload_queue (id, organization_id, uploaded_by, storage_path, file_name, category, region_code, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.OrgID, e.UploadedBy, e.StoragePath, e.FileName, e.Category, deref(e.RegionCode), string(e.Status), now, now,
	)
	return eris.Wrapf(err, "postgres: create upload %s", e.ID)
}

func (s *PostgresStore) GetUpload(ctx context.Context, id string) (*model.QueueEntry, error) {
	var e model.QueueEntry
	var errLog []byte
	err := s.pool.QueryRow(ctx, pgGetUpload, id).Scan(
		&e.ID, &e.OrgID, &e.UploadedBy, &e.StoragePath, &e.FileName, &e.Category, &e.RegionCode,
		&e.Status, &e.Extraction, &e.RecordCount, &errLog, &e.ImportRecordID, &e.PendingAudit,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "upload %s", id)
		}
		return nil, eris.Wrapf(err, "postgres: get upload %s", id)
	}
	if len(errLog) > 0 {
		if err := json.Unmarshal(errLog, &e.ErrorLog); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal error log")
		}
	}
	return &e, nil
}

func (s *PostgresStore) ClaimForParse(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, pgClaimParse,
		string(model.QueueProcessing), s.now(), id, string(model.QueueQueued), string(model.QueueFailed))
	if err != nil {
		return false, eris.Wrapf(err, "postgres: claim parse %s", id)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) CompleteParse(ctx context.Context, id string, out model.ParseOutcome) error {
	warnings, err := json.Marshal(out.Warnings)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal warnings")
	}
	var recordID *string
	if out.ImportRecordID != "" {
		recordID = &out.ImportRecordID
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE upload_queue SET status = $1, extraction = $2, record_count = $3, error_log = $4, region_code = COALESCE($5, region_code), import_record_id = COALESCE($6, import_record_id), updated_at = $7 WHERE id = $8`,
		string(model.QueueParsed), out.Extraction, out.RecordCount, warnings, deref(out.RegionCode), deref(recordID), s.now(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete parse %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "upload %s", id)
	}
	return nil
}

func (s *PostgresStore) FailParse(ctx context.Context, id string, errLog []string) error {
	return s.fail(ctx, id, errLog, "fail parse")
}

func (s *PostgresStore) FailImport(ctx context.Context, id, message string) error {
	return s.fail(ctx, id, []string{message}, "fail import")
}

func (s *PostgresStore) fail(ctx context.Context, id string, errLog []string, action string) error {
	logJSON, err := json.Marshal(errLog)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal error log")
	}
	_, err = s.pool.Exec(ctx,
		`UPDATE upload_queue SET status = $1, error_log = $2, updated_at = $3 WHERE id = $4`,
		string(model.QueueFailed), logJSON, s.now(), id,
	)
	return eris.Wrapf(err, "postgres: %s %s", action, id)
}

func (s *PostgresStore) ClaimForImport(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, pgClaimImport,
		string(model.QueueProcessing), s.now(), id, string(model.QueueParsed))
	if err != nil {
		return false, eris.Wrapf(err, "postgres: claim import %s", id)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) SetPendingAudit(ctx context.Context, id string, payload []byte) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE upload_queue SET pending_audit = $1, updated_at = $2 WHERE id = $3`,
		payload, s.now(), id,
	)
	return eris.Wrapf(err, "postgres: set pending audit %s", id)
}

// --- Import records ---

func (s *PostgresStore) CreateImportRecord(ctx context.Context, r *model.ImportRecord) error {
	if r.ID == "" {
		r.ID = s.newID()
	}
	now := s.now()
	r.CreatedAt, r.UpdatedAt = now, now

	meta, err := marshalMetadata(r.Metadata)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO import_records (id, upload_id, organization_id, status, metadata, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.UploadID, r.OrgID, string(r.Status), meta, now, now,
	)
	return eris.Wrapf(err, "postgres: create import record %s", r.ID)
}

func (s *PostgresStore) UpdateImportRecord(ctx context.Context, r *model.ImportRecord) error {
	meta, err := marshalMetadata(r.Metadata)
	if err != nil {
		return err
	}
	r.UpdatedAt = s.now()
	tag, err := s.pool.Exec(ctx,
		`UPDATE import_records SET status = $1, total_rows = $2, parsed_rows = $3, skipped_rows = $4, duplicate_rows = $5, events_created = $6, results_created = $7, results_skipped = $8, can_rollback = $9, error = $10, metadata = $11, updated_at = $12 WHERE id = $13`,
		string(r.Status), r.TotalRows, r.ParsedRows, r.SkippedRows, r.DuplicateRows,
		r.EventsCreated, r.ResultsCreated, r.ResultsSkipped, r.CanRollback, r.Error, meta, r.UpdatedAt, r.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update import record %s", r.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "import record %s", r.ID)
	}
	return nil
}

func (s *PostgresStore) GetImportRecord(ctx context.Context, id string) (*model.ImportRecord, error) {
	var r model.ImportRecord
	var meta []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, upload_id, organization_id, status, total_rows, parsed_rows, skipped_rows, duplicate_rows, events_created, results_created, results_skipped, can_rollback, error, metadata, created_at, updated_at FROM import_records WHERE id = $1`,
		id,
	).Scan(&r.ID, &r.UploadID, &r.OrgID, &r.Status, &r.TotalRows, &r.ParsedRows, &r.SkippedRows,
		&r.DuplicateRows, &r.EventsCreated, &r.ResultsCreated, &r.ResultsSkipped, &r.CanRollback,
		&r.Error, &meta, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "import record %s", id)
		}
		return nil, eris.Wrapf(err, "postgres: get import record %s", id)
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &r.Metadata); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal metadata")
		}
	}
	return &r, nil
}

func marshalMetadata(m map[string]any) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal metadata")
	}
	return b, nil
}

// --- References ---

func (s *PostgresStore) ParameterAliases(ctx context.Context) ([]model.ParameterAlias, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT a.alias, p.id, p.name FROM parameter_aliases a JOIN parameters p ON p.id = a.parameter_id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query parameter aliases")
	}
	defer rows.Close()

	var out []model.ParameterAlias
	for rows.Next() {
		var a model.ParameterAlias
		if err := rows.Scan(&a.Alias, &a.ParameterID, &a.CanonicalName); err != nil {
			return nil, eris.Wrap(err, "postgres: scan parameter alias")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate parameter aliases")
}

func (s *PostgresStore) OutfallsForPermits(ctx context.Context, orgID string, permits []string) ([]model.Outfall, error) {
	if len(permits) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT o.id, p.id, p.permit_number, o.display_id FROM outfalls o JOIN permits p ON p.id = o.permit_id WHERE p.organization_id = $1 AND upper(p.permit_number) = ANY($2) ORDER BY p.permit_number, o.display_id`,
		orgID, upperAll(permits),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query outfalls")
	}
	defer rows.Close()

	var out []model.Outfall
	for rows.Next() {
		var o model.Outfall
		if err := rows.Scan(&o.ID, &o.PermitID, &o.PermitNumber, &o.DisplayID); err != nil {
			return nil, eris.Wrap(err, "postgres: scan outfall")
		}
		out = append(out, o)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate outfalls")
}

func (s *PostgresStore) OutfallAliases(ctx context.Context, orgID string, permits []string) ([]model.OutfallAlias, error) {
	if len(permits) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT organization_id, permit_number, alias, outfall_id, display_id, match_method FROM outfall_aliases WHERE organization_id = $1 AND permit_number = ANY($2)`,
		orgID, upperAll(permits),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query outfall aliases")
	}
	defer rows.Close()

	var out []model.OutfallAlias
	for rows.Next() {
		var a model.OutfallAlias
		if err := rows.Scan(&a.OrgID, &a.PermitNumber, &a.Alias, &a.OutfallID, &a.DisplayID, &a.Method); err != nil {
			return nil, eris.Wrap(err, "postgres: scan outfall alias")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate outfall aliases")
}

const pgExistingKeys = `SELECT p.permit_number, o.display_id, e.sample_date::text, e.sample_time, pr.name
FROM lab_results r
JOIN sampling_events e ON e.id = r.sampling_event_id
JOIN outfalls o ON o.id = e.outfall_id
JOIN permits p ON p.id = o.permit_id
JOIN parameters pr ON pr.id = r.parameter_id
WHERE p.organization_id = $1 AND upper(p.permit_number) = ANY($2)`

func (s *PostgresStore) ExistingResultKeys(ctx context.Context, orgID string, w compliance.Window) ([]model.ResultKey, error) {
	if w.Empty() {
		return nil, nil
	}
	query := pgExistingKeys
	args := []any{orgID, w.Permits}
	if w.Exact() {
		query += ` AND e.sample_date::text = ANY($3)`
		args = append(args, w.Dates)
	} else {
		query += ` AND e.sample_date BETWEEN $3::date AND $4::date`
		args = append(args, w.From, w.To)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query existing results")
	}
	defer rows.Close()

	var out []model.ResultKey
	for rows.Next() {
		var k model.ResultKey
		if err := rows.Scan(&k.PermitNumber, &k.OutfallID, &k.SampleDate, &k.SampleTime, &k.Parameter); err != nil {
			return nil, eris.Wrap(err, "postgres: scan result key")
		}
		out = append(out, k)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate existing results")
}

// SaveOutfallAliases loads learned aliases through COPY and merges them.
func (s *PostgresStore) SaveOutfallAliases(ctx context.Context, aliases []model.OutfallAlias) error {
	rows := outfallAliasRows(aliases)
	if len(rows) == 0 {
		return nil
	}
	_, err := db.BulkUpsert(ctx, s.pool, outfallAliasUpsert, rows)
	return eris.Wrap(err, "postgres: save outfall aliases")
}

// --- Domain ---

type pgBatch struct{ tx pgx.Tx }

func (b pgBatch) upsertEvents(ctx context.Context, query string, args []any) ([]model.SamplingEvent, error) {
	rows, err := b.tx.Query(ctx, query, args...)
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

func (b pgBatch) exec(ctx context.Context, query string, args []any) (int64, error) {
	tag, err := b.tx.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) CommitBatch(ctx context.Context, req CommitRequest) (model.CommitStats, error) {
	if len(req.Groups) == 0 && req.UploadID == "" {
		return model.CommitStats{}, nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return model.CommitStats{}, eris.Wrap(err, "postgres: begin commit")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	stats, err := commitGroups(ctx, pgBatch{tx: tx}, db.Dollar, eventUpsert("sample_date::text"), req, s.newID, s.now())
	if err != nil {
		return model.CommitStats{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.CommitStats{}, eris.Wrap(err, "postgres: commit batch")
	}
	return stats, nil
}

// --- Audit ---

func (s *PostgresStore) WriteAudit(ctx context.Context, e model.AuditEntry) error {
	counts, err := json.Marshal(e.Counts)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal audit counts")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO audit_log (id, action, upload_id, file_name, organization_id, actor_id, outcome, counts, error, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.newID(), e.Action, e.UploadID, e.FileName, e.OrgID, e.ActorID, e.Outcome, counts, e.Error, e.CreatedAt,
	)
	return eris.Wrap(err, "postgres: write audit")
}

// --- Seeding ---

func (s *PostgresStore) SeedReference(ctx context.Context, seed *model.ReferenceSeed) error {
	rows := buildSeedRows(seed)
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin seed")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

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
			query, err := db.BuildUpsert(step.cfg, len(chunk), db.Dollar)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, query, db.Flatten(chunk)...); err != nil {
				return eris.Wrapf(err, "postgres: seed %s", step.cfg.Table)
			}
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit seed")
}
