package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/edd-cli/internal/audit"
	"github.com/sells-group/edd-cli/internal/blob"
	"github.com/sells-group/edd-cli/internal/config"
	"github.com/sells-group/edd-cli/internal/importer"
	"github.com/sells-group/edd-cli/internal/ingest"
	"github.com/sells-group/edd-cli/internal/store"
)

func initStore(ctx context.Context, sc config.StoreConfig) (store.Store, error) {
	switch sc.Driver {
	case "sqlite":
		dsn := sc.DatabaseURL
		if dsn == "" {
			dsn = "edd.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, sc.DatabaseURL, &store.PoolConfig{
			MaxConns: sc.MaxConns,
			MinConns: sc.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", sc.Driver)
	}
}

// pipelineEnv holds the store and the parse and import services shared by
// the parse, import and serve commands.
type pipelineEnv struct {
	Store    store.Store
	Aliases  *ingest.AliasWriter
	Parser   *ingest.Service
	Importer *importer.Importer
}

// Close drains pending alias writes and releases the store.
func (pe *pipelineEnv) Close() {
	if pe.Aliases != nil {
		pe.Aliases.Close()
	}
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline validates the config for mode, opens and migrates the store
// and wires the services. Callers should defer env.Close().
func initPipeline(ctx context.Context, c *config.Config, mode string) (*pipelineEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx, c.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	env := &pipelineEnv{Store: st}
	auditor := audit.NewWriter(st, st, c.Audit)
	env.Importer = importer.New(st, c.Import, importer.WithAudit(auditor))

	if mode == "import" {
		return env, nil
	}

	blobs, err := blob.Open(ctx, c.Blob)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Aliases = ingest.NewAliasWriter(st, c.Aliases)
	env.Parser, err = ingest.NewService(st, blobs, c.Parse,
		ingest.WithAliasWriter(env.Aliases),
		ingest.WithAudit(auditor),
	)
	if err != nil {
		env.Close()
		return nil, err
	}
	return env, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "encode output")
}
