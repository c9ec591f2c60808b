// Package blob reads uploaded EDD files from the object store that holds
// them: a local directory for development or an S3 bucket.
package blob

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/edd-cli/internal/config"
)

// ErrNotFound is returned when no object exists at a key.
var ErrNotFound = eris.New("blob: object not found")

// Info describes a stored object.
type Info struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Source is the object store holding uploaded files.
type Source interface {
	Stat(ctx context.Context, key string) (Info, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Put(ctx context.Context, key string, r io.Reader) error
}

// Open builds the Source selected by cfg.Driver.
func Open(ctx context.Context, cfg config.BlobConfig) (Source, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "local":
		return NewLocal(cfg.LocalDir)
	case "s3":
		return NewS3(ctx, S3Config{
			Bucket:       cfg.Bucket,
			Region:       cfg.Region,
			Endpoint:     cfg.Endpoint,
			Prefix:       cfg.Prefix,
			UsePathStyle: cfg.UsePathStyle,
			AccessKey:    cfg.AccessKey,
			SecretKey:    cfg.SecretKey,
		})
	default:
		return nil, eris.Errorf("blob: unknown driver %q", cfg.Driver)
	}
}

// ReadAll stats key and reads at most maxBytes from it. The returned size is
// the stat size, so callers can apply their own limit before any body is
// read; a non-positive maxBytes reads everything.
func ReadAll(ctx context.Context, src Source, key string, maxBytes int64, check func(size int64) error) ([]byte, error) {
	info, err := src.Stat(ctx, key)
	if err != nil {
		return nil, err
	}
	if check != nil {
		if err := check(info.Size); err != nil {
			return nil, err
		}
	}

	rc, err := src.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck

	var r io.Reader = rc
	if maxBytes > 0 {
		r = io.LimitReader(rc, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrapf(err, "blob: read %s", key)
	}
	// The stat size can be stale; re-check what was actually read.
	if check != nil {
		if err := check(int64(len(data))); err != nil {
			return nil, err
		}
	}
	return data, nil
}
