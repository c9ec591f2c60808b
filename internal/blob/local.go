package blob

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Local serves objects from files under a root directory.
type Local struct {
	root string
}

// NewLocal returns a Local rooted at dir, creating it if needed.
func NewLocal(dir string) (*Local, error) {
	if dir == "" {
		dir = "./uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "blob: create %s", dir)
	}
	return &Local{root: dir}, nil
}

// pathFor maps a key to a file path, rejecting keys that escape the root.
func (l *Local) pathFor(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", eris.New("blob: empty key")
	}
	if strings.HasPrefix(key, "/") {
		return "", eris.Errorf("blob: absolute key %q", key)
	}
	clean := filepath.ToSlash(filepath.Clean(key))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", eris.Errorf("blob: key %q escapes root", key)
	}
	return filepath.Join(l.root, filepath.FromSlash(clean)), nil
}

func (l *Local) Stat(_ context.Context, key string) (Info, error) {
	p, err := l.pathFor(key)
	if err != nil {
		return Info{}, err
	}
	fi, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Info{}, eris.Wrapf(ErrNotFound, "key %s", key)
		}
		return Info{}, eris.Wrapf(err, "blob: stat %s", key)
	}
	if fi.IsDir() {
		return Info{}, eris.Wrapf(ErrNotFound, "key %s is a directory", key)
	}
	return Info{Key: key, Size: fi.Size(), LastModified: fi.ModTime().UTC()}, nil
}

func (l *Local) Open(_ context.Context, key string) (io.ReadCloser, error) {
	p, err := l.pathFor(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, eris.Wrapf(ErrNotFound, "key %s", key)
		}
		return nil, eris.Wrapf(err, "blob: open %s", key)
	}
	return f, nil
}

func (l *Local) Put(_ context.Context, key string, r io.Reader) error {
	p, err := l.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return eris.Wrapf(err, "blob: create dir for %s", key)
	}
	f, err := os.Create(p)
	if err != nil {
		return eris.Wrapf(err, "blob: create %s", key)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return eris.Wrapf(err, "blob: write %s", key)
	}
	return eris.Wrapf(f.Close(), "blob: close %s", key)
}
