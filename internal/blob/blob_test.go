package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/edd-cli/internal/config"
)

func TestLocal_PutStatOpen(t *testing.T) {
	src, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, src.Put(ctx, "org-1/2024/edd.csv", strings.NewReader("a,b\n1,2\n")))

	info, err := src.Stat(ctx, "org-1/2024/edd.csv")
	require.NoError(t, err)
	assert.Equal(t, int64(8), info.Size)

	rc, err := src.Open(ctx, "org-1/2024/edd.csv")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "a,b\n1,2\n", string(data))
}

func TestLocal_NotFound(t *testing.T) {
	src, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = src.Stat(context.Background(), "missing.xlsx")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = src.Open(context.Background(), "missing.xlsx")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLocal_RejectsEscapingKeys(t *testing.T) {
	src, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "/etc/passwd", "../secret", "a/../../b"} {
		_, err := src.Stat(context.Background(), key)
		assert.Error(t, err, key)
		assert.False(t, errors.Is(err, ErrNotFound), key)
	}
}

func TestReadAll_SizeCheck(t *testing.T) {
	src, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, src.Put(ctx, "big.csv", strings.NewReader(strings.Repeat("x", 100))))

	tooBig := eris.New("too big")
	check := func(size int64) error {
		if size > 10 {
			return tooBig
		}
		return nil
	}
	_, err = ReadAll(ctx, src, "big.csv", 10, check)
	assert.True(t, errors.Is(err, tooBig))

	data, err := ReadAll(ctx, src, "big.csv", 0, nil)
	require.NoError(t, err)
	assert.Len(t, data, 100)
}

func TestOpen_Drivers(t *testing.T) {
	src, err := Open(context.Background(), config.BlobConfig{Driver: "local", LocalDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &Local{}, src)

	_, err = Open(context.Background(), config.BlobConfig{Driver: "ftp"})
	assert.ErrorContains(t, err, "unknown driver")

	_, err = Open(context.Background(), config.BlobConfig{Driver: "s3"})
	assert.ErrorContains(t, err, "bucket required")
}

// fakeS3 serves a tiny subset of the S3 REST API from memory.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	paths   []string
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, req.Method+" "+req.URL.Path)

	// Path-style: /<bucket>/<key>
	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}

	empty := func(code int) *http.Response {
		return &http.Response{StatusCode: code, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}
	}
	switch req.Method {
	case http.MethodHead, http.MethodGet:
		body, ok := f.objects[key]
		if !ok {
			return empty(http.StatusNotFound), nil
		}
		h := http.Header{
			"Content-Length": {fmt.Sprintf("%d", len(body))},
			"Last-Modified":  {time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).Format(http.TimeFormat)},
		}
		if req.Method == http.MethodHead {
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(nil)), Header: h}, nil
		}
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(body)), Header: h}, nil
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		f.objects[key] = body
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{"ETag": {`"etag"`}}}, nil
	}
	return empty(http.StatusNotImplemented), nil
}

func newFakeS3(t *testing.T, prefix string) (*S3, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{"uploads/org-1/edd.csv": []byte("permit,value\n")}}
	src, err := NewS3(context.Background(), S3Config{
		Bucket:       "edd-bucket",
		Region:       "us-east-1",
		Endpoint:     "https://mock.s3.local",
		Prefix:       prefix,
		UsePathStyle: true,
		AccessKey:    "AKIA",
		SecretKey:    "SECRET",
		HTTPClient:   &http.Client{Transport: fake},
	})
	require.NoError(t, err)
	return src, fake
}

func TestS3_StatAndOpen(t *testing.T) {
	src, fake := newFakeS3(t, "/uploads/")
	ctx := context.Background()

	info, err := src.Stat(ctx, "org-1/edd.csv")
	require.NoError(t, err)
	assert.Equal(t, int64(13), info.Size)
	assert.Equal(t, "org-1/edd.csv", info.Key)

	rc, err := src.Open(ctx, "org-1/edd.csv")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "permit,value\n", string(data))

	assert.Contains(t, fake.paths, "HEAD /edd-bucket/uploads/org-1/edd.csv")
}

func TestS3_NotFound(t *testing.T) {
	src, _ := newFakeS3(t, "uploads")
	_, err := src.Stat(context.Background(), "org-1/missing.xlsx")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestS3_Put(t *testing.T) {
	src, fake := newFakeS3(t, "")
	require.NoError(t, src.Put(context.Background(), "org-2/new.csv", bytes.NewReader([]byte("x"))))
	assert.Contains(t, fake.paths, "PUT /edd-bucket/org-2/new.csv")
}
