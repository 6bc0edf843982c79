package doccache

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndisidore/collada/pkg/collada"
	"github.com/ndisidore/collada/pkg/slogctx"
)

const _doc = `<COLLADA version="1.4.1">
  <asset><created>2024-01-01T00:00:00Z</created><modified>2024-01-01T00:00:00Z</modified></asset>
  <library_cameras>
    <camera id="cam"><optics><technique_common>
      <orthographic><xmag>1</xmag><aspect_ratio>1</aspect_ratio><znear>0.1</znear><zfar>10</zfar></orthographic>
    </technique_common></optics></camera>
  </library_cameras>
</COLLADA>`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCacheLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writeFile(t, dir, "a.dae", _doc)
	b := writeFile(t, dir, "b.dae", _doc)

	stats := NewCollector()
	c := New(&collada.Parser{Options: collada.DefaultOptions()}, stats)
	ctx := context.Background()

	first, hit, err := c.Load(ctx, a)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, digest.FromString(_doc), first.Digest)

	again, hit, err := c.Load(ctx, a)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Same(t, first, again)

	copied, hit, err := c.Load(ctx, b)
	require.NoError(t, err)
	assert.True(t, hit, "same content under another name is a hit")
	assert.Same(t, first, copied)

	got, ok := c.Get(first.Digest)
	require.True(t, ok)
	assert.Same(t, first, got)
	assert.Equal(t, 1, c.Len())

	r := stats.Report()
	require.Len(t, r.Files, 2)
	assert.Equal(t, a, r.Files[0].Path)
	assert.Equal(t, 2, r.Files[0].Lookups)
	assert.Equal(t, 1, r.Files[0].Hits)
	assert.Equal(t, 1, r.Files[1].Hits)
	assert.InDelta(t, 2.0/3.0, r.HitRate(), 1e-9)
}

func TestCacheLoadErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.dae", `<COLLADA version="1.4.1"></COLLADA>`)
	stats := NewCollector()
	c := New(&collada.Parser{}, stats)

	_, _, err := c.Load(context.Background(), filepath.Join(dir, "missing.dae"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, _, err = c.Load(context.Background(), bad)
	require.ErrorIs(t, err, collada.ErrMissingChild)
	assert.Contains(t, err.Error(), bad)
	assert.Zero(t, c.Len(), "failed parses are not cached")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = c.Load(ctx, bad)
	require.ErrorIs(t, err, context.Canceled)

	r := stats.Report()
	require.Len(t, r.Files, 1, "unreadable files are not recorded")
	assert.Equal(t, bad, r.Files[0].Path)
	assert.Zero(t, r.Files[0].Hits)
}

func TestCacheConcurrentLoads(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "scene.dae", _doc)
	c := New(&collada.Parser{Options: collada.DefaultOptions()}, nil)

	docs := make([]*collada.Document, 8)
	var wg sync.WaitGroup
	for i := range docs {
		wg.Go(func() {
			d, _, err := c.Load(context.Background(), path)
			assert.NoError(t, err)
			docs[i] = d
		})
	}
	wg.Wait()

	require.NotNil(t, docs[0])
	for _, d := range docs[1:] {
		assert.Same(t, docs[0], d)
	}
	assert.Equal(t, 1, c.Len())
}

func TestCacheLoadUsesContextLogger(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "a.dae", _doc)
	parserLogger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name     string
		carried  bool
		wantFile bool
	}{
		{name: "context logger wins", carried: true, wantFile: true},
		{name: "parser logger without one", carried: false, wantFile: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			ctx := context.Background()
			if tt.carried {
				base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
				ctx = slogctx.With(slogctx.ContextWithLogger(ctx, base), slog.String("file", "a.dae"))
			}
			c := New(&collada.Parser{Logger: parserLogger, Options: collada.DefaultOptions()}, nil)

			_, _, err := c.Load(ctx, path)
			require.NoError(t, err)
			if tt.wantFile {
				assert.Contains(t, buf.String(), "parsed document")
				assert.Contains(t, buf.String(), "file=a.dae")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}
