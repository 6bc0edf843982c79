package discover

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tree creates files under a temp dir and returns its path.
func tree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}

func TestLoadIgnorePatterns(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := LoadIgnorePatterns(t.TempDir())
		require.ErrorIs(t, err, ErrNoIgnoreFile)
	})

	t.Run("comments and blanks skipped", func(t *testing.T) {
		t.Parallel()

		dir := tree(t, map[string]string{IgnoreFile: "# exports\nexports/\n\n*.tmp.dae\n!keep.tmp.dae\n"})
		patterns, err := LoadIgnorePatterns(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"exports", "*.tmp.dae", "!keep.tmp.dae"}, patterns)
	})
}

func TestExpand(t *testing.T) {
	t.Parallel()

	dir := tree(t, map[string]string{
		"b.dae":             "",
		"a.DAE":             "",
		"notes.txt":         "",
		"robot/arm.xml":     "",
		"exports/old.dae":   "",
		"scratch.tmp.dae":   "",
		"keep.tmp.dae":      "",
		"textures/wood.png": "",
		IgnoreFile:          "exports\n*.tmp.dae\n!keep.tmp.dae\n",
	})
	join := func(name string) string { return filepath.Join(dir, filepath.FromSlash(name)) }

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "directory walk honors ignore file",
			args: []string{dir},
			want: []string{join("a.DAE"), join("b.dae"), join("keep.tmp.dae"), join("robot/arm.xml")},
		},
		{
			name: "explicit files kept as given",
			args: []string{join("notes.txt"), join("exports/old.dae")},
			want: []string{join("notes.txt"), join("exports/old.dae")},
		},
		{
			name: "missing path passed through",
			args: []string{join("ghost.dae")},
			want: []string{join("ghost.dae")},
		},
		{
			name: "duplicates dropped in argument order",
			args: []string{join("b.dae"), dir},
			want: []string{join("b.dae"), join("a.DAE"), join("keep.tmp.dae"), join("robot/arm.xml")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Expand(context.Background(), tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandWithoutIgnoreFile(t *testing.T) {
	t.Parallel()

	dir := tree(t, map[string]string{"x/y.dae": "", "z.dae": ""})
	got, err := Expand(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "x", "y.dae"), filepath.Join(dir, "z.dae")}, got)
}

func TestExpandCanceled(t *testing.T) {
	t.Parallel()

	dir := tree(t, map[string]string{"a.dae": ""})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Expand(ctx, []string{dir})
	require.ErrorIs(t, err, context.Canceled)
}
