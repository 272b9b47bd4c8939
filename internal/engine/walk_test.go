package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestCountTargets_IgnoreFileAndMaxBytes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "ok")
	writeFile(t, dir, "big.txt", string(make([]byte, 4096)))
	writeFile(t, dir, "ignored.txt", "secret")
	writeFile(t, dir, ".contentguardignore", "ignored.txt\n")

	n, err := CountTargets(Config{Root: dir, MaxBytes: 1024})
	require.NoError(t, err)
	// a.txt and the ignore file itself
	assert.Equal(t, 2, n)
}

func TestCountTargets_Globs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "docs/x.md", "x")
	writeFile(t, dir, "docs/y.txt", "y")
	writeFile(t, dir, "z.md", "z")

	n, err := CountTargets(Config{Root: dir, IncludeGlobs: "**/*.md"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = CountTargets(Config{Root: dir, IncludeGlobs: "**/*.md", ExcludeGlobs: "docs/**"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWalk_DefaultExcludes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "node_modules/dep/readme.txt", "x")
	writeFile(t, dir, "app.js", "x")
	writeFile(t, dir, "bundle.min.js", "x")
	writeFile(t, dir, "yarn.lock", "x")

	n, err := CountTargets(Config{Root: dir, DefaultExcludes: true})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = CountTargets(Config{Root: dir})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestWalk_SkipsStateFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".contentguardcache.json", `{"entries":{}}`)
	writeFile(t, dir, ".contentguard_audit.jsonl", `{"files":1}`)
	writeFile(t, dir, "contentguard.baseline.json", `{"items":{}}`)
	writeFile(t, dir, "notes.txt", "x")

	n, err := CountTargets(Config{Root: dir})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAllowedByGlobs(t *testing.T) {
	cfg := Config{IncludeGlobs: "**/*.txt, ./notes/*", ExcludeGlobs: "tmp/**"}
	assert.True(t, allowedByGlobs("a/b/c.txt", cfg))
	assert.True(t, allowedByGlobs("c.txt", cfg))
	assert.True(t, allowedByGlobs("notes/todo.md", cfg))
	assert.False(t, allowedByGlobs("a/b/c.md", cfg))
	assert.False(t, allowedByGlobs("tmp/c.txt", cfg))
	assert.True(t, allowedByGlobs("anything", Config{}))
}

func TestRelPath(t *testing.T) {
	root := filepath.Join("srv", "uploads")
	assert.Equal(t, "a/b.txt", relPath(root, filepath.Join(root, "a", "b.txt")))
	assert.Equal(t, "other/c.txt", relPath(root, filepath.Join("other", "c.txt")))
}
