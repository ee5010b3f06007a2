package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadManifestJSONL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inputs.jsonl")
	writeFile(t, path, `{"path": "a.pdf"}

{"path": "/abs/b.png", "name": "Cover", "type": "image/png"}
{"path": "  "}
`)
	entries, err := loadManifest(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, filepath.Join(dir, "a.pdf"), entries[0].Path)
	assert.Equal(t, "/abs/b.png", entries[1].Path)
	assert.Equal(t, "Cover", entries[1].Name)
	assert.Equal(t, "image/png", entries[1].Type)
}

func TestLoadManifestJSONArray(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inputs.json")
	writeFile(t, path, `[{"path": "x.pdf"}, {"path": "sub/y.jpg"}]`)
	entries, err := loadManifest(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, filepath.Join(dir, "sub", "y.jpg"), entries[1].Path)
}

func TestLoadManifestBadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.jsonl")
	writeFile(t, path, "{\"path\": \"a\"}\n{oops\n")
	_, err := loadManifest(path)
	assert.ErrorContains(t, err, "bad.jsonl:2")
}

func TestLoadInputs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "one.pdf"), "%PDF-1.4\n")
	writeFile(t, filepath.Join(dir, "two"), "plain text")
	writeFile(t, filepath.Join(dir, "three.jpg"), "jpeg-ish")
	manifest := filepath.Join(dir, "m.json")
	writeFile(t, manifest, `[{"path": "one.pdf", "name": "First"}, {"path": "two"}]`)

	raw, err := loadInputs(manifest, []string{filepath.Join(dir, "three.jpg")})
	require.NoError(t, err)
	require.Len(t, raw, 3)
	assert.Equal(t, "First", raw[0].Name)
	assert.Equal(t, "application/pdf", raw[0].DeclaredType)
	assert.Equal(t, "two", raw[1].Name)
	assert.Contains(t, raw[1].DeclaredType, "text/plain")
	assert.Equal(t, "image/jpeg", raw[2].DeclaredType)

	_, err = loadInputs("", []string{filepath.Join(dir, "missing.pdf")})
	assert.Error(t, err)
}
