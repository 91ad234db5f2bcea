package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestCandidatesDeduplicates(t *testing.T) {
	got := Candidates([]string{"data/app.db", "data/business.db", "data/app.db"})

	assert.Equal(t, []string{
		"data/app.db", "data/app.db-wal", "data/app.db-shm",
		"data/business.db", "data/business.db-wal", "data/business.db-shm",
	}, got)
}

func TestResolveKeepsExistingFilesOnly(t *testing.T) {
	dir := t.TempDir()
	app := filepath.Join(dir, "app.db")
	business := filepath.Join(dir, "business.db")
	touch(t, app, "main")
	touch(t, app+"-wal", "wal")
	touch(t, business, "main")
	require.NoError(t, os.Mkdir(business+"-shm", 0o755))

	got := NewResolver(nil).Resolve([]string{app, business, filepath.Join(dir, "missing.db")})

	assert.Equal(t, []string{app, app + "-wal", business}, got)
}

func TestResolveMainFileOnly(t *testing.T) {
	dir := t.TempDir()
	app := filepath.Join(dir, "app.db")
	touch(t, app, "main")

	assert.Equal(t, []string{app}, NewResolver(nil).Resolve([]string{app}))
}

func TestIsDatastoreFile(t *testing.T) {
	for _, name := range []string{"app.db", "app.db-wal", "app.db-shm", "business.db"} {
		assert.True(t, IsDatastoreFile(name), name)
	}
	for _, name := range []string{"readme.txt", "app.db.bak", ".db", "app.sqlite", "app.db-journal"} {
		assert.False(t, IsDatastoreFile(name), name)
	}

	assert.True(t, IsMainFile("app.db"))
	assert.False(t, IsMainFile("app.db-wal"))
}
