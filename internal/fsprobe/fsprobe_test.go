package fsprobe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProbeLeavesNoFiles(t *testing.T) {
	dir := t.TempDir()
	res := Probe(dir)

	// local temp dirs support inotify/kqueue/ReadDirectoryChanges
	assert.True(t, res.FsnotifySupported, res.Reason)

	entries, err := os.ReadDir(dir)
	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProbeRejectsMissingAndFiles(t *testing.T) {
	res := Probe(filepath.Join(t.TempDir(), "missing"))
	assert.False(t, res.FsnotifySupported)
	assert.Contains(t, res.Reason, "stat failed")

	file := filepath.Join(t.TempDir(), "config.yaml")
	assert.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	res = Probe(file)
	assert.False(t, res.FsnotifySupported)
	assert.Contains(t, res.Reason, "not a directory")
}
