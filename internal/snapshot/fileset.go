// Package snapshot holds the data model shared by backup and restore: which
// files make up a datastore, and how backup archives are named.
package snapshot

import (
	"strings"

	"github.com/raoulx24/wal-archiver/internal/fs"
)

// Sidecars are the journal files that accompany a WAL-mode datastore.
var Sidecars = []string{"-wal", "-shm"}

// recognized names on restore; anything else in an archive is ignored
var datastoreSuffixes = []string{".db", ".db-wal", ".db-shm"}

// IsDatastoreFile reports whether name is a datastore main or sidecar file.
func IsDatastoreFile(name string) bool {
	for _, s := range datastoreSuffixes {
		if strings.HasSuffix(name, s) && len(name) > len(s) {
			return true
		}
	}
	return false
}

// IsMainFile reports whether name is a datastore main file (not a sidecar).
func IsMainFile(name string) bool {
	return strings.HasSuffix(name, ".db") && len(name) > len(".db")
}

// Candidates expands each known datastore path into itself plus its sidecars,
// dropping duplicates while keeping order.
func Candidates(known []string) []string {
	seen := make(map[string]struct{}, len(known)*3)
	out := make([]string, 0, len(known)*3)

	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	for _, p := range known {
		add(p)
		for _, s := range Sidecars {
			add(p + s)
		}
	}
	return out
}

// Resolver computes the set of datastore files present at call time.
type Resolver struct {
	fs fs.FS
}

func NewResolver(filesystem fs.FS) *Resolver {
	if filesystem == nil {
		filesystem = fs.New()
	}
	return &Resolver{fs: filesystem}
}

// Resolve returns the candidates of known that currently exist as regular
// files. Absence is normal: a -wal only exists while the log is non-empty.
func (r *Resolver) Resolve(known []string) []string {
	var files []string
	for _, p := range Candidates(known) {
		info, err := r.fs.Stat(p)
		if err != nil || info.Dir {
			continue
		}
		files = append(files, p)
	}
	return files
}
