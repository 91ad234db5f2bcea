package snapshot

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/raoulx24/wal-archiver/internal/fs"
)

const (
	archivePrefix = "backup_"
	archiveSuffix = ".zip"
	archiveLayout = "20060102_150405"
	partialSuffix = ".partial"
)

// Archive describes one backup archive on disk.
type Archive struct {
	Path      string
	Name      string
	Timestamp time.Time // parsed from the name, zero if the name has no valid stamp
	Size      int64
	ModTime   time.Time
}

// ArchiveName returns backup_{YYYYMMDD_HHMMSS}.zip for t in local time.
func ArchiveName(t time.Time) string {
	return archivePrefix + t.Local().Format(archiveLayout) + archiveSuffix
}

// IsArchiveName reports whether name looks like a backup archive. Archives
// copied in by hand only need the prefix and extension to be picked up.
func IsArchiveName(name string) bool {
	return strings.HasPrefix(name, archivePrefix) && strings.HasSuffix(name, archiveSuffix)
}

// PartialName is the hidden name an archive is written under before it is
// renamed into place.
func PartialName(name string) string {
	return "." + name + partialSuffix
}

// IsPartialName reports whether name is an archive still being written, or
// one abandoned by a crash.
func IsPartialName(name string) bool {
	return strings.HasPrefix(name, ".") && strings.HasSuffix(name, partialSuffix) &&
		IsArchiveName(strings.TrimSuffix(name[1:], partialSuffix))
}

// ParseArchiveName extracts the embedded local timestamp.
func ParseArchiveName(name string) (time.Time, bool) {
	if !IsArchiveName(name) {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, archivePrefix), archiveSuffix)
	t, err := time.ParseInLocation(archiveLayout, stamp, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// List returns the archives in dir, newest first. A missing dir yields none.
func List(f fs.FS, dir string) ([]Archive, error) {
	entries, err := f.ReadDir(dir)
	if err != nil {
		if fs.Exists(f, dir) {
			return nil, err
		}
		return nil, nil
	}

	var archives []Archive
	for _, ent := range entries {
		name := ent.Name()
		if ent.IsDir() || !IsArchiveName(name) {
			continue
		}

		full := filepath.Join(dir, name)
		info, err := f.Stat(full)
		if err != nil {
			continue
		}

		ts, _ := ParseArchiveName(name)
		archives = append(archives, Archive{
			Path:      full,
			Name:      name,
			Timestamp: ts,
			Size:      info.Size,
			ModTime:   info.MTime,
		})
	}

	sort.Slice(archives, func(i, j int) bool {
		return archives[i].sortKey().After(archives[j].sortKey())
	})
	return archives, nil
}

func (a Archive) sortKey() time.Time {
	if !a.Timestamp.IsZero() {
		return a.Timestamp
	}
	return a.ModTime
}
