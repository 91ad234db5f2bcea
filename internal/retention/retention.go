// Package retention deletes backup archives that have aged out.
package retention

import (
	"path/filepath"
	"time"

	"github.com/raoulx24/wal-archiver/internal/fs"
	"github.com/raoulx24/wal-archiver/internal/logging"
	"github.com/raoulx24/wal-archiver/internal/snapshot"
)

const day = 24 * time.Hour

// partialGrace keeps a partial archive that another writer may still be
// filling. Anything older was left behind by a crashed Pack.
const partialGrace = time.Hour

// Policy prunes archives by filesystem modification time. The mtime, not the
// name, decides: an archive copied in by hand ages from when it arrived.
type Policy struct {
	fs  fs.FS
	log logging.Logger
	now func() time.Time
}

func New(filesystem fs.FS, log logging.Logger) *Policy {
	if filesystem == nil {
		filesystem = fs.New()
	}
	return &Policy{fs: filesystem, log: log, now: time.Now}
}

// Prune deletes every archive in dir whose age in whole days is greater than
// maxAgeDays and returns how many were deleted. Files that cannot be stat'ed
// or removed are logged and skipped. A negative maxAgeDays disables pruning.
func (p *Policy) Prune(dir string, maxAgeDays int) int {
	if maxAgeDays < 0 {
		return 0
	}

	entries, err := p.fs.ReadDir(dir)
	if err != nil {
		if fs.Exists(p.fs, dir) {
			p.log.Warn("retention: cannot read backup dir", "dir", dir, "error", err)
		}
		return 0
	}

	now := p.now()
	deleted := 0

	for _, ent := range entries {
		name := ent.Name()
		if ent.IsDir() {
			continue
		}
		if snapshot.IsPartialName(name) {
			p.sweepPartial(filepath.Join(dir, name), now)
			continue
		}
		if !snapshot.IsArchiveName(name) {
			continue
		}

		full := filepath.Join(dir, name)
		info, err := p.fs.Stat(full)
		if err != nil {
			p.log.Warn("retention: stat failed", "path", full, "error", err)
			continue
		}

		age := ageInDays(now, info.MTime)
		if age <= maxAgeDays {
			continue
		}

		if err := p.fs.Remove(full); err != nil {
			p.log.Warn("retention: delete failed", "path", full, "error", err)
			continue
		}

		deleted++
		p.log.Info("retention: deleted expired archive", "name", name, "ageDays", age, "maxAgeDays", maxAgeDays)
	}

	return deleted
}

// sweepPartial removes an abandoned partial archive. It does not count
// towards the number of pruned archives.
func (p *Policy) sweepPartial(path string, now time.Time) {
	info, err := p.fs.Stat(path)
	if err != nil || now.Sub(info.MTime) < partialGrace {
		return
	}
	if err := p.fs.Remove(path); err != nil {
		p.log.Warn("retention: cannot remove abandoned partial archive", "path", path, "error", err)
		return
	}
	p.log.Info("retention: removed abandoned partial archive", "path", path)
}

// ageInDays truncates toward zero, so 7d23h is 7 days.
func ageInDays(now, mtime time.Time) int {
	return int(now.Sub(mtime) / day)
}
