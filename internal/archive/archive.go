// Package archive packs datastore files into flat zip archives and unpacks
// them again. It knows nothing about scheduling or retention.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"github.com/raoulx24/wal-archiver/internal/fs"
	"github.com/raoulx24/wal-archiver/internal/logging"
	"github.com/raoulx24/wal-archiver/internal/snapshot"
)

// ErrNoEntries means every input file vanished before it could be archived.
var ErrNoEntries = errors.New("no files could be archived")

// CreateError reports a failure to write an archive.
type CreateError struct {
	Path string
	Err  error
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("creating archive %s: %v", e.Path, e.Err)
}

func (e *CreateError) Unwrap() error { return e.Err }

// ReadError reports a corrupt or unreadable archive.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("reading archive %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Options tune compression and extraction limits.
type Options struct {
	CompressionLevel int   // flate level; -1 is the library default
	MaxEntryBytes    int64 // 0 disables the per-entry limit
}

// Packager creates and extracts backup archives.
type Packager struct {
	fs   fs.FS
	log  logging.Logger
	opts Options
}

func New(filesystem fs.FS, log logging.Logger, opts Options) *Packager {
	if filesystem == nil {
		filesystem = fs.New()
	}
	return &Packager{fs: filesystem, log: log, opts: opts}
}

// Pack writes files into a new archive at destPath, each stored under its
// base name. Files that disappeared since they were resolved are skipped.
// The archive is written under a hidden name and renamed into place.
func (p *Packager) Pack(files []string, destPath string) (err error) {
	tmpPath := filepath.Join(filepath.Dir(destPath), snapshot.PartialName(filepath.Base(destPath)))

	out, err := p.fs.Create(tmpPath)
	if err != nil {
		return &CreateError{Path: destPath, Err: err}
	}
	defer func() {
		if err != nil {
			_ = out.Close()
			_ = p.fs.Remove(tmpPath)
		}
	}()

	zw := zip.NewWriter(out)
	level := p.opts.CompressionLevel
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, level)
	})

	written := 0
	names := make(map[string]string, len(files))

	for _, src := range files {
		name := filepath.Base(src)
		if prev, dup := names[name]; dup {
			p.log.Warn("skipping file with duplicate name", "path", src, "kept", prev)
			continue
		}

		ok, err := p.addFile(zw, src, name)
		if err != nil {
			return &CreateError{Path: destPath, Err: err}
		}
		if ok {
			names[name] = src
			written++
		}
	}

	if written == 0 {
		return &CreateError{Path: destPath, Err: ErrNoEntries}
	}

	if err := zw.Close(); err != nil {
		return &CreateError{Path: destPath, Err: err}
	}
	if err := out.Close(); err != nil {
		return &CreateError{Path: destPath, Err: err}
	}

	if err := p.fs.Move(context.Background(), tmpPath, destPath); err != nil {
		return &CreateError{Path: destPath, Err: err}
	}
	return nil
}

// addFile copies one file into the archive. It returns false, nil when the
// file no longer exists.
func (p *Packager) addFile(zw *zip.Writer, src, name string) (bool, error) {
	before, err := p.fs.Stat(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			p.log.Warn("file vanished before archiving, skipping", "path", src)
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", src, err)
	}

	in, err := p.fs.Open(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			p.log.Warn("file vanished before archiving, skipping", "path", src)
			return false, nil
		}
		return false, fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	hdr := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: before.MTime,
	}
	hdr.SetMode(0o644)

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return false, fmt.Errorf("adding %s: %w", name, err)
	}

	n, err := io.Copy(w, in)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", src, err)
	}

	// a live datastore may keep writing; the WAL engine recovers on open
	if after, err := p.fs.Stat(src); err == nil && fs.SourceChanged(before, after) {
		p.log.Debug("file changed while archiving", "path", src, "bytes", n)
	}

	p.log.Debug("archived file", "name", name, "bytes", n)
	return true, nil
}

// Unpack extracts every file entry of archivePath flat into destDir, which
// must already exist. Directory parts of entry names are discarded.
func (p *Packager) Unpack(archivePath, destDir string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return &ReadError{Path: archivePath, Err: err}
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}

		name := entryName(f.Name)
		if name == "" {
			p.log.Warn("skipping archive entry with unusable name", "entry", f.Name)
			continue
		}

		if p.opts.MaxEntryBytes > 0 && f.UncompressedSize64 > uint64(p.opts.MaxEntryBytes) {
			return &ReadError{Path: archivePath, Err: fmt.Errorf("entry %s is %d bytes, limit is %d", f.Name, f.UncompressedSize64, p.opts.MaxEntryBytes)}
		}

		if err := p.extract(f, filepath.Join(destDir, name)); err != nil {
			return &ReadError{Path: archivePath, Err: err}
		}
	}
	return nil
}

func (p *Packager) extract(f *zip.File, dst string) (err error) {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := p.fs.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = cerr
		}
		if err != nil {
			_ = p.fs.Remove(dst)
		}
	}()

	// the zip reader verifies size and CRC as it reaches the end of the entry
	limit := int64(f.UncompressedSize64) + 1
	if _, err := io.Copy(out, io.LimitReader(rc, limit)); err != nil {
		return fmt.Errorf("extracting %s: %w", f.Name, err)
	}
	return nil
}

// Contents lists the entries of an archive without extracting them.
func (p *Packager) Contents(archivePath string) ([]snapshot.Artifact, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, &ReadError{Path: archivePath, Err: err}
	}
	defer zr.Close()

	items := make([]snapshot.Artifact, 0, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		items = append(items, snapshot.Artifact{
			Name:    f.Name,
			Size:    int64(f.UncompressedSize64),
			ModTime: f.Modified,
		})
	}
	return items, nil
}

// entryName flattens an archive entry name to a safe base name.
func entryName(raw string) string {
	name := filepath.Base(filepath.FromSlash(raw))
	switch name {
	case ".", "..", string(filepath.Separator), "":
		return ""
	}
	return name
}
