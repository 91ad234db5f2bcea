// Package fsprobe checks whether fsnotify delivers events for a directory.
// Network mounts and some container volumes accept a watch but never report
// anything, so a real create+rename is performed and observed.
package fsprobe

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Timeout bounds how long Probe waits for the first event.
var Timeout = 200 * time.Millisecond

// Result reports whether fsnotify is usable and why not.
type Result struct {
	FsnotifySupported bool
	Reason            string
}

func unsupported(format string, args ...any) Result {
	return Result{FsnotifySupported: false, Reason: fmt.Sprintf(format, args...)}
}

// Probe creates and renames a hidden file in dir and reports whether
// fsnotify saw it. The probe files are removed before returning.
func Probe(dir string) Result {
	st, err := os.Stat(dir)
	if err != nil {
		return unsupported("stat failed: %v", err)
	}
	if !st.IsDir() {
		return unsupported("%s is not a directory", dir)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return unsupported("fsnotify unavailable: %v", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return unsupported("cannot watch directory: %v", err)
	}

	f, err := os.CreateTemp(dir, ".wal-archiver-probe-*")
	if err != nil {
		return unsupported("cannot create probe file: %v", err)
	}
	tmp := f.Name()
	f.Close()

	final := tmp + ".done"
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return unsupported("rename failed: %v", err)
	}
	defer os.Remove(final)

	prefix := filepath.Base(tmp)
	timeout := time.After(Timeout)
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return unsupported("events channel closed")
			}
			if strings.HasPrefix(filepath.Base(ev.Name), prefix) &&
				ev.Op&(fsnotify.Rename|fsnotify.Create|fsnotify.Write) != 0 {
				return Result{FsnotifySupported: true}
			}
		case <-timeout:
			return unsupported("no events received within %s", Timeout)
		}
	}
}
