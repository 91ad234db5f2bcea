package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raoulx24/wal-archiver/internal/config"
	"github.com/raoulx24/wal-archiver/internal/logging"
	"github.com/raoulx24/wal-archiver/internal/mailbox"
)

func writeConfig(t *testing.T, path, body string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func newWatcher(t *testing.T, method string) (*Watcher, string, *mailbox.Mailbox[*config.Config]) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "backup:\n  retentionDays: 7\n", time.Now().Add(-time.Hour))

	mb := mailbox.New[*config.Config]()
	w := New(path, config.ReloadConfig{
		Method:       method,
		PollInterval: 10 * time.Millisecond,
		Debounce:     10 * time.Millisecond,
	}, logging.Nop(), mb)
	w.stability = time.Millisecond
	return w, path, mb
}

func TestDetectReloadsOnChange(t *testing.T) {
	w, path, mb := newWatcher(t, "poll")

	w.detect()
	assert.False(t, mb.Pending(), "unchanged file must not reload")

	writeConfig(t, path, "backup:\n  retentionDays: 30\n", time.Now())
	w.detect()

	cfg, ok := mb.TryTake()
	require.True(t, ok)
	assert.Equal(t, 30, cfg.Backup.RetentionDays)

	w.detect()
	assert.False(t, mb.Pending())
}

func TestDetectKeepsLastGoodConfig(t *testing.T) {
	w, path, mb := newWatcher(t, "poll")

	writeConfig(t, path, "backup:\n  retentionDays: -5\n", time.Now())
	w.detect()
	assert.False(t, mb.Pending())
}

func TestTrigger(t *testing.T) {
	w, _, mb := newWatcher(t, "poll")

	w.Trigger()
	cfg, ok := mb.TryTake()
	require.True(t, ok)
	assert.Equal(t, 7, cfg.Backup.RetentionDays)
}

func TestPollingService(t *testing.T) {
	w, path, mb := newWatcher(t, "poll")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Serve(ctx) }()

	writeConfig(t, path, "backup:\n  retentionDays: 3\n", time.Now())

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	cfg, ok := mb.Take(waitCtx)
	require.True(t, ok)
	assert.Equal(t, 3, cfg.Backup.RetentionDays)

	cancel()
	assert.NoError(t, <-done)
}

func TestFsNotifyService(t *testing.T) {
	w, path, mb := newWatcher(t, "fsnotify")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Serve(ctx) }()

	// give the watcher time to register the directory
	time.Sleep(50 * time.Millisecond)
	writeConfig(t, path, "backup:\n  retentionDays: 9\n", time.Now())

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	cfg, ok := mb.Take(waitCtx)
	require.True(t, ok)
	assert.Equal(t, 9, cfg.Backup.RetentionDays)

	cancel()
	assert.NoError(t, <-done)
}

func TestUpdateConfigRetunesRunningPoller(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "backup:\n  retentionDays: 7\n", time.Now().Add(-time.Hour))
	mb := mailbox.New[*config.Config]()
	w := New(path, config.ReloadConfig{Method: "poll", PollInterval: time.Hour}, logging.Nop(), mb)
	w.stability = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Serve(ctx) }()

	w.UpdateConfig(config.ReloadConfig{Method: "poll", PollInterval: 10 * time.Millisecond})
	writeConfig(t, path, "backup:\n  retentionDays: 4\n", time.Now())

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	cfg, ok := mb.Take(waitCtx)
	require.True(t, ok, "an hourly poller must pick up the shorter interval")
	assert.Equal(t, 4, cfg.Backup.RetentionDays)

	cancel()
	assert.NoError(t, <-done)
}

func TestUnknownMethod(t *testing.T) {
	w, _, _ := newWatcher(t, "carrier-pigeon")
	assert.Error(t, w.Serve(context.Background()))
}
