package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raoulx24/wal-archiver/internal/backup"
	"github.com/raoulx24/wal-archiver/internal/logging"
	"github.com/raoulx24/wal-archiver/internal/snapshot"
)

type fakeBackups struct {
	path     string
	err      error
	archives []snapshot.Archive
}

func (f *fakeBackups) Backup(context.Context, string) (string, error) { return f.path, f.err }
func (f *fakeBackups) List(string) ([]snapshot.Archive, error)        { return f.archives, nil }

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestCreateBackup(t *testing.T) {
	fb := &fakeBackups{path: "backups/backup_20260101_000000.zip"}
	h := New(":0", fb, nil, logging.Nop()).Handler()

	rec := do(t, h, http.MethodPost, "/api/backups")
	assert.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, fb.path, body["archive"])

	fb.err = &backup.Error{Op: "backup", Err: backup.ErrNothingToBackup}
	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/api/backups").Code)

	fb.err = errors.New("disk full")
	assert.Equal(t, http.StatusInternalServerError, do(t, h, http.MethodPost, "/api/backups").Code)
}

func TestListBackups(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	fb := &fakeBackups{archives: []snapshot.Archive{{Name: "backup_20260102_030405.zip", Size: 42, Timestamp: ts}}}
	h := New(":0", fb, nil, logging.Nop()).Handler()

	rec := do(t, h, http.MethodGet, "/api/backups")
	require.Equal(t, http.StatusOK, rec.Code)

	var out []archiveJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, int64(42), out[0].Size)
	assert.True(t, ts.Equal(out[0].Timestamp))
}

func TestHealthAndMetrics(t *testing.T) {
	next := time.Now().Add(time.Hour)
	h := New(":0", &fakeBackups{}, func() time.Time { return next }, logging.Nop()).Handler()

	rec := do(t, h, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), "nextBackup")

	rec = do(t, h, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServeStopsOnCancel(t *testing.T) {
	s := New("127.0.0.1:0", &fakeBackups{}, nil, logging.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
