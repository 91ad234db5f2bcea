package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordBackup(t *testing.T) {
	before := testutil.ToFloat64(BackupsTotal.WithLabelValues(ResultSuccess))
	failBefore := testutil.ToFloat64(BackupsTotal.WithLabelValues(ResultFailure))

	RecordBackup(ResultSuccess, 120*time.Millisecond, 4096)
	RecordBackup(ResultFailure, time.Millisecond, 999)

	assert.Equal(t, before+1, testutil.ToFloat64(BackupsTotal.WithLabelValues(ResultSuccess)))
	assert.Equal(t, failBefore+1, testutil.ToFloat64(BackupsTotal.WithLabelValues(ResultFailure)))
	assert.Equal(t, float64(4096), testutil.ToFloat64(BackupArchiveBytes))
	assert.Positive(t, testutil.ToFloat64(LastBackupTimestamp))
}

func TestRecordRestoreAndPrune(t *testing.T) {
	ok := testutil.ToFloat64(RestoresTotal.WithLabelValues(ResultSuccess))
	bad := testutil.ToFloat64(RestoresTotal.WithLabelValues(ResultFailure))
	pruned := testutil.ToFloat64(ArchivesPruned)

	RecordRestore(nil)
	RecordRestore(errors.New("locked"))
	RecordPruned(0)
	RecordPruned(3)

	assert.Equal(t, ok+1, testutil.ToFloat64(RestoresTotal.WithLabelValues(ResultSuccess)))
	assert.Equal(t, bad+1, testutil.ToFloat64(RestoresTotal.WithLabelValues(ResultFailure)))
	assert.Equal(t, pruned+3, testutil.ToFloat64(ArchivesPruned))
}
