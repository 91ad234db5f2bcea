// Package metrics holds the Prometheus collectors for backup, prune and
// restore activity.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BackupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wal_archiver_backups_total",
			Help: "Backups attempted, by result",
		},
		[]string{"result"}, // "success", "failure", "empty"
	)

	BackupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wal_archiver_backup_duration_seconds",
			Help:    "Wall time of a backup including verification and pruning",
			Buckets: prometheus.DefBuckets,
		},
	)

	BackupArchiveBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wal_archiver_backup_archive_bytes",
			Help: "Size of the most recent archive",
		},
	)

	LastBackupTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wal_archiver_last_backup_timestamp_seconds",
			Help: "Unix time of the last successful backup",
		},
	)

	ArchivesPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wal_archiver_archives_pruned_total",
			Help: "Archives deleted by retention",
		},
	)

	RestoresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wal_archiver_restores_total",
			Help: "Restores attempted, by result",
		},
		[]string{"result"},
	)

	RestoreLockRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wal_archiver_restore_lock_retries_total",
			Help: "Retries caused by a destination file still in use",
		},
	)

	ConfigReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wal_archiver_config_reloads_total",
			Help: "Config reloads, by result",
		},
		[]string{"result"},
	)
)

// RecordBackup records the outcome of one backup. size is ignored on failure.
func RecordBackup(result string, duration time.Duration, size int64) {
	BackupsTotal.WithLabelValues(result).Inc()
	BackupDuration.Observe(duration.Seconds())
	if result == ResultSuccess {
		BackupArchiveBytes.Set(float64(size))
		LastBackupTimestamp.SetToCurrentTime()
	}
}

func RecordRestore(err error) {
	if err != nil {
		RestoresTotal.WithLabelValues(ResultFailure).Inc()
		return
	}
	RestoresTotal.WithLabelValues(ResultSuccess).Inc()
}

func RecordPruned(n int) {
	if n > 0 {
		ArchivesPruned.Add(float64(n))
	}
}

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultEmpty   = "empty"
)
