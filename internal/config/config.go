package config

import (
	"path/filepath"
	"time"
)

type Config struct {
	Datastore    DatastoreConfig `yaml:"datastore"`
	Backup       BackupConfig    `yaml:"backup"`
	Schedule     ScheduleConfig  `yaml:"schedule"`
	Restore      RestoreConfig   `yaml:"restore"`
	Archive      ArchiveConfig   `yaml:"archive"`
	Logging      LoggingConfig   `yaml:"logging"`
	ConfigReload ReloadConfig    `yaml:"configReload"`
	HTTP         HTTPConfig      `yaml:"http"`
}

type DatastoreConfig struct {
	Dir        string   `yaml:"dir"`
	Names      []string `yaml:"names"`
	Checkpoint bool     `yaml:"checkpoint"` // PRAGMA wal_checkpoint(PASSIVE) before each backup
}

type BackupConfig struct {
	Dir           string `yaml:"dir"`
	RetentionDays int    `yaml:"retentionDays"`
	OnExit        bool   `yaml:"onExit"`
}

type ScheduleConfig struct {
	Enabled       bool   `yaml:"enabled"`
	IntervalHours int    `yaml:"intervalHours"`
	Cron          string `yaml:"cron"` // overrides IntervalHours when set
}

type RestoreConfig struct {
	Attempts int           `yaml:"attempts"`
	Backoff  time.Duration `yaml:"backoff"` // e.g. 500ms
}

type ArchiveConfig struct {
	CompressionLevel int   `yaml:"compressionLevel"` // flate level, -1 = default
	MaxEntryBytes    int64 `yaml:"maxEntryBytes"`    // 0 = unlimited
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // "info", "debug", etc.
	Format string `yaml:"format"` // "json", "console"
}

type ReloadConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Method       string        `yaml:"method"` // "auto", "fsnotify", "poll"
	PollInterval time.Duration `yaml:"pollInterval"`
	Debounce     time.Duration `yaml:"debounce"`
}

type HTTPConfig struct {
	Listen string `yaml:"listen"` // empty disables the API
}

// Default returns the configuration used when no file overrides a field.
func Default() Config {
	return Config{
		Datastore: DatastoreConfig{
			Dir:   "data",
			Names: []string{"app_data.db", "business.db"},
		},
		Backup: BackupConfig{
			Dir:           "backups",
			RetentionDays: 7,
			OnExit:        true,
		},
		Schedule: ScheduleConfig{
			Enabled:       true,
			IntervalHours: 24,
		},
		Restore: RestoreConfig{
			Attempts: 20,
			Backoff:  500 * time.Millisecond,
		},
		Archive: ArchiveConfig{
			CompressionLevel: -1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		ConfigReload: ReloadConfig{
			Method:       "auto",
			PollInterval: 5 * time.Second,
			Debounce:     500 * time.Millisecond,
		},
	}
}

// DatastorePaths joins every configured datastore name onto the datastore dir.
// Absolute names are kept as they are.
func (c *Config) DatastorePaths() []string {
	paths := make([]string, 0, len(c.Datastore.Names))
	for _, name := range c.Datastore.Names {
		if filepath.IsAbs(name) {
			paths = append(paths, filepath.Clean(name))
			continue
		}
		paths = append(paths, filepath.Join(c.Datastore.Dir, name))
	}
	return paths
}
