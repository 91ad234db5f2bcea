package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// matches $(VAR_NAME)
var envPattern = regexp.MustCompile(`\$\(([A-Za-z0-9_]+)\)`)

// replaces $(VAR) with os.Getenv(VAR)
func expandEnvVars(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(m string) string {
		key := mapEnvKey(envPattern.FindStringSubmatch(m)[1])
		return os.Getenv(key)
	})
}

// Load reads a YAML config file on top of Default and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// LoadOrDefault behaves like Load but falls back to Default when the file
// does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		def := Default()
		return &def, nil
	}
	return cfg, err
}

// Parse decodes raw YAML, expanding $(ENV_VAR) placeholders first.
func Parse(data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if len(c.Datastore.Names) == 0 {
		return errors.New("config: datastore.names must list at least one datastore")
	}
	if c.Backup.Dir == "" {
		return errors.New("config: backup.dir is required")
	}
	if c.Backup.RetentionDays < 0 {
		return fmt.Errorf("config: backup.retentionDays must be >= 0, got %d", c.Backup.RetentionDays)
	}
	if c.Schedule.Cron != "" {
		s, err := cron.ParseStandard(c.Schedule.Cron)
		if err != nil {
			return fmt.Errorf("config: schedule.cron %q: %w", c.Schedule.Cron, err)
		}
		if s.Next(time.Now()).IsZero() {
			return fmt.Errorf("config: schedule.cron %q never fires", c.Schedule.Cron)
		}
	} else if c.Schedule.IntervalHours <= 0 {
		return fmt.Errorf("config: schedule.intervalHours must be > 0, got %d", c.Schedule.IntervalHours)
	}
	if c.Restore.Attempts < 1 {
		return fmt.Errorf("config: restore.attempts must be >= 1, got %d", c.Restore.Attempts)
	}
	if c.Restore.Backoff < 0 {
		return fmt.Errorf("config: restore.backoff must not be negative")
	}
	if c.Archive.CompressionLevel < -2 || c.Archive.CompressionLevel > 9 {
		return fmt.Errorf("config: archive.compressionLevel must be within -2..9, got %d", c.Archive.CompressionLevel)
	}
	switch c.ConfigReload.Method {
	case "auto", "fsnotify", "poll":
	default:
		return fmt.Errorf("config: unknown configReload.method %q", c.ConfigReload.Method)
	}
	return nil
}
