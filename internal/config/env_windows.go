//go:build windows

package config

// windowsEnv lets one config file use the Unix names on both platforms,
// e.g. backup.dir: $(HOME)/wal-backups.
var windowsEnv = map[string]string{
	"HOSTNAME": "COMPUTERNAME",
	"HOME":     "USERPROFILE",
	"USER":     "USERNAME",
	"TMPDIR":   "TEMP",
}

func mapEnvKey(key string) string {
	if mapped, ok := windowsEnv[key]; ok {
		return mapped
	}
	return key
}
