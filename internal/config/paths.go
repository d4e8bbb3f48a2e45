package config

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.inbox.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".inbox")
}

// Path returns the config file path.
func Path() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// SocketPath returns the default UDS socket path of the daemon.
func SocketPath() string {
	return filepath.Join(BaseDir(), "inboxd.sock")
}

// LogPath returns the default daemon log file path.
func LogPath() string {
	return filepath.Join(BaseDir(), "logs", "inboxd.log")
}

// DeviceDBPath returns the default whatsmeow device store path.
func DeviceDBPath() string {
	return filepath.Join(BaseDir(), "whatsapp.db")
}

// EnsureDir creates the directories the daemon writes into.
func EnsureDir(cfg *Config) error {
	dirs := []string{
		filepath.Dir(cfg.Daemon.Socket),
		filepath.Dir(cfg.Daemon.LogPath),
	}
	if cfg.WhatsApp.DeviceDB != "" {
		dirs = append(dirs, filepath.Dir(cfg.WhatsApp.DeviceDB))
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
