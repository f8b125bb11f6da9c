// Package xdg resolves XDG Base Directory paths for tablewire.
// The gateway keeps its optional config.yaml in the config directory; nothing
// else is persisted.
package xdg

import (
	"os"
	"path/filepath"
)

// AppName is the directory name used under every XDG base.
const AppName = "tablewire"

// ConfigDir returns the XDG config directory for tablewire.
// The directory is created with private permissions (0700) if missing.
// It falls back to ~/.config/tablewire when XDG_CONFIG_HOME is unset.
func ConfigDir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	dir := filepath.Join(base, AppName)
	if err := os.MkdirAll(dir, 0o700); err != nil { // private dir
		return "", err
	}
	return dir, nil
}
