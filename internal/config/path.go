package config

import (
	"os"
	"path/filepath"
)

const appDirName = "eventfeed"

// DefaultDataDir returns where the feed keeps its store when dataDir is unset.
// XDG_DATA_HOME wins, then /var/lib when the process may write there, then
// the per-user application directory of the host OS, then ~/.eventfeed.
func DefaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return "./data"
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName)
	}
	if isWritableDir("/var/lib") {
		return filepath.Join("/var/lib", appDirName)
	}
	if isDir(filepath.Join(homeDir, "Library")) {
		return filepath.Join(homeDir, "Library", "Application Support", "EventFeed")
	}
	if isDir(filepath.Join(homeDir, "AppData")) {
		return filepath.Join(homeDir, "AppData", "Local", "EventFeed")
	}
	return filepath.Join(homeDir, "."+appDirName)
}

// StoreDir is the Pebble directory under dataDir. Every queue shares it.
func StoreDir(dataDir string) string {
	return filepath.Join(dataDir, "store")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

func isWritableDir(path string) bool {
	if !isDir(path) {
		return false
	}
	f, err := os.CreateTemp(path, "."+appDirName+"-*")
	if err != nil {
		return false
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return true
}
