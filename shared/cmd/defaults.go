package cmd

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultDataDir is the default data directory to use for the journal
// database.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		// As we cannot guess a stable location, return empty and handle later
		return ""
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "CasperGadget")
	case "windows":
		return filepath.Join(home, "AppData", "Local", "CasperGadget")
	default:
		return filepath.Join(home, ".casper-gadget")
	}
}
