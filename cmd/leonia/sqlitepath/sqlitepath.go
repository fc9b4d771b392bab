// Package sqlitepath resolves which SQLite transcript store a command uses.
package sqlitepath

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the transcript store created inside the .leonia/ directory.
const FileName = "leonia.db"

// ResolveSQLitePath picks the SQLite database path. Order of precedence:
//  1. override (--sqlite, storage.sqlite_path)
//  2. LEONIA_SQLITE
//  3. an existing leonia.db under $XDG_DATA_HOME/leonia or the working directory
//  4. leonia.db inside dotDir, created on first use
func ResolveSQLitePath(override, dotDir string) (string, error) {
	if override != "" {
		return override, nil
	}

	if envPath := strings.TrimSpace(os.Getenv("LEONIA_SQLITE")); envPath != "" {
		return envPath, nil
	}

	for _, candidate := range sqliteCandidates() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	if dotDir == "" {
		return "", errors.New("could not find leonia SQLite database; pass --sqlite")
	}

	return filepath.Join(dotDir, FileName), nil
}

func sqliteCandidates() []string {
	candidates := []string{FileName}

	if xdgHome := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdgHome != "" {
		candidates = append([]string{
			filepath.Join(xdgHome, "leonia", FileName),
		}, candidates...)
	}

	return candidates
}
