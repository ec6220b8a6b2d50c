package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DataDirName is the directory under the user's home holding config and history.
const DataDirName = ".careertrack"

// DataDir returns ~/.careertrack, honouring CAREERTRACK_HOME when set.
func DataDir() (string, error) {
	if dir := os.Getenv("CAREERTRACK_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DataDirName), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
