// Package filesystem locates xcpilot's on-disk paths.
package filesystem

import (
	"os"
	"path/filepath"
	"strings"
)

const appDirName = ".xcpilot"

// UserHomeDir returns the current user's home directory, falling back to
// "." when it cannot be determined.
func UserHomeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

// AppDir joins elem under the xcpilot directory in the user's home.
func AppDir(elem ...string) string {
	parts := append([]string{UserHomeDir(), appDirName}, elem...)
	return filepath.Join(parts...)
}

// ExpandTilde resolves a leading "~/" against the user's home directory.
// Other paths are returned unchanged.
func ExpandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(UserHomeDir(), path[2:])
	}
	return path
}
