package storage

import "os"

// EnsureDir creates the directory for a data file if it is missing.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}
