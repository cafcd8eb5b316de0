package require

import "path/filepath"

// joinPath resolves rel (a "./x" or "../x" module name) against base, a
// directory from the evaluation stack, and cleans the result so cache
// keys for the same file are identical regardless of how a caller
// spelled the relative path.
func joinPath(base, rel string) string {
	return filepath.Clean(filepath.Join(base, rel))
}
