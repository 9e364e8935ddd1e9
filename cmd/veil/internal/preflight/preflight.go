// Package preflight validates the files and directories the exporter needs
// before any other initialization runs, creating missing paths where it can.
package preflight

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/thalib/veil/cmd/veil/internal/constants"
)

// Check describes a file or directory required at startup.
type Check struct {
	Path string
	Dir  bool
}

// Result reports what Ensure did for one check.
type Result struct {
	Path    string
	Existed bool
	Created bool
}

// Ensure verifies each check and creates missing paths. It fails on the
// first path that exists with the wrong type or cannot be created.
func Ensure(checks []Check) ([]Result, error) {
	results := make([]Result, 0, len(checks))

	for _, check := range checks {
		result := Result{Path: check.Path}

		info, err := os.Stat(check.Path)
		switch {
		case err == nil:
			result.Existed = true
			if check.Dir != info.IsDir() {
				if check.Dir {
					return results, fmt.Errorf("path exists but is not a directory: %s", check.Path)
				}
				return results, fmt.Errorf("path exists but is a directory: %s", check.Path)
			}

		case os.IsNotExist(err):
			if check.Dir {
				if err := os.MkdirAll(check.Path, constants.DirPermissions); err != nil {
					return results, fmt.Errorf("failed to create directory %s: %w", check.Path, err)
				}
			} else {
				if err := os.MkdirAll(filepath.Dir(check.Path), constants.DirPermissions); err != nil {
					return results, fmt.Errorf("failed to create parent directory for %s: %w", check.Path, err)
				}
				f, err := os.OpenFile(check.Path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, constants.FilePermissions)
				if err != nil {
					return results, fmt.Errorf("failed to create file %s: %w", check.Path, err)
				}
				f.Close()
			}
			result.Created = true

		default:
			return results, fmt.Errorf("failed to check path %s: %w", check.Path, err)
		}

		results = append(results, result)
	}

	return results, nil
}

// CreateOrTruncateFile creates the file, or truncates it if it already
// exists. Used to start a fresh log file per run when logging.truncate is
// set.
func CreateOrTruncateFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", path, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, constants.FilePermissions)
	if err != nil {
		return fmt.Errorf("failed to truncate file %s: %w", path, err)
	}
	return f.Close()
}
