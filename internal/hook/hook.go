// Package hook installs the git-duet pre-commit hook.
package hook

import (
	"fmt"
	"os"
	"path/filepath"
)

// Name is the hook file name inside the hooks directory.
const Name = "pre-commit"

// Mode is the permission the hook file is left with.
const Mode os.FileMode = 0o755

// Script is the fixed hook body. It defers to `git duet pre-commit`, which
// exits non-zero when the cached identity is stale.
const Script = `#!/bin/sh
# Installed by git-duet. Blocks commits made under a stale duet identity.
exec git duet pre-commit "$@"
`

// Install writes Script to <hooksDir>/pre-commit, replacing whatever was
// there, and returns the path written. Calling it again is harmless.
func Install(hooksDir string) (string, error) {
	if err := os.MkdirAll(hooksDir, 0o755); err != nil {
		return "", fmt.Errorf("create hooks directory: %w", err)
	}

	path := filepath.Join(hooksDir, Name)
	if err := os.WriteFile(path, []byte(Script), Mode); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(path, Mode); err != nil {
		return "", fmt.Errorf("chmod %s: %w", path, err)
	}
	return path, nil
}

// Installed reports whether <hooksDir>/pre-commit is exactly Script.
func Installed(hooksDir string) bool {
	data, err := os.ReadFile(filepath.Join(hooksDir, Name))
	return err == nil && string(data) == Script
}
