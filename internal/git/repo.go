// Package git provides Git repository operations.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNotRepository is returned when the directory is not inside a git
// worktree.
var ErrNotRepository = errors.New("not a git repository")

// Binary is the git executable looked up on PATH.
var Binary = "git"

// Repo is a git worktree rooted at Dir.
type Repo struct {
	Dir string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Open finds the worktree containing dir.
func Open(ctx context.Context, dir string) (*Repo, error) {
	out, err := run(ctx, dir, nil, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotRepository, dir)
	}

	return &Repo{
		Dir:    strings.TrimSpace(out),
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}, nil
}

// HooksDir returns the absolute hooks directory. This honors linked
// worktrees and core.hooksPath.
func (r *Repo) HooksDir(ctx context.Context) (string, error) {
	out, err := run(ctx, r.Dir, nil, "rev-parse", "--git-path", "hooks")
	if err != nil {
		return "", fmt.Errorf("locate hooks directory: %w", err)
	}

	path := strings.TrimSpace(out)
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.Dir, path)
	}
	return path, nil
}

// Config returns the repository-local config store.
func (r *Repo) Config() *ConfigStore {
	return &ConfigStore{dir: r.Dir}
}

// Commit runs `git commit args...` attached to the repo's stdio, with env
// appended to the current environment.
func (r *Repo) Commit(ctx context.Context, args []string, env []string) error {
	cmd := exec.CommandContext(ctx, Binary, append([]string{"commit"}, args...)...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	return cmd.Run()
}

// ExitCode extracts the process exit code from an error returned by Commit.
// It returns 1 for errors that did not come from a finished process.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

// CommandError is a failed git invocation.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("git %s: exit status %d", strings.Join(e.Args, " "), e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func run(ctx context.Context, dir string, env []string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, Binary, args...)
	cmd.Dir = dir
	if env != nil {
		cmd.Env = append(os.Environ(), env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &CommandError{
				Args:     args,
				ExitCode: exitErr.ExitCode(),
				Stderr:   strings.TrimSpace(stderr.String()),
			}
		}
		return "", err
	}

	return stdout.String(), nil
}
