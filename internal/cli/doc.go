// Package cli wires git-duet's commands.
//
// One binary serves every entry point. Git finds it as `git duet`, and
// the original command names are supported through symlinks:
//
//	git-duet jd fb            # duet: jd authors, fb commits
//	git-duet duet jd fb       # same
//	git-solo jd               # == git-duet solo jd
//	git-duet-commit -m msg    # == git-duet commit -m msg
//	git-duet-install-hook     # == git-duet install-hook
//	git-duet-pre-commit       # == git-duet pre-commit
//
// Running `git duet` or `git solo` without initials prints the cached
// session as shell assignments.
//
// Exit codes:
//   - 0: success
//   - 1: resolution or validation failure (unknown initials, stale session)
//   - 2: usage error
//   - anything else: passed through from `git commit`
//
// Example usage:
//
//	os.Exit(cli.Execute(filepath.Base(os.Args[0]), os.Args[1:]))
package cli
