// Package git provides the Git repository operations git-duet needs.
//
// This package handles:
//   - Worktree root and hooks directory detection
//   - A repository-local key-value store over `git config --local`
//   - Running `git commit` with identity overrides in the environment
//
// Everything shells out to the git binary found on PATH. The local config
// store only needs get, set and unset; each call is its own git process
// and a sequence of calls is not atomic.
//
// Example usage:
//
//	repo, err := git.Open(ctx, ".")
//	if err != nil {
//	    return err
//	}
//
//	store := repo.Config()
//	_ = store.Set(ctx, "user.name", "Jane Doe")
//	name, ok, _ := store.Get(ctx, "user.name")
//
//	// Commit as Jane with Frances as committer
//	err = repo.Commit(ctx, []string{"-m", "pairing"}, []string{
//	    "GIT_AUTHOR_NAME=Jane Doe",
//	    "GIT_COMMITTER_NAME=Frances Bar",
//	})
package git
