// Package session caches the resolved pair in the repository's git config.
//
// This package handles:
//   - Writing author and committer identities under duet.env.*
//   - Reading them back, treating partial entries as no session
//   - Deciding whether the cached identity went stale
//
// Keys written (all local to the repository):
//
//	duet.env.git-author-name
//	duet.env.git-author-email
//	duet.env.git-author-initials
//	duet.env.git-committer-name      (removed for solo sessions)
//	duet.env.git-committer-email     (removed for solo sessions)
//	duet.env.git-committer-initials  (removed for solo sessions)
//	duet.env.roster-hash
//	duet.env.mtime
//
// Writes are one git config call per key. An interrupted write can leave
// a partial set; Read reports that as no session rather than guessing.
//
// Example usage:
//
//	cache := session.New(repo.Config(), logger)
//	if err := cache.Write(ctx, pair, ros, time.Now()); err != nil {
//	    return err
//	}
//
//	staleness, err := cache.CheckStale(ctx, resolver, ros, 0, time.Now())
//	if staleness.Stale {
//	    ui.Warn("%s", staleness.Reason)
//	}
package session
