package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rickgorman/git-duet/internal/identity"
	"github.com/rickgorman/git-duet/internal/roster"
	"github.com/rickgorman/git-duet/pkg/hash"
)

// ErrStaleCache is returned by Staleness.Err for a stale session.
var ErrStaleCache = errors.New("stale duet session")

// Resolver re-resolves cached initials. identity.Resolver implements it.
type Resolver interface {
	Resolve(ctx context.Context, ros *roster.Roster, authorInitials string, committerInitials ...string) (identity.Pair, error)
}

// Staleness is the outcome of CheckStale.
type Staleness struct {
	Stale   bool
	Reason  string
	Session *CachedSession
}

// Err returns nil for a fresh session and an ErrStaleCache otherwise.
func (s Staleness) Err() error {
	if !s.Stale {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrStaleCache, s.Reason)
}

// CheckStale compares the cached session against a fresh resolution of the
// same initials. It is stale when no session is cached, the initials are
// missing, the fresh resolution fails or differs, or (maxAge > 0) the
// session is older than maxAge. Only store failures are returned as errors.
func (c *Cache) CheckStale(ctx context.Context, res Resolver, ros *roster.Roster, maxAge time.Duration, now time.Time) (Staleness, error) {
	cached, err := c.Read(ctx)
	if err != nil {
		return Staleness{}, err
	}
	if cached == nil {
		return stale(nil, "no duet session is cached; run `git duet` or `git solo` first"), nil
	}

	initials := cached.Initials()
	for _, i := range initials {
		if i == "" {
			return stale(cached, "cached initials are missing; run `git duet` or `git solo` again"), nil
		}
	}

	if maxAge > 0 {
		if cached.UpdatedAt.IsZero() {
			return stale(cached, "cached session has no timestamp"), nil
		}
		if age := now.Sub(cached.UpdatedAt); age > maxAge {
			return stale(cached, fmt.Sprintf("duet session was set %s ago (limit %s)",
				age.Round(time.Second), maxAge)), nil
		}
	}

	fresh, err := res.Resolve(ctx, ros, initials[0], initials[1:]...)
	if err != nil {
		return stale(cached, fmt.Sprintf("cached initials %s no longer resolve: %v",
			strings.Join(initials, " "), err)), nil
	}

	if reason := diff("author", cached.Author, fresh.Author); reason != "" {
		return stale(cached, reason), nil
	}
	if cached.Committer != nil {
		if fresh.Committer == nil {
			return stale(cached, "committer no longer resolves"), nil
		}
		if reason := diff("committer", *cached.Committer, *fresh.Committer); reason != "" {
			return stale(cached, reason), nil
		}
	}

	if cached.RosterHash != "" && ros.Digest() != "" && cached.RosterHash != ros.Digest() {
		c.logger.Debug("roster changed but cached identities still match",
			zap.String("roster", ros.Path()),
			zap.String("cached_hash", hash.Short(cached.RosterHash)),
			zap.String("roster_hash", hash.Short(ros.Digest())))
	}

	return Staleness{Session: cached}, nil
}

func diff(role string, cached, fresh identity.Identity) string {
	if cached.Name != fresh.Name || cached.Email != fresh.Email {
		return fmt.Sprintf("cached %s %s now resolves to %s", role, cached, fresh)
	}
	return ""
}

func stale(s *CachedSession, reason string) Staleness {
	return Staleness{Stale: true, Reason: reason, Session: s}
}
