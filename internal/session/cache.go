// Package session manages the cached duet session in git config.
package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/rickgorman/git-duet/internal/identity"
	"github.com/rickgorman/git-duet/internal/roster"
)

// Namespace prefixes every cached key.
const Namespace = "duet.env."

const (
	KeyAuthorName        = Namespace + "git-author-name"
	KeyAuthorEmail       = Namespace + "git-author-email"
	KeyAuthorInitials    = Namespace + "git-author-initials"
	KeyCommitterName     = Namespace + "git-committer-name"
	KeyCommitterEmail    = Namespace + "git-committer-email"
	KeyCommitterInitials = Namespace + "git-committer-initials"
	KeyRosterHash        = Namespace + "roster-hash"
	KeyMtime             = Namespace + "mtime"
)

type entry struct{ key, value string }

var committerKeys = []string{KeyCommitterName, KeyCommitterEmail, KeyCommitterInitials}

// Store is a persistent key-value map. git.ConfigStore implements it.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Unset(ctx context.Context, key string) error
}

// CachedSession is what a previous solo or duet left behind.
type CachedSession struct {
	Author     identity.Identity
	Committer  *identity.Identity
	RosterHash string
	UpdatedAt  time.Time
}

// Pair returns the cached identities.
func (s *CachedSession) Pair() identity.Pair {
	return identity.Pair{Author: s.Author, Committer: s.Committer}
}

// Initials returns author initials followed by committer initials, if any.
func (s *CachedSession) Initials() []string {
	initials := []string{s.Author.Initials}
	if s.Committer != nil {
		initials = append(initials, s.Committer.Initials)
	}
	return initials
}

// Env returns the GIT_AUTHOR_* and, for duets, GIT_COMMITTER_* variables
// that apply this session to a single commit.
func (s *CachedSession) Env() []string {
	env := []string{
		"GIT_AUTHOR_NAME=" + s.Author.Name,
		"GIT_AUTHOR_EMAIL=" + s.Author.Email,
	}
	if s.Committer != nil {
		env = append(env,
			"GIT_COMMITTER_NAME="+s.Committer.Name,
			"GIT_COMMITTER_EMAIL="+s.Committer.Email,
		)
	}
	return env
}

// Cache reads and writes the session through a Store.
type Cache struct {
	store  Store
	logger *zap.Logger
}

// New creates a Cache. A nil logger disables diagnostics.
func New(store Store, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{store: store, logger: logger}
}

// Write records pair along with the roster digest and now. Committer keys
// are removed when pair has no committer.
func (c *Cache) Write(ctx context.Context, pair identity.Pair, ros *roster.Roster, now time.Time) error {
	sets := []entry{
		{KeyAuthorName, pair.Author.Name},
		{KeyAuthorEmail, pair.Author.Email},
		{KeyAuthorInitials, pair.Author.Initials},
	}
	if pair.Committer != nil {
		sets = append(sets,
			entry{KeyCommitterName, pair.Committer.Name},
			entry{KeyCommitterEmail, pair.Committer.Email},
			entry{KeyCommitterInitials, pair.Committer.Initials},
		)
	}

	for _, kv := range sets {
		if err := c.store.Set(ctx, kv.key, kv.value); err != nil {
			return fmt.Errorf("cache %s: %w", kv.key, err)
		}
	}

	if pair.Committer == nil {
		for _, key := range committerKeys {
			if err := c.store.Unset(ctx, key); err != nil {
				return fmt.Errorf("clear %s: %w", key, err)
			}
		}
	}

	if digest := ros.Digest(); digest != "" {
		if err := c.store.Set(ctx, KeyRosterHash, digest); err != nil {
			return fmt.Errorf("cache %s: %w", KeyRosterHash, err)
		}
	} else if err := c.store.Unset(ctx, KeyRosterHash); err != nil {
		return fmt.Errorf("clear %s: %w", KeyRosterHash, err)
	}

	if err := c.store.Set(ctx, KeyMtime, strconv.FormatInt(now.Unix(), 10)); err != nil {
		return fmt.Errorf("cache %s: %w", KeyMtime, err)
	}

	c.logger.Debug("cached session",
		zap.String("author", pair.Author.String()),
		zap.Bool("solo", pair.Solo()))
	return nil
}

// Read returns the cached session, or nil when nothing usable is cached.
// A name without its email (or the reverse) counts as nothing usable.
func (c *Cache) Read(ctx context.Context) (*CachedSession, error) {
	values := map[string]string{}
	for _, key := range []string{
		KeyAuthorName, KeyAuthorEmail, KeyAuthorInitials,
		KeyCommitterName, KeyCommitterEmail, KeyCommitterInitials,
		KeyRosterHash, KeyMtime,
	} {
		v, ok, err := c.store.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		if ok {
			values[key] = v
		}
	}

	name, email := values[KeyAuthorName], values[KeyAuthorEmail]
	if name == "" || email == "" {
		if name != "" || email != "" {
			c.logger.Debug("ignoring partial author cache")
		}
		return nil, nil
	}

	s := &CachedSession{
		Author:     identity.Identity{Initials: values[KeyAuthorInitials], Name: name, Email: email},
		RosterHash: values[KeyRosterHash],
	}

	cName, cEmail := values[KeyCommitterName], values[KeyCommitterEmail]
	switch {
	case cName != "" && cEmail != "":
		s.Committer = &identity.Identity{Initials: values[KeyCommitterInitials], Name: cName, Email: cEmail}
	case cName != "" || cEmail != "":
		c.logger.Debug("ignoring session with partial committer cache")
		return nil, nil
	}

	if raw := values[KeyMtime]; raw != "" {
		if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
			s.UpdatedAt = time.Unix(secs, 0)
		}
	}

	return s, nil
}
