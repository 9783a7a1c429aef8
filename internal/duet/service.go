// Package duet implements the solo, duet, commit and hook operations.
package duet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rickgorman/git-duet/internal/config"
	"github.com/rickgorman/git-duet/internal/email"
	"github.com/rickgorman/git-duet/internal/git"
	"github.com/rickgorman/git-duet/internal/hook"
	"github.com/rickgorman/git-duet/internal/identity"
	"github.com/rickgorman/git-duet/internal/roster"
	"github.com/rickgorman/git-duet/internal/session"
	"github.com/rickgorman/git-duet/internal/ui"
)

// ErrNoSession is returned by Commit when nothing is cached. Commit never
// falls back to an identity it did not cache.
var ErrNoSession = errors.New("no duet session")

const (
	keyUserName  = "user.name"
	keyUserEmail = "user.email"
)

// Repository is the part of git.Repo the service drives directly.
type Repository interface {
	HooksDir(ctx context.Context) (string, error)
	Commit(ctx context.Context, args []string, env []string) error
}

// Deps wires a Service. Store and Repo are required; the rest default.
type Deps struct {
	Config   *config.Config
	Worktree string
	Store    session.Store
	Repo     Repository
	Logger   *zap.Logger

	// Lookup overrides the command named by Config.EmailLookupCommand.
	Lookup email.Lookup
	Now    func() time.Time
}

// Service runs session commands against one repository.
type Service struct {
	cfg      *config.Config
	worktree string
	store    session.Store
	repo     Repository
	cache    *session.Cache
	resolver *identity.Resolver
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a Service from d.
func New(d Deps) *Service {
	if d.Config == nil {
		d.Config = &config.Config{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	emailOpts := []email.Option{email.WithLogger(d.Logger)}
	var emails *email.Resolver
	if d.Lookup != nil {
		emails = email.NewResolver(append(emailOpts, email.WithLookup(d.Lookup))...)
	} else {
		emails = email.NewCommandResolver(d.Config.EmailLookupCommand, emailOpts...)
	}

	return &Service{
		cfg:      d.Config,
		worktree: d.Worktree,
		store:    d.Store,
		repo:     d.Repo,
		cache:    session.New(d.Store, d.Logger),
		resolver: identity.NewResolver(emails),
		logger:   d.Logger,
		now:      d.Now,
	}
}

// ForRepo wires a Service to a real git repository.
func ForRepo(cfg *config.Config, repo *git.Repo, logger *zap.Logger) *Service {
	return New(Deps{
		Config:   cfg,
		Worktree: repo.Dir,
		Store:    repo.Config(),
		Repo:     repo,
		Logger:   logger,
	})
}

// Solo makes initials both author and committer. Any cached committer is
// removed.
func (s *Service) Solo(ctx context.Context, initials string) (identity.Pair, error) {
	return s.start(ctx, initials)
}

// Duet makes author the active identity and caches committer for Commit.
func (s *Service) Duet(ctx context.Context, author, committer string) (identity.Pair, error) {
	return s.start(ctx, author, committer)
}

func (s *Service) start(ctx context.Context, initials ...string) (identity.Pair, error) {
	ros, err := s.roster()
	if err != nil {
		return identity.Pair{}, err
	}

	// Resolve everything before the first write.
	pair, err := s.resolver.Resolve(ctx, ros, initials[0], initials[1:]...)
	if err != nil {
		return identity.Pair{}, err
	}

	if err := s.store.Set(ctx, keyUserName, pair.Author.Name); err != nil {
		return identity.Pair{}, fmt.Errorf("set %s: %w", keyUserName, err)
	}
	if err := s.store.Set(ctx, keyUserEmail, pair.Author.Email); err != nil {
		return identity.Pair{}, fmt.Errorf("set %s: %w", keyUserEmail, err)
	}
	if err := s.cache.Write(ctx, pair, ros, s.now()); err != nil {
		return identity.Pair{}, err
	}

	s.logger.Debug("session started",
		zap.Strings("initials", initials),
		zap.String("roster", ros.Path()))
	return pair, nil
}

// Current returns the cached session, nil when there is none.
func (s *Service) Current(ctx context.Context) (*session.CachedSession, error) {
	return s.cache.Read(ctx)
}

// Check reports whether the cached session still matches what the current
// roster and lookup command would produce.
func (s *Service) Check(ctx context.Context) (session.Staleness, error) {
	ros, err := s.roster()
	if err != nil {
		cached, readErr := s.cache.Read(ctx)
		if readErr != nil {
			return session.Staleness{}, readErr
		}
		return session.Staleness{Stale: true, Reason: err.Error(), Session: cached}, nil
	}
	return s.cache.CheckStale(ctx, s.resolver, ros, s.cfg.StaleAfter, s.now())
}

// PreCommit is the check run by the installed hook. A stale or missing
// session is an ErrStaleCache.
func (s *Service) PreCommit(ctx context.Context) error {
	staleness, err := s.Check(ctx)
	if err != nil {
		return err
	}
	return staleness.Err()
}

// Commit runs `git commit args...` as the cached author and, for duets,
// the cached committer. A stale session is reported and the commit goes
// ahead with the cached identity, unless the git-duet pre-commit hook is
// installed, in which case the hook rejects it.
func (s *Service) Commit(ctx context.Context, args []string) error {
	staleness, err := s.Check(ctx)
	if err != nil {
		return err
	}
	if staleness.Session == nil {
		return fmt.Errorf("%w: run `git duet <author> <committer>` or `git solo <initials>` first", ErrNoSession)
	}
	if staleness.Stale {
		if s.hookInstalled(ctx) {
			// The pre-commit hook reports it and stops the commit.
			s.logger.Debug("stale session left to the pre-commit hook", zap.String("reason", staleness.Reason))
		} else {
			ui.Warn("Committing with a stale duet session: %s", staleness.Reason)
		}
	}

	s.logger.Debug("committing",
		zap.String("author", staleness.Session.Author.String()),
		zap.Strings("args", args))
	return s.repo.Commit(ctx, args, staleness.Session.Env())
}

// InstallHook writes the pre-commit hook and returns its path.
func (s *Service) InstallHook(ctx context.Context) (string, error) {
	dir, err := s.repo.HooksDir(ctx)
	if err != nil {
		return "", err
	}
	return hook.Install(dir)
}

func (s *Service) hookInstalled(ctx context.Context) bool {
	dir, err := s.repo.HooksDir(ctx)
	if err != nil {
		return false
	}
	return hook.Installed(dir)
}

func (s *Service) roster() (*roster.Roster, error) {
	return roster.Find(s.cfg, s.worktree)
}
