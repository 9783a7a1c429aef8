package duet

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgorman/git-duet/internal/config"
	"github.com/rickgorman/git-duet/internal/email"
	"github.com/rickgorman/git-duet/internal/hook"
	"github.com/rickgorman/git-duet/internal/identity"
	"github.com/rickgorman/git-duet/internal/roster"
	"github.com/rickgorman/git-duet/internal/session"
	"github.com/rickgorman/git-duet/internal/ui"
)

const authors = `pairs:
  jd: Jane Doe
  fb: Frances Bar
email:
  domain: hamster.info
email_addresses:
  jd: jane@hamsters.biz
`

type memStore struct {
	values map[string]string
	writes int
}

func (m *memStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memStore) Set(_ context.Context, key, value string) error {
	m.writes++
	m.values[key] = value
	return nil
}

func (m *memStore) Unset(_ context.Context, key string) error {
	m.writes++
	delete(m.values, key)
	return nil
}

type commitCall struct {
	args []string
	env  []string
}

type fakeRepo struct {
	hooksDir  string
	commits   []commitCall
	commitErr error
}

func (f *fakeRepo) HooksDir(context.Context) (string, error) { return f.hooksDir, nil }

func (f *fakeRepo) Commit(_ context.Context, args []string, env []string) error {
	f.commits = append(f.commits, commitCall{args: args, env: env})
	return f.commitErr
}

type fixture struct {
	svc         *Service
	store       *memStore
	repo        *fakeRepo
	authorsFile string
	clock       time.Time
	warnings    *bytes.Buffer
}

func newFixture(t *testing.T, lookup email.Lookup) *fixture {
	t.Helper()
	dir := t.TempDir()
	authorsFile := filepath.Join(dir, "authors.yml")
	require.NoError(t, os.WriteFile(authorsFile, []byte(authors), 0644))

	var warnings bytes.Buffer
	origOut, origNoColor := ui.Out, color.NoColor
	ui.Out, color.NoColor = &warnings, true
	t.Cleanup(func() { ui.Out, color.NoColor = origOut, origNoColor })

	f := &fixture{
		store:       &memStore{values: map[string]string{}},
		repo:        &fakeRepo{hooksDir: filepath.Join(dir, ".git", "hooks")},
		authorsFile: authorsFile,
		clock:       time.Unix(1700000000, 0),
		warnings:    &warnings,
	}
	f.svc = New(Deps{
		Config:   &config.Config{AuthorsFile: authorsFile, HomeDir: t.TempDir()},
		Worktree: dir,
		Store:    f.store,
		Repo:     f.repo,
		Lookup:   lookup,
		Now:      func() time.Time { return f.clock },
	})
	return f
}

func TestSolo(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	pair, err := f.svc.Solo(ctx, "jd")
	require.NoError(t, err)
	assert.True(t, pair.Solo())

	assert.Equal(t, "Jane Doe", f.store.values["user.name"])
	assert.Equal(t, "jane@hamsters.biz", f.store.values["user.email"])
	assert.Equal(t, "Jane Doe", f.store.values[session.KeyAuthorName])
	assert.Equal(t, "jane@hamsters.biz", f.store.values[session.KeyAuthorEmail])

	cached, err := f.svc.Current(ctx)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Nil(t, cached.Committer)
}

func TestDuet(t *testing.T) {
	f := newFixture(t, nil)

	pair, err := f.svc.Duet(context.Background(), "jd", "fb")
	require.NoError(t, err)

	assert.Equal(t, identity.Identity{Initials: "jd", Name: "Jane Doe", Email: "jane@hamsters.biz"}, pair.Author)
	require.NotNil(t, pair.Committer)
	assert.Equal(t, identity.Identity{Initials: "fb", Name: "Frances Bar", Email: "f.bar@hamster.info"}, *pair.Committer)

	assert.Equal(t, "Jane Doe", f.store.values["user.name"], "active identity is the author")
	assert.Equal(t, "jane@hamsters.biz", f.store.values["user.email"])
	assert.Equal(t, "Frances Bar", f.store.values[session.KeyCommitterName])
	assert.Equal(t, "f.bar@hamster.info", f.store.values[session.KeyCommitterEmail])
}

func TestDuetWithLookup(t *testing.T) {
	lookup := email.LookupFunc(func(_ context.Context, initials string) (string, error) {
		return map[string]string{"jd": "jane_doe@lookie.me", "fb": "fb9000@dalek.info"}[initials], nil
	})
	f := newFixture(t, lookup)

	_, err := f.svc.Duet(context.Background(), "jd", "fb")
	require.NoError(t, err)
	assert.Equal(t, "jane_doe@lookie.me", f.store.values[session.KeyAuthorEmail])
	assert.Equal(t, "fb9000@dalek.info", f.store.values[session.KeyCommitterEmail])
}

func TestSoloDuetSolo(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.Solo(ctx, "jd")
	require.NoError(t, err)
	_, err = f.svc.Duet(ctx, "jd", "fb")
	require.NoError(t, err)

	cached, err := f.svc.Current(ctx)
	require.NoError(t, err)
	require.NotNil(t, cached.Committer)

	_, err = f.svc.Solo(ctx, "jd")
	require.NoError(t, err)

	cached, err = f.svc.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, cached.Committer)
	for _, key := range []string{session.KeyCommitterName, session.KeyCommitterEmail, session.KeyCommitterInitials} {
		assert.NotContains(t, f.store.values, key)
	}
}

func TestResolutionFailuresWriteNothing(t *testing.T) {
	tests := []struct {
		name    string
		run     func(*Service) error
		wantErr error
	}{
		{
			name:    "unknown solo",
			run:     func(s *Service) error { _, err := s.Solo(context.Background(), "zz"); return err },
			wantErr: identity.ErrUnknownInitials,
		},
		{
			name:    "unknown committer",
			run:     func(s *Service) error { _, err := s.Duet(context.Background(), "jd", "zz"); return err },
			wantErr: identity.ErrUnknownInitials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			err := tt.run(f.svc)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), `"zz"`)
			assert.Zero(t, f.store.writes)
		})
	}
}

func TestRosterErrorsWriteNothing(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, os.WriteFile(f.authorsFile, []byte("pairs: nope\n"), 0644))

	_, err := f.svc.Solo(context.Background(), "jd")
	assert.ErrorIs(t, err, roster.ErrRosterMalformed)
	assert.Zero(t, f.store.writes)

	require.NoError(t, os.Remove(f.authorsFile))
	_, err = f.svc.Solo(context.Background(), "jd")
	assert.ErrorIs(t, err, roster.ErrRosterNotFound)
	assert.Zero(t, f.store.writes)
}

func TestCommitDuet(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.Duet(ctx, "jd", "fb")
	require.NoError(t, err)
	require.NoError(t, f.svc.Commit(ctx, []string{"-m", "Just testing here", "--allow-empty"}))

	require.Len(t, f.repo.commits, 1)
	call := f.repo.commits[0]
	assert.Equal(t, []string{"-m", "Just testing here", "--allow-empty"}, call.args)
	assert.Equal(t, []string{
		"GIT_AUTHOR_NAME=Jane Doe",
		"GIT_AUTHOR_EMAIL=jane@hamsters.biz",
		"GIT_COMMITTER_NAME=Frances Bar",
		"GIT_COMMITTER_EMAIL=f.bar@hamster.info",
	}, call.env)
	assert.Empty(t, f.warnings.String())
}

func TestCommitSolo(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.Solo(ctx, "fb")
	require.NoError(t, err)
	require.NoError(t, f.svc.Commit(ctx, nil))

	require.Len(t, f.repo.commits, 1)
	assert.Equal(t, []string{
		"GIT_AUTHOR_NAME=Frances Bar",
		"GIT_AUTHOR_EMAIL=f.bar@hamster.info",
	}, f.repo.commits[0].env)
}

func TestCommitWithoutSession(t *testing.T) {
	f := newFixture(t, nil)

	err := f.svc.Commit(context.Background(), []string{"-m", "x"})
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Empty(t, f.repo.commits)
}

func TestCommitStaleWarnsAndProceeds(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.Duet(ctx, "jd", "fb")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(f.authorsFile, []byte("pairs:\n  jd: Jane Doe\n  fb: Frances Bar\nemail:\n  domain: dalek.info\n"), 0644))

	require.NoError(t, f.svc.Commit(ctx, nil))
	require.Len(t, f.repo.commits, 1)
	assert.Contains(t, f.repo.commits[0].env, "GIT_AUTHOR_EMAIL=jane@hamsters.biz", "cached identity is used")
	assert.Contains(t, f.warnings.String(), "stale")
}

func TestCommitStaleWithHookLeavesReportToHook(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.Duet(ctx, "jd", "fb")
	require.NoError(t, err)
	_, err = f.svc.InstallHook(ctx)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(f.authorsFile, []byte("pairs:\n  jd: Jane Doe\n  fb: Frances Bar\nemail:\n  domain: dalek.info\n"), 0644))

	require.NoError(t, f.svc.Commit(ctx, nil))
	require.Len(t, f.repo.commits, 1, "git still runs so the hook can reject it")
	assert.NotContains(t, f.warnings.String(), "stale")
}

func TestCommitPropagatesGitFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.repo.commitErr = errors.New("exit status 1")
	ctx := context.Background()

	_, err := f.svc.Solo(ctx, "jd")
	require.NoError(t, err)
	assert.Equal(t, f.repo.commitErr, f.svc.Commit(ctx, nil))
}

func TestPreCommit(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.PreCommit(ctx), session.ErrStaleCache, "no session blocks")

	_, err := f.svc.Duet(ctx, "jd", "fb")
	require.NoError(t, err)
	assert.NoError(t, f.svc.PreCommit(ctx))

	require.NoError(t, os.WriteFile(f.authorsFile, []byte("pairs:\n  jd: Janet Doe\n  fb: Frances Bar\nemail:\n  domain: hamster.info\n"), 0644))
	assert.ErrorIs(t, f.svc.PreCommit(ctx), session.ErrStaleCache)
}

func TestPreCommitMissingRoster(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.Solo(ctx, "jd")
	require.NoError(t, err)
	require.NoError(t, os.Remove(f.authorsFile))

	err = f.svc.PreCommit(ctx)
	assert.ErrorIs(t, err, session.ErrStaleCache)
	assert.Contains(t, err.Error(), "roster not found")
}

func TestPreCommitStaleAfter(t *testing.T) {
	f := newFixture(t, nil)
	f.svc.cfg.StaleAfter = 20 * time.Minute
	ctx := context.Background()

	_, err := f.svc.Solo(ctx, "jd")
	require.NoError(t, err)
	assert.NoError(t, f.svc.PreCommit(ctx))

	f.clock = f.clock.Add(time.Hour)
	assert.ErrorIs(t, f.svc.PreCommit(ctx), session.ErrStaleCache)
}

func TestInstallHook(t *testing.T) {
	f := newFixture(t, nil)

	path, err := f.svc.InstallHook(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.repo.hooksDir, hook.Name), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, hook.Script, string(data))
}
