package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgorman/git-duet/internal/email"
	"github.com/rickgorman/git-duet/internal/identity"
	"github.com/rickgorman/git-duet/internal/roster"
)

func defaultResolver() *identity.Resolver {
	return identity.NewResolver(email.NewResolver())
}

func cachedDuet(t *testing.T) (*Cache, *memStore, *roster.Roster) {
	t.Helper()
	ros := hamsterRoster(t)
	store := newMemStore()
	cache := New(store, nil)
	require.NoError(t, cache.Write(context.Background(), resolve(t, ros, "jd", "fb"), ros, now))
	return cache, store, ros
}

func TestCheckStaleFresh(t *testing.T) {
	cache, _, ros := cachedDuet(t)

	got, err := cache.CheckStale(context.Background(), defaultResolver(), ros, 0, now)
	require.NoError(t, err)
	assert.False(t, got.Stale)
	assert.NoError(t, got.Err())
	require.NotNil(t, got.Session)
	assert.Equal(t, "Jane Doe", got.Session.Author.Name)
}

func TestCheckStaleNoSession(t *testing.T) {
	got, err := New(newMemStore(), nil).CheckStale(context.Background(), defaultResolver(), hamsterRoster(t), 0, now)
	require.NoError(t, err)
	assert.True(t, got.Stale)
	assert.Nil(t, got.Session)
	assert.ErrorIs(t, got.Err(), ErrStaleCache)
}

func TestCheckStaleRosterNameChanged(t *testing.T) {
	cache, _, _ := cachedDuet(t)
	changed := roster.New(
		map[string]string{"jd": "Jane Doe-Smith", "fb": "Frances Bar"},
		"hamster.info",
		map[string]string{"jd": "jane@hamsters.biz"},
	)

	got, err := cache.CheckStale(context.Background(), defaultResolver(), changed, 0, now)
	require.NoError(t, err)
	assert.True(t, got.Stale)
	assert.Contains(t, got.Reason, "author")
}

func TestCheckStaleCommitterEmailChanged(t *testing.T) {
	cache, _, _ := cachedDuet(t)
	changed := roster.New(
		map[string]string{"jd": "Jane Doe", "fb": "Frances Bar"},
		"dalek.info",
		map[string]string{"jd": "jane@hamsters.biz"},
	)

	got, err := cache.CheckStale(context.Background(), defaultResolver(), changed, 0, now)
	require.NoError(t, err)
	assert.True(t, got.Stale)
	assert.Contains(t, got.Reason, "committer")
}

func TestCheckStaleLookupChanged(t *testing.T) {
	cache, _, ros := cachedDuet(t)
	lookup := email.LookupFunc(func(_ context.Context, initials string) (string, error) {
		if initials == "jd" {
			return "jane_doe@lookie.me", nil
		}
		return "", nil
	})
	res := identity.NewResolver(email.NewResolver(email.WithLookup(lookup)))

	got, err := cache.CheckStale(context.Background(), res, ros, 0, now)
	require.NoError(t, err)
	assert.True(t, got.Stale)
	assert.Contains(t, got.Reason, "jane_doe@lookie.me")
}

func TestCheckStaleInitialsRemovedFromRoster(t *testing.T) {
	cache, _, _ := cachedDuet(t)
	shrunk := roster.New(map[string]string{"jd": "Jane Doe"}, "hamster.info", map[string]string{"jd": "jane@hamsters.biz"})

	got, err := cache.CheckStale(context.Background(), defaultResolver(), shrunk, 0, now)
	require.NoError(t, err)
	assert.True(t, got.Stale)
	assert.Contains(t, got.Reason, "no longer resolve")
}

func TestCheckStaleMissingInitials(t *testing.T) {
	for _, key := range []string{KeyAuthorInitials, KeyCommitterInitials} {
		t.Run(key, func(t *testing.T) {
			cache, store, ros := cachedDuet(t)
			delete(store.values, key)

			got, err := cache.CheckStale(context.Background(), defaultResolver(), ros, 0, now)
			require.NoError(t, err)
			assert.True(t, got.Stale)
			assert.Contains(t, got.Reason, "initials are missing")
		})
	}
}

func TestCheckStaleHandEditedName(t *testing.T) {
	cache, store, ros := cachedDuet(t)
	store.values[KeyAuthorName] = "J. Doe"

	got, err := cache.CheckStale(context.Background(), defaultResolver(), ros, 0, now)
	require.NoError(t, err)
	assert.True(t, got.Stale)
}

func TestCheckStaleMaxAge(t *testing.T) {
	cache, store, ros := cachedDuet(t)
	ctx := context.Background()

	got, err := cache.CheckStale(ctx, defaultResolver(), ros, 20*time.Minute, now.Add(10*time.Minute))
	require.NoError(t, err)
	assert.False(t, got.Stale)

	got, err = cache.CheckStale(ctx, defaultResolver(), ros, 20*time.Minute, now.Add(21*time.Minute))
	require.NoError(t, err)
	assert.True(t, got.Stale)
	assert.Contains(t, got.Reason, "21m0s ago")

	delete(store.values, KeyMtime)
	got, err = cache.CheckStale(ctx, defaultResolver(), ros, 20*time.Minute, now)
	require.NoError(t, err)
	assert.True(t, got.Stale)
}

func TestCheckStaleRosterEditedButEquivalent(t *testing.T) {
	cache, _, _ := cachedDuet(t)
	edited, err := roster.Parse([]byte(`# reordered, same people
email_addresses:
  jd: jane@hamsters.biz
pairs:
  fb: Frances Bar
  jd: Jane Doe
  zz: Zed Zulu
email:
  domain: hamster.info
`))
	require.NoError(t, err)

	got, err := cache.CheckStale(context.Background(), defaultResolver(), edited, 0, now)
	require.NoError(t, err)
	assert.False(t, got.Stale)
}

func TestCheckStaleStoreFailure(t *testing.T) {
	cache, store, ros := cachedDuet(t)
	store.failOn = KeyMtime

	_, err := cache.CheckStale(context.Background(), defaultResolver(), ros, 0, now)
	assert.Error(t, err)
}
