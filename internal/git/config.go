package git

import (
	"context"
	"errors"
	"strings"
)

// Exit codes documented in git-config(1).
const (
	configExitKeyMissing = 1
	configExitNoSection  = 5
)

// ConfigStore reads and writes keys in the repository's .git/config.
// Writes never touch the global or system config.
type ConfigStore struct {
	dir string
}

// Get returns the local value of key. A missing key returns ok == false.
func (s *ConfigStore) Get(ctx context.Context, key string) (string, bool, error) {
	out, err := run(ctx, s.dir, nil, "config", "--local", "--get", key)
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) && cmdErr.ExitCode == configExitKeyMissing {
			return "", false, nil
		}
		return "", false, err
	}
	return strings.TrimRight(out, "\n"), true, nil
}

// Set writes key=value to the local config.
func (s *ConfigStore) Set(ctx context.Context, key, value string) error {
	_, err := run(ctx, s.dir, nil, "config", "--local", key, value)
	return err
}

// Unset removes every local value of key. Removing a missing key is not
// an error.
func (s *ConfigStore) Unset(ctx context.Context, key string) error {
	_, err := run(ctx, s.dir, nil, "config", "--local", "--unset-all", key)
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) && cmdErr.ExitCode == configExitNoSection {
			return nil
		}
		return err
	}
	return nil
}

// User is the identity git will use for the next plain commit.
type User struct {
	Name  string
	Email string
}

// EffectiveUser reads user.name and user.email across all config scopes,
// the way git itself resolves them.
func (s *ConfigStore) EffectiveUser(ctx context.Context) (*User, error) {
	user := &User{}
	for key, dst := range map[string]*string{"user.name": &user.Name, "user.email": &user.Email} {
		out, err := run(ctx, s.dir, nil, "config", "--get", key)
		if err != nil {
			var cmdErr *CommandError
			if errors.As(err, &cmdErr) && cmdErr.ExitCode == configExitKeyMissing {
				continue
			}
			return nil, err
		}
		*dst = strings.TrimRight(out, "\n")
	}
	return user, nil
}
