// Package config builds the runtime configuration for git-duet from the
// process environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variables recognized by git-duet.
const (
	EnvAuthorsFile        = "GIT_DUET_AUTHORS_FILE"
	EnvEmailLookupCommand = "GIT_DUET_EMAIL_LOOKUP_COMMAND"
	EnvSecondsAgoStale    = "GIT_DUET_SECONDS_AGO_STALE"
	EnvQuiet              = "GIT_DUET_QUIET"
)

// AuthorsFileName is the roster file name looked up in the home directory
// and at the repository root.
const AuthorsFileName = ".git-authors"

// Config is the explicit configuration passed to the roster store and the
// email resolver.
type Config struct {
	AuthorsFile        string
	EmailLookupCommand string
	StaleAfter         time.Duration
	Quiet              bool
	HomeDir            string
}

// Getenv matches the signature of os.Getenv.
type Getenv func(string) string

// FromEnv reads the configuration using getenv. A nil getenv falls back to
// os.Getenv.
func FromEnv(getenv Getenv) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	cfg := &Config{
		AuthorsFile:        strings.TrimSpace(getenv(EnvAuthorsFile)),
		EmailLookupCommand: strings.TrimSpace(getenv(EnvEmailLookupCommand)),
		Quiet:              isTruthy(getenv(EnvQuiet)),
		HomeDir:            getenv("HOME"),
	}

	if cfg.HomeDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.HomeDir = home
		}
	}

	if raw := strings.TrimSpace(getenv(EnvSecondsAgoStale)); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs < 0 {
			return nil, fmt.Errorf("%s must be a non-negative number of seconds, got %q", EnvSecondsAgoStale, raw)
		}
		cfg.StaleAfter = time.Duration(secs) * time.Second
	}

	return cfg, nil
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
