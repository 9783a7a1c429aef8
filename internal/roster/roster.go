// Package roster loads the authors file that maps initials to people.
package roster

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rickgorman/git-duet/internal/config"
	"github.com/rickgorman/git-duet/pkg/hash"
)

var (
	// ErrRosterNotFound is returned when no authors file can be read.
	ErrRosterNotFound = errors.New("roster not found")

	// ErrRosterMalformed is returned when the authors file does not have the
	// expected shape.
	ErrRosterMalformed = errors.New("roster malformed")
)

// Roster is an immutable snapshot of an authors file.
type Roster struct {
	path           string
	digest         string
	pairs          map[string]string
	emailDomain    string
	emailAddresses map[string]string
}

// New builds a roster from already-parsed values. The maps are copied.
func New(pairs map[string]string, emailDomain string, emailAddresses map[string]string) *Roster {
	return &Roster{
		pairs:          copyMap(pairs),
		emailDomain:    emailDomain,
		emailAddresses: copyMap(emailAddresses),
	}
}

// Path is the file the roster was loaded from, empty for in-memory rosters.
func (r *Roster) Path() string { return r.path }

// Digest is the MD5 of the raw roster file, empty for in-memory rosters.
func (r *Roster) Digest() string { return r.digest }

// EmailDomain is the optional domain used for derived addresses.
func (r *Roster) EmailDomain() string { return r.emailDomain }

// Name returns the display name registered for initials.
func (r *Roster) Name(initials string) (string, bool) {
	name, ok := r.pairs[initials]
	return name, ok
}

// EmailOverride returns the explicit address registered for initials.
func (r *Roster) EmailOverride(initials string) (string, bool) {
	email, ok := r.emailAddresses[initials]
	return email, ok
}

// Initials lists every known initials key in sorted order.
func (r *Roster) Initials() []string {
	keys := make([]string, 0, len(r.pairs))
	for k := range r.pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Candidates returns the roster paths searched, in precedence order:
//  1. GIT_DUET_AUTHORS_FILE
//  2. ~/.git-authors
//  3. <worktree>/.git-authors
func Candidates(cfg *config.Config, worktree string) []string {
	var paths []string
	if cfg.AuthorsFile != "" {
		paths = append(paths, cfg.AuthorsFile)
	}
	if cfg.HomeDir != "" {
		paths = append(paths, filepath.Join(cfg.HomeDir, config.AuthorsFileName))
	}
	if worktree != "" {
		paths = append(paths, filepath.Join(worktree, config.AuthorsFileName))
	}
	return paths
}

// Locate returns the first candidate that is a readable regular file.
func Locate(cfg *config.Config, worktree string) (string, error) {
	candidates := Candidates(cfg, worktree)
	for _, path := range candidates {
		if readable(path) {
			return path, nil
		}
	}

	var searched strings.Builder
	for _, path := range candidates {
		searched.WriteString("\n  • ")
		searched.WriteString(path)
	}
	return "", fmt.Errorf("%w\n\nSearched:%s\n\nCreate one, or point %s at it",
		ErrRosterNotFound, searched.String(), config.EnvAuthorsFile)
}

// Find locates and loads the roster for cfg and worktree.
func Find(cfg *config.Config, worktree string) (*Roster, error) {
	path, err := Locate(cfg, worktree)
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// Load reads and validates the roster at path.
func Load(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRosterNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrRosterNotFound, path, err)
	}

	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.path = path
	r.digest = hash.MD5Bytes(data)
	return r, nil
}

func readable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
