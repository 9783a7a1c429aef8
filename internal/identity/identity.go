// Package identity turns initials into author and committer identities.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rickgorman/git-duet/internal/roster"
)

var (
	// ErrUnknownInitials is returned when initials are not in the roster.
	ErrUnknownInitials = errors.New("unknown initials")

	// ErrTooManyCommitters is returned when more than one committer is given.
	ErrTooManyCommitters = errors.New("at most one committer")
)

// Identity is one resolved person. Name and Email are always both set.
type Identity struct {
	Initials string
	Name     string
	Email    string
}

// String formats the identity the way git log does.
func (i Identity) String() string {
	return fmt.Sprintf("%s <%s>", i.Name, i.Email)
}

// Pair is the result of a resolution. Committer is nil for solo sessions.
type Pair struct {
	Author    Identity
	Committer *Identity
}

// Solo reports whether the pair has no committer.
func (p Pair) Solo() bool { return p.Committer == nil }

// EmailResolver is the part of email.Resolver the identity resolver needs.
type EmailResolver interface {
	Resolve(ctx context.Context, initials string, ros *roster.Roster) (string, error)
}

// Resolver combines roster names with email resolution.
type Resolver struct {
	emails EmailResolver
}

// NewResolver creates a Resolver.
func NewResolver(emails EmailResolver) *Resolver {
	return &Resolver{emails: emails}
}

// Resolve resolves the author and, if given, a single committer. Either
// both identities resolve or an error is returned.
func (r *Resolver) Resolve(ctx context.Context, ros *roster.Roster, authorInitials string, committerInitials ...string) (Pair, error) {
	if len(committerInitials) > 1 {
		return Pair{}, fmt.Errorf("%w, got %d", ErrTooManyCommitters, len(committerInitials))
	}

	author, err := r.resolveOne(ctx, ros, authorInitials)
	if err != nil {
		return Pair{}, err
	}

	pair := Pair{Author: author}
	if len(committerInitials) == 1 {
		committer, err := r.resolveOne(ctx, ros, committerInitials[0])
		if err != nil {
			return Pair{}, err
		}
		pair.Committer = &committer
	}
	return pair, nil
}

func (r *Resolver) resolveOne(ctx context.Context, ros *roster.Roster, initials string) (Identity, error) {
	name, ok := ros.Name(initials)
	if !ok {
		known := strings.Join(ros.Initials(), ", ")
		if path := ros.Path(); path != "" {
			return Identity{}, fmt.Errorf("%w %q (not listed under pairs in %s; known: %s)", ErrUnknownInitials, initials, path, known)
		}
		return Identity{}, fmt.Errorf("%w %q (known: %s)", ErrUnknownInitials, initials, known)
	}

	addr, err := r.emails.Resolve(ctx, initials, ros)
	if err != nil {
		return Identity{}, err
	}

	return Identity{Initials: initials, Name: name, Email: addr}, nil
}
