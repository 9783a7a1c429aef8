// Package email resolves initials to commit email addresses.
//
// Resolution order:
//
//  1. External lookup command (GIT_DUET_EMAIL_LOOKUP_COMMAND)
//  2. email_addresses entry in the roster
//  3. Derived from the roster name and email.domain
//
// A step that fails or yields nothing hands over to the next one.
package email

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rickgorman/git-duet/internal/roster"
)

// ErrNoEmailResolution is returned when every step came up empty.
var ErrNoEmailResolution = errors.New("no email address")

// Source names the step that produced an address.
type Source string

const (
	SourceLookup   Source = "lookup"
	SourceOverride Source = "email_addresses"
	SourceDomain   Source = "domain"
)

// Resolver applies the precedence chain.
type Resolver struct {
	lookup    Lookup
	localPart LocalPartFunc
	logger    *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLookup sets the external lookup. nil disables step 1.
func WithLookup(l Lookup) Option {
	return func(r *Resolver) { r.lookup = l }
}

// WithLocalPart replaces FirstInitialSurname.
func WithLocalPart(f LocalPartFunc) Option {
	return func(r *Resolver) {
		if f != nil {
			r.localPart = f
		}
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver creates a resolver with no external lookup unless WithLookup
// is given.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		localPart: FirstInitialSurname,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewCommandResolver wires a CommandLookup when path is non-empty.
func NewCommandResolver(path string, opts ...Option) *Resolver {
	if path != "" {
		opts = append([]Option{WithLookup(CommandLookup{Path: path})}, opts...)
	}
	return NewResolver(opts...)
}

// Resolve returns the address for initials.
func (r *Resolver) Resolve(ctx context.Context, initials string, ros *roster.Roster) (string, error) {
	addr, _, err := r.ResolveWithSource(ctx, initials, ros)
	return addr, err
}

// ResolveWithSource is Resolve plus the step that answered.
func (r *Resolver) ResolveWithSource(ctx context.Context, initials string, ros *roster.Roster) (string, Source, error) {
	if r.lookup != nil {
		addr, err := r.lookup.Lookup(ctx, initials)
		switch {
		case err != nil:
			r.logger.Debug("email lookup failed, falling back",
				zap.String("initials", initials), zap.Error(err))
		case addr != "":
			r.logger.Debug("email from lookup", zap.String("initials", initials), zap.String("email", addr))
			return addr, SourceLookup, nil
		default:
			r.logger.Debug("email lookup returned nothing", zap.String("initials", initials))
		}
	}

	if addr, ok := ros.EmailOverride(initials); ok {
		return addr, SourceOverride, nil
	}

	if domain := ros.EmailDomain(); domain != "" {
		if name, ok := ros.Name(initials); ok {
			if local := r.localPart(name); local != "" {
				return local + "@" + domain, SourceDomain, nil
			}
		}
	}

	return "", "", fmt.Errorf("%w for initials %q", ErrNoEmailResolution, initials)
}
