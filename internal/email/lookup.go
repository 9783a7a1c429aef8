package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrExternalCommand marks a failed external lookup. It never escapes
// Resolver.Resolve; the resolver logs it and falls through.
var ErrExternalCommand = errors.New("external email lookup failed")

// Lookup resolves initials to an address from some external source. An
// empty result with a nil error means the source has no opinion.
type Lookup interface {
	Lookup(ctx context.Context, initials string) (string, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, initials string) (string, error)

// Lookup calls f.
func (f LookupFunc) Lookup(ctx context.Context, initials string) (string, error) {
	return f(ctx, initials)
}

// CommandLookup runs `<Path> <initials>` and reads the first line of
// standard output. Only that line counts; output after a blank first line
// is ignored.
type CommandLookup struct {
	Path string
}

// Lookup runs the configured command once. There are no retries and no
// timeout beyond ctx.
func (c CommandLookup) Lookup(ctx context.Context, initials string) (string, error) {
	cmd := exec.CommandContext(ctx, c.Path, initials)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("%w: %s %s exited %d: %s",
				ErrExternalCommand, c.Path, initials, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("%w: %s %s: %v", ErrExternalCommand, c.Path, initials, err)
	}

	return firstLine(output), nil
}

// firstLine returns the first line of output, trimmed. A blank first line
// means the command has no address to offer.
func firstLine(output []byte) string {
	line, _, _ := bytes.Cut(output, []byte("\n"))
	return strings.TrimSpace(string(line))
}
