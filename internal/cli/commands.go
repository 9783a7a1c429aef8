package cli

import (
	"errors"
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/rickgorman/git-duet/internal/identity"
	"github.com/rickgorman/git-duet/internal/session"
	"github.com/rickgorman/git-duet/internal/ui"
)

func duetArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 0 && len(args) != 2 {
		return usageError("expected <author> <committer> initials, got %d argument(s)", len(args))
	}
	return nil
}

func runDuet(cmd *cobra.Command, opts *RootOptions, args []string) error {
	svc, err := opts.service(cmd)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return showCurrent(cmd, opts, svc)
	}
	pair, err := svc.Duet(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	reportPair(pair)
	return nil
}

func reportPair(pair identity.Pair) {
	ui.Success("Author:    %s", pair.Author)
	if !pair.Solo() {
		ui.Success("Committer: %s", pair.Committer)
	}
}

// NewDuetCommand creates the explicit form of `git duet <author> <committer>`.
func NewDuetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "duet <author> <committer>",
		Short: "Pair as author and committer",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return usageError("duet takes exactly two initials, got %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDuet(cmd, opts, args)
		},
	}
}

// NewSoloCommand creates the solo command.
func NewSoloCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "solo [<initials>]",
		Short: "Work alone as one author",
		Long: `Set git's identity to a single author from the authors file and clear
any cached committer. Without initials, print the cached session.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return usageError("solo takes at most one set of initials, got %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.service(cmd)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				return showCurrent(cmd, opts, svc)
			}
			pair, err := svc.Solo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			reportPair(pair)
			return nil
		},
	}
}

// NewCommitCommand creates the commit command. Everything after `commit`
// is handed to `git commit` untouched.
func NewCommitCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:                "commit [<git commit args>...]",
		Short:              "Commit as the cached author and committer",
		Long: `Run git commit as the cached author and, for a duet, the cached
committer. Every argument after "commit" goes to git unchanged, so
git-duet's own flags (-q, -v) must come before "commit".`,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.service(cmd)
			if err != nil {
				return err
			}
			err = svc.Commit(cmd.Context(), args)
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				// git already printed its own message.
				return &ExitError{Code: exitErr.ExitCode(), Err: err, Silent: true}
			}
			return err
		},
	}
}

// NewInstallHookCommand creates the install-hook command.
func NewInstallHookCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "install-hook",
		Short: "Install a pre-commit hook that rejects stale sessions",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.service(cmd)
			if err != nil {
				return err
			}
			path, err := svc.InstallHook(cmd.Context())
			if err != nil {
				return err
			}
			ui.Success("Installed %s", path)
			return nil
		},
	}
}

// NewPreCommitCommand creates the check the installed hook runs.
func NewPreCommitCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pre-commit",
		Short: "Fail when the cached session is stale",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.service(cmd)
			if err != nil {
				return err
			}
			err = svc.PreCommit(cmd.Context())
			if errors.Is(err, session.ErrStaleCache) {
				return fmt.Errorf("%w; run `git duet` or `git solo` again to refresh it", err)
			}
			return err
		},
	}
}

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "git-duet %s\n", Version)
			return nil
		},
	}
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usageError("%s takes no arguments", cmd.Name())
	}
	return nil
}
