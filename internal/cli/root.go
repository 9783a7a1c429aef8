package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rickgorman/git-duet/internal/config"
	"github.com/rickgorman/git-duet/internal/duet"
	"github.com/rickgorman/git-duet/internal/git"
	"github.com/rickgorman/git-duet/internal/session"
	"github.com/rickgorman/git-duet/internal/ui"
)

// Version is reported by `git duet version`.
const Version = "1.0.0-dev"

// RootOptions holds global flags and the process surroundings commands
// run in.
type RootOptions struct {
	Verbose bool
	Quiet   bool

	// Dir is where the repository is looked up. Empty means ".".
	Dir string
	// Getenv defaults to os.Getenv.
	Getenv config.Getenv

	logger *zap.Logger
	repo   *git.Repo
}

// NewRootCommand creates the git-duet command tree. Bare initials on the
// root command start a duet.
func NewRootCommand(opts *RootOptions) *cobra.Command {
	if opts == nil {
		opts = &RootOptions{}
	}

	cmd := &cobra.Command{
		Use:   "git-duet [<author> <committer>]",
		Short: "Pair programming identities for git",
		Long: `git-duet resolves pairing initials from an authors file into names and
email addresses, sets git's identity, and keeps the pair cached in the
repository so commits credit both people.

Run with two initials to start a duet, or with none to show the cached
session.`,
		Args:          duetArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(opts.Verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDuet(cmd, opts, args)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging on stderr")
	cmd.PersistentFlags().BoolVarP(&opts.Quiet, "quiet", "q", false, "only print warnings and errors")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: ExitUsage, Err: err}
	})

	cmd.AddCommand(NewSoloCommand(opts))
	cmd.AddCommand(NewDuetCommand(opts))
	cmd.AddCommand(NewCommitCommand(opts))
	cmd.AddCommand(NewInstallHookCommand(opts))
	cmd.AddCommand(NewPreCommitCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// aliases maps the original per-command binary names to subcommands.
var aliases = map[string]string{
	"git-solo":              "solo",
	"git-duet-commit":       "commit",
	"git-duet-install-hook": "install-hook",
	"git-duet-pre-commit":   "pre-commit",
}

// ArgsFor rewrites argv for a binary invoked through one of the alias
// names, so `git-solo jd` runs `solo jd`.
func ArgsFor(prog string, args []string) []string {
	prog = strings.TrimSuffix(prog, ".exe")
	if sub, ok := aliases[prog]; ok {
		return append([]string{sub}, args...)
	}
	return args
}

// Execute runs the command tree for prog with args and returns the process
// exit code. Errors are printed through ui.
func Execute(prog string, args []string) int {
	return ExecuteContext(context.Background(), NewRootCommand(nil), prog, args)
}

// ExecuteContext is Execute with an explicit context and root command.
func ExecuteContext(ctx context.Context, root *cobra.Command, prog string, args []string) int {
	args, err := hoistCommitFlags(root, ArgsFor(prog, args))
	if err == nil {
		root.SetArgs(args)
		err = root.ExecuteContext(ctx)
	}
	if err == nil {
		return ExitSuccess
	}
	if !isSilent(err) {
		ui.Fail("%v", err)
	}
	return GetExitCode(err)
}

// hoistCommitFlags applies global flags written before `commit` and drops
// them from args. commit parses no flags, so without this `git duet -q
// commit` would hand -q to git.
func hoistCommitFlags(root *cobra.Command, args []string) ([]string, error) {
	i := 0
	for i < len(args) && strings.HasPrefix(args[i], "-") {
		i++
	}
	if i == 0 || i == len(args) || args[i] != "commit" {
		return args, nil
	}

	flags := root.PersistentFlags()
	for _, arg := range args[:i] {
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !hasValue {
			value = "true"
		}

		var names []string
		if strings.HasPrefix(arg, "--") {
			names = []string{name}
		} else {
			for _, short := range name {
				f := flags.ShorthandLookup(string(short))
				if f == nil {
					return nil, usageError("unknown shorthand flag %q in %s", short, arg)
				}
				names = append(names, f.Name)
			}
		}
		for _, n := range names {
			if flags.Lookup(n) == nil {
				return nil, usageError("unknown flag: --%s", n)
			}
			if err := flags.Set(n, value); err != nil {
				return nil, usageError("invalid argument %q for %s: %v", value, arg, err)
			}
		}
	}
	return args[i:], nil
}

// service opens the repository around opts.Dir and wires a duet.Service
// whose git output goes to cmd's streams.
func (opts *RootOptions) service(cmd *cobra.Command) (*duet.Service, error) {
	cfg, err := config.FromEnv(opts.Getenv)
	if err != nil {
		return nil, &ExitError{Code: ExitUsage, Err: err}
	}
	ui.Quiet = opts.Quiet || cfg.Quiet

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	repo, err := git.Open(cmd.Context(), dir)
	if err != nil {
		return nil, err
	}
	repo.Stdin = cmd.InOrStdin()
	repo.Stdout = cmd.OutOrStdout()
	repo.Stderr = cmd.ErrOrStderr()
	opts.repo = repo

	logger := opts.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return duet.ForRepo(cfg, repo, logger), nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.OutputPaths = []string{"stderr"}
	return config.Build()
}

// printSession writes the cached session as shell assignments, the same
// variables Commit exports.
func printSession(w io.Writer, s *session.CachedSession) {
	for _, kv := range s.Env() {
		name, value, _ := strings.Cut(kv, "=")
		fmt.Fprintf(w, "%s=%s\n", name, shellQuote(value))
	}
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func showCurrent(cmd *cobra.Command, opts *RootOptions, svc *duet.Service) error {
	current, err := svc.Current(cmd.Context())
	if err != nil {
		return err
	}
	if current != nil {
		printSession(cmd.OutOrStdout(), current)
		return nil
	}

	ui.Info("No duet session cached in this repository")
	if opts.repo == nil {
		return nil
	}
	user, err := opts.repo.Config().EffectiveUser(cmd.Context())
	if err != nil {
		return err
	}
	if user.Name != "" || user.Email != "" {
		ui.DimMsg("plain git commits as %s <%s>", user.Name, user.Email)
	}
	return nil
}
