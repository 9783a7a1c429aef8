// Package ui provides terminal output formatting for git-duet.
//
// This package handles all user-facing output with consistent styling:
//   - Colored output (cyan, green, red, yellow)
//   - Info, success, failure, and warning messages
//   - Dimmed text for secondary information
//
// All output goes to ui.Out (defaults to os.Stderr) so that stdout stays
// free for git's own output during `git duet commit`. Setting ui.Quiet
// silences Info and Success; warnings and failures are always shown.
//
// Example usage:
//
//	ui.Success("Author set to %s", ui.Bold("Jane Doe <jane@hamsters.biz>"))
//	ui.Warn("Committing with a stale duet session")
//	ui.Fail("unknown initials %q", "zz")
//
// Output styling:
//   - Info:    → Cyan arrow
//   - Success: ✔ Green checkmark
//   - Fail:    ✘ Red X
//   - Warn:    ○ Yellow circle
package ui
