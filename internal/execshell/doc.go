// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec with logging via ShellExecutor, exposes OSCommandRunner for
// default process execution, and defines the command-runner abstraction used
// throughout repocheck to run git, ls, and sudo in a testable manner.
package execshell
