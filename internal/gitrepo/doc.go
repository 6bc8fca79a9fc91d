// Package gitrepo converts raw git command output into structured values and
// exposes repository-level operations built on the execshell abstractions.
package gitrepo
