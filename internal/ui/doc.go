// Package ui renders command lifecycle events in a human-readable form for
// interactive and debug invocations.
package ui
