// Package check implements the repository status check: a sequential workflow
// that verifies working-tree cleanliness, identifies the tracked upstream
// branch, fetches remote updates, and reports history divergence.
package check
