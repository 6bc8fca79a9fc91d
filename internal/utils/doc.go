// Package utils provides shared infrastructure for the CLI: configuration
// loading backed by Viper, zap logger construction, command context plumbing,
// and output writers.
package utils
