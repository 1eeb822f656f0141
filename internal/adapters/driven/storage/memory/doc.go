// Package memory provides in-memory implementations of driven ports.
// They back tests and the CLI's --ephemeral mode.
package memory
