// Package git drives the git binary for the small set of operations a
// deployment run performs: identity setup, tagging, and pushes.
package git
