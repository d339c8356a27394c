// Package artifact collects build artifacts from the CI workspace and
// maintains the checksum manifest published alongside them.
//
// The manifest pairs the released version with base64-encoded SHA-512
// checksums per file; the self-update service consumes the same format.
package artifact
