// Package selfupdate replaces the installed ttdeploy binary with the build
// published in the update folder.
//
// It fetches the artifact manifest, compares the published version against
// the local build, downloads the platform binary into a temporary directory,
// and applies it atomically after checksum verification.
package selfupdate
