// Package config defines deployment settings used by ttdeploy and provides
// helpers to load, validate and save them in YAML format.
//
// The Settings type names the toplevel cranko project, git remote/branch/tag
// targets, artifact locations, repo-local helper scripts and the update
// folder URL for self-updates. Validate fills defaults so a minimal settings
// file only needs the project name.
package config
