// Package deploy implements the continuous-deployment pipeline: toplevel
// mode resolution from the CI trigger parameters, documentation publishing,
// the rolling continuous prerelease, and the official release sequence
// (tags, crate publication, GitHub releases, Arch package update).
//
// Steps run sequentially and fail fast: the first failing external command
// aborts the run for manual triage, mirroring strict-fail shell semantics.
// A marker file plus process inspection guards against two deployments
// running on the same agent.
package deploy
