// Package execx wraps external command execution behind a small Runner
// interface so the pipeline can be driven against real subprocesses, a
// dry-run recorder, or test doubles interchangeably.
package execx
