package execx

import (
	"context"
	"sync"

	"github.com/pkgw/ttdeploy/internal/logger"
)

// Recorder is a Runner that logs commands instead of executing them.
// It backs the --dry-run flag and doubles as a test double: queued outputs
// and query results are consumed in FIFO order by Output and Succeeds.
type Recorder struct {
	mu sync.Mutex

	// calls holds every command line issued, in order.
	calls []string
	// outputs are queued replies for Output calls; empty string after exhaustion.
	outputs []string
	// queries are queued replies for Succeeds calls; false after exhaustion.
	queries []bool
	// runErr, when set, is returned by every Run call.
	runErr error
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// QueueOutput appends a canned reply for a future Output call.
func (r *Recorder) QueueOutput(out string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.outputs = append(r.outputs, out)
}

// QueueQuery appends a canned reply for a future Succeeds call.
func (r *Recorder) QueueQuery(ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.queries = append(r.queries, ok)
}

// FailRuns makes every subsequent Run call return the provided error.
func (r *Recorder) FailRuns(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.runErr = err
}

// Calls returns a copy of the recorded command lines.
func (r *Recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.calls...)
}

// Run records the command line without executing anything.
func (r *Recorder) Run(ctx context.Context, name string, args ...string) error {
	r.record(ctx, name, args...)

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.runErr
}

// Output records the command line and returns the next queued reply.
func (r *Recorder) Output(ctx context.Context, name string, args ...string) (string, error) {
	r.record(ctx, name, args...)

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.outputs) == 0 {
		return "", nil
	}

	out := r.outputs[0]
	r.outputs = r.outputs[1:]

	return out, nil
}

// Succeeds records the command line and returns the next queued reply.
func (r *Recorder) Succeeds(ctx context.Context, name string, args ...string) (bool, error) {
	r.record(ctx, name, args...)

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.queries) == 0 {
		return false, nil
	}

	ok := r.queries[0]
	r.queries = r.queries[1:]

	return ok, nil
}

func (r *Recorder) record(ctx context.Context, name string, args ...string) {
	line := Format(name, args...)
	logger.InfoKV(ctx, "Would run command", "command", line)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, line)
}
