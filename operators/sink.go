package operators

import (
	"context"
)

// runOutput passes its input through unchanged. Writing the artifact is the
// engine's job: it runs only in full executions, never in previews, and the
// engine owns the artifact store.
func runOutput(_ context.Context, _ *Env, req *Request) (*Result, error) {
	return &Result{Table: firstInput(req)}, nil
}
