package model

import "context"

// Result is a successful evaluation.
type Result struct {
	Feedback string `json:"feedback"`
	// Output holds the top-level bindings of an executed program. It is nil
	// for every other route.
	Output any `json:"output,omitempty"`
}

// Outcome is what a worker hands back for one Job.
type Outcome struct {
	Result Result
	Err    error
}

// Job carries a request through the evaluation queue.
type Job struct {
	ID      string
	Request Request
	// Ctx is the caller's context. Workers stop early once it is done.
	Ctx   context.Context //nolint:containedctx // travels with the job across the queue
	Reply chan<- Outcome
}
