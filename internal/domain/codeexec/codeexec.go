// Package codeexec runs submitted programs in an isolated Starlark
// interpreter and reports their top-level bindings.
//
// Starlark is a Python dialect with no file, network or OS access. Each run
// gets a fresh global scope, no predeclared names beyond the language
// builtins, a step budget and a wall-clock deadline.
package codeexec

import (
	"context"
	"strings"
	"time"

	"github.com/okian/assessly/internal/domain/model"
	"github.com/okian/assessly/pkg/logger"
	"github.com/okian/assessly/pkg/metrics"

	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
)

// Defaults for one program run.
const (
	DefaultMaxSteps = 1_000_000
	DefaultTimeout  = 2 * time.Second

	msgSuccess = "Code executed successfully."
	filename   = "submission.star"
)

// deniedImports is the legacy substring check applied before execution.
var deniedImports = []string{"import os", "import sys"} //nolint:gochecknoglobals // read-only

func init() { //nolint:gochecknoinits // resolver dialect is process-wide
	// Student code is Python-like: top-level loops and reassignment, while
	// loops, recursion and sets.
	resolve.AllowGlobalReassign = true
	resolve.AllowRecursion = true
	resolve.AllowSet = true
}

// Evaluator executes programs. It is safe for concurrent use.
type Evaluator struct {
	maxSteps uint64
	timeout  time.Duration
	logger   logger.Logger
}

// New creates an Evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		maxSteps: DefaultMaxSteps,
		timeout:  DefaultTimeout,
		logger:   logger.Get().Named("codeexec"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Unsafe reports whether code trips the import denylist.
func Unsafe(code string) bool {
	for _, d := range deniedImports {
		if strings.Contains(code, d) {
			return true
		}
	}
	return false
}

// Evaluate runs code and returns its bindings as Result.Output.
func (e *Evaluator) Evaluate(ctx context.Context, code string) (model.Result, error) {
	if Unsafe(code) {
		return model.Result{}, model.ErrUnsafeCode
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	thread := &starlark.Thread{
		Name: "submission",
		Print: func(_ *starlark.Thread, msg string) {
			e.logger.Debug(ctx, "program output", logger.String("line", msg))
		},
	}
	thread.SetMaxExecutionSteps(e.maxSteps)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-runCtx.Done():
			thread.Cancel(runCtx.Err().Error())
		case <-done:
		}
	}()

	globals, err := starlark.ExecFile(thread, filename, code, nil)
	metrics.RecordCodeExecutionSteps(thread.ExecutionSteps())
	if err != nil {
		e.logger.Debug(ctx, "program failed",
			logger.Error(err),
			logger.Int64("steps", int64(thread.ExecutionSteps())),
		)
		return model.Result{}, model.Parsef(err, "Code execution failed: %v", err)
	}

	out := Bindings(globals)
	e.logger.Debug(ctx, "program finished",
		logger.Any("bindings", sortedNames(out)),
		logger.Int64("steps", int64(thread.ExecutionSteps())),
	)
	return model.Result{Feedback: msgSuccess, Output: out}, nil
}
