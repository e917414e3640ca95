package shared

// RunCompletionError is the unified outcome of SettleRun when the run did
// not succeed: either the writer itself failed, or the writer succeeded but
// a pipeline task reported an error.
type RunCompletionError struct {
	// WriterErr is set when the writer failed; FromWriter reports this case.
	WriterErr error
	// PipelineErr is set when the writer succeeded but a pipeline task
	// failed; FromWriter is false in this case.
	PipelineErr *PipelineError
}

func (e *RunCompletionError) Error() string {
	if e.WriterErr != nil {
		return e.WriterErr.Error()
	}
	return e.PipelineErr.Error()
}

func (e *RunCompletionError) Unwrap() error {
	if e.WriterErr != nil {
		return e.WriterErr
	}
	return e.PipelineErr
}

// FromWriter reports whether this completion error originated from the
// writer (true) or from a pipeline task (false).
func (e *RunCompletionError) FromWriter() bool { return e.WriterErr != nil }

// TaskResult is the outcome of one pipeline task (an operator-chain stage
// or fetcher goroutine) as observed by SettleRun: either it returned an
// error, or it panicked (Panic set), or it completed cleanly.
type TaskResult struct {
	Err   error
	Panic any
}

// SettleRun resolves the deterministic outcome of a writer run plus its
// concurrent pipeline tasks, per the fixed priority:
//
//  1. writer succeeded AND any pipeline task failed -> first pipeline error
//  2. writer failed -> writer error (pipeline errors are secondary)
//  3. both succeeded -> writer output
//
// A task that panicked is treated as a Strategy-kind PipelineError; this
// function does not itself catch panics, so callers must recover() in the
// goroutine running each task and report the result via TaskResult.Panic.
func SettleRun[T any](writerResult T, writerErr error, tasks []TaskResult) (T, error) {
	var zero T
	writerOK := writerErr == nil

	var firstPipelineErr *PipelineError
	for _, task := range tasks {
		var taskErr error
		switch {
		case task.Panic != nil:
			taskErr = RecoverAsStrategyError(task.Panic)
		default:
			taskErr = task.Err
		}

		if writerOK && taskErr != nil && firstPipelineErr == nil {
			var pe *PipelineError
			if asPipelineError(taskErr, &pe) {
				firstPipelineErr = pe
			} else {
				firstPipelineErr = NewProcessingError(taskErr)
			}
		}
	}

	switch {
	case writerOK && firstPipelineErr != nil:
		return zero, &RunCompletionError{PipelineErr: firstPipelineErr}
	case writerOK:
		return writerResult, nil
	default:
		return zero, &RunCompletionError{WriterErr: writerErr}
	}
}

func asPipelineError(err error, target **PipelineError) bool {
	pe, ok := err.(*PipelineError)
	if ok {
		*target = pe
	}
	return ok
}
