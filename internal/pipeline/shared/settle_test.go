package shared

import (
	"errors"
	"testing"
)

func TestSettleRunPipelineErrorWhenWriterSucceeds(t *testing.T) {
	tasks := []TaskResult{{Err: NewStrategyError(errors.New("pipeline failed"))}}

	_, err := SettleRun(42, nil, tasks)
	var completion *RunCompletionError
	if !errors.As(err, &completion) {
		t.Fatalf("expected *RunCompletionError, got %T: %v", err, err)
	}
	if completion.FromWriter() {
		t.Fatal("expected pipeline-originated error, got writer error")
	}
	if completion.PipelineErr.Err.Error() != "pipeline failed" {
		t.Fatalf("unexpected pipeline error: %v", completion.PipelineErr)
	}
}

func TestSettleRunPrioritizesWriterError(t *testing.T) {
	tasks := []TaskResult{{Err: NewStrategyError(errors.New("pipeline failed"))}}

	_, err := SettleRun(0, errors.New("writer failed"), tasks)
	var completion *RunCompletionError
	if !errors.As(err, &completion) {
		t.Fatalf("expected *RunCompletionError, got %T: %v", err, err)
	}
	if !completion.FromWriter() {
		t.Fatal("expected writer-originated error")
	}
	if completion.WriterErr.Error() != "writer failed" {
		t.Fatalf("unexpected writer error: %v", completion.WriterErr)
	}
}

func TestSettleRunAllSucceed(t *testing.T) {
	got, err := SettleRun(7, nil, []TaskResult{{}, {}})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if got != 7 {
		t.Fatalf("expected writer output 7, got %d", got)
	}
}

func TestSettleRunTaskPanicSurfacesAsStrategy(t *testing.T) {
	tasks := []TaskResult{{Panic: "boom"}}

	_, err := SettleRun(1, nil, tasks)
	var completion *RunCompletionError
	if !errors.As(err, &completion) {
		t.Fatalf("expected *RunCompletionError, got %T: %v", err, err)
	}
	if completion.PipelineErr.Kind != KindStrategy {
		t.Fatalf("expected KindStrategy, got %v", completion.PipelineErr.Kind)
	}
}

func TestSettleRunFirstPipelineErrorWins(t *testing.T) {
	tasks := []TaskResult{
		{Err: NewProcessingError(errors.New("first"))},
		{Err: NewProcessingError(errors.New("second"))},
	}

	_, err := SettleRun(1, nil, tasks)
	var completion *RunCompletionError
	if !errors.As(err, &completion) {
		t.Fatalf("expected *RunCompletionError, got %T: %v", err, err)
	}
	if completion.PipelineErr.Err.Error() != "first" {
		t.Fatalf("expected first pipeline error to win, got %v", completion.PipelineErr.Err)
	}
}
