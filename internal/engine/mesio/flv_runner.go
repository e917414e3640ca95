package mesio

import (
	"context"
	"io"
	"log/slog"

	"github.com/srec-dev/srec-go/internal/container/flv"
	"github.com/srec-dev/srec-go/internal/engine"
	"github.com/srec-dev/srec-go/internal/engine/flvread"
	flvpipeline "github.com/srec-dev/srec-go/internal/pipeline/flv"
	"github.com/srec-dev/srec-go/internal/pipeline/shared"
	"github.com/srec-dev/srec-go/internal/writer"
)

const channelCapacity = 32

// FLVConfig configures an in-process FLV recording run.
type FLVConfig struct {
	engine.Config
	Chain  flvpipeline.ChainConfig
	Writer writer.Config
	Logger *slog.Logger
}

// flvHandle implements engine.Handle for an in-process FLV run reading
// from an arbitrary io.Reader (an already-connected HTTP body or file).
type flvHandle struct {
	events chan engine.SegmentEvent
	cancel context.CancelFunc
	done   chan error
	runID  string
}

func (h *flvHandle) Events() <-chan engine.SegmentEvent { return h.events }
func (h *flvHandle) Cancel()                            { h.cancel() }
func (h *flvHandle) Wait() error                        { return <-h.done }

// RunFLV starts an in-process FLV pipeline over src: flvread -> operator
// chain -> writer, bridging writer callbacks into engine.SegmentEvent.
func RunFLV(ctx context.Context, src io.Reader, cfg FLVConfig) engine.Handle {
	ctx, cancel := context.WithCancel(ctx)
	runID := cfg.RunID
	if runID == "" {
		runID = engine.NewRunID()
	}
	h := &flvHandle{
		events: make(chan engine.SegmentEvent, channelCapacity),
		cancel: cancel,
		done:   make(chan error, 1),
		runID:  runID,
	}

	go h.run(ctx, src, cfg)
	return h
}

func (h *flvHandle) run(ctx context.Context, src io.Reader, cfg FLVConfig) {
	defer close(h.events)

	sc := shared.NewStreamerContext(ctx).WithName(cfg.BaseName)

	rawIn := make(chan flv.Data, channelCapacity)
	chainOut := make(chan flv.Data, channelCapacity)
	errc := make(chan *shared.PipelineError, 1)

	go func() {
		defer close(rawIn)
		r := flvread.New(src)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			d, err := r.Next()
			if err != nil {
				if err != io.EOF {
					select {
					case errc <- shared.NewIOError(err):
					default:
					}
				}
				return
			}
			select {
			case rawIn <- d:
			case <-ctx.Done():
				return
			}
		}
	}()

	chain := flvpipeline.NewChain(cfg.Chain)
	go chain.Run(sc, rawIn, chainOut, errc)

	writerIn := make(chan writer.Unit, channelCapacity)
	go func() {
		defer close(writerIn)
		for d := range chainOut {
			writerIn <- flvUnit{data: d}
		}
	}()

	w := writer.New(cfg.Writer, writer.Callbacks{
		OnOpen: func(path string, seq int) {
			h.emit(engine.SegmentEvent{Kind: engine.EventOpened, Path: path, Sequence: seq})
		},
		OnClose: func(path string, seq int, durMs int64, bytes int64) {
			h.emit(engine.SegmentEvent{Kind: engine.EventCompleted, Path: path, Sequence: seq, DurationMs: durMs, Bytes: bytes})
		},
		OnProgress: func(ev writer.ProgressEvent) {
			h.emit(engine.SegmentEvent{Kind: engine.EventProgress, Path: ev.Path, Bytes: ev.Bytes, Total: ev.Total})
		},
	}, writer.RateLimit{})

	_, writerErr := w.Run(sc, writerIn)

	var pipelineErr *shared.PipelineError
	select {
	case pipelineErr = <-errc:
	default:
	}

	runErr, err := shared.SettleRun(struct{}{}, writerErr, taskResults(pipelineErr))
	_ = runErr

	if err != nil && !shared.IsCancelled(err) {
		h.emit(engine.SegmentEvent{Kind: engine.EventFailed, FailureKind: engine.FailureInvalidData, Message: err.Error()})
	}
	if cfg.Logger != nil && err != nil {
		cfg.Logger.Warn("flv run ended with error", "error", err)
	}

	h.done <- err
}

func taskResults(pipelineErr *shared.PipelineError) []shared.TaskResult {
	if pipelineErr == nil {
		return nil
	}
	return []shared.TaskResult{{Err: pipelineErr}}
}

func (h *flvHandle) emit(ev engine.SegmentEvent) {
	ev.RunID = h.runID
	select {
	case h.events <- ev:
	default:
		// Events channel is sized for steady-state throughput; a full
		// channel here means the host process has stopped draining it, in
		// which case dropping a progress/lifecycle event is preferable to
		// blocking the writer loop.
	}
}
