package mesio

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/srec-dev/srec-go/internal/engine"
	"github.com/srec-dev/srec-go/internal/engine/hlsfetch"
	"github.com/srec-dev/srec-go/internal/hls/classify"
	"github.com/srec-dev/srec-go/internal/hls/continuity"
	"github.com/srec-dev/srec-go/internal/hls/reorder"
	"github.com/srec-dev/srec-go/internal/hls/twitch"
	hlspipeline "github.com/srec-dev/srec-go/internal/pipeline/hls"
	"github.com/srec-dev/srec-go/internal/pipeline/shared"
	"github.com/srec-dev/srec-go/internal/writer"
)

// mpegtsClockHz is the MPEG-TS/PES presentation-time clock rate (90 kHz),
// used to convert a gap-skip's estimated wall-clock span into the PTS/DTS
// ticks a continuity.Repairer shifts subsequent segments by.
const mpegtsClockHz = 90000

// HLSConfig configures an in-process HLS recording run.
type HLSConfig struct {
	engine.Config
	Fetcher        hlsfetch.FetcherConfig
	Chain          hlspipeline.ChainConfig
	Writer         writer.Config
	GapSkip        reorder.Config
	RefreshTimeout time.Duration // falls back to 3*target_duration (min 10s) when 0
	Logger         *slog.Logger
}

type hlsHandle struct {
	events chan engine.SegmentEvent
	cancel context.CancelFunc
	done   chan error
	runID  string
}

func (h *hlsHandle) Events() <-chan engine.SegmentEvent { return h.events }
func (h *hlsHandle) Cancel()                            { h.cancel() }
func (h *hlsHandle) Wait() error                        { return <-h.done }

func (h *hlsHandle) emit(ev engine.SegmentEvent) {
	ev.RunID = h.runID
	select {
	case h.events <- ev:
	default:
		// Events channel is sized for steady-state throughput; a full
		// channel here means the host process has stopped draining it, in
		// which case dropping a progress/lifecycle event is preferable to
		// blocking the poll loop.
	}
}

// RunHLS starts an in-process HLS pipeline: poll playlist -> (Twitch
// sources only) drop the segments the twitch processor tags as ads -> fetch
// segments concurrently -> reorder -> classify -> HLS operator chain ->
// writer.
func RunHLS(ctx context.Context, cfg HLSConfig) engine.Handle {
	ctx, cancel := context.WithCancel(ctx)
	runID := cfg.RunID
	if runID == "" {
		runID = engine.NewRunID()
	}
	h := &hlsHandle{
		events: make(chan engine.SegmentEvent, channelCapacity),
		cancel: cancel,
		done:   make(chan error, 1),
		runID:  runID,
	}
	go h.run(ctx, cfg)
	return h
}

func (h *hlsHandle) run(ctx context.Context, cfg HLSConfig) {
	defer close(h.events)

	sc := shared.NewStreamerContext(ctx).WithName(cfg.BaseName)

	httpClient := &http.Client{Timeout: 30 * time.Second}
	fetcher := hlsfetch.NewFetcher(cfg.Fetcher, cfg.Logger)

	twitchProc := twitch.NewProcessor()
	isTwitch := twitch.IsTwitchPlaylist(cfg.SourceURL)

	chainIn := make(chan hlspipeline.SegmentUnit, channelCapacity)
	chainOut := make(chan hlspipeline.SegmentUnit, channelCapacity)
	errc := make(chan *shared.PipelineError, 1)

	chain := hlspipeline.NewChain(cfg.Chain)
	go chain.Run(sc, chainIn, chainOut, errc)

	writerIn := make(chan writer.Unit, channelCapacity)
	go func() {
		defer close(writerIn)
		for u := range chainOut {
			writerIn <- u
		}
	}()

	w := writer.New(cfg.Writer, writer.Callbacks{
		OnOpen: func(p string, seq int) {
			h.emit(engine.SegmentEvent{Kind: engine.EventOpened, Path: p, Sequence: seq})
		},
		OnClose: func(p string, seq int, durMs int64, bytes int64) {
			h.emit(engine.SegmentEvent{Kind: engine.EventCompleted, Path: p, Sequence: seq, DurationMs: durMs, Bytes: bytes})
		},
		OnProgress: func(ev writer.ProgressEvent) {
			h.emit(engine.SegmentEvent{Kind: engine.EventProgress, Path: ev.Path, Bytes: ev.Bytes, Total: ev.Total})
		},
	}, writer.RateLimit{})

	writerDone := make(chan error, 1)
	go func() {
		_, err := w.Run(sc, writerIn)
		writerDone <- err
	}()

	pollErr := h.pollLoop(ctx, cfg, httpClient, fetcher, twitchProc, isTwitch, chainIn)
	close(chainIn)

	writerErr := <-writerDone

	var pipelineErr *shared.PipelineError
	select {
	case pipelineErr = <-errc:
	default:
	}
	if pollErr != nil && pipelineErr == nil {
		if pollErr == context.Canceled || pollErr == context.DeadlineExceeded {
			pipelineErr = shared.NewCancelledError()
		} else {
			pipelineErr = shared.NewIOError(pollErr)
		}
	}

	_, err := shared.SettleRun(struct{}{}, writerErr, taskResults(pipelineErr))
	if err != nil && !shared.IsCancelled(err) {
		h.emit(engine.SegmentEvent{Kind: engine.EventFailed, FailureKind: engine.FailureNetwork, Message: err.Error()})
	}

	h.done <- err
}

// pollLoop repeatedly fetches and parses the media playlist, dispatches new
// segments to the fetcher, and feeds fetched bytes through the reorder
// state machine into chainIn, until ctx is cancelled or the playlist signals
// EXT-X-ENDLIST.
func (h *hlsHandle) pollLoop(
	ctx context.Context,
	cfg HLSConfig,
	httpClient *http.Client,
	fetcher *hlsfetch.Fetcher,
	twitchProc *twitch.Processor,
	isTwitch bool,
	chainIn chan<- hlspipeline.SegmentUnit,
) error {
	var sm *reorder.StateMachine
	seenInit := make(map[string]bool)
	seenSequence := make(map[uint64]bool)
	repairer := continuity.NewRepairer()

	refresh := cfg.RefreshTimeout
	var targetDuration time.Duration

	for {
		pl, err := fetchPlaylist(ctx, httpClient, cfg.SourceURL)
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Warn("playlist fetch failed", "error", err)
			}
		} else {
			targetDuration = pl.TargetDuration
			h.emit(engine.SegmentEvent{
				Kind:              engine.EventPlaylistRefreshed,
				MediaSequenceBase: pl.MediaSequence,
				TargetDurationMs:  targetDuration.Milliseconds(),
			})
			if refresh == 0 {
				refresh = pl.TargetDuration * 3
				if refresh < 10*time.Second {
					refresh = 10 * time.Second
				}
			}
			if sm == nil {
				gapCfg := cfg.GapSkip
				if gapCfg.SegmentTimeout == 0 {
					gapCfg.SegmentTimeout = refresh
				}
				sm = reorder.New(gapCfg, pl.MediaSequence)
			}

			segments := pl.Segments
			if isTwitch {
				segments = applyTwitchFilter(twitchProc, segments)
			}

			var toFetch []hlsfetch.Segment
			for _, seg := range segments {
				if seenSequence[seg.Sequence] {
					continue
				}
				seenSequence[seg.Sequence] = true
				toFetch = append(toFetch, seg)
			}

			if len(toFetch) > 0 {
				h.fetchAndDeliver(ctx, cfg, fetcher, sm, seenInit, toFetch, chainIn, repairer, targetDuration)
			}

			for _, ev := range sm.Tick(time.Now()) {
				h.deliverReorderEvent(chainIn, ev, repairer, targetDuration)
			}

			if pl.EndList {
				for _, ev := range sm.StreamEnd() {
					h.deliverReorderEvent(chainIn, ev, repairer, targetDuration)
				}
				chainIn <- hlspipeline.SegmentUnit{Terminator: true}
				return nil
			}
		}

		wait := refresh
		if wait <= 0 {
			wait = 10 * time.Second
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func applyTwitchFilter(proc *twitch.Processor, segments []hlsfetch.Segment) []hlsfetch.Segment {
	twSegs := make([]twitch.Segment, len(segments))
	for i, seg := range segments {
		twSegs[i] = twitch.Segment{
			ProgramDateTime: seg.ProgramDateTime,
			Discontinuity:   seg.Discontinuity,
			Title:           seg.Title,
			DaterangeID:     seg.DaterangeID,
			DaterangeClass:  seg.DaterangeClass,
			DaterangeStart:  seg.DaterangeStart,
			DaterangeEnd:    seg.DaterangeEnd,
		}
	}
	processed := proc.ProcessPlaylist(twSegs)

	out := make([]hlsfetch.Segment, 0, len(segments))
	for i, p := range processed {
		if p.IsAd {
			continue
		}
		out = append(out, segments[i])
	}
	return out
}

type fetchedUnit struct {
	seg  hlsfetch.Segment
	data []byte
}

func (h *hlsHandle) fetchAndDeliver(
	ctx context.Context,
	cfg HLSConfig,
	fetcher *hlsfetch.Fetcher,
	sm *reorder.StateMachine,
	seenInit map[string]bool,
	toFetch []hlsfetch.Segment,
	chainIn chan<- hlspipeline.SegmentUnit,
	repairer *continuity.Repairer,
	targetDuration time.Duration,
) {
	for _, seg := range toFetch {
		if seg.MapURI != "" && !seenInit[seg.MapURI] {
			seenInit[seg.MapURI] = true
			if data, err := fetchOnce(ctx, fetcher, seg.MapURI); err == nil {
				chainIn <- hlspipeline.SegmentUnit{
					Kind: classify.Classify(seg.MapURI, data),
					Data: data,
				}
			} else if cfg.Logger != nil {
				cfg.Logger.Warn("init segment fetch failed", "url", seg.MapURI, "error", err)
			}
		}
	}

	results := fetcher.FetchAll(ctx, toFetch)
	for fr := range results {
		if fr.Err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Warn("segment fetch failed", "url", fr.Segment.URI, "error", fr.Err)
			}
			continue
		}
		pdt := time.Time{}
		if fr.Segment.ProgramDateTime != nil {
			pdt = *fr.Segment.ProgramDateTime
		}
		events := sm.Arrive(reorder.Segment{
			Sequence:      fr.Segment.Sequence,
			PDT:           pdt,
			Discontinuity: fr.Segment.Discontinuity,
			Data:          fetchedUnit{seg: fr.Segment, data: fr.Data},
		})
		for _, ev := range events {
			h.deliverReorderEvent(chainIn, ev, repairer, targetDuration)
		}
	}
}

// deliverReorderEvent surfaces every reorder.Event kind to the host and, for
// EventDelivered, turns it into a chain unit, shifting a TS segment's
// timestamps through repairer first if a prior EventGapSkipped recorded an
// offset.
func (h *hlsHandle) deliverReorderEvent(chainIn chan<- hlspipeline.SegmentUnit, ev reorder.Event, repairer *continuity.Repairer, targetDuration time.Duration) {
	switch ev.Kind {
	case reorder.EventGapSkipped:
		skipped := ev.GapTo - ev.GapFrom
		repairer.RecordGap(int64(skipped) * targetDuration.Nanoseconds() * mpegtsClockHz / int64(time.Second))
		h.emit(engine.SegmentEvent{
			Kind:            engine.EventGapSkipped,
			GapFromSequence: ev.GapFrom,
			GapToSequence:   ev.GapTo,
			GapReason:       ev.GapReason.String(),
		})
		return
	case reorder.EventDiscontinuityTagEncountered:
		h.emit(engine.SegmentEvent{Kind: engine.EventDiscontinuityTagEncountered})
		return
	case reorder.EventSegmentTimeout:
		h.emit(engine.SegmentEvent{
			Kind:            engine.EventSegmentTimeout,
			TimeoutSequence: ev.TimeoutSequence,
			WaitedMs:        ev.WaitedDuration.Milliseconds(),
		})
		return
	case reorder.EventStreamEnded:
		h.emit(engine.SegmentEvent{Kind: engine.EventStreamEnded})
		return
	}
	if ev.Kind != reorder.EventDelivered {
		return
	}
	fu, ok := ev.Segment.Data.(fetchedUnit)
	if !ok {
		return
	}
	data := fu.data
	kind := classify.Classify(fu.seg.URI, data)
	if kind == classify.KindTS {
		var out bytes.Buffer
		if err := repairer.Repair(bytes.NewReader(data), &out); err == nil {
			data = out.Bytes()
		}
	}
	chainIn <- hlspipeline.SegmentUnit{
		Kind:          kind,
		Sequence:      fu.seg.Sequence,
		Discontinuity: fu.seg.Discontinuity,
		Data:          data,
		DurationMs:    fu.seg.Duration.Milliseconds(),
	}
}

func fetchOnce(ctx context.Context, fetcher *hlsfetch.Fetcher, segURL string) ([]byte, error) {
	ch := fetcher.FetchAll(ctx, []hlsfetch.Segment{{URI: segURL}})
	fr := <-ch
	return fr.Data, fr.Err
}

func fetchPlaylist(ctx context.Context, client *http.Client, playlistURL string) (*hlsfetch.MediaPlaylist, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, playlistURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	pl, err := hlsfetch.ParseMediaPlaylist(resp.Body)
	if err != nil {
		return nil, err
	}
	resolveRelativeURIs(playlistURL, pl)
	return pl, nil
}

// resolveRelativeURIs rewrites segment and init-segment URIs relative to
// the playlist's own URL, since playlists commonly reference segments by
// filename only.
func resolveRelativeURIs(playlistURL string, pl *hlsfetch.MediaPlaylist) {
	base, err := url.Parse(playlistURL)
	if err != nil {
		return
	}
	resolve := func(ref string) string {
		if ref == "" {
			return ref
		}
		if strings.Contains(ref, "://") {
			return ref
		}
		u, err := base.Parse(ref)
		if err != nil {
			return ref
		}
		return u.String()
	}
	for i := range pl.Segments {
		pl.Segments[i].URI = resolve(pl.Segments[i].URI)
		pl.Segments[i].MapURI = resolve(pl.Segments[i].MapURI)
	}
}
