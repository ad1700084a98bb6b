package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/streamaggr/streamaggr/internal/expression"
	"github.com/streamaggr/streamaggr/internal/stream"
	"github.com/streamaggr/streamaggr/internal/streamcontext"
)

// Fetcher fans out to enabled addons and collects their candidate streams.
type Fetcher interface {
	Fetch(ctx context.Context, c *streamcontext.Context, userData *stream.UserData) ([]*stream.ParsedStream, error)
}

// Pipeline orchestrates the six ordered stages over one request's streams.
type Pipeline struct {
	fetcher Fetcher
	engine  *expression.Engine
	logger  zerolog.Logger
}

// New constructs a Pipeline. A nil engine allocates a fresh one.
func New(fetcher Fetcher, engine *expression.Engine, logger zerolog.Logger) *Pipeline {
	if engine == nil {
		engine = expression.NewEngine()
	}
	return &Pipeline{
		fetcher: fetcher,
		engine:  engine,
		logger:  logger.With().Str("component", "pipeline").Logger(),
	}
}

// Result is the pipeline's per-request outcome.
type Result struct {
	Streams []*stream.ParsedStream
	// Degraded is set when the Fetcher returned no streams: the request
	// still returns an empty list with a status message rather than an
	// error. No cached result is consulted.
	Degraded bool
	Message  string
}

// Run executes Fetch -> precompute-SeaDex -> Filter -> precompute-preferred
// /ranked -> Sort -> Deduplicate, in that exact order.
func (p *Pipeline) Run(ctx context.Context, sc *streamcontext.Context, userData *stream.UserData) Result {
	stageStart := time.Now()
	streams, err := p.fetcher.Fetch(ctx, sc, userData)
	p.logStage("fetch", -1, len(streams), stageStart)
	if err != nil {
		p.logger.Warn().Err(err).Msg("fetcher returned an error")
	}
	if len(streams) == 0 {
		return Result{Degraded: true, Message: "no streams returned by any addon"}
	}

	info, _ := sc.SeaDexInfo()

	stageStart = time.Now()
	streams = precomputeSeaDex(streams, info)
	p.logStage("precompute-seadex", len(streams), len(streams), stageStart)

	ctxView := sc.ToExpressionContext()

	stageStart = time.Now()
	in := len(streams)
	streams = p.filter(streams, userData, ctxView)
	p.logStage("filter", in, len(streams), stageStart)

	stageStart = time.Now()
	streams = p.precomputePreferred(streams, userData, ctxView)
	p.logStage("precompute-preferred", len(streams), len(streams), stageStart)

	stageStart = time.Now()
	streams = p.precomputeRanked(streams, userData, ctxView)
	p.logStage("precompute-ranked", len(streams), len(streams), stageStart)

	stageStart = time.Now()
	sortStreams(streams, userData.SortCriteria.Global, userData.PreferredResolutions)
	p.logStage("sort", len(streams), len(streams), stageStart)

	stageStart = time.Now()
	in = len(streams)
	streams = deduplicate(streams, userData.Deduplicator)
	p.logStage("deduplicate", in, len(streams), stageStart)

	return Result{Streams: streams}
}

func (p *Pipeline) logStage(name string, in, out int, start time.Time) {
	ev := p.logger.Debug().Str("stage", name).Int("out", out).Dur("elapsed", time.Since(start))
	if in >= 0 {
		ev = ev.Int("in", in)
	}
	ev.Msg("pipeline stage completed")
}
