package pipeline

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamaggr/streamaggr/internal/aidb"
	"github.com/streamaggr/streamaggr/internal/idparser"
	"github.com/streamaggr/streamaggr/internal/seadex"
	"github.com/streamaggr/streamaggr/internal/stream"
	"github.com/streamaggr/streamaggr/internal/streamcontext"
)

type fakeFetcher struct {
	streams []*stream.ParsedStream
	err     error
}

func (f *fakeFetcher) Fetch(ctx context.Context, c *streamcontext.Context, ud *stream.UserData) ([]*stream.ParsedStream, error) {
	return f.streams, f.err
}

func TestPipelineRun_SimpleMovieByIMDb(t *testing.T) {
	a := &stream.ParsedStream{ID: "A", ParsedFile: &stream.ParsedFile{Resolution: "1080p", Quality: "BluRay"}, Service: &stream.ServiceInfo{ID: "x", Cached: true}, Size: 2 << 30}
	b := &stream.ParsedStream{ID: "B", ParsedFile: &stream.ParsedFile{Resolution: "720p", Quality: "WEB-DL"}, Service: &stream.ServiceInfo{ID: "x", Cached: false}, Size: 1 << 30}

	fetcher := &fakeFetcher{streams: []*stream.ParsedStream{a, b}}
	pipe := New(fetcher, nil, zerolog.Nop())

	sc := streamcontext.New(context.Background(), streamcontext.Config{
		Type: streamcontext.QueryMovie,
		ID:   "tt0111161",
	})

	ud := &stream.UserData{
		ExcludedQualities: []string{"CAM"},
		SortCriteria: struct {
			Global []stream.SortCriterion
		}{Global: []stream.SortCriterion{
			{Key: stream.SortCached, Direction: stream.SortDesc},
			{Key: stream.SortResolution, Direction: stream.SortDesc},
		}},
	}

	result := pipe.Run(context.Background(), sc, ud)
	require.False(t, result.Degraded)
	require.Len(t, result.Streams, 2)
	assert.Equal(t, "A", result.Streams[0].ID)
	assert.Equal(t, "B", result.Streams[1].ID)
	assert.Nil(t, result.Streams[0].SeaDex)
	assert.Nil(t, result.Streams[1].SeaDex)
}

type fakeAIDB struct {
	entry *aidb.AnimeEntry
}

func (f *fakeAIDB) GetEntryById(ctx context.Context, source idparser.IdSource, value string, season, episode *int) *aidb.AnimeEntry {
	return f.entry
}

type fakeSeaDexSvc struct {
	info *seadex.Info
}

func (f *fakeSeaDexSvc) GetSeaDexInfoHashes(ctx context.Context, anilistID int) (*seadex.Info, error) {
	return f.info, nil
}

func TestPipelineRun_AnimeSeaDexTaggingAndScoring(t *testing.T) {
	best := &stream.ParsedStream{ID: "best", Torrent: &stream.TorrentInfo{InfoHash: "aaaa"}, ParsedFile: &stream.ParsedFile{Resolution: "1080p"}}
	other := &stream.ParsedStream{ID: "other", Torrent: &stream.TorrentInfo{InfoHash: "ffff"}, ParsedFile: &stream.ParsedFile{Resolution: "1080p"}}

	fetcher := &fakeFetcher{streams: []*stream.ParsedStream{other, best}}
	pipe := New(fetcher, nil, zerolog.Nop())

	ud := &stream.UserData{
		RankedStreamExpressions: []stream.RankedExpression{{Expression: `seadex()`, Score: 100}},
	}
	sc := streamcontext.New(context.Background(), streamcontext.Config{
		Type:     streamcontext.QuerySeries,
		ID:       "anilist:5114:1:1",
		UserData: ud,
		AIDB:     &fakeAIDB{entry: &aidb.AnimeEntry{AniListIDStr: "5114"}},
		SeaDex: &fakeSeaDexSvc{info: &seadex.Info{
			BestHashes: map[string]struct{}{"aaaa": {}},
			AllHashes:  map[string]struct{}{"aaaa": {}},
		}},
		Logger: zerolog.Nop(),
	})

	result := pipe.Run(context.Background(), sc, ud)
	require.Len(t, result.Streams, 2)

	byID := map[string]*stream.ParsedStream{}
	for _, s := range result.Streams {
		byID[s.ID] = s
	}

	require.NotNil(t, byID["best"].SeaDex)
	assert.True(t, byID["best"].SeaDex.IsBest)
	require.NotNil(t, byID["best"].StreamExpressionScore)
	assert.Equal(t, float64(100), *byID["best"].StreamExpressionScore)

	assert.Nil(t, byID["other"].SeaDex)
	assert.Nil(t, byID["other"].StreamExpressionScore)
}

func TestPipelineRun_NoStreamsIsDegradedNotError(t *testing.T) {
	fetcher := &fakeFetcher{streams: nil}
	pipe := New(fetcher, nil, zerolog.Nop())
	sc := streamcontext.New(context.Background(), streamcontext.Config{Type: streamcontext.QueryMovie, ID: "tt0000000"})

	result := pipe.Run(context.Background(), sc, &stream.UserData{})
	assert.True(t, result.Degraded)
	assert.NotEmpty(t, result.Message)
}
