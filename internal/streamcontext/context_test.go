package streamcontext

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamaggr/streamaggr/internal/aidb"
	"github.com/streamaggr/streamaggr/internal/idparser"
	"github.com/streamaggr/streamaggr/internal/metadata"
	"github.com/streamaggr/streamaggr/internal/seadex"
	"github.com/streamaggr/streamaggr/internal/stream"
)

type fakeAIDB struct {
	entry *aidb.AnimeEntry
}

func (f *fakeAIDB) GetEntryById(ctx context.Context, source idparser.IdSource, value string, season, episode *int) *aidb.AnimeEntry {
	return f.entry
}

type fakeMetadata struct {
	movieCalls int64
	title      *metadata.Title
	seasons    []metadata.Season
	releases   *metadata.ReleaseDates
	airDate    *time.Time
	err        error
}

func (f *fakeMetadata) GetMovieTitle(ctx context.Context, tmdbID int) (*metadata.Title, error) {
	atomic.AddInt64(&f.movieCalls, 1)
	return f.title, f.err
}
func (f *fakeMetadata) GetSeriesTitle(ctx context.Context, tmdbID int) (*metadata.Title, []metadata.Season, error) {
	return f.title, f.seasons, f.err
}
func (f *fakeMetadata) GetMovieReleaseDates(ctx context.Context, tmdbID int) (*metadata.ReleaseDates, error) {
	return f.releases, f.err
}
func (f *fakeMetadata) GetEpisodeAirDate(ctx context.Context, tmdbID, season, episode int) (*time.Time, error) {
	return f.airDate, f.err
}

type fakeSeaDex struct {
	calls int64
	info  *seadex.Info
	err   error
}

func (f *fakeSeaDex) GetSeaDexInfoHashes(ctx context.Context, anilistID int) (*seadex.Info, error) {
	atomic.AddInt64(&f.calls, 1)
	return f.info, f.err
}

func boolPtr(b bool) *bool { return &b }

func TestMetadataFetch_AtMostOnceAcrossConcurrentGetters(t *testing.T) {
	fm := &fakeMetadata{title: &metadata.Title{Title: "Arrival", Year: 2016}}
	c := New(context.Background(), Config{
		Type:     QueryMovie,
		ID:       "tmdb:329865",
		UserData: &stream.UserData{TitleMatching: true},
		Metadata: fm,
		Logger:   zerolog.Nop(),
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			title, err := c.MetadataTitle()
			assert.NoError(t, err)
			assert.NotNil(t, title)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&fm.movieCalls))
}

func TestMetadataFetch_GatedOutWhenNothingNeedsIt(t *testing.T) {
	fm := &fakeMetadata{title: &metadata.Title{Title: "Arrival"}}
	c := New(context.Background(), Config{
		Type:     QueryMovie,
		ID:       "tmdb:329865",
		UserData: &stream.UserData{},
		Metadata: fm,
		Logger:   zerolog.Nop(),
	})

	title, err := c.MetadataTitle()
	require.NoError(t, err)
	assert.Nil(t, title)
	assert.Equal(t, int64(0), atomic.LoadInt64(&fm.movieCalls))
}

func TestMetadataFetch_GatedInByExpressionReference(t *testing.T) {
	fm := &fakeMetadata{title: &metadata.Title{Title: "Arrival"}}
	c := New(context.Background(), Config{
		Type:     QueryMovie,
		ID:       "tmdb:329865",
		UserData: &stream.UserData{ExcludedStreamExpressions: []string{`year < 2000`}},
		Metadata: fm,
		Logger:   zerolog.Nop(),
	})

	title, err := c.MetadataTitle()
	require.NoError(t, err)
	require.NotNil(t, title)
	assert.Equal(t, int64(1), atomic.LoadInt64(&fm.movieCalls))
}

func TestSeaDexFetch_SkippedWhenDisabledOrNotAnime(t *testing.T) {
	fs := &fakeSeaDex{info: &seadex.Info{}}

	// Not anime: no AIDB entry resolved.
	c := New(context.Background(), Config{
		Type:   QuerySeries,
		ID:     "tt0903747:1:1",
		SeaDex: fs,
		Logger: zerolog.Nop(),
	})
	_, err := c.SeaDexInfo()
	require.NoError(t, err)
	assert.Equal(t, int64(0), atomic.LoadInt64(&fs.calls))

	// Anime, but explicitly disabled.
	c = New(context.Background(), Config{
		Type:     QuerySeries,
		ID:       "anilist:5114",
		UserData: &stream.UserData{EnableSeadex: boolPtr(false)},
		AIDB:     &fakeAIDB{entry: &aidb.AnimeEntry{AniListIDStr: "5114"}},
		SeaDex:   fs,
		Logger:   zerolog.Nop(),
	})
	_, err = c.SeaDexInfo()
	require.NoError(t, err)
	assert.Equal(t, int64(0), atomic.LoadInt64(&fs.calls))
}

func TestSeaDexFetch_RunsForAnimeWithAniListId(t *testing.T) {
	fs := &fakeSeaDex{info: &seadex.Info{AllHashes: map[string]struct{}{"aaaa": {}}}}
	c := New(context.Background(), Config{
		Type:   QuerySeries,
		ID:     "anilist:5114:1:1",
		AIDB:   &fakeAIDB{entry: &aidb.AnimeEntry{AniListIDStr: "5114"}},
		SeaDex: fs,
		Logger: zerolog.Nop(),
	})

	info, err := c.SeaDexInfo()
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.True(t, info.HasHash("AAAA"))
	assert.Equal(t, int64(1), atomic.LoadInt64(&fs.calls))
	assert.Equal(t, "anime.series", c.QueryTypeString())
}

func TestFailedFetch_YieldsNilValueNotPanic(t *testing.T) {
	fm := &fakeMetadata{err: context.DeadlineExceeded}
	c := New(context.Background(), Config{
		Type:     QueryMovie,
		ID:       "tmdb:603",
		UserData: &stream.UserData{TitleMatching: true},
		Metadata: fm,
		Logger:   zerolog.Nop(),
	})

	title, err := c.MetadataTitle()
	assert.Nil(t, title)
	assert.Error(t, err)

	// The expression view still materializes, with nil metadata fields.
	view := c.ToExpressionContext()
	assert.Nil(t, view["title"])
	assert.Nil(t, view["year"])
}

func TestToExpressionContext_MovieFields(t *testing.T) {
	tenDaysAgo := time.Now().Add(-10 * 24 * time.Hour)
	fiveDaysAgo := time.Now().Add(-5 * 24 * time.Hour)
	fm := &fakeMetadata{
		title: &metadata.Title{
			Title:            "Arrival",
			Titles:           []string{"Arrival"},
			Year:             2016,
			Genres:           []string{"Drama", "Science Fiction"},
			Runtime:          116,
			OriginalLanguage: "en",
		},
		releases: &metadata.ReleaseDates{Theatrical: &tenDaysAgo, Digital: &fiveDaysAgo},
	}
	c := New(context.Background(), Config{
		Type:     QueryMovie,
		ID:       "tmdb:329865",
		UserData: &stream.UserData{TitleMatching: true},
		Metadata: fm,
		Logger:   zerolog.Nop(),
	})

	view := c.ToExpressionContext()
	assert.Equal(t, "movie", view["type"])
	assert.Equal(t, "movie", view["queryType"])
	assert.Equal(t, false, view["isAnime"])
	assert.Equal(t, "Arrival", view["title"])
	assert.Equal(t, 2016, view["year"])
	assert.Equal(t, "English", view["originalLanguage"])
	// Theatrical preferred over digital as the canonical release date.
	assert.Equal(t, 10, view["daysSinceRelease"])
}

func TestToExpressionContext_SeriesAirDateDrivesDaysSinceRelease(t *testing.T) {
	threeDaysAgo := time.Now().Add(-3 * 24 * time.Hour)
	fm := &fakeMetadata{
		title:   &metadata.Title{Title: "Breaking Bad"},
		airDate: &threeDaysAgo,
	}
	c := New(context.Background(), Config{
		Type:     QuerySeries,
		ID:       "tmdb:1396:5:14",
		UserData: &stream.UserData{TitleMatching: true},
		Metadata: fm,
		Logger:   zerolog.Nop(),
	})

	view := c.ToExpressionContext()
	assert.Equal(t, 3, view["daysSinceRelease"])
	assert.Equal(t, 5, view["season"])
	assert.Equal(t, 14, view["episode"])
}

func TestSnapshot_ReportsSlotStatesWithoutBlocking(t *testing.T) {
	fm := &fakeMetadata{title: &metadata.Title{Title: "Arrival"}}
	c := New(context.Background(), Config{
		Type:     QueryMovie,
		ID:       "tmdb:329865",
		UserData: &stream.UserData{TitleMatching: true},
		Metadata: fm,
		Logger:   zerolog.Nop(),
	})

	snap := c.Snapshot()
	assert.Equal(t, SlotPending, snap.Metadata)

	_, _ = c.MetadataTitle()
	snap = c.Snapshot()
	assert.Equal(t, SlotResolved, snap.Metadata)
	assert.True(t, snap.NeedMetadata)
}
