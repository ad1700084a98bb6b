package metadata

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamaggr/streamaggr/internal/cache"
)

type fakeProvider struct {
	movieCalls int64
	title      *Title
	seasons    []Season
	err        error
}

func (f *fakeProvider) GetMovie(ctx context.Context, id int) (*Title, error) {
	atomic.AddInt64(&f.movieCalls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return f.title, nil
}
func (f *fakeProvider) GetSeries(ctx context.Context, id int) (*Title, []Season, error) {
	return f.title, f.seasons, f.err
}
func (f *fakeProvider) GetMovieReleaseDates(ctx context.Context, id int) (*ReleaseDates, error) {
	return &ReleaseDates{}, f.err
}
func (f *fakeProvider) GetEpisodeAirDate(ctx context.Context, tmdbID, season, episode int) (*time.Time, error) {
	return nil, f.err
}

func newTestService(p Provider) *Service {
	backend := cache.NewSingleflightCache(cache.NewMemoryCache(cache.DefaultMemoryCacheConfig()), time.Minute)
	return NewService(p, backend, time.Minute, zerolog.Nop())
}

func TestGetMovieTitle_CachesAcrossCalls(t *testing.T) {
	fp := &fakeProvider{title: &Title{Title: "Arrival", Year: 2016}}
	svc := newTestService(fp)

	title1, err := svc.GetMovieTitle(context.Background(), 329865)
	require.NoError(t, err)
	assert.Equal(t, "Arrival", title1.Title)

	title2, err := svc.GetMovieTitle(context.Background(), 329865)
	require.NoError(t, err)
	assert.Equal(t, "Arrival", title2.Title)

	assert.Equal(t, int64(1), atomic.LoadInt64(&fp.movieCalls))
}

func TestGetSeriesTitle_ReturnsTitleAndSeasons(t *testing.T) {
	fp := &fakeProvider{
		title:   &Title{Title: "Cowboy Bebop"},
		seasons: []Season{{Number: 1, EpisodeCount: 26}},
	}
	svc := newTestService(fp)

	title, seasons, err := svc.GetSeriesTitle(context.Background(), 30991)
	require.NoError(t, err)
	assert.Equal(t, "Cowboy Bebop", title.Title)
	require.Len(t, seasons, 1)
	assert.Equal(t, 26, seasons[0].EpisodeCount)
}

func TestAbsoluteEpisode_SumsPriorSeasonsAndShiftsForNonImdb(t *testing.T) {
	seasons := []Season{
		{Number: 1, EpisodeCount: 12},
		{Number: 2, EpisodeCount: 12},
	}
	// season 2, episode 3 -> absolute = 12 + 3 = 15, then shift by episodes
	// strictly less than 15 in nonImdbEpisodes.
	abs := AbsoluteEpisode(seasons, 2, 3, []int{5, 20})
	assert.Equal(t, 16, abs)
}

func TestAbsoluteEpisode_NoShiftWhenNoNonImdbBelow(t *testing.T) {
	seasons := []Season{{Number: 1, EpisodeCount: 12}}
	abs := AbsoluteEpisode(seasons, 1, 3, nil)
	assert.Equal(t, 3, abs)
}
