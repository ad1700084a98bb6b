package metadata

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/streamaggr/streamaggr/internal/cache"
)

// Provider is the upstream catalog client the Service fronts. Client
// satisfies it; tests substitute a fake.
type Provider interface {
	GetMovie(ctx context.Context, id int) (*Title, error)
	GetSeries(ctx context.Context, id int) (*Title, []Season, error)
	GetMovieReleaseDates(ctx context.Context, id int) (*ReleaseDates, error)
	GetEpisodeAirDate(ctx context.Context, tmdbID, season, episode int) (*time.Time, error)
}

// Service is the cache-fronted, circuit-breaker-guarded Metadata Service.
type Service struct {
	provider Provider
	cache    *cache.SingleflightCache
	breaker  *gobreaker.CircuitBreaker[any]
	ttl      time.Duration
	logger   zerolog.Logger
}

// NewService wires a Provider behind the Shared Cache and a circuit
// breaker.
func NewService(provider Provider, backend *cache.SingleflightCache, ttl time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		provider: provider,
		cache:    backend,
		ttl:      ttl,
		logger:   logger.With().Str("component", "metadata-service").Logger(),
		breaker: gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
			Name:        "metadata",
			MaxRequests: 2,
			Interval:    time.Minute,
			Timeout:     90 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.Requests >= 5 && counts.TotalFailures >= 4
			},
		}),
	}
}

// GetMovieTitle resolves a movie's Title, cached by TMDB id.
func (s *Service) GetMovieTitle(ctx context.Context, tmdbID int) (*Title, error) {
	key := cache.BuildKey("metadata", "movie", fmt.Sprintf("%d", tmdbID))
	return cache.GetOrSetJSON(ctx, s.cache, key, s.ttl, func(ctx context.Context) (*Title, error) {
		v, err := s.breaker.Execute(func() (any, error) {
			return s.provider.GetMovie(ctx, tmdbID)
		})
		if err != nil {
			s.logger.Warn().Err(err).Int("tmdbId", tmdbID).Msg("movie metadata fetch failed")
			return nil, err
		}
		return v.(*Title), nil
	})
}

// seriesPayload bundles a series' title and season list for a single cache
// entry, since both come from one upstream call.
type seriesPayload struct {
	Title   *Title
	Seasons []Season
}

// GetSeriesTitle resolves a series' Title and season list, cached by TMDB id.
func (s *Service) GetSeriesTitle(ctx context.Context, tmdbID int) (*Title, []Season, error) {
	key := cache.BuildKey("metadata", "series", fmt.Sprintf("%d", tmdbID))
	payload, err := cache.GetOrSetJSON(ctx, s.cache, key, s.ttl, func(ctx context.Context) (seriesPayload, error) {
		v, err := s.breaker.Execute(func() (any, error) {
			title, seasons, err := s.provider.GetSeries(ctx, tmdbID)
			if err != nil {
				return nil, err
			}
			return seriesPayload{Title: title, Seasons: seasons}, nil
		})
		if err != nil {
			s.logger.Warn().Err(err).Int("tmdbId", tmdbID).Msg("series metadata fetch failed")
			return seriesPayload{}, err
		}
		return v.(seriesPayload), nil
	})
	if err != nil {
		return nil, nil, err
	}
	return payload.Title, payload.Seasons, nil
}

// GetMovieReleaseDates resolves a movie's release dates, cached by TMDB id.
func (s *Service) GetMovieReleaseDates(ctx context.Context, tmdbID int) (*ReleaseDates, error) {
	key := cache.BuildKey("metadata", "release-dates", fmt.Sprintf("%d", tmdbID))
	return cache.GetOrSetJSON(ctx, s.cache, key, s.ttl, func(ctx context.Context) (*ReleaseDates, error) {
		v, err := s.breaker.Execute(func() (any, error) {
			return s.provider.GetMovieReleaseDates(ctx, tmdbID)
		})
		if err != nil {
			s.logger.Warn().Err(err).Int("tmdbId", tmdbID).Msg("release dates fetch failed")
			return nil, err
		}
		return v.(*ReleaseDates), nil
	})
}

// GetEpisodeAirDate resolves one episode's air date, cached by
// tmdbId/season/episode.
func (s *Service) GetEpisodeAirDate(ctx context.Context, tmdbID, season, episode int) (*time.Time, error) {
	key := cache.BuildKey("metadata", "episode-air-date", fmt.Sprintf("%d", tmdbID), fmt.Sprintf("%d", season), fmt.Sprintf("%d", episode))
	return cache.GetOrSetJSON(ctx, s.cache, key, s.ttl, func(ctx context.Context) (*time.Time, error) {
		v, err := s.breaker.Execute(func() (any, error) {
			return s.provider.GetEpisodeAirDate(ctx, tmdbID, season, episode)
		})
		if err != nil {
			s.logger.Warn().Err(err).Int("tmdbId", tmdbID).Int("season", season).Int("episode", episode).Msg("episode air date fetch failed")
			return nil, err
		}
		return v.(*time.Time), nil
	})
}

// AbsoluteEpisode sums episode counts for seasons numbered below the
// requested season, adds episode, then shifts forward by the count of
// nonImdbEpisodes strictly less than the running absolute episode.
func AbsoluteEpisode(seasons []Season, season, episode int, nonImdbEpisodes []int) int {
	absolute := 0
	for _, s := range seasons {
		if s.Number < season {
			absolute += s.EpisodeCount
		}
	}
	absolute += episode

	shift := 0
	for _, e := range nonImdbEpisodes {
		if e < absolute {
			shift++
		}
	}
	return absolute + shift
}
