package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrAPIKeyMissing = errors.New("metadata: TMDB API key is not configured")
	ErrNotFound      = errors.New("metadata: not found")
)

// Client is a minimal TMDB-shaped API client.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	logger     zerolog.Logger
}

// ClientConfig configures a Client.
type ClientConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a TMDB-backed metadata client.
func NewClient(cfg ClientConfig, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		logger:     logger.With().Str("component", "metadata-client").Logger(),
	}
}

// IsConfigured reports whether the API key is set.
func (c *Client) IsConfigured() bool { return c.apiKey != "" }

type tmdbMovieResponse struct {
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
	Genres      []struct {
		Name string `json:"name"`
	} `json:"genres"`
	Runtime          int    `json:"runtime"`
	OriginalLanguage string `json:"original_language"`
}

type tmdbSeriesResponse struct {
	Name         string `json:"name"`
	FirstAirDate string `json:"first_air_date"`
	LastAirDate  string `json:"last_air_date"`
	Genres       []struct {
		Name string `json:"name"`
	} `json:"genres"`
	EpisodeRunTime   []int  `json:"episode_run_time"`
	OriginalLanguage string `json:"original_language"`
	Seasons          []struct {
		SeasonNumber int `json:"season_number"`
		EpisodeCount int `json:"episode_count"`
	} `json:"seasons"`
}

type tmdbReleaseDatesResponse struct {
	Results []struct {
		ISO31661     string `json:"iso_3166_1"`
		ReleaseDates []struct {
			Type        int    `json:"type"`
			ReleaseDate string `json:"release_date"`
		} `json:"release_dates"`
	} `json:"results"`
}

// GetMovie fetches a movie's title/year/genres/runtime by TMDB id.
func (c *Client) GetMovie(ctx context.Context, id int) (*Title, error) {
	var resp tmdbMovieResponse
	if err := c.doRequest(ctx, fmt.Sprintf("%s/movie/%d", c.baseURL, id), nil, &resp); err != nil {
		return nil, err
	}
	year, _ := parseYear(resp.ReleaseDate)
	return &Title{
		Title:            resp.Title,
		Titles:           []string{resp.Title},
		Year:             year,
		Genres:           genreNames(resp.Genres),
		Runtime:          resp.Runtime,
		OriginalLanguage: resp.OriginalLanguage,
		TMDBID:           id,
	}, nil
}

// GetSeries fetches a series' title/year/genres/seasons by TMDB id.
func (c *Client) GetSeries(ctx context.Context, id int) (*Title, []Season, error) {
	var resp tmdbSeriesResponse
	if err := c.doRequest(ctx, fmt.Sprintf("%s/tv/%d", c.baseURL, id), nil, &resp); err != nil {
		return nil, nil, err
	}
	year, _ := parseYear(resp.FirstAirDate)
	yearEnd, _ := parseYear(resp.LastAirDate)
	runtime := 0
	if len(resp.EpisodeRunTime) > 0 {
		runtime = resp.EpisodeRunTime[0]
	}
	title := &Title{
		Title:            resp.Name,
		Titles:           []string{resp.Name},
		Year:             year,
		YearEnd:          yearEnd,
		Genres:           genreNames(resp.Genres),
		Runtime:          runtime,
		OriginalLanguage: resp.OriginalLanguage,
		TMDBID:           id,
	}
	seasons := make([]Season, 0, len(resp.Seasons))
	for _, s := range resp.Seasons {
		seasons = append(seasons, Season{Number: s.SeasonNumber, EpisodeCount: s.EpisodeCount})
	}
	return title, seasons, nil
}

// GetMovieReleaseDates fetches a movie's digital/physical/theatrical dates.
func (c *Client) GetMovieReleaseDates(ctx context.Context, id int) (*ReleaseDates, error) {
	var resp tmdbReleaseDatesResponse
	if err := c.doRequest(ctx, fmt.Sprintf("%s/movie/%d/release_dates", c.baseURL, id), nil, &resp); err != nil {
		return nil, err
	}

	out := &ReleaseDates{}
	for _, country := range resp.Results {
		if country.ISO31661 != "US" {
			continue
		}
		for _, rd := range country.ReleaseDates {
			t, err := time.Parse(time.RFC3339, rd.ReleaseDate)
			if err != nil {
				continue
			}
			switch rd.Type {
			case 4: // digital
				out.Digital = &t
			case 5: // physical
				out.Physical = &t
			case 3: // theatrical
				out.Theatrical = &t
			}
		}
	}
	return out, nil
}

type tmdbEpisodeResponse struct {
	AirDate string `json:"air_date"`
}

// GetEpisodeAirDate fetches one episode's air date by tmdbId/season/episode.
func (c *Client) GetEpisodeAirDate(ctx context.Context, tmdbID, season, episode int) (*time.Time, error) {
	var resp tmdbEpisodeResponse
	endpoint := fmt.Sprintf("%s/tv/%d/season/%d/episode/%d", c.baseURL, tmdbID, season, episode)
	if err := c.doRequest(ctx, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	t, err := time.Parse("2006-01-02", resp.AirDate)
	if err != nil {
		return nil, fmt.Errorf("metadata: no air date for episode: %w", err)
	}
	return &t, nil
}

func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	if !c.IsConfigured() {
		return ErrAPIKeyMissing
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("metadata: TMDB API returned %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func genreNames(genres []struct {
	Name string `json:"name"`
}) []string {
	names := make([]string, 0, len(genres))
	for _, g := range genres {
		names = append(names, g.Name)
	}
	return names
}

func parseYear(date string) (int, error) {
	if len(date) < 4 {
		return 0, errors.New("metadata: no year in date")
	}
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 0, err
	}
	return t.Year(), nil
}
