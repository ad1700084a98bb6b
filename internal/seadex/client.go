package seadex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Provider is the upstream releases.moe-shaped API client the Service
// fronts. Client satisfies it; tests substitute a fake.
type Provider interface {
	GetAniListEntries(ctx context.Context, anilistID int) ([]Release, error)
}

// Release is one SeaDex-tracked torrent entry for an anilist title.
type Release struct {
	InfoHash     string
	ReleaseGroup string
	IsBest       bool
}

// Client is a minimal releases.moe API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     zerolog.Logger
}

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a releases.moe-backed SeaDex client.
func NewClient(cfg ClientConfig, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		logger:     logger.With().Str("component", "seadex-client").Logger(),
	}
}

type seadexEntriesResponse struct {
	Entries []struct {
		IsBest   bool `json:"isBest"`
		Torrents []struct {
			InfoHash     string `json:"infoHash"`
			ReleaseGroup string `json:"releaseGroup"`
		} `json:"torrents"`
	} `json:"entries"`
}

// GetAniListEntries fetches every SeaDex-tracked release for an anilist id.
func (c *Client) GetAniListEntries(ctx context.Context, anilistID int) ([]Release, error) {
	endpoint := fmt.Sprintf("%s/entries?alID=%d", c.baseURL, anilistID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("seadex: API returned %s", resp.Status)
	}

	var out seadexEntriesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}

	var releases []Release
	for _, entry := range out.Entries {
		for _, t := range entry.Torrents {
			if t.InfoHash == "" {
				continue
			}
			releases = append(releases, Release{
				InfoHash:     t.InfoHash,
				ReleaseGroup: t.ReleaseGroup,
				IsBest:       entry.IsBest,
			})
		}
	}
	return releases, nil
}
