package aidb

import (
	"context"
	"encoding/json"
	"os"
)

type anitraktSeasonRecord struct {
	ID        int `json:"id"`
	Number    int `json:"number"`
	Externals struct {
		TVDB *int `json:"tvdb,omitempty"`
		TMDB *int `json:"tmdb,omitempty"`
	} `json:"externals"`
}

type anitraktRecord struct {
	MALID string `json:"mal_id"`
	Trakt struct {
		ID          int                   `json:"id"`
		Slug        string                `json:"slug"`
		Title       string                `json:"title"`
		IsSplitCour bool                  `json:"isSplitCour,omitempty"`
		Season      *anitraktSeasonRecord `json:"season,omitempty"`
	} `json:"trakt"`
	Externals struct {
		TVDB string `json:"tvdb,omitempty"`
		TMDB string `json:"tmdb,omitempty"`
		IMDb string `json:"imdb,omitempty"`
	} `json:"externals"`
	ReleaseYear int `json:"releaseYear,omitempty"`
}

// anitraktIndex is {malId -> AnitraktEntry}, built separately for the movie
// and tv corpora and kept as two indices; when a malId appears in both,
// GetEntryById uses the tv entry.
type anitraktIndex map[string]*AnitraktEntry

// loadAnitrakt reads one Anitrakt corpus file (movie or tv variant — the
// shape is identical, only the source file differs).
func loadAnitrakt(ctx context.Context, path string) (anitraktIndex, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []anitraktRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}

	idx := anitraktIndex{}
	for _, r := range records {
		if r.MALID == "" {
			continue // ValidationRejected
		}
		entry := &AnitraktEntry{
			MALID: r.MALID,
			Trakt: AnitraktTrakt{
				ID:          r.Trakt.ID,
				Slug:        r.Trakt.Slug,
				Title:       r.Trakt.Title,
				IsSplitCour: r.Trakt.IsSplitCour,
			},
			Externals: AnitraktExternals{
				TVDB: r.Externals.TVDB,
				TMDB: r.Externals.TMDB,
				IMDb: r.Externals.IMDb,
			},
			ReleaseYear: r.ReleaseYear,
		}
		if r.Trakt.Season != nil {
			entry.Trakt.Season = &AnitraktSeason{
				ID:     r.Trakt.Season.ID,
				Number: r.Trakt.Season.Number,
				Externals: AnitraktSeasonExternals{
					TVDB: r.Trakt.Season.Externals.TVDB,
					TMDB: r.Trakt.Season.Externals.TMDB,
				},
			}
		}
		idx[r.MALID] = entry
	}
	return idx, nil
}
