package aidb

import (
	"context"
	"encoding/json"
	"os"
)

type kitsuImdbRecord struct {
	KitsuID         string `json:"kitsu_id"`
	TVDBID          string `json:"tvdb_id,omitempty"`
	IMDbID          string `json:"imdb_id,omitempty"`
	Title           string `json:"title,omitempty"`
	FromSeason      *int   `json:"fromSeason,omitempty"`
	FromEpisode     *int   `json:"fromEpisode,omitempty"`
	NonImdbEpisodes []int  `json:"nonImdbEpisodes,omitempty"`
	FanartLogoID    string `json:"fanartLogoId,omitempty"`
}

// kitsuImdbIndex is {kitsuId -> KitsuImdbEntry}.
type kitsuImdbIndex map[string]*KitsuImdbEntry

// loadKitsuImdb reads the Kitsu<->IMDb corpus and, as part of the same build
// step, enriches the supplied cross-reference index: for every Kitsu entry
// carrying an imdbId, the matching MappingEntry gains that imdbId, and a
// (possibly new) IMDb-indexed slot is created for it if one doesn't already
// exist. Enrichment never mutates a published index - it only touches the
// crossRefIndex being built for the same refresh cycle.
func loadKitsuImdb(ctx context.Context, path string, crossRef crossRefIndex) (kitsuImdbIndex, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []kitsuImdbRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}

	idx := kitsuImdbIndex{}
	seenForImdb := map[string]bool{} // dedupe by kitsuId: first record wins on duplicates
	for _, r := range records {
		if r.KitsuID == "" {
			continue // ValidationRejected
		}
		entry := &KitsuImdbEntry{
			KitsuID:         r.KitsuID,
			TVDBID:          r.TVDBID,
			IMDbID:          r.IMDbID,
			Title:           r.Title,
			FromSeason:      r.FromSeason,
			FromEpisode:     r.FromEpisode,
			NonImdbEpisodes: r.NonImdbEpisodes,
			FanartLogoID:    r.FanartLogoID,
		}
		idx[r.KitsuID] = entry

		if r.IMDbID == "" || seenForImdb[r.KitsuID] {
			continue
		}
		seenForImdb[r.KitsuID] = true

		kitsuMappings := lookupCrossRef(crossRef, string(stringKitsu), r.KitsuID)
		for _, m := range kitsuMappings {
			if m.IMDbID == "" {
				m.IMDbID = r.IMDbID
			}
			addMappingToIndex(crossRef, string(stringIMDb), r.IMDbID, m)
		}
	}
	return idx, nil
}

const (
	stringKitsu = "kitsu"
	stringIMDb  = "imdb"
)

// addMappingToIndex appends m to idx[source][value] unless it is already
// present (by pointer identity), keeping the enrichment idempotent across
// repeated Kitsu rows referencing the same mapping.
func addMappingToIndex(idx crossRefIndex, source, value string, m *MappingEntry) {
	if idx[source] == nil {
		idx[source] = map[string][]*MappingEntry{}
	}
	for _, existing := range idx[source][value] {
		if existing == m {
			return
		}
	}
	idx[source][value] = append(idx[source][value], m)
}
