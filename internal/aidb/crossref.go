package aidb

import (
	"context"
	"encoding/json"
	"os"
)

// crossRefRecord is the on-disk shape of one cross-reference corpus row.
type crossRefRecord struct {
	IMDbID     string `json:"imdb_id,omitempty"`
	TMDBID     string `json:"themoviedb_id,omitempty"`
	TVDBID     string `json:"thetvdb_id,omitempty"`
	MALID      string `json:"mal_id,omitempty"`
	KitsuID    string `json:"kitsu_id,omitempty"`
	AniDBID    string `json:"anidb_id,omitempty"`
	AniListID  string `json:"anilist_id,omitempty"`
	TraktID    string `json:"trakt_id,omitempty"`
	Type       string `json:"type,omitempty"`
	TVDBSeason *int   `json:"tvdb_season,omitempty"`
	TMDBSeason *int   `json:"tmdb_season,omitempty"`
}

// crossRefIndex is {IdSource -> {idValue -> []MappingEntry}}. A key can map
// to several entries; that ambiguity comes from the corpus itself and is
// preserved, never collapsed.
type crossRefIndex map[string]map[string][]*MappingEntry

func normalizeType(t string) EntryType {
	switch t {
	case string(TypeTV), string(TypeMovie), string(TypeSpecial), string(TypeOVA), string(TypeONA):
		return EntryType(t)
	default:
		return TypeUnknown
	}
}

func (r crossRefRecord) toMapping() *MappingEntry {
	return &MappingEntry{
		IMDbID:     r.IMDbID,
		TMDBID:     r.TMDBID,
		TVDBID:     r.TVDBID,
		MALID:      r.MALID,
		KitsuID:    r.KitsuID,
		AniDBID:    r.AniDBID,
		AniListID:  r.AniListID,
		TraktID:    r.TraktID,
		Type:       normalizeType(r.Type),
		TVDBSeason: r.TVDBSeason,
		TMDBSeason: r.TMDBSeason,
	}
}

// loadCrossRef reads the cross-reference corpus JSON file (a list of
// crossRefRecord) and builds a fresh index. Records that carry no known id
// are skipped without aborting the load; no warning is logged for them.
func loadCrossRef(ctx context.Context, path string) (crossRefIndex, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []crossRefRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}

	idx := crossRefIndex{}
	addMapping := func(source string, value string, m *MappingEntry) {
		if value == "" {
			return
		}
		if idx[source] == nil {
			idx[source] = map[string][]*MappingEntry{}
		}
		idx[source][value] = append(idx[source][value], m)
	}

	for _, r := range records {
		if r.IMDbID == "" && r.TMDBID == "" && r.TVDBID == "" && r.MALID == "" &&
			r.KitsuID == "" && r.AniDBID == "" && r.AniListID == "" && r.TraktID == "" {
			continue // ValidationRejected: no usable id at all, skip
		}
		m := r.toMapping()
		for _, id := range m.ids() {
			addMapping(string(id.source), id.value, m)
		}
	}
	return idx, nil
}

func lookupCrossRef(idx crossRefIndex, source, value string) []*MappingEntry {
	bySource, ok := idx[source]
	if !ok {
		return nil
	}
	return bySource[value]
}
