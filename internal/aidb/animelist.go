package aidb

import (
	"context"
	"encoding/xml"
	"os"
	"strconv"
	"strings"
)

// animeListXML mirrors the anime-lists project's "<anime-list><anime .../>
// </anime-list>" shape.
type animeListXML struct {
	XMLName xml.Name           `xml:"anime-list"`
	Anime   []animeListXMLItem `xml:"anime"`
}

type animeListXMLItem struct {
	AniDBID           string `xml:"anidbid,attr"`
	TVDBID            string `xml:"tvdbid,attr"`
	DefaultTVDBSeason string `xml:"defaulttvdbseason,attr"`
	EpisodeOffset     string `xml:"episodeoffset,attr"`
	TMDBID            string `xml:"tmdbid,attr"`
	TMDBTv            string `xml:"tmdbtv,attr"`
	TMDBSeason        string `xml:"tmdbseason,attr"`
	TMDBOffset        string `xml:"tmdboffset,attr"`
	IMDbID            string `xml:"imdbid,attr"`

	MappingList struct {
		Mapping []animeListXMLMapping `xml:"mapping"`
	} `xml:"mapping-list"`
}

type animeListXMLMapping struct {
	AniDBSeason string `xml:"anidbseason,attr"`
	TVDBSeason  string `xml:"tvdbseason,attr"`
	TMDBSeason  string `xml:"tmdbseason,attr"`
	Start       string `xml:"start,attr"`
	End         string `xml:"end,attr"`
	Offset      string `xml:"offset,attr"`
	Text        string `xml:",chardata"`
}

// AnimeListIndex holds the lookup directions the database needs:
// anidbId (unique), tvdbId (one-to-many), and tmdbId (one-to-many, used as
// a tie-break fallback when no TVDB path exists for a mapping).
type AnimeListIndex struct {
	ByAniDB map[string]*AnimeListEntry
	ByTVDB  map[string][]*AnimeListEntry
	ByTMDB  map[string][]*AnimeListEntry
}

// loadAnimeList parses the XML master list. parseMappings gates whether the
// <mapping-list> subtree is parsed at all; it is only parsed when detail
// level is full. At the "required" level entries carry no Mappings (so
// AnimeEntry.EpisodeMappings stays empty), while episode-level tie-breaking
// still works because it reads only the <anime> element's own attributes
// (defaulttvdbseason, episodeoffset, tmdbseason, tmdboffset).
func loadAnimeList(ctx context.Context, path string, parseMappings bool) (*AnimeListIndex, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc animeListXML
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	idx := &AnimeListIndex{
		ByAniDB: map[string]*AnimeListEntry{},
		ByTVDB:  map[string][]*AnimeListEntry{},
		ByTMDB:  map[string][]*AnimeListEntry{},
	}

	for _, item := range doc.Anime {
		if item.AniDBID == "" {
			continue // ValidationRejected: anidbId is the unique key
		}
		entry := &AnimeListEntry{
			AniDBID:           item.AniDBID,
			TVDBID:            item.TVDBID,
			DefaultTVDBSeason: normalizeDefaultTVDBSeason(item.DefaultTVDBSeason),
			EpisodeOffset:     parseIntPtr(item.EpisodeOffset),
			TMDBID:            item.TMDBID,
			TMDBTv:            item.TMDBTv == "1" || strings.EqualFold(item.TMDBTv, "true"),
			TMDBSeason:        parseIntPtr(item.TMDBSeason),
			TMDBOffset:        parseIntPtr(item.TMDBOffset),
			IMDbID:            item.IMDbID,
		}

		if parseMappings {
			for _, m := range item.MappingList.Mapping {
				season, err := strconv.Atoi(strings.TrimSpace(m.AniDBSeason))
				if err != nil {
					continue // ValidationRejected: mapping without a season is useless
				}
				entry.Mappings = append(entry.Mappings, AnimeListMapping{
					AniDBSeason: season,
					TVDBSeason:  parseIntPtr(m.TVDBSeason),
					TMDBSeason:  parseIntPtr(m.TMDBSeason),
					Start:       parseFloatPtr(m.Start),
					End:         parseFloatPtr(m.End),
					Offset:      parseIntPtr(m.Offset),
					Episodes:    strings.TrimSpace(m.Text),
				})
			}
		}

		idx.ByAniDB[entry.AniDBID] = entry
		if entry.TVDBID != "" {
			idx.ByTVDB[entry.TVDBID] = append(idx.ByTVDB[entry.TVDBID], entry)
		}
		if entry.TMDBID != "" {
			idx.ByTMDB[entry.TMDBID] = append(idx.ByTMDB[entry.TMDBID], entry)
		}
	}
	return idx, nil
}

// normalizeDefaultTVDBSeason preserves the numeric-string-or-"a" contract
// ('a' means absolute numbering across the whole series).
func normalizeDefaultTVDBSeason(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	return &raw
}

func parseIntPtr(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}

func parseFloatPtr(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}
