// Package aidb implements the Anime Identity Database: refreshable on-disk
// corpora, indexed in memory, that cross-reference heterogeneous anime
// catalogs and resolve any supported id into a canonical AnimeEntry.
package aidb

import "github.com/streamaggr/streamaggr/internal/idparser"

// EntryType classifies a mapping's broadcast form.
type EntryType string

const (
	TypeTV      EntryType = "TV"
	TypeMovie   EntryType = "MOVIE"
	TypeSpecial EntryType = "SPECIAL"
	TypeOVA     EntryType = "OVA"
	TypeONA     EntryType = "ONA"
	TypeUnknown EntryType = "UNKNOWN"
)

// AnimeSeason is the broadcast quarter an anime premiered in.
type AnimeSeason string

const (
	SeasonWinter    AnimeSeason = "WINTER"
	SeasonSpring    AnimeSeason = "SPRING"
	SeasonSummer    AnimeSeason = "SUMMER"
	SeasonFall      AnimeSeason = "FALL"
	SeasonUndefined AnimeSeason = "UNDEFINED"
)

// SeasonInfo pairs an AnimeSeason with an optional year.
type SeasonInfo struct {
	Season AnimeSeason
	Year   *int
}

// SeasonOverride carries a mapping's explicit season-number override for one
// catalog (tvdbSeason or tmdbSeason on the cross-reference entry).
type SeasonOverride struct {
	Season *int
}

// MappingEntry is one row of the cross-reference corpus: all known external
// ids for a single title.
type MappingEntry struct {
	IMDbID     string
	TMDBID     string
	TVDBID     string
	MALID      string
	KitsuID    string
	AniDBID    string
	AniListID  string
	TraktID    string
	Type       EntryType
	TVDBSeason *int
	TMDBSeason *int
}

// ids returns the mapping's ids keyed by IdSource, skipping empties. Used by
// resolution to scan candidate sources in priority order.
func (m *MappingEntry) ids() []struct {
	source idparser.IdSource
	value  string
} {
	var out []struct {
		source idparser.IdSource
		value  string
	}
	add := func(source idparser.IdSource, value string) {
		if value != "" {
			out = append(out, struct {
				source idparser.IdSource
				value  string
			}{source, value})
		}
	}
	add(idparser.SourceIMDb, m.IMDbID)
	add(idparser.SourceTMDB, m.TMDBID)
	add(idparser.SourceTVDB, m.TVDBID)
	add(idparser.SourceMAL, m.MALID)
	add(idparser.SourceKitsu, m.KitsuID)
	add(idparser.SourceAniDB, m.AniDBID)
	add(idparser.SourceAniList, m.AniListID)
	add(idparser.SourceTrakt, m.TraktID)
	return out
}

// AnimeDetails carries title/synonym/season information from the offline
// catalog. A reduced form (title, season, synonyms only) is retained when
// the database is configured for minimal detail.
type AnimeDetails struct {
	Title       string
	Synonyms    []string
	AnimeSeason SeasonInfo
}

// KitsuImdbEntry cross-references a Kitsu id to an IMDb id plus the season
// offset at which the IMDb-numbered episodes begin.
type KitsuImdbEntry struct {
	KitsuID         string
	TVDBID          string
	IMDbID          string
	Title           string
	FromSeason      *int
	FromEpisode     *int
	NonImdbEpisodes []int
	FanartLogoID    string
}

// AnitraktSeasonExternals carries a Trakt season's external catalog ids.
type AnitraktSeasonExternals struct {
	TVDB *int
	TMDB *int
}

// AnitraktSeason is one Trakt season entry, used for split-cour titles.
type AnitraktSeason struct {
	ID        int
	Number    int
	Externals AnitraktSeasonExternals
}

// AnitraktTrakt is the Trakt-side payload of an Anitrakt entry.
type AnitraktTrakt struct {
	ID          int
	Slug        string
	Title       string
	IsSplitCour bool
	Season      *AnitraktSeason
}

// AnitraktExternals carries the movie/tv-level external ids of an Anitrakt
// entry (as opposed to the season-level ones on AnitraktTrakt.Season).
type AnitraktExternals struct {
	TVDB string
	TMDB string
	IMDb string
}

// AnitraktEntry cross-references a MyAnimeList id to Trakt, for both movie
// and tv corpora.
type AnitraktEntry struct {
	MALID       string
	Trakt       AnitraktTrakt
	Externals   AnitraktExternals
	ReleaseYear int
}

// AnimeListMapping is one per-season row inside an AnimeListEntry's
// mapping-list (only populated at "full" detail level).
type AnimeListMapping struct {
	AniDBSeason int
	TVDBSeason  *int
	TMDBSeason  *int
	Start       *float64
	End         *float64
	Offset      *int
	Episodes    string
}

// AnimeListEntry is one row of the XML master anime-list.
type AnimeListEntry struct {
	AniDBID           string
	TVDBID            string
	DefaultTVDBSeason *string // numeric string, "a" (absolute), or nil
	EpisodeOffset     *int
	TMDBID            string
	TMDBTv            bool
	TMDBSeason        *int
	TMDBOffset        *int
	IMDbID            string
	Mappings          []AnimeListMapping
}

// CatalogProjection is the per-catalog (tvdb/tmdb) season projection carried
// on a derived AnimeEntry.
type CatalogProjection struct {
	SeasonNumber *int
	SeasonID     *int
	FromEpisode  *int
}

// IMDbProjection is the imdb-specific projection on a derived AnimeEntry.
type IMDbProjection struct {
	SeasonNumber    *int
	FromEpisode     *int
	NonImdbEpisodes []int
	Title           string
}

// TraktProjection is the trakt-specific projection on a derived AnimeEntry.
type TraktProjection struct {
	Title        string
	Slug         string
	IsSplitCour  bool
	SeasonID     *int
	SeasonNumber *int
}

// FanartProjection carries the fanart logo id, when known.
type FanartProjection struct {
	LogoID string
}

// AnimeEntry is the canonical, merged view the database returns: a layered
// combination of mapping, offline-details, Kitsu, Anitrakt, and AnimeList
// data for one anime title.
type AnimeEntry struct {
	IMDbID          string
	TVDBID          string
	TMDBID          string
	TraktIDStr      string
	AniListIDStr    string
	MALIDStr        string
	Type            EntryType
	Title           string
	Synonyms        []string
	AnimeSeason     SeasonInfo
	TVDB            CatalogProjection
	TMDB            CatalogProjection
	IMDb            *IMDbProjection
	Trakt           *TraktProjection
	Fanart          *FanartProjection
	EpisodeMappings []AnimeListMapping
}
