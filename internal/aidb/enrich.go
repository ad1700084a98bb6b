package aidb

import (
	"regexp"

	"github.com/streamaggr/streamaggr/internal/idparser"
)

// EnrichParsedIdWithAnimeEntry fills p.Season from, in order, the entry's
// imdb/trakt/tvdb season numbers, a synonym regex match, or tmdb's season
// number; and, for mal/kitsu ids carrying an episode, rebases the episode
// number as fromEpisode + episode - 1 using imdb's or tvdb's fromEpisode.
// Idempotent: a second call observes the already-filled season/episode and
// leaves them unchanged.
func EnrichParsedIdWithAnimeEntry(p *idparser.ParsedId, entry *AnimeEntry) *idparser.ParsedId {
	if p == nil || entry == nil {
		return p
	}

	// Season-fill and episode-rebase run together exactly once: a nil Season
	// is the signal that p hasn't been enriched yet. Once Season is filled,
	// a repeat call must leave both fields untouched rather than rebasing an
	// already-rebased episode a second time.
	notYetEnriched := p.Season == nil
	if notYetEnriched {
		p.Season = resolveSeasonNumber(entry)
	}

	if notYetEnriched && p.Episode != nil && (p.Source == idparser.SourceMAL || p.Source == idparser.SourceKitsu) {
		fromEpisode := firstNonNilInt(
			entryFromEpisode(entry.IMDb),
			entry.TVDB.FromEpisode,
		)
		if fromEpisode != nil {
			rebased := *fromEpisode + *p.Episode - 1
			p.Episode = &rebased
		}
	}

	return p
}

func entryFromEpisode(imdb *IMDbProjection) *int {
	if imdb == nil {
		return nil
	}
	return imdb.FromEpisode
}

func resolveSeasonNumber(entry *AnimeEntry) *int {
	if entry.IMDb != nil && entry.IMDb.SeasonNumber != nil {
		return entry.IMDb.SeasonNumber
	}
	if entry.Trakt != nil && entry.Trakt.SeasonNumber != nil {
		return entry.Trakt.SeasonNumber
	}
	if entry.TVDB.SeasonNumber != nil {
		return entry.TVDB.SeasonNumber
	}
	if season := synonymSeasonMatch(entry.Synonyms); season != nil {
		return season
	}
	if entry.TMDB.SeasonNumber != nil {
		return entry.TMDB.SeasonNumber
	}
	return nil
}

var seasonSynonymPattern = regexp.MustCompile(`(?i)season[\s_-]*(\d+)`)

func synonymSeasonMatch(synonyms []string) *int {
	for _, s := range synonyms {
		m := seasonSynonymPattern.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		n := atoiOrZero(m[1])
		if n > 0 {
			return &n
		}
	}
	return nil
}

func firstNonNilInt(values ...*int) *int {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func atoiOrZero(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}
