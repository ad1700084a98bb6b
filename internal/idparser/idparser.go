// Package idparser parses the opaque content identifiers addons and clients
// pass into the pipeline.
package idparser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// IdSource identifies which external catalog an id belongs to.
type IdSource string

const (
	SourceIMDb           IdSource = "imdb"
	SourceTMDB           IdSource = "tmdb"
	SourceTVDB           IdSource = "tvdb"
	SourceMAL            IdSource = "mal"
	SourceKitsu          IdSource = "kitsu"
	SourceAniDB          IdSource = "anidb"
	SourceAniList        IdSource = "anilist"
	SourceAnimePlanet    IdSource = "animePlanet"
	SourceAnisearch      IdSource = "anisearch"
	SourceLivechart      IdSource = "livechart"
	SourceNotifyMoe      IdSource = "notifyMoe"
	SourceSimkl          IdSource = "simkl"
	SourceTrakt          IdSource = "trakt"
	SourceAnimeCountdown IdSource = "animecountdown"
	SourceUnknown        IdSource = "unknown"
)

// prefixToSource maps the lowercase "source:" prefix used in compound ids to
// an IdSource. IMDb ids carry no prefix (bare "tt..." form).
var prefixToSource = map[string]IdSource{
	"tmdb":           SourceTMDB,
	"tvdb":           SourceTVDB,
	"mal":            SourceMAL,
	"kitsu":          SourceKitsu,
	"anidb":          SourceAniDB,
	"anilist":        SourceAniList,
	"animeplanet":    SourceAnimePlanet,
	"anisearch":      SourceAnisearch,
	"livechart":      SourceLivechart,
	"notifymoe":      SourceNotifyMoe,
	"simkl":          SourceSimkl,
	"trakt":          SourceTrakt,
	"animecountdown": SourceAnimeCountdown,
}

var imdbPattern = regexp.MustCompile(`^tt\d+$`)

// ErrInvalidID is returned when an id can't be parsed into any known form.
var ErrInvalidID = errors.New("idparser: unrecognized id format")

// ParsedId is the immutable result of parsing an opaque identifier.
type ParsedId struct {
	Source  IdSource
	Value   string
	Season  *int
	Episode *int
}

// String renders the canonical "source:value[:season[:episode]]" form.
func (p ParsedId) String() string {
	s := fmt.Sprintf("%s:%s", p.Source, p.Value)
	if p.Season != nil {
		s += ":" + strconv.Itoa(*p.Season)
		if p.Episode != nil {
			s += ":" + strconv.Itoa(*p.Episode)
		}
	}
	return s
}

// ValueInt returns Value parsed as an integer, when the catalog uses numeric
// identifiers (every source except IMDb, animePlanet, and notifyMoe, which
// use slugs).
func (p ParsedId) ValueInt() (int, bool) {
	n, err := strconv.Atoi(p.Value)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Parse splits an opaque id into its source, value, and optional
// season/episode suffix. The "kind" hint ("movie", "series", "unknown") is
// accepted but not used: the result depends on id alone.
func Parse(id string, kind string) (*ParsedId, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvalidID
	}

	if imdbPattern.MatchString(id) {
		return &ParsedId{Source: SourceIMDb, Value: id}, nil
	}

	parts := strings.Split(id, ":")
	if len(parts) == 0 {
		return nil, ErrInvalidID
	}

	// IMDb compound form: "tt0944947:2:5" (season/episode suffix, no prefix).
	if imdbPattern.MatchString(parts[0]) {
		return parseWithSuffix(SourceIMDb, parts[0], parts[1:])
	}

	source, ok := prefixToSource[strings.ToLower(parts[0])]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	if len(parts) < 2 || parts[1] == "" {
		return nil, fmt.Errorf("%w: missing value in %q", ErrInvalidID, id)
	}

	return parseWithSuffix(source, parts[1], parts[2:])
}

func parseWithSuffix(source IdSource, value string, suffix []string) (*ParsedId, error) {
	p := &ParsedId{Source: source, Value: value}

	if len(suffix) > 0 && suffix[0] != "" {
		season, err := strconv.Atoi(suffix[0])
		if err != nil {
			return nil, fmt.Errorf("%w: bad season %q", ErrInvalidID, suffix[0])
		}
		p.Season = &season
	}
	if len(suffix) > 1 && suffix[1] != "" {
		episode, err := strconv.Atoi(suffix[1])
		if err != nil {
			return nil, fmt.Errorf("%w: bad episode %q", ErrInvalidID, suffix[1])
		}
		p.Episode = &episode
	}
	return p, nil
}

// AnimeSources is the set of IdSource values that can be queried against
// the Anime Identity Database via cross-reference: every known source
// (SourceUnknown excluded).
var AnimeSources = []IdSource{
	SourceIMDb, SourceTMDB, SourceTVDB, SourceMAL, SourceKitsu, SourceAniDB,
	SourceAniList, SourceAnimePlanet, SourceAnisearch, SourceLivechart,
	SourceNotifyMoe, SourceSimkl, SourceTrakt, SourceAnimeCountdown,
}
