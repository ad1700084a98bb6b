// Package streamcontext implements the Stream Context: a
// per-request facade that performs AIDB lookup synchronously at
// construction, then exposes explicit, at-most-once, memoized async
// fetches for metadata, release dates, episode air date, and SeaDex, plus
// a flat expression-evaluation view over whatever has resolved.
package streamcontext

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/streamaggr/streamaggr/internal/aidb"
	"github.com/streamaggr/streamaggr/internal/idparser"
	"github.com/streamaggr/streamaggr/internal/metadata"
	"github.com/streamaggr/streamaggr/internal/seadex"
	"github.com/streamaggr/streamaggr/internal/stream"
)

// QueryType is the request's media kind, as supplied by the caller.
type QueryType string

const (
	QueryMovie  QueryType = "movie"
	QuerySeries QueryType = "series"
)

// AnimeDB is the subset of *aidb.Database the Context needs. Tests
// substitute a fake or an *aidb.Database built via aidb.NewBuilder.
type AnimeDB interface {
	GetEntryById(ctx context.Context, source idparser.IdSource, value string, season, episode *int) *aidb.AnimeEntry
}

// MetadataService is the subset of *metadata.Service the Context needs.
type MetadataService interface {
	GetMovieTitle(ctx context.Context, tmdbID int) (*metadata.Title, error)
	GetSeriesTitle(ctx context.Context, tmdbID int) (*metadata.Title, []metadata.Season, error)
	GetMovieReleaseDates(ctx context.Context, tmdbID int) (*metadata.ReleaseDates, error)
	GetEpisodeAirDate(ctx context.Context, tmdbID, season, episode int) (*time.Time, error)
}

// SeaDexService is the subset of *seadex.Service the Context needs.
type SeaDexService interface {
	GetSeaDexInfoHashes(ctx context.Context, anilistID int) (*seadex.Info, error)
}

// Config configures a single request's Context.
type Config struct {
	Type     QueryType
	ID       string
	UserData *stream.UserData

	AIDB     AnimeDB
	Metadata MetadataService
	SeaDex   SeaDexService

	// FetchTimeout bounds each async slot's upstream call. Zero uses a
	// 15s default.
	FetchTimeout time.Duration

	Logger zerolog.Logger
}

// Context is a single request's materialized facts, built once at
// construction (synchronous AIDB lookup) and lazily filled in thereafter
// (async metadata/release-date/air-date/SeaDex slots).
type Context struct {
	ctx       context.Context
	logger    zerolog.Logger
	queryType QueryType
	rawID     string
	userData  *stream.UserData

	metadataSvc MetadataService
	seadexSvc   SeaDexService
	timeout     time.Duration

	parsedID   *idparser.ParsedId
	isAnime    bool
	animeEntry *aidb.AnimeEntry

	tmdbID     int
	hasTMDBID  bool
	anilistID  int
	hasAniList bool
	malID      int

	needMetadata bool

	metadataCell        *asyncCell
	metaTitle           *metadata.Title
	metaSeasons         []metadata.Season
	metaAbsoluteEpisode *int
	metaErr             error

	releaseDatesCell *asyncCell
	releaseDates     *metadata.ReleaseDates
	releaseDatesErr  error

	airDateCell    *asyncCell
	episodeAirDate *time.Time
	airDateErr     error

	seadexCell *asyncCell
	seadexInfo *seadex.Info
	seadexErr  error
}

// New performs the Context's synchronous construction work: parse the id,
// resolve the AIDB entry, and enrich the parsed id.
func New(ctx context.Context, cfg Config) *Context {
	logger := cfg.Logger.With().Str("component", "streamcontext").Logger()
	kind := "unknown"
	if cfg.Type == QueryMovie {
		kind = "movie"
	} else if cfg.Type == QuerySeries {
		kind = "series"
	}

	parsedID, err := idparser.Parse(cfg.ID, kind)
	if err != nil {
		logger.Warn().Err(err).Str("id", cfg.ID).Msg("failed to parse id")
		parsedID = &idparser.ParsedId{Source: idparser.SourceUnknown, Value: cfg.ID}
	}

	c := &Context{
		ctx:         ctx,
		logger:      logger,
		queryType:   cfg.Type,
		rawID:       cfg.ID,
		userData:    cfg.UserData,
		metadataSvc: cfg.Metadata,
		seadexSvc:   cfg.SeaDex,
		timeout:     positiveOrDefault(cfg.FetchTimeout, 15*time.Second),
		parsedID:    parsedID,
	}

	if cfg.AIDB != nil {
		if entry := cfg.AIDB.GetEntryById(ctx, parsedID.Source, parsedID.Value, parsedID.Season, parsedID.Episode); entry != nil {
			c.isAnime = true
			c.animeEntry = entry
			c.parsedID = aidb.EnrichParsedIdWithAnimeEntry(parsedID, entry)
		}
	}

	c.resolveTMDBID()
	c.resolveAniListID()
	c.needMetadata = c.computeNeedMetadata()

	c.metadataCell = newAsyncCell(c.fetchMetadata)
	c.releaseDatesCell = newAsyncCell(c.fetchReleaseDates)
	c.airDateCell = newAsyncCell(c.fetchEpisodeAirDate)
	c.seadexCell = newAsyncCell(c.fetchSeaDex)

	return c
}

func positiveOrDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// ParsedID returns the (possibly AIDB-enriched) parsed identifier.
func (c *Context) ParsedID() *idparser.ParsedId { return c.parsedID }

// IsAnime reports whether the id resolved to a known anime entry.
func (c *Context) IsAnime() bool { return c.isAnime }

// AnimeEntry returns the resolved AIDB entry, or nil.
func (c *Context) AnimeEntry() *aidb.AnimeEntry { return c.animeEntry }

// QueryTypeString returns "anime.<type>" when the id is anime, else "<type>".
func (c *Context) QueryTypeString() string {
	if c.isAnime {
		return "anime." + string(c.queryType)
	}
	return string(c.queryType)
}

func (c *Context) resolveTMDBID() {
	if c.parsedID.Source == idparser.SourceTMDB {
		if n, ok := c.parsedID.ValueInt(); ok {
			c.tmdbID, c.hasTMDBID = n, true
			return
		}
	}
	if c.animeEntry != nil && c.animeEntry.TMDBID != "" {
		if n, err := strconv.Atoi(c.animeEntry.TMDBID); err == nil {
			c.tmdbID, c.hasTMDBID = n, true
		}
	}
}

func (c *Context) resolveAniListID() {
	if c.parsedID.Source == idparser.SourceAniList {
		if n, ok := c.parsedID.ValueInt(); ok {
			c.anilistID, c.hasAniList = n, true
		}
	}
	if !c.hasAniList && c.animeEntry != nil && c.animeEntry.AniListIDStr != "" {
		if n, err := strconv.Atoi(c.animeEntry.AniListIDStr); err == nil {
			c.anilistID, c.hasAniList = n, true
		}
	}
	if c.animeEntry != nil && c.animeEntry.MALIDStr != "" {
		if n, err := strconv.Atoi(c.animeEntry.MALIDStr); err == nil {
			c.malID = n
		}
	}
}

// metadataFieldNames is the set of context fields the expression engine can
// project from metadata; referencing any of them in a user expression
// gates on the metadata fetch running.
var metadataFieldNames = []string{
	"title", "titles", "year", "yearend", "genres", "runtime",
	"originallanguage", "dayssincerelease", "absoluteepisode",
}

func (c *Context) computeNeedMetadata() bool {
	if c.userData == nil {
		return false
	}
	if c.userData.TitleMatching || c.userData.YearMatching || c.userData.SeasonEpisodeMatching {
		return true
	}
	if c.userData.DigitalReleaseFilter.Enabled {
		return true
	}
	exprs := c.allUserExpressions()
	for _, e := range exprs {
		if referencesAny(e, metadataFieldNames) {
			return true
		}
	}
	return false
}

func (c *Context) allUserExpressions() []string {
	if c.userData == nil {
		return nil
	}
	var out []string
	out = append(out, c.userData.PreferredStreamExpressions...)
	out = append(out, c.userData.IncludedStreamExpressions...)
	out = append(out, c.userData.RequiredStreamExpressions...)
	out = append(out, c.userData.ExcludedStreamExpressions...)
	for _, r := range c.userData.RankedStreamExpressions {
		out = append(out, r.Expression)
	}
	return out
}
