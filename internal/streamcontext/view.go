package streamcontext

import (
	"time"

	"github.com/streamaggr/streamaggr/internal/metadata"
)

// ToExpressionContext awaits every slot the expression view can reference
// and projects a flat, read-only map for the expression engine's bare
// context-field references. Fields with no resolved value are present as an
// explicit nil, never omitted, so references resolve instead of erroring.
func (c *Context) ToExpressionContext() map[string]interface{} {
	title, _ := c.MetadataTitle()
	absEpisode, _ := c.AbsoluteEpisode()
	releaseDates, _ := c.ReleaseDates()
	airDate, _ := c.EpisodeAirDate()
	seadexInfo, _ := c.SeaDexInfo()

	ctx := map[string]interface{}{
		"type":             string(c.queryType),
		"id":               c.rawID,
		"isAnime":          c.isAnime,
		"queryType":        c.QueryTypeString(),
		"season":           intOrNil(c.parsedID.Season),
		"episode":          intOrNil(c.parsedID.Episode),
		"title":            nil,
		"titles":           nil,
		"year":             nil,
		"yearEnd":          nil,
		"genres":           nil,
		"runtime":          nil,
		"originalLanguage": nil,
		"daysSinceRelease": nil,
		"absoluteEpisode":  intOrNil(absEpisode),
		"anilistId":        nil,
		"malId":            nil,
		"hasSeaDex":        seadexInfo != nil,
	}

	if c.hasAniList {
		ctx["anilistId"] = c.anilistID
	}
	if c.malID != 0 {
		ctx["malId"] = c.malID
	}

	if title != nil {
		ctx["title"] = title.Title
		ctx["titles"] = widen(title.Titles)
		ctx["year"] = title.Year
		ctx["yearEnd"] = title.YearEnd
		ctx["genres"] = widen(title.Genres)
		ctx["runtime"] = title.Runtime
		ctx["originalLanguage"] = languageName(title.OriginalLanguage)
	}

	ctx["daysSinceRelease"] = daysSinceRelease(c.queryType, airDate, releaseDates)

	return ctx
}

// daysSinceRelease is the episode air date for series/anime, else the
// movie's release date, expressed in whole days before now.
// Among a movie's digital/physical/theatrical dates, theatrical is
// preferred as the canonical release date, falling back to digital then
// physical when theatrical is unset (Open Question, resolved in DESIGN.md).
func daysSinceRelease(queryType QueryType, airDate *time.Time, dates *metadata.ReleaseDates) interface{} {
	if queryType == QuerySeries && airDate != nil {
		return int(time.Since(*airDate).Hours() / 24)
	}
	if dates != nil {
		if d := canonicalReleaseDate(dates); d != nil {
			return int(time.Since(*d).Hours() / 24)
		}
	}
	return nil
}

func canonicalReleaseDate(dates *metadata.ReleaseDates) *time.Time {
	switch {
	case dates.Theatrical != nil:
		return dates.Theatrical
	case dates.Digital != nil:
		return dates.Digital
	case dates.Physical != nil:
		return dates.Physical
	default:
		return nil
	}
}

// widen converts a string slice to the []interface{} form the expression
// engine's native list-membership operator consumes.
func widen(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func intOrNil(p *int) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
