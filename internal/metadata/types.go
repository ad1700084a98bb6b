// Package metadata implements the Metadata Service: a cache-fronted,
// circuit-breaker-guarded client for title, release-date, and air-date
// lookups.
package metadata

import "time"

// Title is the resolved title/year/genre/runtime facts for one movie or
// series, the shape the Stream Context's expression view projects from.
type Title struct {
	Title            string
	Titles           []string
	Year             int
	YearEnd          int
	Genres           []string
	Runtime          int
	OriginalLanguage string
	TMDBID           int
}

// Season describes one season's episode count, used by the Stream Context
// to compute absolute-episode numbers for anime.
type Season struct {
	Number       int
	EpisodeCount int
}

// ReleaseDates carries a movie's digital/physical/theatrical release dates,
// used by the digital-release filter and daysSinceRelease projection.
type ReleaseDates struct {
	Digital    *time.Time
	Physical   *time.Time
	Theatrical *time.Time
}
