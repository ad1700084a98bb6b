package streamcontext

import (
	"context"
	"time"

	"github.com/streamaggr/streamaggr/internal/metadata"
	"github.com/streamaggr/streamaggr/internal/seadex"
)

// StartMetadataFetch begins the metadata fetch in the background, if
// needed and not already started. A no-op (recorded as a completed, empty
// slot) when no gating condition requires metadata.
func (c *Context) StartMetadataFetch() { c.metadataCell.start() }

// StartReleaseDatesFetch begins the movie release-dates fetch in the
// background, if applicable.
func (c *Context) StartReleaseDatesFetch() { c.releaseDatesCell.start() }

// StartEpisodeAirDateFetch begins the episode air-date fetch in the
// background, if applicable.
func (c *Context) StartEpisodeAirDateFetch() { c.airDateCell.start() }

// StartSeaDexFetch begins the SeaDex fetch in the background, if
// applicable.
func (c *Context) StartSeaDexFetch() { c.seadexCell.start() }

// StartAllFetches kicks every parallel-eligible async slot.
func (c *Context) StartAllFetches() {
	c.StartMetadataFetch()
	c.StartReleaseDatesFetch()
	c.StartEpisodeAirDateFetch()
	c.StartSeaDexFetch()
}

func (c *Context) withTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.ctx, c.timeout)
}

func (c *Context) fetchMetadata() {
	if !c.needMetadata || !c.hasTMDBID || c.metadataSvc == nil {
		return
	}
	fctx, cancel := c.withTimeout()
	defer cancel()

	if c.queryType == QueryMovie {
		title, err := c.metadataSvc.GetMovieTitle(fctx, c.tmdbID)
		if err != nil {
			c.logger.Warn().Err(err).Msg("metadata fetch failed")
			c.metaErr = err
			return
		}
		c.metaTitle = title
		return
	}

	title, seasons, err := c.metadataSvc.GetSeriesTitle(fctx, c.tmdbID)
	if err != nil {
		c.logger.Warn().Err(err).Msg("metadata fetch failed")
		c.metaErr = err
		return
	}
	c.metaTitle = title
	c.metaSeasons = seasons

	if c.isAnime && c.parsedID.Season != nil && c.parsedID.Episode != nil && len(seasons) > 0 {
		var nonImdb []int
		if c.animeEntry != nil && c.animeEntry.IMDb != nil {
			nonImdb = c.animeEntry.IMDb.NonImdbEpisodes
		}
		abs := metadata.AbsoluteEpisode(seasons, *c.parsedID.Season, *c.parsedID.Episode, nonImdb)
		c.metaAbsoluteEpisode = &abs
	}
}

func (c *Context) fetchReleaseDates() {
	if c.queryType != QueryMovie || !c.hasTMDBID || c.metadataSvc == nil {
		return
	}
	fctx, cancel := c.withTimeout()
	defer cancel()
	dates, err := c.metadataSvc.GetMovieReleaseDates(fctx, c.tmdbID)
	if err != nil {
		c.logger.Warn().Err(err).Msg("release dates fetch failed")
		c.releaseDatesErr = err
		return
	}
	c.releaseDates = dates
}

func (c *Context) fetchEpisodeAirDate() {
	if c.queryType != QuerySeries || !c.hasTMDBID || c.metadataSvc == nil {
		return
	}
	if c.parsedID.Season == nil || c.parsedID.Episode == nil {
		return
	}
	fctx, cancel := c.withTimeout()
	defer cancel()
	date, err := c.metadataSvc.GetEpisodeAirDate(fctx, c.tmdbID, *c.parsedID.Season, *c.parsedID.Episode)
	if err != nil {
		c.logger.Warn().Err(err).Msg("episode air date fetch failed")
		c.airDateErr = err
		return
	}
	c.episodeAirDate = date
}

func (c *Context) fetchSeaDex() {
	enabled := c.userData == nil || c.userData.EnableSeadex == nil || *c.userData.EnableSeadex
	if !c.isAnime || !enabled || !c.hasAniList || c.seadexSvc == nil {
		return
	}
	fctx, cancel := c.withTimeout()
	defer cancel()
	info, err := c.seadexSvc.GetSeaDexInfoHashes(fctx, c.anilistID)
	if err != nil {
		c.logger.Warn().Err(err).Msg("seadex fetch failed")
		c.seadexErr = err
		return
	}
	c.seadexInfo = info
}

// MetadataTitle awaits the metadata slot and returns the resolved Title, or
// nil if the fetch was gated out or failed.
func (c *Context) MetadataTitle() (*metadata.Title, error) {
	c.metadataCell.await()
	return c.metaTitle, c.metaErr
}

// MetadataSeasons awaits the metadata slot and returns the resolved season
// list (series/anime only).
func (c *Context) MetadataSeasons() ([]metadata.Season, error) {
	c.metadataCell.await()
	return c.metaSeasons, c.metaErr
}

// AbsoluteEpisode awaits the metadata slot and returns the computed
// absolute-episode number, if applicable.
func (c *Context) AbsoluteEpisode() (*int, error) {
	c.metadataCell.await()
	return c.metaAbsoluteEpisode, c.metaErr
}

// ReleaseDates awaits the release-dates slot.
func (c *Context) ReleaseDates() (*metadata.ReleaseDates, error) {
	c.releaseDatesCell.await()
	return c.releaseDates, c.releaseDatesErr
}

// EpisodeAirDate awaits the episode-air-date slot.
func (c *Context) EpisodeAirDate() (*time.Time, error) {
	c.airDateCell.await()
	return c.episodeAirDate, c.airDateErr
}

// SeaDexInfo awaits the SeaDex slot.
func (c *Context) SeaDexInfo() (*seadex.Info, error) {
	c.seadexCell.await()
	return c.seadexInfo, c.seadexErr
}
