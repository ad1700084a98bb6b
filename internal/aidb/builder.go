package aidb

import (
	"github.com/rs/zerolog"
)

// Builder assembles a Database from pre-loaded in-memory maps, skipping disk
// and HTTP entirely.
type Builder struct {
	snap *snapshot
}

// NewBuilder starts a builder with empty corpora.
func NewBuilder() *Builder {
	return &Builder{snap: emptySnapshot()}
}

// WithMapping registers one cross-reference MappingEntry under every id it
// carries.
func (b *Builder) WithMapping(m *MappingEntry) *Builder {
	for _, id := range m.ids() {
		if b.snap.crossRef[string(id.source)] == nil {
			b.snap.crossRef[string(id.source)] = map[string][]*MappingEntry{}
		}
		b.snap.crossRef[string(id.source)][id.value] = append(b.snap.crossRef[string(id.source)][id.value], m)
	}
	return b
}

// WithDetails registers offline-catalog details for (source, value).
func (b *Builder) WithDetails(source, value string, details *AnimeDetails) *Builder {
	if b.snap.offline[source] == nil {
		b.snap.offline[source] = map[string]*AnimeDetails{}
	}
	b.snap.offline[source][value] = details
	return b
}

// WithKitsuImdb registers a Kitsu<->IMDb entry keyed by kitsuId.
func (b *Builder) WithKitsuImdb(entry *KitsuImdbEntry) *Builder {
	b.snap.kitsuImdb[entry.KitsuID] = entry
	return b
}

// WithAnitraktMovie registers a movie-corpus Anitrakt entry keyed by malId.
func (b *Builder) WithAnitraktMovie(entry *AnitraktEntry) *Builder {
	b.snap.anitraktMov[entry.MALID] = entry
	return b
}

// WithAnitraktTV registers a tv-corpus Anitrakt entry keyed by malId.
func (b *Builder) WithAnitraktTV(entry *AnitraktEntry) *Builder {
	b.snap.anitraktTV[entry.MALID] = entry
	return b
}

// WithAnimeListEntry registers an AnimeListEntry in the anidbId, tvdbId,
// and tmdbId indices.
func (b *Builder) WithAnimeListEntry(entry *AnimeListEntry) *Builder {
	b.snap.animeList.ByAniDB[entry.AniDBID] = entry
	if entry.TVDBID != "" {
		b.snap.animeList.ByTVDB[entry.TVDBID] = append(b.snap.animeList.ByTVDB[entry.TVDBID], entry)
	}
	if entry.TMDBID != "" {
		b.snap.animeList.ByTMDB[entry.TMDBID] = append(b.snap.animeList.ByTMDB[entry.TMDBID], entry)
	}
	return b
}

// Build returns a ready-to-query Database with no refresh scheduler
// attached: Start/Stop are no-ops.
func (b *Builder) Build() *Database {
	db := &Database{detailLevel: DetailFull, logger: zerolog.Nop(), stats: map[string]SourceStats{}}
	db.snap.Store(b.snap)
	return db
}
