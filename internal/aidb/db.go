package aidb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/streamaggr/streamaggr/internal/idparser"
	"github.com/streamaggr/streamaggr/internal/scheduler"
)

// DetailLevel gates how much the database loads at startup.
type DetailLevel string

const (
	DetailNone     DetailLevel = "none"
	DetailRequired DetailLevel = "required"
	DetailFull     DetailLevel = "full"
)

// snapshot is the immutable, atomically-swapped set of in-memory indices a
// single refresh cycle produces.
type snapshot struct {
	crossRef    crossRefIndex
	offline     offlineIndex
	kitsuImdb   kitsuImdbIndex
	anitraktMov anitraktIndex
	anitraktTV  anitraktIndex
	animeList   *AnimeListIndex
	builtAt     time.Time
}

func emptySnapshot() *snapshot {
	return &snapshot{
		crossRef:    crossRefIndex{},
		offline:     offlineIndex{},
		kitsuImdb:   kitsuImdbIndex{},
		anitraktMov: anitraktIndex{},
		anitraktTV:  anitraktIndex{},
		animeList: &AnimeListIndex{
			ByAniDB: map[string]*AnimeListEntry{},
			ByTVDB:  map[string][]*AnimeListEntry{},
			ByTMDB:  map[string][]*AnimeListEntry{},
		},
	}
}

// Database is the Anime Identity Database: refreshable on-disk corpora,
// indexed in memory, answering isAnime and getEntryById. Readers never
// observe a half-rebuilt structure - refresh publishes a new snapshot via a
// single atomic pointer swap.
type Database struct {
	detailLevel DetailLevel
	snap        atomic.Pointer[snapshot]
	logger      zerolog.Logger
	sched       *scheduler.Scheduler

	mu    sync.Mutex
	stats map[string]SourceStats
}

// Config configures a Database's corpora and refresh cadence.
type Config struct {
	DetailLevel DetailLevel
	DataDir     string

	CrossRefInterval  time.Duration
	OfflineInterval   time.Duration
	KitsuImdbInterval time.Duration
	AnitraktInterval  time.Duration
	AnimeListInterval time.Duration
	HTTPHeadTimeout   time.Duration
	HTTPGetTimeout    time.Duration
}

// New constructs a Database with an empty snapshot. Call Start to begin
// refresh timers (a no-op at DetailNone).
func New(cfg Config, logger zerolog.Logger) (*Database, error) {
	db := &Database{
		detailLevel: cfg.DetailLevel,
		logger:      logger.With().Str("component", "aidb").Logger(),
		stats:       map[string]SourceStats{},
	}
	db.snap.Store(emptySnapshot())

	if cfg.DetailLevel == DetailNone {
		return db, nil
	}

	dataDir := cfg.DataDir + "/anime-database"
	if err := ensureWritable(dataDir); err != nil {
		// The one startup condition that is fatal rather than degraded.
		return nil, fmt.Errorf("aidb: data directory not writable: %w", err)
	}

	sched, err := scheduler.New(db.logger)
	if err != nil {
		return nil, err
	}
	db.sched = sched
	sources := db.buildSourceConfigs(dataDir, cfg)
	for _, sc := range sources {
		sc := sc
		if err := sched.RegisterTask(scheduler.TaskConfig{
			ID:         sc.Name,
			Name:       "aidb-refresh-" + sc.Name,
			Interval:   sc.RefreshPeriod,
			RunOnStart: true,
			Func: func(ctx context.Context) error {
				return db.refreshSource(ctx, sc)
			},
		}); err != nil {
			return nil, err
		}
	}
	return db, nil
}

func ensureWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	probe := filepath.Join(dir, ".write-probe")
	if err := os.WriteFile(probe, nil, 0o644); err != nil {
		return err
	}
	return os.Remove(probe)
}

func (db *Database) buildSourceConfigs(dataDir string, cfg Config) []SourceConfig {
	return []SourceConfig{
		{
			Name: "crossref", URL: "https://raw.githubusercontent.com/Fribb/anime-lists/master/anime-list-mini.json",
			FilePath: dataDir + "/crossref.json", ETagPath: dataDir + "/crossref.etag",
			RefreshPeriod: cfg.CrossRefInterval, HeadTimeout: cfg.HTTPHeadTimeout, GetTimeout: cfg.HTTPGetTimeout,
		},
		{
			Name: "offline", URL: "https://raw.githubusercontent.com/manami-project/anime-offline-database/master/anime-offline-database.json",
			FilePath: dataDir + "/offline.json", ETagPath: dataDir + "/offline.etag",
			RefreshPeriod: cfg.OfflineInterval, HeadTimeout: cfg.HTTPHeadTimeout, GetTimeout: cfg.HTTPGetTimeout,
		},
		{
			Name: "kitsu-imdb", URL: "https://raw.githubusercontent.com/TheBeastLT/stremio-kitsu-anime/master/static/data/imdb_mapping.json",
			FilePath: dataDir + "/kitsu-imdb.json", ETagPath: dataDir + "/kitsu-imdb.etag",
			RefreshPeriod: cfg.KitsuImdbInterval, HeadTimeout: cfg.HTTPHeadTimeout, GetTimeout: cfg.HTTPGetTimeout,
		},
		{
			Name: "anitrakt-movies", URL: "https://raw.githubusercontent.com/movieman2-project/anitrakt/master/database/movies.json",
			FilePath: dataDir + "/anitrakt-movies.json", ETagPath: dataDir + "/anitrakt-movies.etag",
			RefreshPeriod: cfg.AnitraktInterval, HeadTimeout: cfg.HTTPHeadTimeout, GetTimeout: cfg.HTTPGetTimeout,
		},
		{
			Name: "anitrakt-tv", URL: "https://raw.githubusercontent.com/movieman2-project/anitrakt/master/database/tv.json",
			FilePath: dataDir + "/anitrakt-tv.json", ETagPath: dataDir + "/anitrakt-tv.etag",
			RefreshPeriod: cfg.AnitraktInterval, HeadTimeout: cfg.HTTPHeadTimeout, GetTimeout: cfg.HTTPGetTimeout,
		},
		{
			Name: "anime-list", URL: "https://raw.githubusercontent.com/Anime-Lists/anime-lists/master/anime-list.xml",
			FilePath: dataDir + "/anime-list.xml", ETagPath: dataDir + "/anime-list.etag",
			RefreshPeriod: cfg.AnimeListInterval, HeadTimeout: cfg.HTTPHeadTimeout, GetTimeout: cfg.HTTPGetTimeout,
		},
	}
}

func (db *Database) refreshSource(ctx context.Context, sc SourceConfig) error {
	var entryCount int
	src := newSource(sc, db.logger)
	src.loader = func(ctx context.Context, path string) error {
		n, err := db.reload(ctx, sc.Name, path)
		entryCount = n
		return err
	}
	err := src.refresh(ctx)

	db.mu.Lock()
	st := db.stats[sc.Name]
	st.Name = sc.Name
	st.LastRefresh = time.Now()
	if err != nil {
		st.LastError = err.Error()
	} else {
		st.LastError = ""
		st.EntryCount = entryCount
	}
	db.stats[sc.Name] = st
	db.mu.Unlock()

	// Initial-refresh failures are logged and never fatal.
	if err != nil {
		db.logger.Warn().Err(err).Str("source", sc.Name).Msg("refresh failed, will retry next cycle")
		return nil
	}
	return nil
}

// reload rebuilds the affected portion of the index from the freshly
// downloaded file at path, then atomically swaps it into the snapshot. Each
// source's loader only rebuilds its own corpus; the other corpora carry over
// from the current snapshot unchanged, except that the kitsu-imdb loader also
// publishes an enriched copy of the cross-reference index. Returns the
// rebuilt corpus's entry count for Stats.
func (db *Database) reload(ctx context.Context, sourceName, path string) (int, error) {
	cur := db.snap.Load()
	next := &snapshot{
		crossRef:    cur.crossRef,
		offline:     cur.offline,
		kitsuImdb:   cur.kitsuImdb,
		anitraktMov: cur.anitraktMov,
		anitraktTV:  cur.anitraktTV,
		animeList:   cur.animeList,
		builtAt:     time.Now(),
	}

	var entryCount int
	switch sourceName {
	case "crossref":
		idx, err := loadCrossRef(ctx, path)
		if err != nil {
			return 0, err
		}
		next.crossRef = idx
		entryCount = countIndexValues(idx)
	case "offline":
		idx, err := loadOffline(ctx, path)
		if err != nil {
			return 0, err
		}
		next.offline = idx
		for _, byValue := range idx {
			entryCount += len(byValue)
		}
	case "kitsu-imdb":
		// Enrichment mutates a copy of the cross-reference index built
		// freshly here, never the published snapshot.
		crossRefCopy := cloneCrossRef(cur.crossRef)
		idx, err := loadKitsuImdb(ctx, path, crossRefCopy)
		if err != nil {
			return 0, err
		}
		next.kitsuImdb = idx
		next.crossRef = crossRefCopy
		entryCount = len(idx)
	case "anitrakt-movies":
		idx, err := loadAnitrakt(ctx, path)
		if err != nil {
			return 0, err
		}
		next.anitraktMov = idx
		entryCount = len(idx)
	case "anitrakt-tv":
		idx, err := loadAnitrakt(ctx, path)
		if err != nil {
			return 0, err
		}
		next.anitraktTV = idx
		entryCount = len(idx)
	case "anime-list":
		idx, err := loadAnimeList(ctx, path, db.detailLevel == DetailFull)
		if err != nil {
			return 0, err
		}
		next.animeList = idx
		entryCount = len(idx.ByAniDB)
	}

	db.snap.Store(next)
	return entryCount, nil
}

func countIndexValues(idx crossRefIndex) int {
	n := 0
	for _, byValue := range idx {
		n += len(byValue)
	}
	return n
}

// cloneCrossRef copies the index and every MappingEntry in it, so that
// enrichment can mutate entries without touching the published snapshot. An
// entry shared by several buckets stays shared (as one copy) in the clone.
func cloneCrossRef(src crossRefIndex) crossRefIndex {
	out := crossRefIndex{}
	copies := map[*MappingEntry]*MappingEntry{}
	for source, byValue := range src {
		copied := make(map[string][]*MappingEntry, len(byValue))
		for value, list := range byValue {
			dup := make([]*MappingEntry, len(list))
			for i, m := range list {
				c, ok := copies[m]
				if !ok {
					cp := *m
					c = &cp
					copies[m] = c
				}
				dup[i] = c
			}
			copied[value] = dup
		}
		out[source] = copied
	}
	return out
}

// Start begins the refresh timers. A no-op at DetailNone.
func (db *Database) Start() {
	if db.sched != nil {
		db.sched.Start()
	}
}

// Stop halts refresh timers.
func (db *Database) Stop() error {
	if db.sched == nil {
		return nil
	}
	return db.sched.Stop()
}

// Stats reports each source's last refresh outcome.
func (db *Database) Stats() []SourceStats {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]SourceStats, 0, len(db.stats))
	for _, s := range db.stats {
		out = append(out, s)
	}
	return out
}

// IsAnime reports whether id resolves to a known anime entry.
func (db *Database) IsAnime(ctx context.Context, id string) bool {
	p, err := idparser.Parse(id, "unknown")
	if err != nil {
		return false
	}
	entry := db.GetEntryById(ctx, p.Source, p.Value, p.Season, p.Episode)
	return entry != nil
}

// candidateKeys returns both the numeric and string forms of value, since
// cross-reference keys may be stored either way.
func candidateKeys(value string) []string {
	keys := []string{value}
	if n, err := strconv.Atoi(value); err == nil {
		if normalized := strconv.Itoa(n); normalized != value {
			keys = append(keys, normalized)
		}
	}
	return keys
}

// GetEntryById resolves (source, value, season?, episode?) to a canonical
// AnimeEntry, or nil.
func (db *Database) GetEntryById(ctx context.Context, source idparser.IdSource, value string, season, episode *int) *AnimeEntry {
	snap := db.snap.Load()

	var mappings []*MappingEntry
	for _, key := range candidateKeys(value) {
		if found := lookupCrossRef(snap.crossRef, string(source), key); len(found) > 0 {
			mappings = found
			break
		}
	}

	filtered := filterBySeasonType(mappings, season)
	if len(filtered) == 0 {
		filtered = mappings
	}

	chosen, details, tieBreakAniDB := selectBestMapping(snap, filtered, source, value, season, episode)
	if chosen == nil && details == nil && tieBreakAniDB == "" {
		return nil
	}

	var kitsu *KitsuImdbEntry
	var anitraktMov, anitraktTV *AnitraktEntry
	var animeListEntry *AnimeListEntry

	if chosen != nil {
		if chosen.KitsuID != "" {
			kitsu = snap.kitsuImdb[chosen.KitsuID]
		}
		if chosen.MALID != "" {
			anitraktMov = snap.anitraktMov[chosen.MALID]
			anitraktTV = snap.anitraktTV[chosen.MALID]
		}
		if chosen.AniDBID != "" {
			animeListEntry = snap.animeList.ByAniDB[chosen.AniDBID]
		}
	}
	if animeListEntry == nil && tieBreakAniDB != "" {
		animeListEntry = snap.animeList.ByAniDB[tieBreakAniDB]
	}

	anitrakt := anitraktTV
	if anitrakt == nil {
		anitrakt = anitraktMov
	}

	if chosen == nil && details == nil && kitsu == nil && anitrakt == nil && animeListEntry == nil {
		return nil
	}

	return buildAnimeEntry(chosen, details, kitsu, anitrakt, animeListEntry)
}

// filterBySeasonType keeps mappings whose Type fits the requested season:
// undefined season -> MOVIE; season 0 -> SPECIAL/OVA/ONA; otherwise TV.
// UNKNOWN entries are always kept regardless of filter.
func filterBySeasonType(mappings []*MappingEntry, season *int) []*MappingEntry {
	var out []*MappingEntry
	for _, m := range mappings {
		if m.Type == TypeUnknown {
			out = append(out, m)
			continue
		}
		switch {
		case season == nil:
			if m.Type == TypeMovie {
				out = append(out, m)
			}
		case *season == 0:
			if m.Type == TypeSpecial || m.Type == TypeOVA || m.Type == TypeONA {
				out = append(out, m)
			}
		default:
			if m.Type == TypeTV {
				out = append(out, m)
			}
		}
	}
	return out
}

// selectBestMapping picks the mapping to trust when several candidates
// matched. It returns the chosen mapping (may be nil if resolution came
// purely from details), the resolved
// AnimeDetails, and - when tie-breaking picked an AnimeList entry directly -
// that entry's anidbId so the caller can resolve it even if chosen is nil.
func selectBestMapping(snap *snapshot, mappings []*MappingEntry, source idparser.IdSource, value string, season, episode *int) (*MappingEntry, *AnimeDetails, string) {
	if len(mappings) == 0 {
		return nil, nil, ""
	}
	if len(mappings) == 1 {
		return mappings[0], detailsFromMapping(snap, mappings[0]), ""
	}

	if season != nil && episode != nil {
		if m, anidbID := tieBreakMultiple(snap, mappings, *season, *episode); m != nil || anidbID != "" {
			if m != nil {
				return m, detailsFromMapping(snap, m), anidbID
			}
			// Matched only via an AnimeList entry with no corresponding mapping.
			return nil, nil, anidbID
		}
		// No episode-based candidate: fall back to synonym matching.
		for _, m := range mappings {
			details := detailsFromMapping(snap, m)
			if details == nil {
				continue
			}
			if matchesSeasonSynonym(details.Synonyms, *season) {
				return m, details, ""
			}
		}
	}

	return mappings[0], detailsFromMapping(snap, mappings[0]), ""
}

type tieCandidate struct {
	fromEpisode int
	mapping     *MappingEntry
	anidbID     string
}

// tieBreakMultiple builds the candidate set from Kitsu entries whose
// fromSeason matches and AnimeList entries reachable via TVDB (direct or via
// IMDb->TVDB cross-reference), falling back per mapping to a TMDB-reachable
// AnimeList entry when no TVDB path yields a candidate, then picks the
// highest fromEpisode.
func tieBreakMultiple(snap *snapshot, mappings []*MappingEntry, season, episode int) (*MappingEntry, string) {
	var candidates []tieCandidate

	for _, m := range mappings {
		if m.KitsuID == "" {
			continue
		}
		k := snap.kitsuImdb[m.KitsuID]
		if k == nil || k.FromSeason == nil || *k.FromSeason != season {
			continue
		}
		fromEp := 1
		if k.FromEpisode != nil {
			fromEp = *k.FromEpisode
		}
		if episode >= fromEp {
			candidates = append(candidates, tieCandidate{fromEpisode: fromEp, mapping: m})
		}
	}

	for _, m := range mappings {
		tvdbID := m.TVDBID
		if tvdbID == "" && m.IMDbID != "" {
			for _, other := range mappings {
				if other.IMDbID == m.IMDbID && other.TVDBID != "" {
					tvdbID = other.TVDBID
					break
				}
			}
		}

		foundViaTVDB := false
		for _, ale := range snap.animeList.ByTVDB[tvdbID] {
			if !defaultSeasonMatches(ale.DefaultTVDBSeason, season) {
				continue
			}
			offset := 0
			if ale.EpisodeOffset != nil {
				offset = *ale.EpisodeOffset
			}
			if episode >= 1+offset {
				candidates = append(candidates, tieCandidate{fromEpisode: offset + 1, mapping: m, anidbID: ale.AniDBID})
				foundViaTVDB = true
			}
		}
		if foundViaTVDB || m.TMDBID == "" {
			continue
		}

		// No TVDB path produced a candidate for this mapping: fall back to
		// the AnimeList entries reachable by its TMDB id.
		for _, ale := range snap.animeList.ByTMDB[m.TMDBID] {
			if ale.TMDBSeason == nil || *ale.TMDBSeason != season {
				continue
			}
			offset := 0
			if ale.TMDBOffset != nil {
				offset = *ale.TMDBOffset
			}
			if episode >= 1+offset {
				candidates = append(candidates, tieCandidate{fromEpisode: offset + 1, mapping: m, anidbID: ale.AniDBID})
			}
		}
	}

	if len(candidates) == 0 {
		return nil, ""
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.fromEpisode > best.fromEpisode {
			best = c
		}
	}
	return best.mapping, best.anidbID
}

func defaultSeasonMatches(defaultSeason *string, season int) bool {
	if defaultSeason == nil {
		return false
	}
	if *defaultSeason == "a" {
		return true
	}
	n, err := strconv.Atoi(*defaultSeason)
	return err == nil && n == season
}

func matchesSeasonSynonym(synonyms []string, season int) bool {
	pattern := seasonSynonymPattern
	for _, s := range synonyms {
		m := pattern.FindStringSubmatch(s)
		if m != nil && atoiOrZero(m[1]) == season {
			return true
		}
	}
	return false
}

func detailsFromMapping(snap *snapshot, m *MappingEntry) *AnimeDetails {
	for _, id := range m.ids() {
		if d := lookupOffline(snap.offline, string(id.source), id.value); d != nil {
			return d
		}
	}
	return nil
}

// buildAnimeEntry layers mapping/details/kitsu/anitrakt/animeList data into
// the canonical AnimeEntry.
func buildAnimeEntry(m *MappingEntry, details *AnimeDetails, kitsu *KitsuImdbEntry, anitrakt *AnitraktEntry, ale *AnimeListEntry) *AnimeEntry {
	entry := &AnimeEntry{}

	entry.IMDbID = firstNonEmpty(
		mappingField(m, func(m *MappingEntry) string { return m.IMDbID }),
		animeListField(ale, func(a *AnimeListEntry) string { return a.IMDbID }),
		kitsuField(kitsu, func(k *KitsuImdbEntry) string { return k.IMDbID }),
		anitraktField(anitrakt, func(a *AnitraktEntry) string { return a.Externals.IMDb }),
	)
	entry.TVDBID = firstNonEmpty(
		animeListField(ale, func(a *AnimeListEntry) string { return a.TVDBID }),
		kitsuField(kitsu, func(k *KitsuImdbEntry) string { return k.TVDBID }),
		mappingField(m, func(m *MappingEntry) string { return m.TVDBID }),
		anitraktField(anitrakt, func(a *AnitraktEntry) string { return a.Externals.TVDB }),
	)
	entry.TMDBID = firstNonEmpty(
		mappingField(m, func(m *MappingEntry) string { return m.TMDBID }),
		animeListField(ale, func(a *AnimeListEntry) string { return a.TMDBID }),
		anitraktField(anitrakt, func(a *AnitraktEntry) string { return a.Externals.TMDB }),
	)
	entry.TraktIDStr = firstNonEmpty(
		mappingField(m, func(m *MappingEntry) string { return m.TraktID }),
		anitraktTraktID(anitrakt),
	)
	entry.AniListIDStr = mappingField(m, func(m *MappingEntry) string { return m.AniListID })
	entry.MALIDStr = firstNonEmpty(
		mappingField(m, func(m *MappingEntry) string { return m.MALID }),
		anitraktField(anitrakt, func(a *AnitraktEntry) string { return a.MALID }),
	)

	if m != nil {
		entry.Type = m.Type
	} else {
		entry.Type = TypeUnknown
	}
	if details != nil {
		entry.Title = details.Title
		entry.Synonyms = details.Synonyms
		entry.AnimeSeason = details.AnimeSeason
	}

	entry.TVDB = resolveCatalogProjection(mappingSeason(m, true), ale, true)
	entry.TMDB = resolveCatalogProjection(mappingSeason(m, false), ale, false)

	if kitsu != nil {
		entry.IMDb = &IMDbProjection{
			SeasonNumber:    kitsu.FromSeason,
			FromEpisode:     kitsu.FromEpisode,
			NonImdbEpisodes: kitsu.NonImdbEpisodes,
			Title:           kitsu.Title,
		}
		if kitsu.FanartLogoID != "" {
			entry.Fanart = &FanartProjection{LogoID: kitsu.FanartLogoID}
		}
	}

	if anitrakt != nil {
		entry.Trakt = &TraktProjection{
			Title:       anitrakt.Trakt.Title,
			Slug:        anitrakt.Trakt.Slug,
			IsSplitCour: anitrakt.Trakt.IsSplitCour,
		}
		if anitrakt.Trakt.Season != nil {
			id := anitrakt.Trakt.Season.ID
			num := anitrakt.Trakt.Season.Number
			entry.Trakt.SeasonID = &id
			entry.Trakt.SeasonNumber = &num
		}
	}

	if ale != nil {
		entry.EpisodeMappings = ale.Mappings
	}

	return entry
}

func mappingField(m *MappingEntry, f func(*MappingEntry) string) string {
	if m == nil {
		return ""
	}
	return f(m)
}
func animeListField(a *AnimeListEntry, f func(*AnimeListEntry) string) string {
	if a == nil {
		return ""
	}
	return f(a)
}
func kitsuField(k *KitsuImdbEntry, f func(*KitsuImdbEntry) string) string {
	if k == nil {
		return ""
	}
	return f(k)
}
func anitraktField(a *AnitraktEntry, f func(*AnitraktEntry) string) string {
	if a == nil {
		return ""
	}
	return f(a)
}
func anitraktTraktID(a *AnitraktEntry) string {
	if a == nil || a.Trakt.ID == 0 {
		return ""
	}
	return fmt.Sprintf("%d", a.Trakt.ID)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// mappingSeason returns the mapping's explicit season override for the tvdb
// (tvdb=true) or tmdb (tvdb=false) catalog, if any.
func mappingSeason(m *MappingEntry, tvdb bool) *int {
	if m == nil {
		return nil
	}
	if tvdb {
		return m.TVDBSeason
	}
	return m.TMDBSeason
}

// resolveCatalogProjection derives a CatalogProjection: the mapping's season
// override wins first; else the AnimeList entry's season/offset, with
// fromEpisode = offset + 1 when an offset exists.
func resolveCatalogProjection(mappingSeasonOverride *int, ale *AnimeListEntry, tvdb bool) CatalogProjection {
	if mappingSeasonOverride != nil {
		return CatalogProjection{SeasonNumber: mappingSeasonOverride}
	}
	if ale == nil {
		return CatalogProjection{}
	}

	proj := CatalogProjection{}
	if tvdb {
		if ale.EpisodeOffset != nil {
			fromEp := *ale.EpisodeOffset + 1
			proj.FromEpisode = &fromEp
		}
		if n, err := strconv.Atoi(derefString(ale.DefaultTVDBSeason)); err == nil {
			proj.SeasonNumber = &n
		}
	} else {
		proj.SeasonNumber = ale.TMDBSeason
		if ale.TMDBOffset != nil {
			fromEp := *ale.TMDBOffset + 1
			proj.FromEpisode = &fromEp
		}
	}
	return proj
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
