package seadex

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/streamaggr/streamaggr/internal/cache"
)

// infoWire is the JSON-serializable form of Info, since Go maps used as
// sets (map[string]struct{}) round-trip through encoding/json as
// map[string]bool once decoded back - store as string slices instead, the
// cache's serialization boundary.
type infoWire struct {
	BestHashes []string
	AllHashes  []string
	BestGroups []string
	AllGroups  []string
}

func (i *Info) toWire() infoWire {
	return infoWire{
		BestHashes: keys(i.BestHashes),
		AllHashes:  keys(i.AllHashes),
		BestGroups: keys(i.BestGroups),
		AllGroups:  keys(i.AllGroups),
	}
}

func (w infoWire) toInfo() *Info {
	return &Info{
		BestHashes: set(w.BestHashes),
		AllHashes:  set(w.AllHashes),
		BestGroups: set(w.BestGroups),
		AllGroups:  set(w.AllGroups),
	}
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func set(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}

// Service is the cache-fronted, circuit-breaker-guarded SeaDex Provider.
type Service struct {
	provider Provider
	cache    *cache.SingleflightCache
	breaker  *gobreaker.CircuitBreaker[any]
	ttl      time.Duration
	logger   zerolog.Logger
}

// NewService wires a Provider behind the Shared Cache and a circuit
// breaker, mirroring metadata.NewService's layering.
func NewService(provider Provider, backend *cache.SingleflightCache, ttl time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		provider: provider,
		cache:    backend,
		ttl:      ttl,
		logger:   logger.With().Str("component", "seadex-service").Logger(),
		breaker: gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
			Name:        "seadex",
			MaxRequests: 2,
			Interval:    time.Minute,
			Timeout:     90 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.Requests >= 5 && counts.TotalFailures >= 4
			},
		}),
	}
}

// GetSeaDexInfoHashes resolves anilistID's best/all info-hash and
// release-group sets, cached by anilist id.
func (s *Service) GetSeaDexInfoHashes(ctx context.Context, anilistID int) (*Info, error) {
	key := cache.BuildKey("seadex", fmt.Sprintf("%d", anilistID))
	wire, err := cache.GetOrSetJSON(ctx, s.cache, key, s.ttl, func(ctx context.Context) (infoWire, error) {
		v, err := s.breaker.Execute(func() (any, error) {
			return s.provider.GetAniListEntries(ctx, anilistID)
		})
		if err != nil {
			s.logger.Warn().Err(err).Int("anilistId", anilistID).Msg("seadex fetch failed")
			return infoWire{}, err
		}
		return buildInfo(v.([]Release)).toWire(), nil
	})
	if err != nil {
		return nil, err
	}
	return wire.toInfo(), nil
}

func buildInfo(releases []Release) *Info {
	info := &Info{
		BestHashes: map[string]struct{}{},
		AllHashes:  map[string]struct{}{},
		BestGroups: map[string]struct{}{},
		AllGroups:  map[string]struct{}{},
	}
	for _, r := range releases {
		hash := normalize(r.InfoHash)
		group := normalize(r.ReleaseGroup)
		if hash != "" {
			info.AllHashes[hash] = struct{}{}
			if r.IsBest {
				info.BestHashes[hash] = struct{}{}
			}
		}
		if group != "" {
			info.AllGroups[group] = struct{}{}
			if r.IsBest {
				info.BestGroups[group] = struct{}{}
			}
		}
	}
	return info
}
