package pipeline

import (
	"fmt"
	"strconv"

	"github.com/streamaggr/streamaggr/internal/stream"
)

// acquisitionClass partitions a dedup group by how the stream was acquired,
// the axis multiGroupBehaviour reasons about.
type acquisitionClass int

const (
	classCached acquisitionClass = iota
	classUncached
	classP2P
)

func classify(s *stream.ParsedStream) acquisitionClass {
	if s.Type == stream.TypeP2P {
		return classP2P
	}
	if s.IsCached() {
		return classCached
	}
	return classUncached
}

// deduplicate groups streams by the configured composite key, partitions
// each group by acquisition class, applies each class's cached policy, then
// resolves cross-class drops via multiGroupBehaviour. Streams
// are assumed already sorted by the pipeline's sort stage: "best" within a
// class/service means first-by-current-order.
func deduplicate(streams []*stream.ParsedStream, cfg stream.DeduplicatorConfig) []*stream.ParsedStream {
	if !cfg.Enabled || len(cfg.Keys) == 0 {
		return streams
	}

	groups := make(map[string][]*stream.ParsedStream)
	order := make([]string, 0)
	for _, s := range streams {
		key := dedupKey(s, cfg.Keys)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], s)
	}

	out := make([]*stream.ParsedStream, 0, len(streams))
	for _, key := range order {
		out = append(out, resolveGroup(groups[key], cfg)...)
	}
	return out
}

func dedupKey(s *stream.ParsedStream, keys []string) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		switch k {
		case "filename":
			parts = append(parts, s.Filename)
		case "infoHash":
			parts = append(parts, s.InfoHash())
		case "size":
			parts = append(parts, strconv.FormatInt(s.Size, 10))
		case "smartDetect":
			parts = append(parts, smartDetectKey(s))
		}
	}
	return fmt.Sprintf("%q", parts)
}

// smartDetectKey approximates a release-identity key from resolution plus
// release group, standing in for fuzzy filename normalization.
func smartDetectKey(s *stream.ParsedStream) string {
	return s.Resolution() + "|" + s.ReleaseGroup()
}

func resolveGroup(group []*stream.ParsedStream, cfg stream.DeduplicatorConfig) []*stream.ParsedStream {
	byClass := map[acquisitionClass][]*stream.ParsedStream{}
	for _, s := range group {
		c := classify(s)
		byClass[c] = append(byClass[c], s)
	}

	cached := applyClassPolicy(byClass[classCached], cfg.Cached)
	uncached := applyClassPolicy(byClass[classUncached], cfg.Uncached)
	p2p := applyClassPolicy(byClass[classP2P], cfg.P2P)

	if len(cached) > 0 {
		switch cfg.MultiGroupBehaviour {
		case stream.MultiGroupAggressive:
			uncached = nil
		case stream.MultiGroupConservative:
			uncached = dropSameService(uncached, cached)
		case stream.MultiGroupKeepAll:
			// no cross-class drops
		}
	}

	result := make([]*stream.ParsedStream, 0, len(cached)+len(uncached)+len(p2p))
	result = append(result, cached...)
	result = append(result, uncached...)
	result = append(result, p2p...)
	return result
}

// applyClassPolicy keeps every stream in a class ("disabled"), the single
// best ("single_result"), or the best per service.id ("per_service"). The
// class slice is assumed pre-sorted by the pipeline's sort stage, so "best"
// is simply "first".
func applyClassPolicy(streams []*stream.ParsedStream, policy stream.CachedPolicy) []*stream.ParsedStream {
	switch policy {
	case stream.CachedDisabled, "":
		return streams
	case stream.CachedSingleResult:
		if len(streams) == 0 {
			return nil
		}
		return streams[:1]
	case stream.CachedPerService:
		return bestPerService(streams)
	default:
		return streams
	}
}

func bestPerService(streams []*stream.ParsedStream) []*stream.ParsedStream {
	seen := make(map[string]bool)
	out := make([]*stream.ParsedStream, 0, len(streams))
	for _, s := range streams {
		id := s.ServiceID()
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, s)
	}
	return out
}

// dropSameService removes uncached streams whose service.id matches a
// surviving cached stream's service, keeping uncached copies from services
// with no cached peer.
func dropSameService(uncached, cached []*stream.ParsedStream) []*stream.ParsedStream {
	if len(uncached) == 0 {
		return uncached
	}
	cachedServices := make(map[string]bool, len(cached))
	for _, s := range cached {
		cachedServices[s.ServiceID()] = true
	}
	out := make([]*stream.ParsedStream, 0, len(uncached))
	for _, s := range uncached {
		if cachedServices[s.ServiceID()] {
			continue
		}
		out = append(out, s)
	}
	return out
}
