package pipeline

import (
	"github.com/streamaggr/streamaggr/internal/seadex"
	"github.com/streamaggr/streamaggr/internal/stream"
)

// precomputeSeaDex tags every stream with its hash-or-group SeaDex
// membership, preferring hash matches over the release-group fallback: the
// fallback only applies when no stream in the batch matched a hash at all.
func precomputeSeaDex(streams []*stream.ParsedStream, info *seadex.Info) []*stream.ParsedStream {
	if info == nil {
		return streams
	}

	anyHashMatched := false
	for _, s := range streams {
		if hash := s.InfoHash(); hash != "" && info.HasHash(hash) {
			anyHashMatched = true
			break
		}
	}

	for _, s := range streams {
		hash := s.InfoHash()
		if hash != "" && info.HasHash(hash) {
			s.SeaDex = &stream.SeaDexTag{
				IsBest:   info.IsBestHash(hash),
				IsSeadex: true,
			}
			continue
		}
		if anyHashMatched {
			continue
		}
		group := s.ReleaseGroup()
		if group != "" && info.HasGroup(group) {
			s.SeaDex = &stream.SeaDexTag{
				IsBest:   info.IsBestGroup(group),
				IsSeadex: true,
			}
		}
	}

	return streams
}
