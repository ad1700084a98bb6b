package pipeline

import (
	"sort"

	"github.com/streamaggr/streamaggr/internal/stream"
)

// resolutionRank orders resolutions highest-first; an unrecognized or empty
// resolution ranks below every known one.
var resolutionRank = map[string]int{
	"2160p": 9, "1440p": 8, "1080p": 7, "720p": 6, "576p": 5,
	"480p": 4, "360p": 3, "240p": 2, "144p": 1,
}

// sortStreams stably sorts streams by each key in criteria in order, with
// ties falling through to later keys and, ultimately, to the Fetcher's
// original relative order. preferredResolutions biases the resolution key:
// listed resolutions outrank unlisted ones, earlier entries first.
func sortStreams(streams []*stream.ParsedStream, criteria []stream.SortCriterion, preferredResolutions []string) {
	if len(criteria) == 0 {
		return
	}
	resRank := buildResolutionRank(preferredResolutions)
	sort.SliceStable(streams, func(i, j int) bool {
		a, b := streams[i], streams[j]
		for _, c := range criteria {
			cmp := compareByKey(a, b, c.Key, resRank)
			if cmp == 0 {
				continue
			}
			if c.Direction == stream.SortAsc {
				return cmp < 0
			}
			return cmp > 0
		}
		return false
	})
}

// buildResolutionRank lifts the user's preferred resolutions above the
// natural highest-first ordering: the first preferred resolution ranks
// highest, the rest follow in list order, and everything unlisted keeps its
// natural rank below them.
func buildResolutionRank(preferred []string) map[string]int {
	if len(preferred) == 0 {
		return resolutionRank
	}
	out := make(map[string]int, len(resolutionRank)+len(preferred))
	for res, rank := range resolutionRank {
		out[res] = rank
	}
	base := len(resolutionRank) + len(preferred) + 1
	for i, res := range preferred {
		out[res] = base - i
	}
	return out
}

// compareByKey returns a positive number if a's value for key is higher
// than b's, negative if lower, zero on a tie. The caller places the higher
// value first for SortDesc and the lower value first for SortAsc.
func compareByKey(a, b *stream.ParsedStream, key stream.SortKey, resRank map[string]int) int {
	switch key {
	case stream.SortCached:
		return compareBool(a.IsCached(), b.IsCached())
	case stream.SortResolution:
		return compareInt(resRank[a.Resolution()], resRank[b.Resolution()])
	case stream.SortLibrary:
		return compareBool(a.Library, b.Library)
	case stream.SortRegexPatterns:
		return compareInt(regexRankDesc(a), regexRankDesc(b))
	case stream.SortStreamType:
		return compareString(string(a.Type), string(b.Type))
	case stream.SortVisualTag:
		return compareInt(len(visualTags(a)), len(visualTags(b)))
	case stream.SortAudioTag:
		return compareInt(len(audioTags(a)), len(audioTags(b)))
	case stream.SortAudioChannel:
		return compareInt(len(audioChannels(a)), len(audioChannels(b)))
	case stream.SortEncode:
		return compareEncodePresence(a, b)
	case stream.SortLanguage:
		return compareInt(len(languages(a)), len(languages(b)))
	case stream.SortSize:
		return compareInt64(a.Size, b.Size)
	default:
		return 0
	}
}

// regexRankDesc converts "lower index wins" into a value that compares
// correctly under the shared desc-sense comparator: no match ranks lowest,
// and among matches, a lower recorded index ranks higher.
func regexRankDesc(s *stream.ParsedStream) int {
	if s.RegexMatched == nil {
		return -1
	}
	return 1_000_000 - s.RegexMatched.Index
}

func compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if a {
		return 1
	}
	return -1
}

func compareInt(a, b int) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

func compareString(a, b string) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

func compareEncodePresence(a, b *stream.ParsedStream) int {
	return compareBool(a.ParsedFile != nil && a.ParsedFile.Encode != "", b.ParsedFile != nil && b.ParsedFile.Encode != "")
}

func visualTags(s *stream.ParsedStream) []string {
	if s.ParsedFile == nil {
		return nil
	}
	return s.ParsedFile.VisualTags
}

func audioTags(s *stream.ParsedStream) []string {
	if s.ParsedFile == nil {
		return nil
	}
	return s.ParsedFile.AudioTags
}

func audioChannels(s *stream.ParsedStream) []string {
	if s.ParsedFile == nil {
		return nil
	}
	return s.ParsedFile.AudioChannels
}

func languages(s *stream.ParsedStream) []string {
	if s.ParsedFile == nil {
		return nil
	}
	return s.ParsedFile.Languages
}
