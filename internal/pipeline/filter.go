package pipeline

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/streamaggr/streamaggr/internal/stream"
)

// filter applies the excluded/required/included expression lists, the
// quality/visual-tag deny lists, title/year/season-episode matching, and the
// digital-release filter, in that order. Expression compile failures are
// logged and treated as an empty (always-false) predicate for that stage.
func (p *Pipeline) filter(streams []*stream.ParsedStream, ud *stream.UserData, ctxView map[string]interface{}) []*stream.ParsedStream {
	out := make([]*stream.ParsedStream, 0, len(streams))
	for _, s := range streams {
		if !p.passesExcluded(s, ud, ctxView) {
			continue
		}
		if !p.passesRequired(s, ud, ctxView) {
			continue
		}
		if !p.passesIncluded(s, ud, ctxView) {
			continue
		}
		if excludedByQuality(s, ud) {
			continue
		}
		if !p.passesMatching(s, ud, ctxView) {
			continue
		}
		if !passesDigitalReleaseFilter(ud, ctxView) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (p *Pipeline) passesExcluded(s *stream.ParsedStream, ud *stream.UserData, ctxView map[string]interface{}) bool {
	for _, expr := range ud.ExcludedStreamExpressions {
		if p.evalBool(expr, s, ctxView) {
			return false
		}
	}
	return true
}

func (p *Pipeline) passesRequired(s *stream.ParsedStream, ud *stream.UserData, ctxView map[string]interface{}) bool {
	for _, expr := range ud.RequiredStreamExpressions {
		if !p.evalBool(expr, s, ctxView) {
			return false
		}
	}
	return true
}

func (p *Pipeline) passesIncluded(s *stream.ParsedStream, ud *stream.UserData, ctxView map[string]interface{}) bool {
	if len(ud.IncludedStreamExpressions) == 0 {
		return true
	}
	for _, expr := range ud.IncludedStreamExpressions {
		if p.evalBool(expr, s, ctxView) {
			return true
		}
	}
	return false
}

func (p *Pipeline) evalBool(expr string, s *stream.ParsedStream, ctxView map[string]interface{}) bool {
	c, err := p.engine.Get(expr)
	if err != nil {
		p.logger.Warn().Err(err).Str("expression", expr).Msg("expression compile failed, treating as empty")
		return false
	}
	ok, err := c.EvaluateBool(StreamParams(s, ctxView))
	if err != nil {
		p.logger.Debug().Err(err).Str("expression", expr).Msg("expression evaluation failed")
		return false
	}
	return ok
}

func excludedByQuality(s *stream.ParsedStream, ud *stream.UserData) bool {
	if s.ParsedFile == nil {
		return false
	}
	for _, q := range ud.ExcludedQualities {
		if strings.EqualFold(q, s.ParsedFile.Quality) {
			return true
		}
	}
	for _, tag := range s.ParsedFile.VisualTags {
		for _, excluded := range ud.ExcludedVisualTags {
			if strings.EqualFold(tag, excluded) {
				return true
			}
		}
	}
	return false
}

var filenameYearPattern = regexp.MustCompile(`(?:19|20)\d{2}`)
var filenameSeasonEpisodePattern = regexp.MustCompile(`(?i)s(\d{1,2})e(\d{1,3})`)

// passesMatching implements title/year/season-episode matching by checking
// the raw filename against the Context's resolved expression view, since
// ParsedFile carries no title/season/episode fields of its own.
func (p *Pipeline) passesMatching(s *stream.ParsedStream, ud *stream.UserData, ctxView map[string]interface{}) bool {
	name := strings.ToLower(s.Filename)
	if name == "" {
		name = strings.ToLower(s.FolderName)
	}

	if ud.TitleMatching {
		if title, ok := ctxView["title"].(string); ok && title != "" {
			if !titleLooselyMatches(name, title) {
				return false
			}
		}
	}

	if ud.YearMatching {
		if year, ok := ctxView["year"].(int); ok && year > 0 {
			if m := filenameYearPattern.FindString(name); m != "" {
				if n, err := strconv.Atoi(m); err == nil {
					diff := n - year
					if diff < -1 || diff > 1 {
						return false
					}
				}
			}
		}
	}

	if ud.SeasonEpisodeMatching {
		wantSeason, hasSeason := ctxView["season"].(int)
		wantEpisode, hasEpisode := ctxView["episode"].(int)
		if hasSeason && hasEpisode {
			if m := filenameSeasonEpisodePattern.FindStringSubmatch(name); m != nil {
				gotSeason, _ := strconv.Atoi(m[1])
				gotEpisode, _ := strconv.Atoi(m[2])
				if gotSeason != wantSeason || gotEpisode != wantEpisode {
					return false
				}
			}
		}
	}

	return true
}

func titleLooselyMatches(name, title string) bool {
	for _, word := range strings.Fields(strings.ToLower(title)) {
		word = strings.Trim(word, ".,:;!?'\"")
		if len(word) < 3 {
			continue
		}
		if strings.Contains(name, word) {
			return true
		}
	}
	return false
}

// passesDigitalReleaseFilter drops a movie's streams while the movie's
// canonical release date (daysSinceRelease: theatrical, else digital, else
// physical) is more than the configured grace period away, guarding against
// pre-release cams. Series requests are not filtered.
func passesDigitalReleaseFilter(ud *stream.UserData, ctxView map[string]interface{}) bool {
	if !ud.DigitalReleaseFilter.Enabled {
		return true
	}
	if t, ok := ctxView["type"].(string); ok && t != "movie" {
		return true
	}
	days, ok := ctxView["daysSinceRelease"].(int)
	if !ok {
		return true
	}
	return days >= -ud.DigitalReleaseFilter.GraceDays
}
