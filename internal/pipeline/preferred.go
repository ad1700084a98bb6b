package pipeline

import (
	"regexp"
	"strings"

	"github.com/streamaggr/streamaggr/internal/stream"
)

// precomputePreferred annotates keywordMatched, regexMatched, and
// streamExpressionMatched on every surviving stream.
func (p *Pipeline) precomputePreferred(streams []*stream.ParsedStream, ud *stream.UserData, ctxView map[string]interface{}) []*stream.ParsedStream {
	keywordRe := compileKeywords(ud.PreferredKeywords)
	patterns := compileRegexPatterns(ud.PreferredRegexPatterns, ud.RegexAllowed)

	for _, s := range streams {
		s.KeywordMatched = matchesAny(keywordRe, candidateStrings(s))
		s.RegexMatched = firstPatternMatch(patterns, candidateStrings(s))
	}

	for idx, expr := range ud.PreferredStreamExpressions {
		for _, s := range streams {
			if s.StreamExpressionMatched != nil {
				continue
			}
			if p.evalBool(expr, s, ctxView) {
				i := idx
				s.StreamExpressionMatched = &i
			}
		}
	}

	return streams
}

func candidateStrings(s *stream.ParsedStream) []string {
	return []string{s.Filename, s.FolderName, s.ReleaseGroup(), s.Indexer}
}

func compileKeywords(keywords []string) *regexp.Regexp {
	if len(keywords) == 0 {
		return nil
	}
	parts := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k == "" {
			continue
		}
		parts = append(parts, regexp.QuoteMeta(k))
	}
	if len(parts) == 0 {
		return nil
	}
	re, err := regexp.Compile("(?i)" + strings.Join(parts, "|"))
	if err != nil {
		return nil
	}
	return re
}

func matchesAny(re *regexp.Regexp, candidates []string) bool {
	if re == nil {
		return false
	}
	for _, c := range candidates {
		if c != "" && re.MatchString(c) {
			return true
		}
	}
	return false
}

type compiledPattern struct {
	name    string
	source  string
	re      *regexp.Regexp
	negated bool
}

// compileRegexPatterns compiles each preferredRegexPattern, parsing the
// synthetic "n" (negate) and "i" (case-insensitive) flags out of a
// "/pattern/flags" literal before compiling the bare pattern. If regex use isn't permitted for the user, the list is treated as
// empty rather than rejected outright.
func compileRegexPatterns(patterns []stream.RegexPattern, allowed bool) []compiledPattern {
	if !allowed {
		return nil
	}
	out := make([]compiledPattern, 0, len(patterns))
	for _, p := range patterns {
		source, flags := splitPatternFlags(p.Pattern)
		negated := strings.Contains(flags, "n")
		caseInsensitive := strings.Contains(flags, "i")
		if caseInsensitive {
			source = "(?i)" + source
		}
		re, err := regexp.Compile(source)
		if err != nil {
			continue
		}
		out = append(out, compiledPattern{name: p.Name, source: p.Pattern, re: re, negated: negated})
	}
	return out
}

// splitPatternFlags parses a "/pattern/flags" literal into its bare pattern
// and flag string. Patterns with no delimiters are returned unchanged with
// no flags.
func splitPatternFlags(pattern string) (source, flags string) {
	if len(pattern) < 2 || pattern[0] != '/' {
		return pattern, ""
	}
	last := strings.LastIndex(pattern, "/")
	if last <= 0 {
		return pattern, ""
	}
	return pattern[1:last], pattern[last+1:]
}

// firstPatternMatch returns the first pattern (in order) that matches any
// candidate after negation, or nil.
func firstPatternMatch(patterns []compiledPattern, candidates []string) *stream.RegexMatch {
	for i, p := range patterns {
		matched := matchesAny(p.re, candidates)
		if p.negated {
			matched = !matched
		}
		if matched {
			return &stream.RegexMatch{Name: p.name, Pattern: p.source, Index: i}
		}
	}
	return nil
}
