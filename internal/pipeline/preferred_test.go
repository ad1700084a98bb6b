package pipeline

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamaggr/streamaggr/internal/expression"
	"github.com/streamaggr/streamaggr/internal/stream"
)

func newTestPipeline() *Pipeline {
	return New(nil, expression.NewEngine(), zerolog.Nop())
}

func TestPrecomputePreferred_FirstMatchWins(t *testing.T) {
	p := newTestPipeline()
	s1 := &stream.ParsedStream{ID: "s1", ParsedFile: &stream.ParsedFile{Resolution: "2160p"}}
	s2 := &stream.ParsedStream{ID: "s2", ParsedFile: &stream.ParsedFile{Resolution: "1080p"}}

	ud := &stream.UserData{
		PreferredStreamExpressions: []string{
			`stream.parsedFile.resolution == '2160p'`,
			`stream.parsedFile.resolution == '1080p'`,
		},
	}

	p.precomputePreferred([]*stream.ParsedStream{s1, s2}, ud, map[string]interface{}{})

	require.NotNil(t, s1.StreamExpressionMatched)
	assert.Equal(t, 0, *s1.StreamExpressionMatched)
	require.NotNil(t, s2.StreamExpressionMatched)
	assert.Equal(t, 1, *s2.StreamExpressionMatched)

	ud.PreferredStreamExpressions = append(ud.PreferredStreamExpressions, `stream.parsedFile.resolution == '2160p'`)
	s1.StreamExpressionMatched = nil
	p.precomputePreferred([]*stream.ParsedStream{s1, s2}, ud, map[string]interface{}{})
	assert.Equal(t, 0, *s1.StreamExpressionMatched)
}

func TestPrecomputePreferred_KeywordMatching(t *testing.T) {
	p := newTestPipeline()
	hit := &stream.ParsedStream{ID: "hit", Filename: "[SubsPlease] Frieren - 01.mkv"}
	miss := &stream.ParsedStream{ID: "miss", Filename: "Frieren.S01E01.mkv"}

	ud := &stream.UserData{PreferredKeywords: []string{"subsplease"}}
	p.precomputePreferred([]*stream.ParsedStream{hit, miss}, ud, map[string]interface{}{})

	assert.True(t, hit.KeywordMatched)
	assert.False(t, miss.KeywordMatched)
}

func TestPrecomputePreferred_RegexFirstHitWinsAndNegation(t *testing.T) {
	p := newTestPipeline()
	hdr := &stream.ParsedStream{ID: "hdr", Filename: "Movie.2160p.HDR.mkv"}
	sdr := &stream.ParsedStream{ID: "sdr", Filename: "Movie.1080p.mkv"}

	ud := &stream.UserData{
		RegexAllowed: true,
		PreferredRegexPatterns: []stream.RegexPattern{
			{Name: "no-hdr", Pattern: "/HDR/n"},
			{Name: "any-movie", Pattern: "/Movie/"},
		},
	}
	p.precomputePreferred([]*stream.ParsedStream{hdr, sdr}, ud, map[string]interface{}{})

	// The negated pattern claims the non-HDR stream first; the HDR stream
	// falls through to the second pattern.
	require.NotNil(t, sdr.RegexMatched)
	assert.Equal(t, "no-hdr", sdr.RegexMatched.Name)
	assert.Equal(t, 0, sdr.RegexMatched.Index)

	require.NotNil(t, hdr.RegexMatched)
	assert.Equal(t, "any-movie", hdr.RegexMatched.Name)
	assert.Equal(t, 1, hdr.RegexMatched.Index)
}

func TestSplitPatternFlags(t *testing.T) {
	source, flags := splitPatternFlags("/HDR/ni")
	assert.Equal(t, "HDR", source)
	assert.Equal(t, "ni", flags)

	source, flags = splitPatternFlags("plainpattern")
	assert.Equal(t, "plainpattern", source)
	assert.Equal(t, "", flags)
}

func TestCompileRegexPatterns_DisallowedTreatedAsEmpty(t *testing.T) {
	patterns := compileRegexPatterns([]stream.RegexPattern{{Name: "x", Pattern: "/foo/"}}, false)
	assert.Empty(t, patterns)
}
