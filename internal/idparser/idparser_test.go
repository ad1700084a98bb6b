package idparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_BareIMDb(t *testing.T) {
	p, err := Parse("tt0111161", "movie")
	require.NoError(t, err)
	assert.Equal(t, SourceIMDb, p.Source)
	assert.Equal(t, "tt0111161", p.Value)
	assert.Nil(t, p.Season)
	assert.Nil(t, p.Episode)
}

func TestParse_IMDbWithSeasonEpisode(t *testing.T) {
	p, err := Parse("tt0944947:2:5", "series")
	require.NoError(t, err)
	assert.Equal(t, SourceIMDb, p.Source)
	assert.Equal(t, "tt0944947", p.Value)
	require.NotNil(t, p.Season)
	assert.Equal(t, 2, *p.Season)
	require.NotNil(t, p.Episode)
	assert.Equal(t, 5, *p.Episode)
}

func TestParse_KitsuSeriesSeason(t *testing.T) {
	p, err := Parse("kitsu:7936:2:5", "series")
	require.NoError(t, err)
	assert.Equal(t, SourceKitsu, p.Source)
	assert.Equal(t, "7936", p.Value)
	require.NotNil(t, p.Season)
	assert.Equal(t, 2, *p.Season)
	require.NotNil(t, p.Episode)
	assert.Equal(t, 5, *p.Episode)

	n, ok := p.ValueInt()
	require.True(t, ok)
	assert.Equal(t, 7936, n)
}

func TestParse_KitsuMovieNoSuffix(t *testing.T) {
	p, err := Parse("kitsu:7936", "movie")
	require.NoError(t, err)
	assert.Equal(t, SourceKitsu, p.Source)
	assert.Equal(t, "7936", p.Value)
	assert.Nil(t, p.Season)
	assert.Nil(t, p.Episode)
}

func TestParse_SlugSource(t *testing.T) {
	p, err := Parse("animePlanet:cowboy-bebop", "series")
	require.NoError(t, err)
	assert.Equal(t, SourceAnimePlanet, p.Source)
	assert.Equal(t, "cowboy-bebop", p.Value)
	_, ok := p.ValueInt()
	assert.False(t, ok)
}

func TestParse_CaseInsensitivePrefix(t *testing.T) {
	p, err := Parse("ANIDB:12345", "series")
	require.NoError(t, err)
	assert.Equal(t, SourceAniDB, p.Source)
}

func TestParse_UnknownPrefix(t *testing.T) {
	_, err := Parse("bogus:123", "movie")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestParse_MissingValue(t *testing.T) {
	_, err := Parse("tmdb:", "movie")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestParse_BadSeason(t *testing.T) {
	_, err := Parse("kitsu:7936:abc", "series")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse("", "movie")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestParsedId_String(t *testing.T) {
	season, episode := 2, 5
	p := ParsedId{Source: SourceKitsu, Value: "7936", Season: &season, Episode: &episode}
	assert.Equal(t, "kitsu:7936:2:5", p.String())

	p2 := ParsedId{Source: SourceIMDb, Value: "tt0111161"}
	assert.Equal(t, "imdb:tt0111161", p2.String())
}
