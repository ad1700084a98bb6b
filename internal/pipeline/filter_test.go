package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/streamaggr/streamaggr/internal/stream"
)

func ids(streams []*stream.ParsedStream) []string {
	out := make([]string, 0, len(streams))
	for _, s := range streams {
		out = append(out, s.ID)
	}
	return out
}

func TestFilter_ExcludedExpressionDropsMatches(t *testing.T) {
	p := newTestPipeline()
	cam := &stream.ParsedStream{ID: "cam", ParsedFile: &stream.ParsedFile{Quality: "CAM"}}
	bluray := &stream.ParsedStream{ID: "bluray", ParsedFile: &stream.ParsedFile{Quality: "BluRay"}}

	ud := &stream.UserData{ExcludedStreamExpressions: []string{`stream.parsedFile.quality == 'CAM'`}}
	out := p.filter([]*stream.ParsedStream{cam, bluray}, ud, map[string]interface{}{})

	assert.Equal(t, []string{"bluray"}, ids(out))
}

func TestFilter_RequiredExpressionKeepsOnlyMatches(t *testing.T) {
	p := newTestPipeline()
	cached := &stream.ParsedStream{ID: "cached", Service: &stream.ServiceInfo{Cached: true}}
	uncached := &stream.ParsedStream{ID: "uncached", Service: &stream.ServiceInfo{Cached: false}}

	ud := &stream.UserData{RequiredStreamExpressions: []string{`stream.cached`}}
	out := p.filter([]*stream.ParsedStream{cached, uncached}, ud, map[string]interface{}{})

	assert.Equal(t, []string{"cached"}, ids(out))
}

func TestFilter_IncludedExpressionsAreAWhitelist(t *testing.T) {
	p := newTestPipeline()
	uhd := &stream.ParsedStream{ID: "uhd", ParsedFile: &stream.ParsedFile{Resolution: "2160p"}}
	hd := &stream.ParsedStream{ID: "hd", ParsedFile: &stream.ParsedFile{Resolution: "1080p"}}
	sd := &stream.ParsedStream{ID: "sd", ParsedFile: &stream.ParsedFile{Resolution: "480p"}}

	ud := &stream.UserData{IncludedStreamExpressions: []string{
		`stream.resolution == '2160p'`,
		`stream.resolution == '1080p'`,
	}}
	out := p.filter([]*stream.ParsedStream{uhd, hd, sd}, ud, map[string]interface{}{})

	assert.Equal(t, []string{"uhd", "hd"}, ids(out))
}

func TestFilter_ExcludedQualitiesAndVisualTags(t *testing.T) {
	p := newTestPipeline()
	cam := &stream.ParsedStream{ID: "cam", ParsedFile: &stream.ParsedFile{Quality: "cam"}}
	dv := &stream.ParsedStream{ID: "dv", ParsedFile: &stream.ParsedFile{Quality: "WEB-DL", VisualTags: []string{"DV"}}}
	clean := &stream.ParsedStream{ID: "clean", ParsedFile: &stream.ParsedFile{Quality: "WEB-DL"}}

	ud := &stream.UserData{
		ExcludedQualities:  []string{"CAM"},
		ExcludedVisualTags: []string{"dv"},
	}
	out := p.filter([]*stream.ParsedStream{cam, dv, clean}, ud, map[string]interface{}{})

	assert.Equal(t, []string{"clean"}, ids(out))
}

func TestFilter_CompileFailureTreatedAsEmptyPredicate(t *testing.T) {
	p := newTestPipeline()
	s := &stream.ParsedStream{ID: "a"}

	// A broken excluded expression selects nothing, so the stream survives.
	ud := &stream.UserData{ExcludedStreamExpressions: []string{`(((`}}
	out := p.filter([]*stream.ParsedStream{s}, ud, map[string]interface{}{})
	assert.Len(t, out, 1)

	// A broken required expression also selects nothing, dropping everything.
	ud = &stream.UserData{RequiredStreamExpressions: []string{`(((`}}
	out = p.filter([]*stream.ParsedStream{s}, ud, map[string]interface{}{})
	assert.Empty(t, out)
}

func TestFilter_SeasonEpisodeMatching(t *testing.T) {
	p := newTestPipeline()
	right := &stream.ParsedStream{ID: "right", Filename: "Breaking.Bad.S05E14.1080p.mkv"}
	wrong := &stream.ParsedStream{ID: "wrong", Filename: "Breaking.Bad.S05E01.1080p.mkv"}
	unmarked := &stream.ParsedStream{ID: "unmarked", Filename: "Breaking.Bad.Complete.mkv"}

	ud := &stream.UserData{SeasonEpisodeMatching: true}
	ctxView := map[string]interface{}{"season": 5, "episode": 14}
	out := p.filter([]*stream.ParsedStream{right, wrong, unmarked}, ud, ctxView)

	// Streams without a SxxEyy marker pass through; mismatches are dropped.
	assert.Equal(t, []string{"right", "unmarked"}, ids(out))
}

func TestFilter_TitleMatching(t *testing.T) {
	p := newTestPipeline()
	match := &stream.ParsedStream{ID: "match", Filename: "arrival.2016.1080p.mkv"}
	other := &stream.ParsedStream{ID: "other", Filename: "sicario.2015.1080p.mkv"}

	ud := &stream.UserData{TitleMatching: true}
	ctxView := map[string]interface{}{"title": "Arrival"}
	out := p.filter([]*stream.ParsedStream{match, other}, ud, ctxView)

	assert.Equal(t, []string{"match"}, ids(out))
}

func TestFilter_DigitalReleaseFilterDropsPreRelease(t *testing.T) {
	p := newTestPipeline()
	s := &stream.ParsedStream{ID: "early"}

	ud := &stream.UserData{DigitalReleaseFilter: stream.DigitalReleaseFilter{Enabled: true, GraceDays: 3}}

	// 10 days before release: dropped.
	out := p.filter([]*stream.ParsedStream{s}, ud, map[string]interface{}{"daysSinceRelease": -10})
	assert.Empty(t, out)

	// 2 days before release, within grace: kept.
	out = p.filter([]*stream.ParsedStream{s}, ud, map[string]interface{}{"daysSinceRelease": -2})
	assert.Len(t, out, 1)

	// Unknown release date: kept.
	out = p.filter([]*stream.ParsedStream{s}, ud, map[string]interface{}{"daysSinceRelease": nil})
	assert.Len(t, out, 1)
}
