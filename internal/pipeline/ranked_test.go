package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/streamaggr/streamaggr/internal/stream"
)

func TestPrecomputeRanked_AdditiveScoring(t *testing.T) {
	p := newTestPipeline()

	cached1080 := &stream.ParsedStream{ID: "a", ParsedFile: &stream.ParsedFile{Resolution: "1080p"}, Service: &stream.ServiceInfo{Cached: true}}
	cached720 := &stream.ParsedStream{ID: "b", ParsedFile: &stream.ParsedFile{Resolution: "720p"}, Service: &stream.ServiceInfo{Cached: true}}
	uncached1080 := &stream.ParsedStream{ID: "c", ParsedFile: &stream.ParsedFile{Resolution: "1080p"}, Service: &stream.ServiceInfo{Cached: false}}

	ud := &stream.UserData{
		RankedStreamExpressions: []stream.RankedExpression{
			{Expression: `stream.parsedFile.resolution == '1080p'`, Score: 10},
			{Expression: `stream.cached`, Score: 5},
		},
	}

	streams := []*stream.ParsedStream{cached1080, cached720, uncached1080}
	p.precomputeRanked(streams, ud, map[string]interface{}{})

	require.NotNil(t, cached1080.StreamExpressionScore)
	require.Equal(t, float64(15), *cached1080.StreamExpressionScore)

	require.NotNil(t, cached720.StreamExpressionScore)
	require.Equal(t, float64(5), *cached720.StreamExpressionScore)

	require.NotNil(t, uncached1080.StreamExpressionScore)
	require.Equal(t, float64(10), *uncached1080.StreamExpressionScore)
}
