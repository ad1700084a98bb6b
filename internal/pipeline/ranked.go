package pipeline

import "github.com/streamaggr/streamaggr/internal/stream"

// precomputeRanked evaluates every ranked expression against every
// surviving stream, additively accumulating score into
// streamExpressionScore. A stream untouched by any expression keeps a nil
// score.
func (p *Pipeline) precomputeRanked(streams []*stream.ParsedStream, ud *stream.UserData, ctxView map[string]interface{}) []*stream.ParsedStream {
	if len(ud.RankedStreamExpressions) == 0 {
		return streams
	}
	for _, ranked := range ud.RankedStreamExpressions {
		c, err := p.engine.Get(ranked.Expression)
		if err != nil {
			p.logger.Warn().Err(err).Str("expression", ranked.Expression).Msg("ranked expression compile failed, treating as empty")
			continue
		}
		for _, s := range streams {
			ok, evalErr := c.EvaluateBool(StreamParams(s, ctxView))
			if evalErr != nil || !ok {
				continue
			}
			if s.StreamExpressionScore == nil {
				score := ranked.Score
				s.StreamExpressionScore = &score
			} else {
				*s.StreamExpressionScore += ranked.Score
			}
		}
	}
	return streams
}
