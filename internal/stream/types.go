// Package stream defines the ParsedStream and UserData shapes the Stream
// Pipeline operates over.
package stream

import "strings"

// StreamType classifies how a stream can be played.
type StreamType string

const (
	TypeDebrid    StreamType = "debrid"
	TypeP2P       StreamType = "p2p"
	TypeUsenet    StreamType = "usenet"
	TypeHTTP      StreamType = "http"
	TypeLive      StreamType = "live"
	TypeYouTube   StreamType = "youtube"
	TypeExternal  StreamType = "external"
	TypeError     StreamType = "error"
	TypeStatistic StreamType = "statistic"
)

// CachedPolicy controls how a deduplication class keeps streams within a
// service group.
type CachedPolicy string

const (
	CachedSingleResult CachedPolicy = "single_result"
	CachedPerService   CachedPolicy = "per_service"
	CachedDisabled     CachedPolicy = "disabled"
)

// MultiGroupBehaviour controls cross-class drops during deduplication.
type MultiGroupBehaviour string

const (
	MultiGroupAggressive   MultiGroupBehaviour = "aggressive"
	MultiGroupConservative MultiGroupBehaviour = "conservative"
	MultiGroupKeepAll      MultiGroupBehaviour = "keep_all"
)

// ParsedFile carries the fields extracted from a release's filename.
type ParsedFile struct {
	Resolution    string
	Quality       string
	Encode        string
	VisualTags    []string
	AudioTags     []string
	AudioChannels []string
	Languages     []string
	ReleaseGroup  string
}

// TorrentInfo carries the torrent-specific fields of a stream.
type TorrentInfo struct {
	InfoHash string
	Seeders  int
}

// ServiceInfo identifies the debrid/usenet service backing a cached stream.
type ServiceInfo struct {
	ID        string
	ShortName string
	Cached    bool
}

// SeaDexTag is set by the early SeaDex precompute stage.
type SeaDexTag struct {
	IsBest   bool
	IsSeadex bool
}

// RegexMatch records which preferred regex pattern claimed a stream, and at
// what index, for first-hit-wins semantics.
type RegexMatch struct {
	Name    string
	Pattern string
	Index   int
}

// ParsedStream is one candidate playback stream returned by an addon and
// progressively annotated by the pipeline's precompute stages.
type ParsedStream struct {
	ID         string
	Filename   string
	FolderName string
	Indexer    string
	ParsedFile *ParsedFile
	Torrent    *TorrentInfo
	Size       int64
	FolderSize int64
	Age        int64 // seconds
	Type       StreamType
	Service    *ServiceInfo
	Library    bool
	Proxied    bool
	Private    bool
	Message    string

	// Mutable per-request annotations, set by pipeline precompute stages.
	SeaDex                  *SeaDexTag
	RegexMatched            *RegexMatch
	KeywordMatched          bool
	StreamExpressionMatched *int
	StreamExpressionScore   *float64
}

// Resolution returns the stream's resolution tag, or "" if unparsed.
func (s *ParsedStream) Resolution() string {
	if s.ParsedFile == nil {
		return ""
	}
	return s.ParsedFile.Resolution
}

// ReleaseGroup returns the stream's release-group tag, or "" if unparsed.
func (s *ParsedStream) ReleaseGroup() string {
	if s.ParsedFile == nil {
		return ""
	}
	return s.ParsedFile.ReleaseGroup
}

// InfoHash returns the stream's torrent info-hash, lowercased, or "".
func (s *ParsedStream) InfoHash() string {
	if s.Torrent == nil {
		return ""
	}
	return strings.ToLower(s.Torrent.InfoHash)
}

// IsCached reports whether the stream is backed by a cache-hit service copy.
func (s *ParsedStream) IsCached() bool {
	return s.Service != nil && s.Service.Cached
}

// ServiceID returns the backing service's id, or "" if none.
func (s *ParsedStream) ServiceID() string {
	if s.Service == nil {
		return ""
	}
	return s.Service.ID
}

// RegexPattern is a user-supplied named regular expression, with the
// synthetic "n" flag (negation) parsed out at compile time.
type RegexPattern struct {
	Name    string
	Pattern string
}

// RankedExpression pairs a scoring expression with the score it contributes
// to every stream it selects.
type RankedExpression struct {
	Expression string
	Score      float64
}

// DeduplicatorConfig configures the deduplication stage.
type DeduplicatorConfig struct {
	Enabled             bool
	Keys                []string // subset of {filename, infoHash, size, smartDetect}
	MultiGroupBehaviour MultiGroupBehaviour
	Cached              CachedPolicy
	Uncached            CachedPolicy
	P2P                 CachedPolicy
}

// SortKey names one field sortCriteria.global can order by.
type SortKey string

const (
	SortCached        SortKey = "cached"
	SortResolution    SortKey = "resolution"
	SortLibrary       SortKey = "library"
	SortRegexPatterns SortKey = "regexPatterns"
	SortStreamType    SortKey = "streamType"
	SortVisualTag     SortKey = "visualTag"
	SortAudioTag      SortKey = "audioTag"
	SortAudioChannel  SortKey = "audioChannel"
	SortEncode        SortKey = "encode"
	SortLanguage      SortKey = "language"
	SortSize          SortKey = "size"
)

// SortDirection is "desc" or "asc".
type SortDirection string

const (
	SortDesc SortDirection = "desc"
	SortAsc  SortDirection = "asc"
)

// SortCriterion pairs a sort key with its direction.
type SortCriterion struct {
	Key       SortKey
	Direction SortDirection
}

// DigitalReleaseFilter gates streams against a movie's digital release date.
type DigitalReleaseFilter struct {
	Enabled   bool
	GraceDays int
}

// UserData is the configuration subset relevant to the pipeline.
type UserData struct {
	PreferredResolutions       []string
	ExcludedQualities          []string
	ExcludedVisualTags         []string
	PreferredKeywords          []string
	PreferredRegexPatterns     []RegexPattern
	PreferredStreamExpressions []string
	RankedStreamExpressions    []RankedExpression
	IncludedStreamExpressions  []string
	RequiredStreamExpressions  []string
	ExcludedStreamExpressions  []string
	Deduplicator               DeduplicatorConfig
	EnableSeadex               *bool
	TitleMatching              bool
	YearMatching               bool
	SeasonEpisodeMatching      bool
	DigitalReleaseFilter       DigitalReleaseFilter
	SortCriteria               struct {
		Global []SortCriterion
	}
	RegexAllowed bool // permission gate on the caller's regex-pattern sort key
}
