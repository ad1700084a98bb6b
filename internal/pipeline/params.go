// Package pipeline implements the Stream Pipeline: the ordered
// Fetch -> precompute-SeaDex -> Filter -> precompute-preferred/ranked ->
// Sort -> Deduplicate orchestration that turns one request's raw addon
// output into a ranked, deduplicated, user-tailored stream list.
package pipeline

import "github.com/streamaggr/streamaggr/internal/stream"

// StreamParams projects one ParsedStream into the flat parameter map the
// Expression Engine evaluates against: the context view's bare field names
// plus every stream field under a dotted "stream.*" name (the engine's
// rewriter bracket-escapes dotted references into these flat keys). Every
// standard stream key is always present - nil/zero when the underlying
// record lacks it - so user expressions resolve instead of erroring. The
// seadex() predicate is rewritten to compare against __seadex_is_seadex,
// injected alongside the stream keys. A few bare aliases (resolution,
// quality, releaseGroup, cached, size...) cover the common shorthand of
// referencing a stream field without the stream. prefix.
func StreamParams(s *stream.ParsedStream, ctxView map[string]interface{}) map[string]interface{} {
	params := make(map[string]interface{}, len(ctxView)+48)
	for k, v := range ctxView {
		params[k] = v
	}

	params["stream.id"] = s.ID
	params["stream.filename"] = s.Filename
	params["stream.folderName"] = s.FolderName
	params["stream.indexer"] = s.Indexer
	params["stream.size"] = float64(s.Size)
	params["stream.folderSize"] = float64(s.FolderSize)
	params["stream.age"] = float64(s.Age)
	params["stream.type"] = string(s.Type)
	params["stream.library"] = s.Library
	params["stream.proxied"] = s.Proxied
	params["stream.private"] = s.Private
	params["stream.message"] = s.Message

	params["stream.parsedFile.resolution"] = ""
	params["stream.parsedFile.quality"] = ""
	params["stream.parsedFile.encode"] = ""
	params["stream.parsedFile.visualTags"] = []interface{}{}
	params["stream.parsedFile.audioTags"] = []interface{}{}
	params["stream.parsedFile.audioChannels"] = []interface{}{}
	params["stream.parsedFile.languages"] = []interface{}{}
	params["stream.parsedFile.releaseGroup"] = ""
	if s.ParsedFile != nil {
		params["stream.parsedFile.resolution"] = s.ParsedFile.Resolution
		params["stream.parsedFile.quality"] = s.ParsedFile.Quality
		params["stream.parsedFile.encode"] = s.ParsedFile.Encode
		params["stream.parsedFile.visualTags"] = toList(s.ParsedFile.VisualTags)
		params["stream.parsedFile.audioTags"] = toList(s.ParsedFile.AudioTags)
		params["stream.parsedFile.audioChannels"] = toList(s.ParsedFile.AudioChannels)
		params["stream.parsedFile.languages"] = toList(s.ParsedFile.Languages)
		params["stream.parsedFile.releaseGroup"] = s.ParsedFile.ReleaseGroup
	}

	params["stream.torrent.infoHash"] = ""
	params["stream.torrent.seeders"] = float64(0)
	if s.Torrent != nil {
		params["stream.torrent.infoHash"] = s.Torrent.InfoHash
		params["stream.torrent.seeders"] = float64(s.Torrent.Seeders)
	}

	params["stream.service.id"] = ""
	params["stream.service.shortName"] = ""
	params["stream.service.cached"] = false
	if s.Service != nil {
		params["stream.service.id"] = s.Service.ID
		params["stream.service.shortName"] = s.Service.ShortName
		params["stream.service.cached"] = s.Service.Cached
	}

	isSeadex := s.SeaDex != nil && s.SeaDex.IsSeadex
	params["stream.seadex.isBest"] = s.SeaDex != nil && s.SeaDex.IsBest
	params["stream.seadex.isSeadex"] = isSeadex
	params["__seadex_is_seadex"] = isSeadex

	// Presence markers for exists() checks on the optional sub-records.
	params["stream.parsedFile"] = presence(s.ParsedFile != nil)
	params["stream.torrent"] = presence(s.Torrent != nil)
	params["stream.service"] = presence(s.Service != nil)
	params["stream.seadex"] = presence(s.SeaDex != nil)

	// Bare shorthand aliases.
	params["stream.resolution"] = params["stream.parsedFile.resolution"]
	params["stream.quality"] = params["stream.parsedFile.quality"]
	params["stream.encode"] = params["stream.parsedFile.encode"]
	params["stream.releaseGroup"] = params["stream.parsedFile.releaseGroup"]
	params["stream.cached"] = params["stream.service.cached"]
	params["stream.infoHash"] = params["stream.torrent.infoHash"]
	params["resolution"] = params["stream.parsedFile.resolution"]
	params["quality"] = params["stream.parsedFile.quality"]
	params["encode"] = params["stream.parsedFile.encode"]
	params["releaseGroup"] = params["stream.parsedFile.releaseGroup"]
	params["cached"] = params["stream.service.cached"]
	params["infoHash"] = params["stream.torrent.infoHash"]
	params["size"] = params["stream.size"]
	params["filename"] = params["stream.filename"]
	params["indexer"] = params["stream.indexer"]
	params["library"] = params["stream.library"]

	return params
}

// presence maps a has-sub-record flag onto the nil/non-nil axis exists()
// tests against.
func presence(present bool) interface{} {
	if present {
		return true
	}
	return nil
}

// toList widens a string slice into the []interface{} form govaluate's
// native "in" operator accepts.
func toList(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
