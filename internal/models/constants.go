package models

// MediaType is the content kind assigned to a catalog entry by the classifier.
type MediaType string

// Media type constants.
const (
	MediaTypeLive   MediaType = "LIVE"
	MediaTypeMovie  MediaType = "MOVIE"
	MediaTypeSeries MediaType = "SERIES"
	MediaTypeRadio  MediaType = "RADIO"
)

// MediaTypes lists every media type in display order.
var MediaTypes = []MediaType{MediaTypeLive, MediaTypeMovie, MediaTypeSeries, MediaTypeRadio}

// ParseMediaType returns the media type matching s (case-sensitive) and whether it is known.
func ParseMediaType(s string) (MediaType, bool) {
	for _, t := range MediaTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Source kinds and statuses for playlists.
const (
	SourceKindURL  = "url"
	SourceKindFile = "file"

	PlaylistStatusActive  = "Active"
	PlaylistStatusOffline = "Offline"

	// LocalSourceURL is stored as Playlist.URL for file imports.
	LocalSourceURL = "local"
)

// Parser fallbacks.
const (
	FallbackTitle    = "قناة غير معروفة"
	FallbackCategory = "عام"
	DefaultYear      = "2025"
)

// ID prefixes.
const (
	MediaIDPrefix        = "m-"
	PlaylistIDPrefix     = "pl-"
	NotificationIDPrefix = "nt-"
	UserIDPrefix         = "u-"
)
