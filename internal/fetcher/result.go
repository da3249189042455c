package fetcher

// RawEntry is a complete directive + URI pair as read from an M3U playlist,
// before classification.
type RawEntry struct {
	Title     string
	Thumbnail string
	Category  string
	Year      string
	URL       string
}
