package models

// MediaItem is one playable catalog entry. Items are never mutated after
// creation; the catalog is replaced wholesale on every change.
type MediaItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Thumbnail string    `json:"thumbnail"`
	URL       string    `json:"url"`
	Category  string    `json:"category"`
	Type      MediaType `json:"type"`
	Year      string    `json:"year,omitempty"`
}
