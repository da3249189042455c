// Package classifier assigns a media type to parsed playlist entries.
package classifier

import (
	"strings"

	"github.com/google/uuid"

	"github.com/voyagen/gonet/internal/fetcher"
	"github.com/voyagen/gonet/internal/models"
)

// Rule maps a set of lower-case keywords to a media type. A category matches
// when it contains any keyword as a substring.
type Rule struct {
	Keywords []string
	Type     models.MediaType
}

// Rules are evaluated in order and the first match wins. Categories matching
// no rule are LIVE.
var Rules = []Rule{
	{Keywords: []string{"movie", "افلام", "vod"}, Type: models.MediaTypeMovie},
	{Keywords: []string{"series", "مسلسل"}, Type: models.MediaTypeSeries},
	{Keywords: []string{"radio", "اذاعة"}, Type: models.MediaTypeRadio},
}

// DefaultType is assigned when no rule matches.
const DefaultType = models.MediaTypeLive

// Classify returns the media type for a raw group label.
func Classify(category string) models.MediaType {
	lower := strings.ToLower(category)
	for _, r := range Rules {
		for _, kw := range r.Keywords {
			if strings.Contains(lower, kw) {
				return r.Type
			}
		}
	}
	return DefaultType
}

// Apply turns parsed entries into catalog items, assigning a fresh ID and a
// media type to each. Order is preserved.
func Apply(entries []fetcher.RawEntry) []models.MediaItem {
	items := make([]models.MediaItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, models.MediaItem{
			ID:        NewMediaID(),
			Title:     e.Title,
			Thumbnail: e.Thumbnail,
			URL:       e.URL,
			Category:  e.Category,
			Type:      Classify(e.Category),
			Year:      e.Year,
		})
	}
	return items
}

// NewMediaID returns a unique media item ID.
func NewMediaID() string {
	return models.MediaIDPrefix + uuid.NewString()
}
