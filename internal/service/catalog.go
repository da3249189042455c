package service

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/voyagen/gonet/internal/models"
	"github.com/voyagen/gonet/internal/store"
)

// Page size bounds for catalog listings.
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// reFlag matches a regional-indicator pair, i.e. a flag emoji.
var reFlag = regexp.MustCompile(`[\x{1F1E6}-\x{1F1FF}]{2}`)

// Filter selects a page of the catalog.
type Filter struct {
	Query    string
	Type     models.MediaType
	Category string
	Limit    int
	Offset   int
}

// Page is one page of filtered results.
type Page struct {
	Total int                `json:"total"`
	Items []models.MediaItem `json:"items"`
}

// Groups is the sidebar grouping of categories.
type Groups struct {
	Countries []string `json:"countries"`
	Genres    []string `json:"genres"`
}

// Search returns the items whose title or category contains query,
// ignoring case. An empty query returns items unchanged.
func Search(items []models.MediaItem, query string) []models.MediaItem {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}
	out := make([]models.MediaItem, 0)
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Title), q) || strings.Contains(strings.ToLower(it.Category), q) {
			out = append(out, it)
		}
	}
	return out
}

// Match runs the query, type and category filters in that order and
// returns every match. Limit and Offset are ignored.
func (f Filter) Match(items []models.MediaItem) []models.MediaItem {
	matched := Search(items, f.Query)
	if f.Type == "" && f.Category == "" {
		return matched
	}
	kept := make([]models.MediaItem, 0, len(matched))
	for _, it := range matched {
		if f.Type != "" && it.Type != f.Type {
			continue
		}
		if f.Category != "" && it.Category != f.Category {
			continue
		}
		kept = append(kept, it)
	}
	return kept
}

// Apply filters items and slices out the requested page.
func (f Filter) Apply(items []models.MediaItem) Page {
	matched := f.Match(items)

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	start := f.Offset
	if start < 0 {
		start = 0
	}
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	page := make([]models.MediaItem, end-start)
	copy(page, matched[start:end])
	return Page{Total: len(matched), Items: page}
}

// GroupCategories splits the categories of items of type t (all types when
// empty) into countries, marked by a flag emoji, and genres. The generic
// fallback categories are left out of genres.
func GroupCategories(items []models.MediaItem, t models.MediaType) Groups {
	countries := make(map[string]struct{})
	genres := make(map[string]struct{})
	for _, it := range items {
		if t != "" && it.Type != t {
			continue
		}
		switch {
		case it.Category == "":
		case reFlag.MatchString(it.Category):
			countries[it.Category] = struct{}{}
		case it.Category == models.FallbackCategory || it.Category == "General":
		default:
			genres[it.Category] = struct{}{}
		}
	}
	return Groups{Countries: sortedKeys(countries), Genres: sortedKeys(genres)}
}

// Related returns the item with id and every item sharing its type, in
// catalog order. ok is false when id is unknown.
func Related(items []models.MediaItem, id string) (models.MediaItem, []models.MediaItem, bool) {
	var sel models.MediaItem
	found := false
	for _, it := range items {
		if it.ID == id {
			sel, found = it, true
			break
		}
	}
	if !found {
		return models.MediaItem{}, nil, false
	}
	rel := make([]models.MediaItem, 0)
	for _, it := range items {
		if it.Type == sel.Type {
			rel = append(rel, it)
		}
	}
	return sel, rel, true
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Catalog serves read-only queries over the stored catalog.
type Catalog struct {
	store *store.Store
}

// NewCatalog creates a Catalog reading from s.
func NewCatalog(s *store.Store) *Catalog {
	return &Catalog{store: s}
}

// Items returns the whole catalog.
func (c *Catalog) Items(ctx context.Context) []models.MediaItem {
	return c.store.MediaItems(ctx)
}

// List returns one filtered page.
func (c *Catalog) List(ctx context.Context, f Filter) Page {
	return f.Apply(c.store.MediaItems(ctx))
}

// Groups returns the sidebar grouping for type t.
func (c *Catalog) Groups(ctx context.Context, t models.MediaType) Groups {
	return GroupCategories(c.store.MediaItems(ctx), t)
}

// Get returns the item with id and its playback queue.
func (c *Catalog) Get(ctx context.Context, id string) (models.MediaItem, []models.MediaItem, error) {
	it, rel, ok := Related(c.store.MediaItems(ctx), id)
	if !ok {
		return models.MediaItem{}, nil, ErrNotFound
	}
	return it, rel, nil
}

// Ticker returns the ticker configuration.
func (c *Catalog) Ticker(ctx context.Context) models.TickerConfig {
	return c.store.Ticker(ctx)
}

// Notifications returns the notification history, newest first.
func (c *Catalog) Notifications(ctx context.Context) []models.AppNotification {
	return c.store.Notifications(ctx)
}
