// Package catalog turns the raw record list into the page the browser shows:
// sorted, filtered by platform and search text, restricted to games with an
// image, numbered, and paginated. Everything here is pure and is re-derived
// on every request.
package catalog

import (
	"cmp"
	"errors"
	"net/url"
	"slices"
	"strings"

	"github.com/okian/gamestore/internal/domain/model"
	"github.com/okian/gamestore/internal/domain/naming"
)

// DefaultPageSize is the number of rows per page.
const DefaultPageSize = 20

// ErrUnknownPlatform is returned by ParsePlatform.
var ErrUnknownPlatform = errors.New("unknown platform")

// Platform selects which store a game must be sold on.
type Platform string

// Supported platforms.
const (
	PlatformAll   Platform = "all"
	PlatformSteam Platform = "steam"
	PlatformEpic  Platform = "epic"
)

// ParsePlatform accepts "", "all", "steam" and "epic" in any case.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case "", PlatformAll:
		return PlatformAll, nil
	case PlatformSteam:
		return PlatformSteam, nil
	case PlatformEpic:
		return PlatformEpic, nil
	default:
		return "", ErrUnknownPlatform
	}
}

// Query is the browser state the page depends on.
type Query struct {
	Search   string
	Platform Platform
	Page     int
}

// Resolver finds the image file for a record.
type Resolver interface {
	Resolve(record model.GameRecord, idx naming.Index) (string, bool)
}

// Entry is a record that has an image, numbered by its position in the
// filtered list. IDs change whenever the filters change.
type Entry struct {
	ID int `json:"id"`
	model.GameRecord
	Image    string `json:"image"`
	ImageURL string `json:"image_url"`
}

// Page is one slice of the numbered list.
type Page struct {
	Items      []Entry `json:"items"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	Total      int     `json:"total"`
	TotalPages int     `json:"total_pages"`
	// Matched counts records that passed the filters before the image check.
	Matched int `json:"matched"`
}

// SortByMetascore returns a copy ordered by metascore, highest first. Ties
// keep their stored order.
func SortByMetascore(records []model.GameRecord) []model.GameRecord {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b model.GameRecord) int {
		return cmp.Compare(b.Metascore, a.Metascore)
	})
	return out
}

// FilterByPlatform keeps records priced on the chosen store.
func FilterByPlatform(records []model.GameRecord, p Platform) []model.GameRecord {
	switch p {
	case PlatformSteam:
		return filter(records, model.GameRecord.HasSteam)
	case PlatformEpic:
		return filter(records, model.GameRecord.HasEpic)
	default:
		return records
	}
}

// FilterBySearch keeps records whose name contains query, ignoring case.
func FilterBySearch(records []model.GameRecord, query string) []model.GameRecord {
	if query == "" {
		return records
	}
	q := strings.ToLower(query)
	return filter(records, func(g model.GameRecord) bool {
		return strings.Contains(strings.ToLower(g.Name), q)
	})
}

// Resolved keeps records with an image and attaches the file name.
func Resolved(records []model.GameRecord, idx naming.Index, r Resolver) []Entry {
	out := make([]Entry, 0, len(records))
	for _, g := range records {
		if asset, ok := r.Resolve(g, idx); ok {
			out = append(out, Entry{GameRecord: g, Image: asset})
		}
	}
	return out
}

// AssignIDs numbers entries from 1 in their current order.
func AssignIDs(entries []Entry) []Entry {
	for i := range entries {
		entries[i].ID = i + 1
	}
	return entries
}

// WithImageURLs fills ImageURL under prefix for every entry.
func WithImageURLs(entries []Entry, prefix string) []Entry {
	for i := range entries {
		entries[i].ImageURL = ImageURL(prefix, entries[i].Image)
	}
	return entries
}

// Paginate returns page n (1-based) of entries. n is clamped into range.
func Paginate(entries []Entry, n, pageSize int) Page {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	total := len(entries)
	totalPages := (total + pageSize - 1) / pageSize
	n = max(1, min(n, max(totalPages, 1)))

	start := min((n-1)*pageSize, total)
	end := min(start+pageSize, total)

	return Page{
		Items:      slices.Clone(entries[start:end]),
		Page:       n,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Build runs the whole pipeline in page order:
// sort, platform, search, image check, numbering, pagination.
func Build(records []model.GameRecord, idx naming.Index, r Resolver, q Query, pageSize int, assetPrefix string) Page {
	sorted := SortByMetascore(records)
	matched := FilterBySearch(FilterByPlatform(sorted, q.Platform), q.Search)
	entries := AssignIDs(Resolved(matched, idx, r))
	page := Paginate(entries, q.Page, pageSize)
	page.Items = WithImageURLs(page.Items, assetPrefix)
	page.Matched = len(matched)
	return page
}

// ImageURL joins prefix and a percent-encoded file name.
func ImageURL(prefix, asset string) string {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + url.PathEscape(asset)
}

func filter(records []model.GameRecord, keep func(model.GameRecord) bool) []model.GameRecord {
	out := make([]model.GameRecord, 0, len(records))
	for _, g := range records {
		if keep(g) {
			out = append(out, g)
		}
	}
	return out
}
