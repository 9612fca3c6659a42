// Package suggest builds the address bar dropdown from the bookmark and
// history caches.
package suggest

import (
	"fmt"
	"net/url"
	"strings"

	"aether/internal/models"
)

const (
	MaxBookmarks = 3
	MaxHistory   = 3
)

type Kind int

const (
	KindBookmark Kind = iota
	KindHistory
	KindSearch
)

func (k Kind) String() string {
	switch k {
	case KindBookmark:
		return "bookmark"
	case KindHistory:
		return "history"
	case KindSearch:
		return "search"
	default:
		return "unknown"
	}
}

// Suggestion is one row of the dropdown.
type Suggestion struct {
	Kind  Kind
	URL   string
	Title string
}

// Input is everything the composer looks at.
type Input struct {
	Query        string
	Focused      bool
	Bookmarks    []models.Bookmark
	History      []models.HistoryEntry
	SearchEngine string
}

// Compose returns bookmark matches, then history matches, then a search
// suggestion. History rows whose URL is bookmarked are left out, whether or
// not that bookmark matched the query.
func Compose(in Input) []Suggestion {
	q := strings.TrimSpace(in.Query)
	if q == "" || !in.Focused {
		return nil
	}
	needle := strings.ToLower(q)

	var out []Suggestion
	bookmarked := make(map[string]bool)
	for _, b := range in.Bookmarks {
		bookmarked[b.URL] = true
		if !matches(needle, b.Title, b.URL) {
			continue
		}
		if len(out) < MaxBookmarks {
			out = append(out, Suggestion{Kind: KindBookmark, URL: b.URL, Title: b.Title})
		}
	}

	added := 0
	for _, h := range in.History {
		if added == MaxHistory {
			break
		}
		if bookmarked[h.URL] || !matches(needle, h.Title, h.URL) {
			continue
		}
		out = append(out, Suggestion{Kind: KindHistory, URL: h.URL, Title: h.Title})
		added++
	}

	if !strings.Contains(q, ".") {
		out = append(out, Suggestion{
			Kind:  KindSearch,
			URL:   SearchURL(in.SearchEngine, q),
			Title: fmt.Sprintf("Search for %q", q),
		})
	}
	return out
}

func matches(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// MoveSelection shifts the highlighted row, clamped to [-1, n-1]. -1 means
// nothing is highlighted.
func MoveSelection(index, delta, n int) int {
	index += delta
	if index >= n {
		index = n - 1
	}
	if index < -1 {
		index = -1
	}
	return index
}

// FormatURL turns address bar input into something navigable: URLs pass
// through, bare domains get https://, anything else becomes a search.
func FormatURL(input, engine string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || lower == models.BlankURL {
		return s
	}
	if strings.Contains(s, ".") && !strings.Contains(s, " ") {
		return "https://" + s
	}
	return SearchURL(engine, s)
}

// SearchURL builds a results URL for query. Unknown engines fall back to
// Google.
func SearchURL(engine, query string) string {
	q := url.QueryEscape(query)
	switch strings.ToLower(engine) {
	case "duckduckgo":
		return "https://duckduckgo.com/?q=" + q
	case "bing":
		return "https://www.bing.com/search?q=" + q
	default:
		return "https://www.google.com/search?q=" + q
	}
}

// Engines lists the search engines offered in settings.
var Engines = []string{"google", "duckduckgo", "bing"}
