// Package favicon derives favicon addresses for pages without fetching them.
package favicon

import (
	"net/url"

	"aether/internal/models"
)

// ServiceOrigin is the favicon service every derived address points at.
const ServiceOrigin = "https://www.google.com/s2/favicons"

// BuildURL returns the favicon service address for rawURL. It reports false
// for empty input, about:blank, and anything that does not parse into an
// absolute URL with a host.
func BuildURL(rawURL string) (string, bool) {
	if rawURL == "" || rawURL == models.BlankURL {
		return "", false
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Hostname() == "" {
		return "", false
	}

	q := url.Values{}
	q.Set("domain", u.Hostname())
	q.Set("sz", "32")
	return ServiceOrigin + "?" + q.Encode(), true
}
