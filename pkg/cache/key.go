package cache

import (
	"net/url"
	"strings"
)

// DocumentKey identifies one cached page.
type DocumentKey struct {
	// Site is the adapter name (e.g. "webster").
	Site string

	// URL is the absolute request URL.
	URL string
}

// String generates a deterministic Redis key.
// Format: dict:site:host/path?sorted-query
//
// Example:
//
//	dict:webster:www.merriam-webster.com/dictionary/happy
func (k DocumentKey) String() string {
	parts := []string{"dict"}
	if k.Site != "" {
		parts = append(parts, k.Site)
	}

	u, err := url.Parse(k.URL)
	if err != nil || u.Host == "" {
		// Unparsable targets still get a stable, if less normalized, key.
		parts = append(parts, strings.TrimSpace(k.URL))
		return strings.Join(parts, ":")
	}

	target := strings.ToLower(u.Host) + "/" + strings.Trim(u.EscapedPath(), "/")
	if len(u.Query()) > 0 {
		// Encode sorts by key.
		target += "?" + u.Query().Encode()
	}
	parts = append(parts, target)

	return strings.Join(parts, ":")
}
