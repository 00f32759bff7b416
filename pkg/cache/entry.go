package cache

import "time"

// Document is a cached dictionary page.
type Document struct {
	// Body is the raw response body.
	Body []byte `json:"body"`

	ContentType string `json:"content_type,omitempty"`

	// ETag for If-None-Match revalidation.
	ETag string `json:"etag,omitempty"`

	// LastModified for If-Modified-Since revalidation.
	LastModified time.Time `json:"last_modified,omitempty"`

	// Expires is when the document becomes stale.
	Expires time.Time `json:"expires"`

	StatusCode int       `json:"status_code"`
	CachedAt   time.Time `json:"cached_at"`
}

// IsExpired reports whether the document is stale.
func (d *Document) IsExpired() bool {
	return !time.Now().Before(d.Expires)
}

// TTL returns the time until the document becomes stale, or 0.
func (d *Document) TTL() time.Duration {
	ttl := time.Until(d.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
