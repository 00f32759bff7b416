package cache

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultTTL is used when a response carries no usable freshness header.
	// Dictionary pages change rarely.
	DefaultTTL = 24 * time.Hour

	// DefaultRevalidateWindow is how long a stale document is kept for
	// conditional requests.
	DefaultRevalidateWindow = 7 * 24 * time.Hour
)

// FromResponse builds a Document from a successful response.
func FromResponse(statusCode int, header http.Header, body []byte) *Document {
	now := time.Now()
	doc := &Document{
		Body:        body,
		ContentType: header.Get("Content-Type"),
		ETag:        header.Get("ETag"),
		StatusCode:  statusCode,
		CachedAt:    now,
		Expires:     parseExpires(header, now),
	}

	if lastModStr := header.Get("Last-Modified"); lastModStr != "" {
		if lastMod, err := http.ParseTime(lastModStr); err == nil {
			doc.LastModified = lastMod
		}
	}

	return doc
}

// Cacheable reports whether the response may be stored at all.
func Cacheable(statusCode int, header http.Header) bool {
	if statusCode != http.StatusOK {
		return false
	}
	cc := strings.ToLower(header.Get("Cache-Control"))
	return !strings.Contains(cc, "no-store")
}

// parseExpires prefers Cache-Control max-age over Expires. Missing or
// unparsable headers fall back to DefaultTTL; past times mean "stale now".
func parseExpires(header http.Header, now time.Time) time.Time {
	for _, directive := range strings.Split(header.Get("Cache-Control"), ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(strings.ToLower(directive)), "=")
		if !ok {
			if name == "no-cache" {
				return now
			}
			continue
		}
		if name == "max-age" {
			if secs, err := strconv.Atoi(strings.Trim(value, `"`)); err == nil {
				if secs <= 0 {
					return now
				}
				return now.Add(time.Duration(secs) * time.Second)
			}
		}
	}

	expiresStr := header.Get("Expires")
	if expiresStr == "" {
		return now.Add(DefaultTTL)
	}

	expires, err := http.ParseTime(expiresStr)
	if err != nil {
		return now.Add(DefaultTTL)
	}
	if expires.Before(now) {
		return now
	}
	return expires
}

// CanRevalidate reports whether a conditional request is possible for doc.
func CanRevalidate(doc *Document) bool {
	if doc == nil {
		return false
	}
	return doc.ETag != "" || !doc.LastModified.IsZero()
}

// ConditionalHeaders returns If-None-Match or If-Modified-Since for doc.
// ETag wins when both validators are present.
func ConditionalHeaders(doc *Document) map[string]string {
	headers := make(map[string]string)
	if doc == nil {
		return headers
	}

	if doc.ETag != "" {
		headers["If-None-Match"] = doc.ETag
	} else if !doc.LastModified.IsZero() {
		headers["If-Modified-Since"] = doc.LastModified.UTC().Format(http.TimeFormat)
	}
	return headers
}

// Refresh applies a 304 response's freshness headers to doc.
func Refresh(doc *Document, header http.Header) {
	now := time.Now()
	doc.Expires = parseExpires(header, now)
	doc.CachedAt = now
	if etag := header.Get("ETag"); etag != "" {
		doc.ETag = etag
	}
}
