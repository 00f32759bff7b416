// Package testutil provides an httptest dictionary site for adapter and
// fetch tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"
)

// MockResponse defines the behavior for one mock page.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockSite is a configurable mock dictionary server.
// Unknown paths answer 404.
type MockSite struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	requestCount     int
	conditionalCount int
	pathCounts       map[string]int
	lastHeader       http.Header
}

// NewMockSite starts a mock site.
func NewMockSite() *MockSite {
	mock := &MockSite{
		handlers:   make(map[string]http.HandlerFunc),
		pathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		mock.mu.Lock()
		mock.requestCount++
		mock.pathCounts[path]++
		mock.lastHeader = r.Header.Clone()
		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			mock.conditionalCount++
		}
		handler, exists := mock.handlers[path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}
		http.NotFound(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockSite) URL() string {
	return m.server.URL
}

// BaseURL returns URL() joined with prefix, with a trailing slash.
func (m *MockSite) BaseURL(prefix string) string {
	u, _ := url.JoinPath(m.server.URL, prefix)
	return u + "/"
}

// Close shuts down the mock server.
func (m *MockSite) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockSite) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.conditionalCount = 0
	m.pathCounts = make(map[string]int)
	m.lastHeader = nil
}

// SetHandler sets a custom handler for an unescaped path.
func (m *MockSite) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockSite) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			select {
			case <-time.After(resp.Delay):
			case <-r.Context().Done():
				return
			}
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetPage serves html with status 200.
func (m *MockSite) SetPage(path, html string) {
	m.SetResponse(path, NewPageResponse(html))
}

// SetSequence answers successive requests to path with the given responses;
// the last one repeats.
func (m *MockSite) SetSequence(path string, responses ...MockResponse) {
	var mu sync.Mutex
	n := 0
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		resp := responses[min(n, len(responses)-1)]
		n++
		mu.Unlock()

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// RequestCount returns the number of requests made to the server.
func (m *MockSite) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// PathCount returns the number of requests made to path.
func (m *MockSite) PathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pathCounts[path]
}

// ConditionalCount returns the number of conditional requests.
func (m *MockSite) ConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conditionalCount
}

// LastHeader returns the headers of the most recent request.
func (m *MockSite) LastHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastHeader
}

// NewPageResponse creates a 200 OK HTML response.
func NewPageResponse(html string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       html,
		Headers: map[string]string{
			"Content-Type": "text/html; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 503 Service Unavailable response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusServiceUnavailable,
		Body:       "<html><body>try again later</body></html>",
		Headers:    map[string]string{"Content-Type": "text/html; charset=utf-8"},
	}
}

// NewConditionalHandler serves html with etag and answers 304 to a matching
// If-None-Match. The page expires immediately so every request revalidates.
func NewConditionalHandler(etag, html string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "max-age=0")
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(html))
	}
}
