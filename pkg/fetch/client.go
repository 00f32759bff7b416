// Package fetch provides the HTTP document client shared by all site adapters,
// with optional Redis caching and conditional revalidation.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/dict-crawler/pkg/cache"
	"github.com/Sternrassler/dict-crawler/pkg/harvest"
)

// DefaultUserAgent is a desktop browser string; some dictionary sites serve
// reduced markup to unknown clients.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// Config holds the client configuration.
type Config struct {
	// UserAgent header sent with every request.
	UserAgent string

	// Timeout bounds one request including the body read.
	Timeout time.Duration

	// Site namespaces cache keys (e.g. "webster").
	Site string

	// Cache is optional. Without it every Get goes to the network.
	Cache *cache.Manager

	// Transport replaces the default round tripper (for testing).
	Transport http.RoundTripper
}

// DefaultConfig returns the default configuration without a cache.
func DefaultConfig() Config {
	return Config{
		UserAgent: DefaultUserAgent,
		Timeout:   15 * time.Second,
	}
}

// Client fetches documents. It is safe for concurrent use.
type Client struct {
	http   *resty.Client
	cache  *cache.Manager
	site   string
	logger zerolog.Logger
}

// New creates a new document client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, harvest.ConfigurationError("user-agent is required")
	}
	if cfg.Timeout < 0 {
		return nil, harvest.ConfigurationError("timeout must not be negative (got %s)", cfg.Timeout)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	hc := resty.New()
	hc.SetTimeout(cfg.Timeout)
	hc.SetHeader("User-Agent", cfg.UserAgent)
	hc.SetHeader("Accept", "text/html,application/xhtml+xml")
	hc.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	if cfg.Transport != nil {
		hc.SetTransport(cfg.Transport)
	}

	logger := log.With().Str("component", "fetch-client").Logger()
	if cfg.Site != "" {
		logger = logger.With().Str("site", cfg.Site).Logger()
	}

	return &Client{
		http:   hc,
		cache:  cfg.Cache,
		site:   cfg.Site,
		logger: logger,
	}, nil
}

// Get returns the body of target. Fresh cached documents are served without
// a request; stale ones are revalidated. Any failure to obtain a 2xx body is
// a TransportError whose cause is a *StatusError or the network error.
// Cache failures are logged and never fail the fetch.
func (c *Client) Get(ctx context.Context, target string) ([]byte, error) {
	key := cache.DocumentKey{Site: c.site, URL: target}
	host := hostOf(target)

	var cached *cache.Document
	if c.cache != nil {
		doc, err := c.cache.Get(ctx, key)
		switch {
		case err == nil && !doc.IsExpired():
			c.logger.Debug().Str("url", target).Dur("ttl", doc.TTL()).Msg("Cache hit")
			return doc.Body, nil
		case err == nil:
			cached = doc
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Str("url", target).Msg("Cache get error")
		}
	}

	req := c.http.R().SetContext(ctx)
	if cache.CanRevalidate(cached) {
		req.SetHeaders(cache.ConditionalHeaders(cached))
		c.logger.Debug().
			Str("url", target).
			Str("etag", cached.ETag).
			Msg("Making conditional request")
	}

	start := time.Now()
	resp, err := req.Get(target)
	requestDuration.WithLabelValues(host).Observe(time.Since(start).Seconds())

	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(host, "network_error").Inc()
		c.logger.Debug().Err(err).Str("url", target).Msg("Request failed")
		return nil, harvest.TransportError("", "GET "+target, err)
	}

	status := resp.StatusCode()
	requestsTotal.WithLabelValues(host, strconv.Itoa(status)).Inc()

	if status == http.StatusNotModified {
		if cached == nil {
			errorsTotal.WithLabelValues(string(ErrorClassClient)).Inc()
			return nil, harvest.TransportError("", "GET "+target, ErrNotModifiedWithoutCache)
		}
		if err := c.cache.Revalidate(ctx, key, cached, resp.Header()); err != nil {
			c.logger.Warn().Err(err).Str("url", target).Msg("Failed to refresh cached document")
		}
		c.logger.Debug().Str("url", target).Msg("304 Not Modified - using cache")
		return cached.Body, nil
	}

	if status < 200 || status >= 300 {
		if cached != nil && (status == http.StatusNotFound || status == http.StatusGone) {
			if err := c.cache.Delete(ctx, key); err != nil {
				c.logger.Warn().Err(err).Str("url", target).Msg("Failed to drop removed document")
			}
		}
		se := &StatusError{StatusCode: status, Class: classifyStatus(status), URL: target}
		errorsTotal.WithLabelValues(string(se.Class)).Inc()
		c.logger.Debug().
			Str("url", target).
			Int("status", status).
			Str("error_class", string(se.Class)).
			Msg("Unsuccessful status")
		return nil, harvest.TransportError("", fmt.Sprintf("GET %s", target), se)
	}

	body := resp.Body()
	if c.cache != nil && cache.Cacheable(status, resp.Header()) {
		doc := cache.FromResponse(status, resp.Header(), body)
		if err := c.cache.Set(ctx, key, doc); err != nil {
			c.logger.Warn().Err(err).Str("url", target).Msg("Failed to cache document")
		} else {
			c.logger.Debug().Str("url", target).Dur("ttl", doc.TTL()).Msg("Cached document")
		}
	}

	return body, nil
}

func hostOf(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return "invalid"
	}
	return u.Host
}
