// Package sites holds what the dictionary adapters share.
package sites

import "context"

// Fetcher returns the body of a document. *fetch.Client implements it.
type Fetcher interface {
	Get(ctx context.Context, target string) ([]byte, error)
}

// Info describes an adapter for listings.
type Info struct {
	Name        string
	BaseURL     string
	Description string
}
