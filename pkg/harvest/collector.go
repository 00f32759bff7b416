package harvest

import (
	"context"
	"slices"
	"sync"
)

// Item pairs a record with the entry that produced it.
type Item[R any] struct {
	Entry  string
	Record R
}

// Collector accumulates successful records. Append is safe for concurrent
// use; reads are only meaningful once the run that feeds it has returned.
type Collector[R any] struct {
	mu    sync.Mutex
	items []Item[R]
}

// NewCollector creates an empty collector.
func NewCollector[R any]() *Collector[R] {
	return &Collector[R]{}
}

// Append adds one record.
func (c *Collector[R]) Append(entry string, record R) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, Item[R]{Entry: entry, Record: record})
}

// Len returns the number of records appended so far.
func (c *Collector[R]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Snapshot returns a copy of all records in completion order.
func (c *Collector[R]) Snapshot() []R {
	c.mu.Lock()
	defer c.mu.Unlock()
	records := make([]R, len(c.items))
	for i, it := range c.items {
		records[i] = it.Record
	}
	return records
}

// Items returns a copy of all entry/record pairs in completion order.
func (c *Collector[R]) Items() []Item[R] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// Sink durably records entries whose retry budget was exhausted.
// Implementations must serialize concurrent appends.
type Sink interface {
	Append(ctx context.Context, rec FailureRecord) error
}
