package harvest

import "slices"

// Partition splits items into consecutive batches of at most size elements,
// preserving order. Every batch but the last holds exactly size items.
// Batches are copies and do not alias items.
func Partition[T any](items []T, size int) ([][]T, error) {
	if size < 1 {
		return nil, ConfigurationError("batch size must be >= 1 (got %d)", size)
	}

	batches := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batches = append(batches, slices.Clone(items[start:end]))
	}
	return batches, nil
}
