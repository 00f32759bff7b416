package harvest

import "context"

// Adapter turns one entry into one record. Implementations own the network
// call and all structural extraction; failures should be *Error values so the
// executor can tell transient from systemic problems.
type Adapter[R any] interface {
	FetchAndParse(ctx context.Context, entry string) (R, error)
}

// AdapterFunc lets an ordinary function serve as an Adapter.
type AdapterFunc[R any] func(ctx context.Context, entry string) (R, error)

// FetchAndParse calls f(ctx, entry).
func (f AdapterFunc[R]) FetchAndParse(ctx context.Context, entry string) (R, error) {
	return f(ctx, entry)
}

// Validator is implemented by adapters that can reject an entry before any
// request is made. Validate must be cheap and free of side effects.
type Validator interface {
	Validate(entry string) error
}
