package harvest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// memorySink records appends in memory.
type memorySink struct {
	mu      sync.Mutex
	records []FailureRecord
	err     error
}

func (s *memorySink) Append(ctx context.Context, rec FailureRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *memorySink) entries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.records))
	for i, r := range s.records {
		out[i] = r.Entry
	}
	sort.Strings(out)
	return out
}

// behaviorAdapter resolves each entry by a per-entry script. Entries not in
// the map always succeed.
type behaviorAdapter struct {
	mu     sync.Mutex
	calls  map[string]int
	script map[string]func(call int) error
	delay  time.Duration

	inflight    atomic.Int32
	maxInflight atomic.Int32
}

func newBehaviorAdapter(script map[string]func(call int) error) *behaviorAdapter {
	return &behaviorAdapter{calls: make(map[string]int), script: script}
}

func (a *behaviorAdapter) FetchAndParse(ctx context.Context, entry string) (string, error) {
	cur := a.inflight.Add(1)
	defer a.inflight.Add(-1)
	for {
		prev := a.maxInflight.Load()
		if cur <= prev || a.maxInflight.CompareAndSwap(prev, cur) {
			break
		}
	}

	a.mu.Lock()
	a.calls[entry]++
	call := a.calls[entry]
	fn := a.script[entry]
	a.mu.Unlock()

	if a.delay > 0 {
		time.Sleep(a.delay)
	}
	if fn != nil {
		if err := fn(call); err != nil {
			return "", err
		}
	}
	return "rec:" + entry, nil
}

func (a *behaviorAdapter) callCount(entry string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[entry]
}

func alwaysFail(kind Kind) func(int) error {
	return func(int) error {
		if kind == KindStructuralParse {
			return ParseError("", "definitions block missing")
		}
		return TransportError("", "get", errors.New("connection refused"))
	}
}

func failFirst(n int) func(int) error {
	return func(call int) error {
		if call <= n {
			return TransportError("", "get", errors.New("reset by peer"))
		}
		return nil
	}
}

func newTestScheduler(t *testing.T, adapter Adapter[string], sink Sink, m, k int) *Scheduler[string] {
	t.Helper()
	s, err := NewScheduler[string](adapter, sink, Config{
		MaxConcurrency: m,
		Retry:          fastPolicy(k),
	})
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	return s
}

func TestRun_FaultIsolation(t *testing.T) {
	// Batches at size 2 are [a b] [c d] [e].
	adapter := newBehaviorAdapter(map[string]func(int) error{
		"b": failFirst(1),
		"c": alwaysFail(KindTransport),
		"d": alwaysFail(KindStructuralParse),
	})
	sink := &memorySink{}
	s := newTestScheduler(t, adapter, sink, 2, 3)

	result, err := s.Run(context.Background(), []string{"a", "b", "c", "d", "e"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got := result.ByEntry()
	want := map[string]string{"a": "rec:a", "b": "rec:b", "e": "rec:e"}
	if len(got) != len(want) {
		t.Fatalf("records = %v, want %v", got, want)
	}
	for entry, rec := range want {
		if got[entry] != rec {
			t.Errorf("record[%q] = %q, want %q", entry, got[entry], rec)
		}
	}

	if failed := sink.entries(); fmt.Sprint(failed) != "[c d]" {
		t.Errorf("sink entries = %v, want [c d]", failed)
	}

	wantCalls := map[string]int{"a": 1, "b": 2, "c": 3, "d": 3, "e": 1}
	for entry, n := range wantCalls {
		if got := adapter.callCount(entry); got != n {
			t.Errorf("calls[%q] = %d, want %d", entry, got, n)
		}
	}

	if result.Batches != 3 {
		t.Errorf("Batches = %d, want 3", result.Batches)
	}
	if len(result.Failures) != 2 {
		t.Errorf("len(Failures) = %d, want 2", len(result.Failures))
	}
	for _, f := range result.Failures {
		if f.Attempts != 3 {
			t.Errorf("Failure[%q].Attempts = %d, want 3", f.Entry, f.Attempts)
		}
	}
}

func TestRun_AccountingCompleteness(t *testing.T) {
	script := make(map[string]func(int) error)
	var entries []string
	for i := 0; i < 53; i++ {
		e := fmt.Sprintf("w%02d", i)
		entries = append(entries, e)
		switch i % 4 {
		case 1:
			script[e] = failFirst(1)
		case 2:
			script[e] = alwaysFail(KindTransport)
		}
	}

	adapter := newBehaviorAdapter(script)
	sink := &memorySink{}
	s := newTestScheduler(t, adapter, sink, 7, 3)

	result, err := s.Run(context.Background(), entries)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	seen := make(map[string]int)
	for _, it := range result.Items {
		seen[it.Entry]++
	}
	for _, e := range sink.entries() {
		seen[e]++
	}
	for _, e := range entries {
		if seen[e] != 1 {
			t.Errorf("entry %q accounted %d times, want exactly 1", e, seen[e])
		}
	}
	if len(seen) != len(entries) {
		t.Errorf("accounted %d distinct entries, want %d", len(seen), len(entries))
	}
	if result.Batches != 8 {
		t.Errorf("Batches = %d, want 8", result.Batches)
	}
}

func TestRun_ConcurrencyBound(t *testing.T) {
	adapter := newBehaviorAdapter(nil)
	adapter.delay = 10 * time.Millisecond

	var entries []string
	for i := 0; i < 40; i++ {
		entries = append(entries, fmt.Sprintf("e%d", i))
	}

	s := newTestScheduler(t, adapter, &memorySink{}, 4, 1)
	if _, err := s.Run(context.Background(), entries); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if peak := adapter.maxInflight.Load(); peak > 4 {
		t.Errorf("peak in-flight = %d, want <= 4", peak)
	}
	if peak := adapter.maxInflight.Load(); peak < 2 {
		t.Errorf("peak in-flight = %d, batch entries did not run concurrently", peak)
	}
}

func TestRun_BatchBarrier(t *testing.T) {
	var order []string
	var mu sync.Mutex

	adapter := AdapterFunc[string](func(ctx context.Context, entry string) (string, error) {
		if entry == "slow" {
			time.Sleep(50 * time.Millisecond)
		}
		mu.Lock()
		order = append(order, entry)
		mu.Unlock()
		return entry, nil
	})

	s := newTestScheduler(t, adapter, &memorySink{}, 2, 1)
	if _, err := s.Run(context.Background(), []string{"slow", "fast", "next"}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 || order[2] != "next" {
		t.Errorf("completion order = %v, want next batch to start only after slow finished", order)
	}
}

func TestRun_EmptyInput(t *testing.T) {
	adapter := newBehaviorAdapter(nil)
	s := newTestScheduler(t, adapter, &memorySink{}, 3, 3)

	result, err := s.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.Items) != 0 || len(result.Failures) != 0 || result.Batches != 0 {
		t.Errorf("Run(nil) = %+v, want empty result", result)
	}
}

func TestRun_SinkFailureIsRunLevel(t *testing.T) {
	adapter := newBehaviorAdapter(map[string]func(int) error{
		"c": alwaysFail(KindTransport),
	})
	sink := &memorySink{err: errors.New("no space left on device")}
	s := newTestScheduler(t, adapter, sink, 2, 2)

	result, err := s.Run(context.Background(), []string{"a", "b", "c", "d", "e"})
	if err == nil {
		t.Fatal("Run() expected run-level error")
	}
	if KindOf(err) != KindSink {
		t.Errorf("KindOf() = %q, want %q", KindOf(err), KindSink)
	}

	// The failing batch completes; later batches never start.
	if result.Batches != 2 {
		t.Errorf("Batches = %d, want 2", result.Batches)
	}
	if got := adapter.callCount("d"); got != 1 {
		t.Errorf("calls[d] = %d, want 1 (sibling finishes its batch)", got)
	}
	if got := adapter.callCount("e"); got != 0 {
		t.Errorf("calls[e] = %d, want 0", got)
	}
}

func TestRun_AdapterIdentifierErrorIsRunLevel(t *testing.T) {
	adapter := newBehaviorAdapter(map[string]func(int) error{
		"bad": func(int) error { return IdentifierError("bad", errors.New("invalid escape")) },
	})
	s := newTestScheduler(t, adapter, &memorySink{}, 2, 3)

	_, err := s.Run(context.Background(), []string{"ok", "bad", "later"})
	if KindOf(err) != KindIdentifierEncoding {
		t.Fatalf("KindOf(err) = %q, want %q", KindOf(err), KindIdentifierEncoding)
	}
	if got := adapter.callCount("bad"); got != 1 {
		t.Errorf("calls[bad] = %d, want 1", got)
	}
	if got := adapter.callCount("later"); got != 0 {
		t.Errorf("calls[later] = %d, want 0", got)
	}
}

type validatingAdapter struct {
	*behaviorAdapter
}

func (v validatingAdapter) Validate(entry string) error {
	if entry == "" {
		return errors.New("empty entry")
	}
	return nil
}

func TestRun_ValidatorRejectsBeforeDispatch(t *testing.T) {
	inner := newBehaviorAdapter(nil)
	s := newTestScheduler(t, validatingAdapter{inner}, &memorySink{}, 2, 3)

	_, err := s.Run(context.Background(), []string{"a", "b", ""})
	if KindOf(err) != KindIdentifierEncoding {
		t.Fatalf("KindOf(err) = %q, want %q", KindOf(err), KindIdentifierEncoding)
	}
	if got := inner.callCount("a"); got != 0 {
		t.Errorf("calls[a] = %d, want 0 (nothing dispatched)", got)
	}
}

func TestRun_ContextPassedToAdapter(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "marker")

	adapter := AdapterFunc[string](func(ctx context.Context, entry string) (string, error) {
		v, _ := ctx.Value(key{}).(string)
		return v, nil
	})
	s := newTestScheduler(t, adapter, &memorySink{}, 1, 1)

	result, err := s.Run(ctx, []string{"x"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := result.Records(); len(got) != 1 || got[0] != "marker" {
		t.Errorf("Records() = %v, want [marker]", got)
	}
}

func TestNewScheduler_Config(t *testing.T) {
	adapter := newBehaviorAdapter(nil)

	t.Run("nil sink", func(t *testing.T) {
		_, err := NewScheduler[string](adapter, nil, Config{})
		if KindOf(err) != KindConfiguration {
			t.Errorf("KindOf() = %q, want %q", KindOf(err), KindConfiguration)
		}
	})

	t.Run("negative concurrency", func(t *testing.T) {
		_, err := NewScheduler[string](adapter, &memorySink{}, Config{MaxConcurrency: -1})
		if KindOf(err) != KindConfiguration {
			t.Errorf("KindOf() = %q, want %q", KindOf(err), KindConfiguration)
		}
	})

	t.Run("zero values take defaults", func(t *testing.T) {
		s, err := NewScheduler[string](adapter, &memorySink{}, Config{})
		if err != nil {
			t.Fatalf("NewScheduler() error = %v", err)
		}
		if s.config.MaxConcurrency != 15 {
			t.Errorf("MaxConcurrency = %d, want 15", s.config.MaxConcurrency)
		}
		if s.config.Retry != DefaultRetryPolicy() {
			t.Errorf("Retry = %+v, want defaults", s.config.Retry)
		}
	})
}
