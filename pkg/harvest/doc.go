// Package harvest is the batch fetch/retry/collect engine shared by every
// dictionary site adapter.
//
// Entries are partitioned into batches of at most MaxConcurrency. Batches run
// strictly in order; inside a batch every entry gets its own goroutine, and
// the next batch starts only after all of them have resolved. Each entry is
// attempted under a RetryPolicy and ends in exactly one place: the result set
// on success, or the error Sink once its attempts are exhausted.
//
// Example usage:
//
//	sink, _ := errorlog.Open("error.txt")
//	defer sink.Close()
//
//	sched, err := harvest.NewScheduler[webster.Entry](adapter, sink, harvest.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	result, err := sched.Run(ctx, entries)
//
// Failure handling:
//   - transport and structural_parse errors are retried, then logged to the Sink
//   - identifier_encoding and sink errors stop the run after the current batch
//   - one entry's failure never affects its siblings
package harvest
