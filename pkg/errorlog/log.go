// Package errorlog implements the durable failure sink of a crawl run.
//
// Every entry whose retry budget is exhausted becomes one line in an
// append-only text file:
//
//	entry<TAB>failed_at (RFC3339)<TAB>kind<TAB>attempts<TAB>reason
//
// Lines are never rewritten. Running the same input twice accumulates the
// records of both runs, which is what the retry command relies on.
package errorlog

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/dict-crawler/pkg/harvest"
)

// Log is a file-backed harvest.Sink. It is safe for concurrent use.
type Log struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	logger zerolog.Logger
}

// Open opens (or creates) the log at path for appending.
func Open(path string) (*Log, error) {
	if path == "" {
		return nil, harvest.ConfigurationError("error log path is empty")
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, harvest.SinkError("open error log", err)
	}

	return &Log{
		path:   path,
		file:   f,
		logger: log.With().Str("component", "error-log").Str("path", path).Logger(),
	}, nil
}

// Path returns the file the log appends to.
func (l *Log) Path() string {
	return l.path
}

// Append writes rec as one line and syncs it to stable storage before
// returning. A failure here is a SinkError.
func (l *Log) Append(ctx context.Context, rec harvest.FailureRecord) error {
	line, err := formatLine(rec)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return harvest.SinkError("append", os.ErrClosed)
	}
	if _, err := l.file.WriteString(line); err != nil {
		return harvest.SinkError("write failure record", err)
	}
	if err := l.file.Sync(); err != nil {
		return harvest.SinkError("sync error log", err)
	}

	l.logger.Debug().
		Str("entry", rec.Entry).
		Str("error_kind", string(rec.Kind)).
		Int("attempts", rec.Attempts).
		Msg("Failure recorded")
	return nil
}

// Close closes the underlying file. Further appends fail.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	if err != nil {
		return harvest.SinkError("close error log", err)
	}
	return nil
}

func formatLine(rec harvest.FailureRecord) (string, error) {
	if strings.ContainsAny(rec.Entry, "\t\r\n") {
		return "", harvest.SinkError("format failure record",
			fmt.Errorf("entry %q contains a field or line separator", rec.Entry))
	}

	failedAt := rec.FailedAt
	if failedAt.IsZero() {
		failedAt = time.Now()
	}

	fields := []string{
		rec.Entry,
		failedAt.UTC().Format(time.RFC3339),
		string(rec.Kind),
		strconv.Itoa(rec.Attempts),
		flatten(rec.Reason),
	}
	return strings.Join(fields, "\t") + "\n", nil
}

// flatten keeps a reason on one line and inside its field.
func flatten(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\t', '\r', '\n':
			return ' '
		}
		return r
	}, s)
}
