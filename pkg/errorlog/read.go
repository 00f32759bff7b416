package errorlog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/dict-crawler/pkg/harvest"
)

// ReadEntries returns the entry of every non-empty line in first-seen order,
// without duplicates.
func ReadEntries(r io.Reader) ([]string, error) {
	var entries []string
	seen := make(map[string]struct{})

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry, _, _ := strings.Cut(line, "\t")
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if _, ok := seen[entry]; ok {
			continue
		}
		seen[entry] = struct{}{}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read error log: %w", err)
	}
	return entries, nil
}

// ReadFile is ReadEntries on the file at path. A missing file yields no entries.
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open error log: %w", err)
	}
	defer f.Close()

	return ReadEntries(f)
}

// ParseLine decodes one log line back into a record. Lines written by older
// runs that carry only the entry are accepted with the other fields empty.
func ParseLine(line string) (harvest.FailureRecord, error) {
	line = strings.TrimRight(line, "\r\n")
	fields := strings.SplitN(line, "\t", 5)

	rec := harvest.FailureRecord{Entry: fields[0]}
	if rec.Entry == "" {
		return rec, fmt.Errorf("empty entry field")
	}
	if len(fields) == 1 {
		return rec, nil
	}
	if len(fields) != 5 {
		return rec, fmt.Errorf("expected 5 fields, got %d", len(fields))
	}

	failedAt, err := time.Parse(time.RFC3339, fields[1])
	if err != nil {
		return rec, fmt.Errorf("parse failed_at: %w", err)
	}
	attempts, err := strconv.Atoi(fields[3])
	if err != nil {
		return rec, fmt.Errorf("parse attempts: %w", err)
	}

	rec.FailedAt = failedAt
	rec.Kind = harvest.Kind(fields[2])
	rec.Attempts = attempts
	rec.Reason = fields[4]
	return rec, nil
}
