package harvest

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ReadEntries reads one entry per line. Surrounding whitespace is trimmed
// and blank lines are skipped; there is no escaping.
func ReadEntries(r io.Reader) ([]string, error) {
	var entries []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entries = append(entries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read entries: %w", err)
	}
	return entries, nil
}
