package fetch

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Sternrassler/dict-crawler/pkg/harvest"
)

// Target appends entry to base as one escaped path segment.
//
//	Target("https://www.merriam-webster.com/dictionary/", "give up")
//	// https://www.merriam-webster.com/dictionary/give%20up
//
// Entries that cannot form a request target fail with an
// identifier_encoding error.
func Target(base, entry string) (string, error) {
	if err := ValidateEntry(entry); err != nil {
		return "", harvest.IdentifierError(entry, err)
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", harvest.IdentifierError(entry, fmt.Errorf("parse base url: %w", err))
	}
	if u.Scheme == "" || u.Host == "" {
		return "", harvest.IdentifierError(entry, fmt.Errorf("base url %q is not absolute", base))
	}

	u.RawPath = strings.TrimSuffix(u.EscapedPath(), "/") + "/" + url.PathEscape(entry)
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + entry
	return u.String(), nil
}

// ValidateEntry rejects entries that cannot be sent as a path segment.
func ValidateEntry(entry string) error {
	if strings.TrimSpace(entry) == "" {
		return errors.New("entry is empty")
	}
	if !utf8.ValidString(entry) {
		return errors.New("entry is not valid UTF-8")
	}
	for _, r := range entry {
		if unicode.IsControl(r) {
			return fmt.Errorf("entry contains control character %U", r)
		}
	}
	return nil
}
