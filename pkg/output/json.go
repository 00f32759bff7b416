// Package output persists the records of a completed run.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Sternrassler/dict-crawler/pkg/harvest"
)

// WriteJSON writes v as indented JSON to path. The document is written to a
// temporary file in the same directory and renamed, so a reader never sees a
// partial file. Failures are SinkErrors.
func WriteJSON(path string, v any) error {
	if path == "" {
		return harvest.ConfigurationError("output path is empty")
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return harvest.SinkError("encode results", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return harvest.SinkError("create results file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return harvest.SinkError("write results", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return harvest.SinkError("sync results", err)
	}
	if err := tmp.Close(); err != nil {
		return harvest.SinkError("close results", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return harvest.SinkError("chmod results", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return harvest.SinkError("rename results", fmt.Errorf("%s: %w", path, err))
	}
	return nil
}

// WriteResult writes the result's records keyed by entry.
func WriteResult[R any](path string, result *harvest.Result[R]) error {
	return WriteJSON(path, result.ByEntry())
}

// Document is a results file as stored: records keyed by entry, left encoded.
type Document map[string]json.RawMessage

// ReadDocument loads a results file. A missing file is an empty document.
func ReadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Document{}, nil
	}
	if err != nil {
		return nil, harvest.SinkError("read results", err)
	}

	doc := Document{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, harvest.SinkError("decode results", fmt.Errorf("%s: %w", path, err))
	}
	return doc, nil
}

// MergeResult adds the result's records to the document at path, replacing
// records with the same entry and keeping all others.
func MergeResult[R any](path string, result *harvest.Result[R]) error {
	if path == "" {
		return harvest.ConfigurationError("output path is empty")
	}
	doc, err := ReadDocument(path)
	if err != nil {
		return err
	}
	for entry, record := range result.ByEntry() {
		raw, err := json.Marshal(record)
		if err != nil {
			return harvest.SinkError("encode results", err)
		}
		doc[entry] = raw
	}
	return WriteJSON(path, doc)
}
