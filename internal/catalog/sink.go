package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileSink writes finished catalogs under a root directory.
type FileSink struct {
	root string
}

// NewFileSink creates root, including parents, and returns the sink.
func NewFileSink(root string) (*FileSink, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", root, err)
	}
	return &FileSink{root: root}, nil
}

// WriteCatalog serializes records to prism_catalog_<frequency>.json inside
// the sink root and returns the path and byte size written. The output is
// always a JSON array, so a crawl that found nothing still produces a valid
// empty catalog. The document is encoded fully in memory before any bytes
// reach disk.
func (s *FileSink) WriteCatalog(frequency string, records []Record) (string, int64, error) {
	if records == nil {
		records = []Record{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	// Listing URLs carry query-style characters; keep them readable instead
	// of & escapes.
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return "", 0, fmt.Errorf("encode %s catalog: %w", frequency, err)
	}

	target := filepath.Join(s.root, fmt.Sprintf("prism_catalog_%s.json", frequency))
	if err := os.WriteFile(target, buf.Bytes(), 0o600); err != nil {
		return "", 0, fmt.Errorf("write catalog %s: %w", target, err)
	}
	return target, int64(buf.Len()), nil
}
