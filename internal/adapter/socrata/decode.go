package socrata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/regain-housing-analysis/internal/domain"
)

// DecodeRecords reads a SODA JSON array of flat objects. String values are
// unquoted; any other JSON value is kept as its literal text.
func DecodeRecords(r io.Reader) ([]domain.RawRecord, error) {
	var rows []map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	records := make([]domain.RawRecord, 0, len(rows))
	for i, row := range rows {
		rec := make(domain.RawRecord, len(row))
		for field, raw := range row {
			v, err := rawString(raw)
			if err != nil {
				return nil, fmt.Errorf("decode row %d field %q: %w", i, field, err)
			}
			rec[field] = v
		}
		records = append(records, rec)
	}
	return records, nil
}

func rawString(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	if bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}
	return string(trimmed), nil
}

// FileSource reads a dataset snapshot saved from the SODA endpoint.
// It implements pipeline.Source.
type FileSource struct {
	path string
}

// NewFileSource creates a source backed by a local JSON file.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Fetch reads and decodes the snapshot.
func (f *FileSource) Fetch(_ context.Context) ([]domain.RawRecord, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer file.Close()
	return DecodeRecords(file)
}
