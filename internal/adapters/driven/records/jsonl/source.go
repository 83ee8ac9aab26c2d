// Package jsonl reads the FAQ corpus from a JSON Lines file.
//
// Each non-blank line holds one object:
//
//	{"id": "reset-password", "question": "...", "answer": "...", "source_locator": "https://..."}
//
// "url" is accepted in place of "source_locator", and numeric ids are
// kept in their decimal form.
package jsonl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/custodia-labs/faqbot/internal/core/domain"
	"github.com/custodia-labs/faqbot/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.RecordSource = (*Source)(nil)

// maxLineBytes bounds a single record line.
const maxLineBytes = 4 << 20

// Source reads records from a JSONL file on every call.
type Source struct {
	path string
}

// New creates a source for the file at path.
func New(path string) *Source {
	return &Source{path: path}
}

// Location returns the file path.
func (s *Source) Location() string {
	return s.path
}

// Records reads and decodes the whole file.
func (s *Source) Records(ctx context.Context) ([]domain.Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	return Decode(ctx, f)
}

// line is the on-disk shape of a record.
type line struct {
	ID            json.RawMessage `json:"id"`
	Question      string          `json:"question"`
	Answer        string          `json:"answer"`
	SourceLocator string          `json:"source_locator"`
	URL           string          `json:"url"`
}

// Decode reads records from r. Blank lines are skipped; a line that is not
// a JSON object fails with domain.ErrCorpusValidation naming the line number.
// Field content is not validated here; the index builder does that.
func Decode(ctx context.Context, r io.Reader) ([]domain.Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var records []domain.Record
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var l line
		if err := json.Unmarshal(raw, &l); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", domain.ErrCorpusValidation, lineNo, err)
		}

		id, err := decodeID(l.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", domain.ErrCorpusValidation, lineNo, err)
		}

		locator := l.SourceLocator
		if locator == "" {
			locator = l.URL
		}

		records = append(records, domain.Record{
			ID:            id,
			Question:      strings.TrimSpace(l.Question),
			Answer:        strings.TrimSpace(l.Answer),
			SourceLocator: locator,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: line %d: %w", domain.ErrCorpusValidation, lineNo+1, err)
	}

	return records, nil
}

func decodeID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("id must be a string or number, got %s", raw)
}
