package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformedInput is returned when the row source itself cannot be read.
// It is reported before any row is processed.
var ErrMalformedInput = errors.New("malformed input")

// ReadRows parses a CSV export whose first record is the header. Blank
// records are skipped and short records are padded with empty values.
func ReadRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty export", ErrMalformedInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read header: %w", ErrMalformedInput, err)
	}

	columns := make([]string, len(header))
	named := 0
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		columns[i] = strings.TrimSpace(h)
		if columns[i] != "" {
			named++
		}
	}
	if named == 0 {
		return nil, fmt.Errorf("%w: header has no column names", ErrMalformedInput)
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedInput, err)
		}
		if blank(rec) {
			continue
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			if col == "" {
				continue
			}
			if i < len(rec) {
				row[col] = rec[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
