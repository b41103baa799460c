// Package ingest reads an uploaded two-year statement (xlsx or csv) into raw
// rows for the calc package. It only checks the column count; everything else
// is left to calc.Derive.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"statement_analyst/pkg/core/calc"
)

// ErrUnsupportedFormat is returned for files that are neither spreadsheet nor csv.
var ErrUnsupportedFormat = errors.New("unsupported statement file format")

// Statement is an uploaded file after header removal.
type Statement struct {
	FileName string
	Header   []string   // discarded header row, kept for display
	Rows     [][]string // (line item, prior year, current year)
}

// ReadFile opens path and reads it according to its extension.
func ReadFile(path string) (*Statement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open statement file: %w", err)
	}
	defer f.Close()

	return Read(f, filepath.Base(path))
}

// Read parses r as the file named name (the extension picks the reader).
func Read(r io.Reader, name string) (*Statement, error) {
	var (
		records [][]string
		err     error
	)

	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		records, err = readWorkbook(r)
	case ".csv":
		records, err = readCSV(r)
	default:
		return nil, fmt.Errorf("%w: %q (expected .xlsx or .csv)", ErrUnsupportedFormat, filepath.Ext(name))
	}
	if err != nil {
		return nil, err
	}

	return normalize(records, name)
}

// normalize drops the header, skips blank rows, and enforces the three-column
// layout. Trailing empty cells are ignored; short rows are padded.
func normalize(records [][]string, name string) (*Statement, error) {
	st := &Statement{FileName: name}

	headerSeen := false
	for i, rec := range records {
		rec = trimTrailingEmpty(rec)
		if len(rec) == 0 {
			continue
		}
		if len(rec) > calc.RawColumns {
			return nil, &calc.SchemaError{
				Row:    i + 1,
				Reason: fmt.Sprintf("expected %d columns (line item, prior year, current year), found %d; please verify the file format", calc.RawColumns, len(rec)),
			}
		}

		padded := make([]string, calc.RawColumns)
		copy(padded, rec)

		if !headerSeen {
			if len(rec) != calc.RawColumns {
				return nil, &calc.SchemaError{
					Row:    i + 1,
					Reason: fmt.Sprintf("header must have %d columns, found %d; please verify the file format", calc.RawColumns, len(rec)),
				}
			}
			st.Header = padded
			headerSeen = true
			continue
		}
		st.Rows = append(st.Rows, padded)
	}

	if !headerSeen {
		return nil, &calc.SchemaError{Reason: "statement file is empty"}
	}
	return st, nil
}

func trimTrailingEmpty(rec []string) []string {
	end := len(rec)
	for end > 0 && strings.TrimSpace(rec[end-1]) == "" {
		end--
	}
	return rec[:end]
}
