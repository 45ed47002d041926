package core

// reader.go turns raw file bytes into a RawTable. Dispatch is a closed
// switch on the catalog FormatKind:
//
//   - spreadsheet: xlsx via excelize; honors the required-sheet option and
//     fails listing the sheets that do exist when it is missing
//   - delimited: encoding/csv with a configurable delimiter, charset
//     decoding, and the fail/skip/warn bad-row policy
//
// All parse and decode failures are wrapped in *FormatError with the
// original cause preserved; nothing is swallowed.

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"

	"github.com/JonMunkholm/datafeed/internal/catalog"
)

// FileReader is the production TableReader.
type FileReader struct{}

// NewFileReader returns a TableReader backed by excelize and encoding/csv.
func NewFileReader() *FileReader {
	return &FileReader{}
}

// Parse converts file bytes into a RawTable according to spec.
func (fr *FileReader) Parse(data []byte, spec catalog.FormatSpec) (*RawTable, error) {
	switch spec.Kind {
	case catalog.KindSpreadsheet:
		return parseSpreadsheet(data, spec)
	case catalog.KindDelimited:
		return parseDelimited(data, spec)
	default:
		return nil, &FormatError{Reason: fmt.Sprintf("unsupported format kind %q", spec.Kind)}
	}
}

// parseSpreadsheet reads the required sheet (or the first sheet) of an
// xlsx workbook.
func parseSpreadsheet(data []byte, spec catalog.FormatSpec) (*RawTable, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &FormatError{Reason: "cannot open workbook", Err: err}
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, &FormatError{Reason: "workbook has no sheets"}
	}

	sheet := sheets[0]
	if spec.RequiredSheet != "" {
		found := false
		for _, name := range sheets {
			if name == spec.RequiredSheet {
				found = true
				break
			}
		}
		if !found {
			return nil, &FormatError{
				Reason:          fmt.Sprintf("required sheet %q not found", spec.RequiredSheet),
				AvailableSheets: sheets,
			}
		}
		sheet = spec.RequiredSheet
	}

	rows, err := wb.GetRows(sheet)
	if err != nil {
		return nil, &FormatError{Reason: fmt.Sprintf("cannot read sheet %q", sheet), Err: err}
	}
	if len(rows) == 0 {
		return &RawTable{}, nil
	}

	columns := rows[0]
	table := &RawTable{
		Columns: columns,
		Rows:    make([][]string, 0, len(rows)-1),
	}
	for _, row := range rows[1:] {
		// excelize truncates trailing empty cells; pad to the header width
		// so every record has a value per column.
		if len(row) < len(columns) {
			padded := make([]string, len(columns))
			copy(padded, row)
			row = padded
		} else if len(row) > len(columns) {
			row = row[:len(columns)]
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// parseDelimited reads a delimiter-separated text file, decoding from the
// configured charset and applying the bad-row policy.
func parseDelimited(data []byte, spec catalog.FormatSpec) (*RawTable, error) {
	enc, err := lookupEncoding(spec.Encoding)
	if err != nil {
		return nil, &FormatError{Reason: fmt.Sprintf("unknown encoding %q", spec.Encoding), Err: err}
	}

	decoded, err := io.ReadAll(enc.NewDecoder().Reader(bytes.NewReader(data)))
	if err != nil {
		return nil, &FormatError{Reason: fmt.Sprintf("cannot decode as %s", spec.Encoding), Err: err}
	}

	delim := spec.Delimiter
	if delim == "" {
		delim = ";"
	}

	r := csv.NewReader(bytes.NewReader(decoded))
	r.Comma = []rune(delim)[0]
	r.LazyQuotes = true
	// Column-count enforcement is handled below so skip/warn can drop
	// individual rows instead of aborting the read.
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return &RawTable{}, nil
	}
	if err != nil {
		return nil, &FormatError{Reason: "cannot read header row", Err: err}
	}

	table := &RawTable{Columns: header}
	line := 1
	for {
		line++
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if spec.BadRows == catalog.BadRowFail {
				return nil, &FormatError{Reason: fmt.Sprintf("malformed row at line %d", line), Err: err}
			}
			if spec.BadRows == catalog.BadRowWarn {
				slog.Warn("skipping malformed row", "line", line, "error", err)
			}
			continue
		}
		if len(row) != len(header) {
			switch spec.BadRows {
			case catalog.BadRowFail:
				return nil, &FormatError{
					Reason: fmt.Sprintf("row at line %d has %d fields, expected %d", line, len(row), len(header)),
				}
			case catalog.BadRowWarn:
				slog.Warn("skipping malformed row",
					"line", line,
					"fields", len(row),
					"expected", len(header),
				)
			}
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// lookupEncoding resolves an IANA charset name. UTF-8 short-circuits to
// the identity transform.
func lookupEncoding(name string) (encoding.Encoding, error) {
	switch name {
	case "", "utf-8", "UTF-8", "utf8":
		return unicode.UTF8, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, fmt.Errorf("charset %q has no decoder", name)
	}
	return enc, nil
}
