// Package importer parses uploaded tabular files into candidate sentence rows.
// It is a pure transformation: no database or network access.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/annolab/corpus-manager/internal/models"
)

// Parse maps raw file bytes into candidate rows. The container format is
// selected from the filename extension: .csv for delimited text, .xlsx for
// a spreadsheet workbook (first sheet only). Any other extension is a hard
// failure naming the extension.
//
// Each data row is mapped independently. Rows that are entirely empty, or
// whose enum-valued cells carry a value outside the closed vocabulary, are
// dropped rather than failing the file. Required-field presence is NOT
// checked here; the duplicate detector reports those as row-level validation
// errors so callers can fix and re-upload the offending rows.
func Parse(data []byte, filename string) ([]SentenceRow, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".csv":
		return parseCSV(data)
	case ".xlsx":
		return parseXLSX(data)
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

func parseCSV(data []byte) ([]SentenceRow, error) {
	reader := csv.NewReader(bytes.NewReader(stripBOM(data)))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return []SentenceRow{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	columns := mapHeader(header)
	rows := make([]SentenceRow, 0)
	rowNum := 0

	for {
		record, readErr := reader.Read()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			// Malformed row: drop it, keep the rest of the file
			rowNum++
			continue
		}
		rowNum++
		if row, ok := mapRow(record, columns, rowNum); ok {
			rows = append(rows, row)
		}
	}

	return rows, nil
}

func parseXLSX(data []byte) ([]SentenceRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return []SentenceRow{}, nil
	}

	// First sheet only
	cells, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(cells) == 0 {
		return []SentenceRow{}, nil
	}

	columns := mapHeader(cells[0])
	rows := make([]SentenceRow, 0, len(cells)-1)

	for i, record := range cells[1:] {
		if row, ok := mapRow(record, columns, i+1); ok {
			rows = append(rows, row)
		}
	}

	return rows, nil
}

// mapHeader builds a column-name → index lookup from a header row,
// normalizing BOM residue, whitespace and case before matching.
func mapHeader(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		normalized := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		normalized = strings.ReplaceAll(normalized, " ", "_")
		if normalized != "" {
			columns[normalized] = i
		}
	}
	return columns
}

// mapRow maps one data record to a SentenceRow. Returns false when the row
// must be dropped: entirely empty, or an enum cell outside its vocabulary.
func mapRow(record []string, columns map[string]int, rowNum int) (SentenceRow, bool) {
	cell := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	empty := true
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			empty = false
			break
		}
	}
	if empty {
		return SentenceRow{}, false
	}

	row := SentenceRow{
		Row:            rowNum,
		Text:           cell("text"),
		OriginalText:   cell("original_text"),
		Language:       cell("language"),
		Country:        cell("country"),
		RegionDialect:  cell("region_dialect"),
		SourceRef:      cell("source_ref"),
		CollectionDate: cell("collection_date"),
		Topic:          cell("topic"),
		Notes:          cell("notes"),
		PIIRemoved:     parseBool(cell("pii_removed")),
	}

	var ok bool
	if row.Script, ok = enumCell(cell("script"), models.ParseScript); !ok {
		return SentenceRow{}, false
	}
	if row.SourceType, ok = enumCell(cell("source_type"), models.ParseSourceType); !ok {
		return SentenceRow{}, false
	}
	if row.Domain, ok = enumCell(cell("domain"), models.ParseDomain); !ok {
		return SentenceRow{}, false
	}
	if row.Theme, ok = enumCell(cell("theme"), models.ParseTheme); !ok {
		return SentenceRow{}, false
	}
	if row.Characteristic, ok = enumCell(cell("sensitive_characteristic"), models.ParseCharacteristic); !ok {
		return SentenceRow{}, false
	}
	if row.SafetyFlag, ok = enumCell(cell("safety_flag"), models.ParseSafetyFlag); !ok {
		return SentenceRow{}, false
	}

	return row, true
}

// enumCell resolves an enum cell against its vocabulary. An empty cell is
// accepted as the zero value; presence of required enums is validated later.
func enumCell[T ~string](value string, parse func(string) (T, bool)) (T, bool) {
	if value == "" {
		var zero T
		return zero, true
	}
	return parse(value)
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "y":
		return true
	default:
		return false
	}
}

func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, []byte("\ufeff"))
}
