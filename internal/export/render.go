package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/annolab/corpus-manager/internal/models"
)

var exportHeader = []string{
	"id", "text", "original_text", "language", "script", "country",
	"region_dialect", "source_type", "source_ref", "collection_date",
	"domain", "topic", "theme", "sensitive_characteristic", "safety_flag",
	"pii_removed", "notes", "labels", "annotator_id", "annotated_at",
}

func render(sentences []models.Sentence, format string) ([]byte, string, error) {
	switch format {
	case "csv":
		data, err := renderCSV(sentences)
		return data, "text/csv", err
	case "xlsx":
		data, err := renderXLSX(sentences)
		return data, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", err
	default:
		return nil, "", fmt.Errorf("unsupported export format: %s", format)
	}
}

func renderCSV(sentences []models.Sentence) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for i := range sentences {
		if err := w.Write(exportRecord(&sentences[i])); err != nil {
			return nil, fmt.Errorf("write csv record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	return buf.Bytes(), nil
}

func renderXLSX(sentences []models.Sentence) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	for col, name := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("resolve header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return nil, fmt.Errorf("write header cell: %w", err)
		}
	}

	for row := range sentences {
		record := exportRecord(&sentences[row])
		for col, value := range record {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, fmt.Errorf("resolve cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("write cell: %w", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func exportRecord(s *models.Sentence) []string {
	var labels, annotatorID, annotatedAt string
	if s.Annotation != nil {
		labels = strings.Join(s.Annotation.Labels, ";")
		annotatorID = s.Annotation.AnnotatorID
		if !s.Annotation.AnnotatedAt.IsZero() {
			annotatedAt = s.Annotation.AnnotatedAt.UTC().Format("2006-01-02T15:04:05Z")
		}
	}

	return []string{
		s.ID, s.Text, s.OriginalText, s.Language, string(s.Script), s.Country,
		s.RegionDialect, string(s.SourceType), s.SourceRef, s.CollectionDate,
		string(s.Domain), s.Topic, string(s.Theme), string(s.Characteristic),
		string(s.SafetyFlag), strconv.FormatBool(s.PIIRemoved), s.Notes,
		labels, annotatorID, annotatedAt,
	}
}
