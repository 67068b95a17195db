package importer_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/annolab/corpus-manager/internal/importer"
	"github.com/annolab/corpus-manager/internal/models"
)

const csvHeader = "text,original_text,language,script,country,region_dialect," +
	"source_type,source_ref,collection_date,domain,topic,theme," +
	"sensitive_characteristic,safety_flag,pii_removed,notes"

func csvFile(rows ...string) []byte {
	return []byte(csvHeader + "\n" + strings.Join(rows, "\n"))
}

func TestParse_UnsupportedExtension(t *testing.T) {
	_, err := importer.Parse([]byte("text\nhello"), "data.pdf")
	if err == nil {
		t.Fatal("expected error for unsupported extension")
	}
	if !strings.Contains(err.Error(), ".pdf") {
		t.Errorf("error should name the extension, got: %v", err)
	}
}

func TestParse_CSV(t *testing.T) {
	data := csvFile(
		"Hello world,,en,latin,KE,,news,,2026-08-01,general,,neutral,none,safe,true,first",
		"Second sentence,,fr,latin,SN,dakar,blog,,2026-08-02,culture,music,stereotype,gender,sensitive,false,",
	)

	rows, err := importer.Parse(data, "upload.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	first := rows[0]
	if first.Row != 1 {
		t.Errorf("expected row number 1, got %d", first.Row)
	}
	if first.Text != "Hello world" {
		t.Errorf("unexpected text: %q", first.Text)
	}
	if first.Script != models.ScriptLatin {
		t.Errorf("unexpected script: %q", first.Script)
	}
	if first.SourceType != models.SourceNews {
		t.Errorf("unexpected source type: %q", first.SourceType)
	}
	if !first.PIIRemoved {
		t.Error("expected pii_removed true")
	}

	second := rows[1]
	if second.Row != 2 {
		t.Errorf("expected row number 2, got %d", second.Row)
	}
	if second.Characteristic != models.CharacteristicGender {
		t.Errorf("unexpected characteristic: %q", second.Characteristic)
	}
}

func TestParse_CSVHeaderNormalization(t *testing.T) {
	data := []byte("\ufeffText , LANGUAGE ,Country,Source Type,Domain,Theme\n" +
		"hello,en,KE,news,general,neutral")

	rows, err := importer.Parse(data, "upload.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Text != "hello" {
		t.Errorf("BOM or case broke header mapping: %+v", rows[0])
	}
	if rows[0].SourceType != models.SourceNews {
		t.Errorf("space-to-underscore header mapping failed: %q", rows[0].SourceType)
	}
}

func TestParse_DropsInvalidRows(t *testing.T) {
	data := csvFile(
		"Valid one,,en,latin,KE,,news,,,general,,neutral,none,safe,false,",
		",,,,,,,,,,,,,,,",
		"Bad enum,,en,klingon,KE,,news,,,general,,neutral,none,safe,false,",
		"Valid two,,en,,KE,,blog,,,culture,,other,none,safe,false,",
	)

	rows, err := importer.Parse(data, "upload.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 surviving rows, got %d", len(rows))
	}
	// Row numbers still reflect file position
	if rows[0].Row != 1 || rows[1].Row != 4 {
		t.Errorf("expected rows 1 and 4, got %d and %d", rows[0].Row, rows[1].Row)
	}
	// Empty enum cell is accepted as the zero value
	if rows[1].Script != "" {
		t.Errorf("expected empty script, got %q", rows[1].Script)
	}
}

func TestParse_MissingRequiredFieldsSurvive(t *testing.T) {
	// Presence of required fields is the detector's job; the parser keeps
	// such rows so they can be reported with their row numbers.
	data := csvFile(",,en,latin,KE,,news,,,general,,neutral,none,safe,false,no text here")

	rows, err := importer.Parse(data, "upload.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Text != "" {
		t.Errorf("expected empty text, got %q", rows[0].Text)
	}
}

func TestParse_EmptyCSV(t *testing.T) {
	rows, err := importer.Parse([]byte(""), "upload.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

func TestParse_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	header := []string{"text", "language", "country", "source_type", "domain", "theme", "pii_removed"}
	cells := [][]string{
		header,
		{"Sentence one", "sw", "TZ", "forum", "politics", "discrimination", "yes"},
		{"", "", "", "", "", "", ""},
		{"Sentence two", "am", "ET", "academic", "religion", "neutral", "0"},
	}
	for r, record := range cells {
		for c, value := range record {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	rows, err := importer.Parse(buf.Bytes(), "upload.xlsx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Text != "Sentence one" || rows[0].Row != 1 {
		t.Errorf("unexpected first row: %+v", rows[0])
	}
	if !rows[0].PIIRemoved {
		t.Error("expected pii_removed true for 'yes'")
	}
	if rows[1].Text != "Sentence two" || rows[1].Row != 3 {
		t.Errorf("empty row should keep numbering, got: %+v", rows[1])
	}
}

func TestSentenceRow_ToSentence(t *testing.T) {
	row := importer.SentenceRow{
		Row:        7,
		Text:       "  padded text  ",
		Language:   " en ",
		Country:    "KE",
		SourceType: models.SourceNews,
		Domain:     models.DomainGeneral,
		Theme:      models.ThemeNeutral,
		PIIRemoved: true,
	}

	s := row.ToSentence()
	if s.Text != "padded text" {
		t.Errorf("expected trimmed text, got %q", s.Text)
	}
	if s.Language != "en" {
		t.Errorf("expected trimmed language, got %q", s.Language)
	}
	if s.ID != "" {
		t.Errorf("conversion must not assign an id, got %q", s.ID)
	}
	if !s.PIIRemoved {
		t.Error("pii flag lost in conversion")
	}
}
