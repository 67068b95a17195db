// Command gentemplate generates the spreadsheet upload template for sentences.
// Usage: go run cmd/gentemplate/main.go
package main

import (
	"log"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/annolab/corpus-manager/internal/models"
)

const sheetName = "Sentences"

func main() {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		log.Fatal(err)
	}

	headers := []string{
		"text", "original_text", "language", "script", "country",
		"region_dialect", "source_type", "source_ref", "collection_date",
		"domain", "topic", "theme", "sensitive_characteristic", "safety_flag",
		"pii_removed", "notes",
	}
	writeRow(f, sheetName, 1, headers)

	writeRow(f, sheetName, 2, []string{
		"Les femmes ne comprennent rien a la technologie.",
		"",
		"fr",
		"latin",
		"SN",
		"dakar",
		"social_media",
		"https://example.com/post/123",
		"2026-08-01",
		"technology",
		"tech literacy",
		"stereotype",
		"gender",
		"sensitive",
		"true",
		"collected during August sweep",
	})
	writeRow(f, sheetName, 3, []string{
		"The market reopened after the rains.",
		"",
		"en",
		"latin",
		"KE",
		"",
		"news",
		"",
		"2026-08-03",
		"economy",
		"",
		"neutral",
		"none",
		"safe",
		"false",
		"",
	})

	if _, err := f.NewSheet("Instructions"); err != nil {
		log.Fatal(err)
	}
	instructions := []string{
		"Column Descriptions:",
		"",
		"text - Required. The candidate sentence; must be unique in the corpus",
		"original_text - Optional. Untranslated form when text is a translation",
		"language - Required. ISO 639 language code",
		"script - Optional. One of: " + joinVocab(models.Scripts()),
		"country - Required. ISO 3166 country code",
		"region_dialect - Optional. Free-text region or dialect",
		"source_type - Required. One of: " + joinVocab(models.SourceTypes()),
		"source_ref - Optional. URL or citation of the source",
		"collection_date - Optional. YYYY-MM-DD",
		"domain - Required. One of: " + joinVocab(models.Domains()),
		"topic - Optional. Free-text topic within the domain",
		"theme - Required. One of: " + joinVocab(models.Themes()),
		"sensitive_characteristic - Optional. One of: " + joinVocab(models.SensitiveCharacteristics()),
		"safety_flag - Optional. One of: " + joinVocab(models.SafetyFlags()),
		"pii_removed - Optional. true/false/1/0/yes/no (default: false)",
		"notes - Optional. Free-text collection notes",
		"",
		"Rows with enum values outside their vocabulary are dropped.",
		"Rows whose text already exists in the corpus are reported as duplicates.",
	}
	for i, line := range instructions {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			log.Fatal(err)
		}
		if err := f.SetCellValue("Instructions", cell, line); err != nil {
			log.Fatal(err)
		}
	}

	if err := os.MkdirAll("examples", 0755); err != nil {
		log.Fatal(err)
	}

	if err := f.SaveAs("examples/sentence-upload-template.xlsx"); err != nil {
		log.Fatal(err)
	}
	log.Println("Created examples/sentence-upload-template.xlsx")
}

func writeRow(f *excelize.File, sheet string, row int, values []string) {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			log.Fatal(err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			log.Fatal(err)
		}
	}
}

func joinVocab[T ~string](values []T) string {
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = string(v)
	}
	return strings.Join(names, ", ")
}
