package importer

import (
	"strings"

	"github.com/annolab/corpus-manager/internal/models"
)

// SentenceRow represents a parsed row from an uploaded file. Row is the
// 1-based position within the file's data section (header excluded), assigned
// before any row is dropped, so error reports map back to the source file.
type SentenceRow struct {
	Row            int
	Text           string
	OriginalText   string
	Language       string
	Script         models.Script
	Country        string
	RegionDialect  string
	SourceType     models.SourceType
	SourceRef      string
	CollectionDate string
	Domain         models.Domain
	Topic          string
	Theme          models.Theme
	Characteristic models.SensitiveCharacteristic
	SafetyFlag     models.SafetyFlag
	PIIRemoved     bool
	Notes          string
}

// ToSentence converts a parsed row into a corpus sentence without identifiers
// or timestamps; the repository assigns those at insert time.
func (r SentenceRow) ToSentence() models.Sentence {
	return models.Sentence{
		Text:           strings.TrimSpace(r.Text),
		OriginalText:   strings.TrimSpace(r.OriginalText),
		Language:       strings.TrimSpace(r.Language),
		Script:         r.Script,
		Country:        strings.TrimSpace(r.Country),
		RegionDialect:  strings.TrimSpace(r.RegionDialect),
		SourceType:     r.SourceType,
		SourceRef:      strings.TrimSpace(r.SourceRef),
		CollectionDate: strings.TrimSpace(r.CollectionDate),
		Domain:         r.Domain,
		Topic:          strings.TrimSpace(r.Topic),
		Theme:          r.Theme,
		Characteristic: r.Characteristic,
		SafetyFlag:     r.SafetyFlag,
		PIIRemoved:     r.PIIRemoved,
		Notes:          strings.TrimSpace(r.Notes),
	}
}
