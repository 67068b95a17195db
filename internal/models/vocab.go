package models

import "strings"

// Enumerated vocabularies for the data-collection schema. The parser and the
// persistence layer share these tables; a row whose enum column does not match
// its vocabulary is dropped at parse time.

// Script identifies the writing system of a sentence.
type Script string

const (
	ScriptLatin      Script = "latin"
	ScriptArabic     Script = "arabic"
	ScriptCyrillic   Script = "cyrillic"
	ScriptDevanagari Script = "devanagari"
	ScriptEthiopic   Script = "ethiopic"
	ScriptHan        Script = "han"
	ScriptOther      Script = "other"
)

// SourceType identifies where a sentence was collected from.
type SourceType string

const (
	SourceSocialMedia SourceType = "social_media"
	SourceNews        SourceType = "news"
	SourceBlog        SourceType = "blog"
	SourceForum       SourceType = "forum"
	SourceAcademic    SourceType = "academic"
	SourceGovernment  SourceType = "government"
	SourceLiterature  SourceType = "literature"
	SourceBroadcast   SourceType = "broadcast_transcript"
	SourceOther       SourceType = "other"
)

// Domain is the broad subject area of a sentence.
type Domain string

const (
	DomainPolitics      Domain = "politics"
	DomainReligion      Domain = "religion"
	DomainHealth        Domain = "health"
	DomainEducation     Domain = "education"
	DomainEconomy       Domain = "economy"
	DomainSports        Domain = "sports"
	DomainEntertainment Domain = "entertainment"
	DomainTechnology    Domain = "technology"
	DomainCulture       Domain = "culture"
	DomainGeneral       Domain = "general"
)

// Theme is the bias phenomenon the sentence is collected for.
type Theme string

const (
	ThemeStereotype      Theme = "stereotype"
	ThemeDiscrimination  Theme = "discrimination"
	ThemeHateSpeech      Theme = "hate_speech"
	ThemeMicroaggression Theme = "microaggression"
	ThemeNeutral         Theme = "neutral"
	ThemeOther           Theme = "other"
)

// SensitiveCharacteristic is the protected attribute a sentence touches on.
type SensitiveCharacteristic string

const (
	CharacteristicGender        SensitiveCharacteristic = "gender"
	CharacteristicEthnicity     SensitiveCharacteristic = "ethnicity"
	CharacteristicReligion      SensitiveCharacteristic = "religion"
	CharacteristicNationality   SensitiveCharacteristic = "nationality"
	CharacteristicAge           SensitiveCharacteristic = "age"
	CharacteristicDisability    SensitiveCharacteristic = "disability"
	CharacteristicOrientation   SensitiveCharacteristic = "sexual_orientation"
	CharacteristicSocioeconomic SensitiveCharacteristic = "socioeconomic_status"
	CharacteristicNone          SensitiveCharacteristic = "none"
)

// SafetyFlag is the coarse safety rating assigned at collection time.
type SafetyFlag string

const (
	SafetySafe      SafetyFlag = "safe"
	SafetySensitive SafetyFlag = "sensitive"
	SafetyUnsafe    SafetyFlag = "unsafe"
)

var scriptByName = map[string]Script{
	"latin": ScriptLatin, "arabic": ScriptArabic, "cyrillic": ScriptCyrillic,
	"devanagari": ScriptDevanagari, "ethiopic": ScriptEthiopic, "han": ScriptHan,
	"other": ScriptOther,
}

var sourceTypeByName = map[string]SourceType{
	"social_media": SourceSocialMedia, "news": SourceNews, "blog": SourceBlog,
	"forum": SourceForum, "academic": SourceAcademic, "government": SourceGovernment,
	"literature": SourceLiterature, "broadcast_transcript": SourceBroadcast,
	"other": SourceOther,
}

var domainByName = map[string]Domain{
	"politics": DomainPolitics, "religion": DomainReligion, "health": DomainHealth,
	"education": DomainEducation, "economy": DomainEconomy, "sports": DomainSports,
	"entertainment": DomainEntertainment, "technology": DomainTechnology,
	"culture": DomainCulture, "general": DomainGeneral,
}

var themeByName = map[string]Theme{
	"stereotype": ThemeStereotype, "discrimination": ThemeDiscrimination,
	"hate_speech": ThemeHateSpeech, "microaggression": ThemeMicroaggression,
	"neutral": ThemeNeutral, "other": ThemeOther,
}

var characteristicByName = map[string]SensitiveCharacteristic{
	"gender": CharacteristicGender, "ethnicity": CharacteristicEthnicity,
	"religion": CharacteristicReligion, "nationality": CharacteristicNationality,
	"age": CharacteristicAge, "disability": CharacteristicDisability,
	"sexual_orientation": CharacteristicOrientation,
	"socioeconomic_status": CharacteristicSocioeconomic,
	"none": CharacteristicNone,
}

var safetyFlagByName = map[string]SafetyFlag{
	"safe": SafetySafe, "sensitive": SafetySensitive, "unsafe": SafetyUnsafe,
}

// Scripts lists the script vocabulary in declaration order.
func Scripts() []Script {
	return []Script{
		ScriptLatin, ScriptArabic, ScriptCyrillic, ScriptDevanagari,
		ScriptEthiopic, ScriptHan, ScriptOther,
	}
}

// SourceTypes lists the source-type vocabulary in declaration order.
func SourceTypes() []SourceType {
	return []SourceType{
		SourceSocialMedia, SourceNews, SourceBlog, SourceForum, SourceAcademic,
		SourceGovernment, SourceLiterature, SourceBroadcast, SourceOther,
	}
}

// Domains lists the domain vocabulary in declaration order.
func Domains() []Domain {
	return []Domain{
		DomainPolitics, DomainReligion, DomainHealth, DomainEducation,
		DomainEconomy, DomainSports, DomainEntertainment, DomainTechnology,
		DomainCulture, DomainGeneral,
	}
}

// Themes lists the theme vocabulary in declaration order.
func Themes() []Theme {
	return []Theme{
		ThemeStereotype, ThemeDiscrimination, ThemeHateSpeech,
		ThemeMicroaggression, ThemeNeutral, ThemeOther,
	}
}

// SensitiveCharacteristics lists the characteristic vocabulary in declaration order.
func SensitiveCharacteristics() []SensitiveCharacteristic {
	return []SensitiveCharacteristic{
		CharacteristicGender, CharacteristicEthnicity, CharacteristicReligion,
		CharacteristicNationality, CharacteristicAge, CharacteristicDisability,
		CharacteristicOrientation, CharacteristicSocioeconomic, CharacteristicNone,
	}
}

// SafetyFlags lists the safety-flag vocabulary in declaration order.
func SafetyFlags() []SafetyFlag {
	return []SafetyFlag{SafetySafe, SafetySensitive, SafetyUnsafe}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ParseScript resolves a raw cell value against the script vocabulary.
func ParseScript(s string) (Script, bool) {
	v, ok := scriptByName[normalize(s)]
	return v, ok
}

// ParseSourceType resolves a raw cell value against the source-type vocabulary.
func ParseSourceType(s string) (SourceType, bool) {
	v, ok := sourceTypeByName[normalize(s)]
	return v, ok
}

// ParseDomain resolves a raw cell value against the domain vocabulary.
func ParseDomain(s string) (Domain, bool) {
	v, ok := domainByName[normalize(s)]
	return v, ok
}

// ParseTheme resolves a raw cell value against the theme vocabulary.
func ParseTheme(s string) (Theme, bool) {
	v, ok := themeByName[normalize(s)]
	return v, ok
}

// ParseCharacteristic resolves a raw cell value against the
// sensitive-characteristic vocabulary.
func ParseCharacteristic(s string) (SensitiveCharacteristic, bool) {
	v, ok := characteristicByName[normalize(s)]
	return v, ok
}

// ParseSafetyFlag resolves a raw cell value against the safety-flag vocabulary.
func ParseSafetyFlag(s string) (SafetyFlag, bool) {
	v, ok := safetyFlagByName[normalize(s)]
	return v, ok
}
