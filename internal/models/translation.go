// ABOUTME: Translation cache entry and supported language set
// ABOUTME: Cache rows are keyed by (section_id, target_language, content_hash)
package models

import (
	"fmt"
	"time"
)

// Language is a supported language code
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageUrdu    Language = "ur"
	LanguageFrench  Language = "fr"
	LanguageArabic  Language = "ar"
	LanguageGerman  Language = "de"
)

// LanguageInfo describes a language for the supported-languages listing
type LanguageInfo struct {
	Code      Language `json:"code"`
	Name      string   `json:"name"`
	Direction string   `json:"direction"` // "ltr" or "rtl"
}

// SupportedLanguages lists every language the platform serves, source included
var SupportedLanguages = []LanguageInfo{
	{LanguageEnglish, "English", "ltr"},
	{LanguageUrdu, "Urdu", "rtl"},
	{LanguageFrench, "French", "ltr"},
	{LanguageArabic, "Arabic", "rtl"},
	{LanguageGerman, "German", "ltr"},
}

// ParseLanguage validates a raw request string against the closed set
func ParseLanguage(s string) (Language, error) {
	for _, li := range SupportedLanguages {
		if Language(s) == li.Code {
			return li.Code, nil
		}
	}
	return "", fmt.Errorf("unsupported language %q", s)
}

// ParseTargetLanguage validates a translation target. English is the source
// language, so it is not a valid target.
func ParseTargetLanguage(s string) (Language, error) {
	lang, err := ParseLanguage(s)
	if err != nil {
		return "", err
	}
	if lang == LanguageEnglish {
		return "", fmt.Errorf("cannot translate to source language %q", s)
	}
	return lang, nil
}

// Name returns the human-readable language name, used in translation prompts
func (l Language) Name() string {
	for _, li := range SupportedLanguages {
		if li.Code == l {
			return li.Name
		}
	}
	return string(l)
}

// TranslationCacheEntry is one memoized translation. The key triple is unique:
// editing source content changes the hash and naturally strands the old row.
type TranslationCacheEntry struct {
	ID                string    `json:"id"`
	SectionID         string    `json:"section_id"`
	TargetLanguage    Language  `json:"target_language"`
	ContentHash       string    `json:"content_hash"` // SHA-256 hex of original content
	OriginalContent   string    `json:"original_content"`
	TranslatedContent string    `json:"translated_content"`
	AccessCount       int       `json:"access_count"`
	CreatedAt         time.Time `json:"created_at"`
	LastAccessedAt    time.Time `json:"last_accessed_at"`
}
