package subtitles

import "strings"

// Reading speeds in non-whitespace characters per second.
var defaultCPS = map[string]float64{
	"en": 14.949008,
	"es": 15.6,
	"pt": 15.2,
	"it": 15.0,
	"fr": 14.5,
	"de": 13.4,
	"ru": 13.1,
	"uk": 13.1,
	"tr": 13.8,
	"ar": 12.2,
	"hi": 12.6,
	"vi": 13.9,
	"id": 14.1,
	"zh": 6.1,
	"ja": 7.4,
	"ko": 7.0,
}

const defaultLang = "en"

// DefaultCPS returns a copy of the built-in table.
func DefaultCPS() map[string]float64 {
	out := make(map[string]float64, len(defaultCPS))
	for k, v := range defaultCPS {
		out[k] = v
	}
	return out
}

// NormalizeLang maps "en-US", "EN_us" and " en " to "en".
func NormalizeLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}
	return lang
}

// IsCJK reports whether lang is written without spaces between words.
func IsCJK(lang string) bool {
	switch NormalizeLang(lang) {
	case "zh", "ja", "ko":
		return true
	}
	return false
}

func (c Config) cps(lang string) float64 {
	if v, ok := lookupCPS(c.CPS, lang); ok {
		return v
	}
	fallback := c.DefaultLang
	if fallback == "" {
		fallback = defaultLang
	}
	if v, ok := lookupCPS(c.CPS, fallback); ok {
		return v
	}
	if v, ok := lookupCPS(defaultCPS, fallback); ok {
		return v
	}
	return defaultCPS[defaultLang]
}

func lookupCPS(table map[string]float64, lang string) (float64, bool) {
	if len(table) == 0 {
		return 0, false
	}
	v, ok := table[NormalizeLang(lang)]
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}
