package language

import (
	"strings"

	xlang "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Undetermined is the canonical code for untagged or unknown streams.
const Undetermined = "und"

// bibliographic maps ISO 639-2/B codes to their terminology form.
var bibliographic = map[string]string{
	"alb": "sqi",
	"arm": "hye",
	"baq": "eus",
	"chi": "zho",
	"cze": "ces",
	"dut": "nld",
	"fre": "fra",
	"geo": "kat",
	"ger": "deu",
	"gre": "ell",
	"ice": "isl",
	"per": "fas",
	"rum": "ron",
	"slo": "slk",
	"wel": "cym",
}

var words = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"russian":    "ru",
	"arabic":     "ar",
	"hindi":      "hi",
}

// Canonical returns the comparison form of a language code: the ISO 639-1
// code when one exists, otherwise the lower-cased input. Empty input and
// "und" both map to Undetermined.
func Canonical(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" || code == Undetermined {
		return Undetermined
	}
	if mapped, ok := words[code]; ok {
		return mapped
	}
	if mapped, ok := bibliographic[code]; ok {
		code = mapped
	}
	if base, err := xlang.ParseBase(code); err == nil {
		return base.String()
	}
	return code
}

// Allowed reports whether code is in allow after canonicalization. An
// untagged stream is allowed only when allow lists "und" explicitly.
func Allowed(allow []string, code string) bool {
	want := Canonical(code)
	for _, candidate := range allow {
		if strings.TrimSpace(candidate) == "" {
			continue
		}
		if Canonical(candidate) == want {
			return true
		}
	}
	return false
}

// DisplayName returns an English name for code, the upper-cased code when it
// is not a known language, or "Unknown" for untagged streams.
func DisplayName(code string) string {
	canonical := Canonical(code)
	if canonical == Undetermined {
		return "Unknown"
	}
	if base, err := xlang.ParseBase(canonical); err == nil {
		if name := display.English.Languages().Name(base); name != "" {
			return name
		}
	}
	return strings.ToUpper(canonical)
}

// ExtractFromTags extracts the language from stream metadata tags.
// Checks common tag keys: language, LANGUAGE, Language, language_ietf, lang, LANG.
func ExtractFromTags(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	keys := []string{"language", "LANGUAGE", "Language", "language_ietf", "lang", "LANG"}
	for _, key := range keys {
		if value, ok := tags[key]; ok {
			value = strings.TrimSpace(strings.ReplaceAll(value, "\u0000", ""))
			if value != "" {
				return strings.ToLower(value)
			}
		}
	}
	return ""
}

// NormalizeList canonicalizes and deduplicates a list of codes, keeping order.
func NormalizeList(codes []string) []string {
	if len(codes) == 0 {
		return nil
	}
	normalized := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		if strings.TrimSpace(code) == "" {
			continue
		}
		canonical := Canonical(code)
		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}
		normalized = append(normalized, canonical)
	}
	return normalized
}
