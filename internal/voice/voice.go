package voice

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Voice is a synthetic speaker exposed by the Edge voice service.
type Voice struct {
	Name        string // service identifier, e.g. "en-US-AriaNeural"
	DisplayName string
	Locale      string // language-REGION
	Gender      string
}

// New returns a Voice after checking that every field is set.
func New(name, displayName, locale, gender string) (Voice, error) {
	switch {
	case name == "":
		return Voice{}, errors.New("voice: name cannot be empty")
	case displayName == "":
		return Voice{}, fmt.Errorf("voice: %s: display name cannot be empty", name)
	case locale == "":
		return Voice{}, fmt.Errorf("voice: %s: locale cannot be empty", name)
	case gender == "":
		return Voice{}, fmt.Errorf("voice: %s: gender cannot be empty", name)
	}
	return Voice{Name: name, DisplayName: displayName, Locale: locale, Gender: gender}, nil
}

// LanguageCode returns the locale prefix up to the first dash ("en" for "en-US").
func (v Voice) LanguageCode() string {
	lang, _, _ := strings.Cut(v.Locale, "-")
	return lang
}

// CountryCode returns the region part of the locale, or "" when absent.
func (v Voice) CountryCode() string {
	parts := strings.Split(v.Locale, "-")
	if len(parts) > 1 {
		return parts[1]
	}
	return ""
}

// MatchesLanguage reports whether language equals the locale or its language
// code. Matching is case-sensitive and follows the service's casing.
func (v Voice) MatchesLanguage(language string) bool {
	return language == v.Locale || language == v.LanguageCode()
}

func (v Voice) String() string {
	return fmt.Sprintf("%s (%s, %s)", v.DisplayName, v.Locale, v.Gender)
}

// FilterByLanguage returns the voices matching language, in input order.
func FilterByLanguage(voices []Voice, language string) []Voice {
	var out []Voice
	for _, v := range voices {
		if v.MatchesLanguage(language) {
			out = append(out, v)
		}
	}
	return out
}

// FilterByGender returns the voices whose gender equals gender, ignoring case.
func FilterByGender(voices []Voice, gender string) []Voice {
	var out []Voice
	for _, v := range voices {
		if strings.EqualFold(v.Gender, gender) {
			out = append(out, v)
		}
	}
	return out
}

// FindByName returns the voice with the exact name.
func FindByName(voices []Voice, name string) (Voice, bool) {
	for _, v := range voices {
		if v.Name == name {
			return v, true
		}
	}
	return Voice{}, false
}

// Languages returns the sorted set of language codes.
func Languages(voices []Voice) []string {
	return uniqueSorted(voices, Voice.LanguageCode)
}

// Locales returns the sorted set of locales.
func Locales(voices []Voice) []string {
	return uniqueSorted(voices, func(v Voice) string { return v.Locale })
}

func uniqueSorted(voices []Voice, key func(Voice) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, v := range voices {
		k := key(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
