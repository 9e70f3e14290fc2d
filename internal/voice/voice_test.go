package voice

import "testing"

func sampleVoices() []Voice {
	return []Voice{
		{Name: "en-US-AriaNeural", DisplayName: "Microsoft Aria Online", Locale: "en-US", Gender: "Female"},
		{Name: "en-GB-RyanNeural", DisplayName: "Microsoft Ryan Online", Locale: "en-GB", Gender: "Male"},
		{Name: "fr-FR-DeniseNeural", DisplayName: "Microsoft Denise Online", Locale: "fr-FR", Gender: "Female"},
		{Name: "en-US-GuyNeural", DisplayName: "Microsoft Guy Online", Locale: "en-US", Gender: "Male"},
	}
}

func TestNewRejectsEmptyFields(t *testing.T) {
	tests := []struct {
		name    string
		vname   string
		display string
		locale  string
		gender  string
	}{
		{"name", "", "d", "en-US", "Female"},
		{"display", "n", "", "en-US", "Female"},
		{"locale", "n", "d", "", "Female"},
		{"gender", "n", "d", "en-US", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.vname, tt.display, tt.locale, tt.gender); err == nil {
				t.Error("expected error")
			}
		})
	}

	v, err := New("en-US-AriaNeural", "Aria", "en-US", "Female")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if v.String() != "Aria (en-US, Female)" {
		t.Errorf("String() = %q", v.String())
	}
}

func TestLanguageAndCountryCode(t *testing.T) {
	v := Voice{Locale: "zh-CN"}
	if v.LanguageCode() != "zh" {
		t.Errorf("LanguageCode() = %q, want zh", v.LanguageCode())
	}
	if v.CountryCode() != "CN" {
		t.Errorf("CountryCode() = %q, want CN", v.CountryCode())
	}

	bare := Voice{Locale: "eo"}
	if bare.LanguageCode() != "eo" {
		t.Errorf("LanguageCode() = %q, want eo", bare.LanguageCode())
	}
	if bare.CountryCode() != "" {
		t.Errorf("CountryCode() = %q, want empty", bare.CountryCode())
	}
}

func TestMatchesLanguage(t *testing.T) {
	v := Voice{Locale: "en-US"}
	if !v.MatchesLanguage("en") {
		t.Error(`MatchesLanguage("en") = false, want true`)
	}
	if !v.MatchesLanguage("en-US") {
		t.Error(`MatchesLanguage("en-US") = false, want true`)
	}
	if v.MatchesLanguage("fr") {
		t.Error(`MatchesLanguage("fr") = true, want false`)
	}
	if v.MatchesLanguage("EN") {
		t.Error(`MatchesLanguage("EN") = true, want false (case-sensitive)`)
	}
	if v.MatchesLanguage("en-U") {
		t.Error(`MatchesLanguage("en-U") = true, want false`)
	}
}

func TestFilters(t *testing.T) {
	voices := sampleVoices()

	if got := FilterByLanguage(voices, "en"); len(got) != 3 {
		t.Errorf("FilterByLanguage(en) = %d voices, want 3", len(got))
	}
	got := FilterByLanguage(voices, "en-US")
	if len(got) != 2 || got[0].Name != "en-US-AriaNeural" || got[1].Name != "en-US-GuyNeural" {
		t.Errorf("FilterByLanguage(en-US) = %v", got)
	}
	if got := FilterByGender(voices, "female"); len(got) != 2 {
		t.Errorf("FilterByGender(female) = %d voices, want 2", len(got))
	}
	if v, ok := FindByName(voices, "fr-FR-DeniseNeural"); !ok || v.Locale != "fr-FR" {
		t.Errorf("FindByName = %v, %v", v, ok)
	}
	if _, ok := FindByName(voices, "missing"); ok {
		t.Error("FindByName(missing) = true")
	}
}

func TestLanguagesAndLocales(t *testing.T) {
	voices := sampleVoices()

	langs := Languages(voices)
	if len(langs) != 2 || langs[0] != "en" || langs[1] != "fr" {
		t.Errorf("Languages() = %v, want [en fr]", langs)
	}
	locales := Locales(voices)
	want := []string{"en-GB", "en-US", "fr-FR"}
	if len(locales) != len(want) {
		t.Fatalf("Locales() = %v, want %v", locales, want)
	}
	for i := range want {
		if locales[i] != want[i] {
			t.Errorf("Locales()[%d] = %q, want %q", i, locales[i], want[i])
		}
	}
}
