package i18n

import (
	"sort"
	"strings"
	"testing"

	"locres/pkg/format"
)

// TestI18nCompleteness verifies that all language profiles contain all message keys
func TestI18nCompleteness(t *testing.T) {
	languages := GetSupportedLanguages()
	if len(languages) == 0 {
		t.Fatal("No supported languages found")
	}

	// English is the reference catalogue
	referenceMessages := getMessages(DefaultLanguage)
	if len(referenceMessages) == 0 {
		t.Fatal("No reference messages found in default language")
	}

	var referenceKeys []string
	for key := range referenceMessages {
		referenceKeys = append(referenceKeys, key)
	}
	sort.Strings(referenceKeys)

	t.Logf("Reference language (%s) has %d message keys", DefaultLanguage, len(referenceKeys))

	for _, lang := range languages {
		t.Run("Language_"+lang, func(t *testing.T) {
			messages := getMessages(lang)

			var missingKeys []string
			for _, refKey := range referenceKeys {
				if _, exists := messages[refKey]; !exists {
					missingKeys = append(missingKeys, refKey)
				}
			}

			var extraKeys []string
			for langKey := range messages {
				if _, exists := referenceMessages[langKey]; !exists {
					extraKeys = append(extraKeys, langKey)
				}
			}
			sort.Strings(extraKeys)

			if len(missingKeys) > 0 {
				t.Errorf("Language %s is missing %d keys: %v", lang, len(missingKeys), missingKeys)
			}
			if len(extraKeys) > 0 {
				t.Errorf("Language %s has %d keys not in reference: %v", lang, len(extraKeys), extraKeys)
			}
		})
	}
}

// TestI18nKeyConsistency verifies that all message keys follow expected patterns
func TestI18nKeyConsistency(t *testing.T) {
	expectedPrefixes := []string{
		"error.",
		"resolve.",
		"check.",
		"export.",
		"import.",
		"locales.",
		"home.",
	}

	for key := range getMessages(DefaultLanguage) {
		hasValidPrefix := false
		for _, prefix := range expectedPrefixes {
			if len(key) > len(prefix) && strings.HasPrefix(key, prefix) {
				hasValidPrefix = true
				break
			}
		}

		if !hasValidPrefix {
			t.Errorf("Message key '%s' does not follow expected naming convention (should start with one of: %v)",
				key, expectedPrefixes)
		}
	}
}

// TestI18nMessageArity verifies that every translation parses and takes the
// same arguments as its English original
func TestI18nMessageArity(t *testing.T) {
	reference := getMessages(DefaultLanguage)

	for _, lang := range GetSupportedLanguages() {
		for key, message := range getMessages(lang) {
			tmpl, err := format.Parse(message)
			if err != nil {
				t.Errorf("%s/%s does not parse: %v", lang, key, err)
				continue
			}
			ref, err := format.Parse(reference[key])
			if err != nil {
				t.Errorf("%s/%s reference does not parse: %v", DefaultLanguage, key, err)
				continue
			}
			if tmpl.Arity() != ref.Arity() {
				t.Errorf("%s/%s takes %d arguments, reference takes %d", lang, key, tmpl.Arity(), ref.Arity())
			}
		}
	}
}

func TestLocalizer_T(t *testing.T) {
	tests := []struct {
		name     string
		language string
		key      string
		args     []any
		expected string
	}{
		{"plain message", DefaultLanguage, "check.ok", nil, "The catalogue is complete."},
		{"positional arguments", DefaultLanguage, "resolve.fallback", []any{"greeting", "de-CH", "de"},
			"Note: greeting is not available in de-CH, used de instead."},
		{"grouped numbers", DefaultLanguage, "import.done", []any{12345, "strings.db"},
			"Imported 12,345 templates into strings.db."},
		{"german grouping", GermanMessages, "import.done", []any{12345, "strings.db"},
			"12.345 Vorlagen in strings.db importiert."},
		{"regional german falls back", "de-CH", "check.ok", nil, "Der Katalog ist vollständig."},
		{"unsupported language uses english", "fr", "check.ok", nil, "The catalogue is complete."},
		{"unknown key returns key", DefaultLanguage, "this.key.does.not.exist", nil, "this.key.does.not.exist"},
		{"missing argument returns template", DefaultLanguage, "export.done", []any{3},
			"Wrote %1$d files to %2$s."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewLocalizer(tt.language).T(tt.key, tt.args...)
			if got != tt.expected {
				t.Errorf("T(%q) = %q, want %q", tt.key, got, tt.expected)
			}
		})
	}
}

func TestLocalizer_Tf(t *testing.T) {
	localizer := NewLocalizer(GermanMessages)
	if localizer.Language() != GermanMessages {
		t.Errorf("Language() = %q, want %q", localizer.Language(), GermanMessages)
	}

	if _, err := localizer.Tf("this.key.does.not.exist"); err == nil {
		t.Error("expected error for unknown key")
	}
	if _, err := localizer.Tf("export.done", "three", "out"); err == nil {
		t.Error("expected error for mistyped argument")
	}

	got, err := localizer.Tf("export.done", 3, "out")
	if err != nil {
		t.Fatalf("Tf error: %v", err)
	}
	if got != "3 Dateien nach out geschrieben." {
		t.Errorf("Tf = %q", got)
	}
}

// TestGetSupportedLanguages verifies the supported languages function
func TestGetSupportedLanguages(t *testing.T) {
	languages := GetSupportedLanguages()

	foundDefault := false
	for _, lang := range languages {
		if lang == DefaultLanguage {
			foundDefault = true
			break
		}
	}
	if !foundDefault {
		t.Errorf("GetSupportedLanguages should include default language '%s'", DefaultLanguage)
	}

	if got := len(Builtin().Locales()); got != len(languages) {
		t.Errorf("Builtin() has %d locales, want %d", got, len(languages))
	}
}

// BenchmarkLocalizer benchmarks the localization performance
func BenchmarkLocalizer(b *testing.B) {
	localizer := NewLocalizer(DefaultLanguage)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = localizer.T("error.generic")
	}
}

// BenchmarkLocalizerWithArgs benchmarks localization with arguments
func BenchmarkLocalizerWithArgs(b *testing.B) {
	localizer := NewLocalizer(DefaultLanguage)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = localizer.T("check.summary", 1234, 3, 0, 2)
	}
}
