package resource

import (
	"errors"
	"sync"
	"testing"

	"golang.org/x/text/language"
)

type recordingObserver struct {
	mu        sync.Mutex
	fallbacks []FallbackUsed
	missing   []string
}

func (r *recordingObserver) OnFallback(f FallbackUsed) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbacks = append(r.fallbacks, f)
}

func (r *recordingObserver) OnMissing(locale, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.missing = append(r.missing, locale+"/"+key)
}

func newTestTable(t *testing.T) *Table {
	t.Helper()

	b := NewBuilder(language.English)
	if err := b.AddAll(language.English, map[string]string{
		"greeting":        "Hello %1$s",
		"farewell":        "Goodbye %1$s",
		"welcome_message": "Welcome, %1$s!",
		"welcome_title":   "Welcome",
	}); err != nil {
		t.Fatalf("AddAll(en) error: %v", err)
	}
	if err := b.AddAll(language.German, map[string]string{
		"greeting": "Hallo %1$s",
	}); err != nil {
		t.Fatalf("AddAll(de) error: %v", err)
	}
	if err := b.Add(language.MustParse("pt-BR"), "greeting", "Olá %1$s"); err != nil {
		t.Fatalf("Add(pt-BR) error: %v", err)
	}
	return b.Build()
}

func TestTable_Lookup(t *testing.T) {
	table := newTestTable(t)

	tests := []struct {
		name         string
		locale       string
		key          string
		wantTemplate string
		wantLocale   string
		wantFallback bool
	}{
		{"exact locale", "de", "greeting", "Hallo %1$s", "de", false},
		{"default locale", "en", "greeting", "Hello %1$s", "en", false},
		{"empty locale uses default", "", "greeting", "Hello %1$s", "en", false},
		{"region falls back to language", "de-CH", "greeting", "Hallo %1$s", "de", true},
		{"missing key falls back to default", "de", "farewell", "Goodbye %1$s", "en", true},
		{"unknown locale falls back to default", "fr", "greeting", "Hello %1$s", "en", true},
		{"unparseable locale falls back to default", "not a locale!!", "greeting", "Hello %1$s", "en", true},
		{"region exact", "pt-BR", "greeting", "Olá %1$s", "pt-BR", false},
		{"language without region entry", "pt", "greeting", "Hello %1$s", "en", true},
		{"regional english", "en-US", "farewell", "Goodbye %1$s", "en", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := table.Lookup(tt.locale, tt.key)
			if err != nil {
				t.Fatalf("Lookup(%q, %q) error: %v", tt.locale, tt.key, err)
			}
			if res.Template != tt.wantTemplate {
				t.Errorf("Template = %q, want %q", res.Template, tt.wantTemplate)
			}
			if res.Locale.String() != tt.wantLocale {
				t.Errorf("Locale = %v, want %s", res.Locale, tt.wantLocale)
			}
			if (res.Fallback != nil) != tt.wantFallback {
				t.Errorf("Fallback = %v, want fallback %v", res.Fallback, tt.wantFallback)
			}
			if res.Fallback != nil {
				if res.Fallback.Resolved.String() != res.Locale.String() {
					t.Errorf("Fallback.Resolved = %v, want %v", res.Fallback.Resolved, res.Locale)
				}
				if res.Fallback.Requested != tt.locale || res.Fallback.Key != tt.key {
					t.Errorf("unexpected fallback fields: %+v", res.Fallback)
				}
			}
			if res.Key != tt.key || res.Requested != tt.locale {
				t.Errorf("Key/Requested = %q/%q, want %q/%q", res.Key, res.Requested, tt.key, tt.locale)
			}
		})
	}
}

func TestTable_LookupNotFound(t *testing.T) {
	table := newTestTable(t)

	_, err := table.Lookup("de", "welcome_mesage")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected *NotFoundError, got %T", err)
	}
	if notFound.Locale != "de" || notFound.Key != "welcome_mesage" {
		t.Errorf("unexpected error fields: %+v", notFound)
	}
	if len(notFound.Suggestions) == 0 || notFound.Suggestions[0] != "welcome_message" {
		t.Errorf("Suggestions = %v, want welcome_message first", notFound.Suggestions)
	}
	for _, s := range notFound.Suggestions {
		if s == "farewell" {
			t.Errorf("unrelated key suggested: %v", notFound.Suggestions)
		}
	}
}

func TestTable_LookupEmptyKey(t *testing.T) {
	table := newTestTable(t)

	if _, err := table.Lookup("en", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for empty key, got %v", err)
	}
}

func TestTable_EmptyTable(t *testing.T) {
	table := NewBuilder(language.English).Build()

	if _, err := table.Lookup("en", "anything"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if table.Len() != 0 {
		t.Errorf("Len() = %d, want 0", table.Len())
	}
	if got := table.Locales(); len(got) != 1 || got[0] != language.English {
		t.Errorf("Locales() = %v, want [en]", got)
	}
}

func TestBuilder_DuplicateKey(t *testing.T) {
	b := NewBuilder(language.English)
	if err := b.Add(language.English, "greeting", "Hello"); err != nil {
		t.Fatalf("first Add error: %v", err)
	}

	err := b.Add(language.English, "greeting", "Hi")
	var dup *DuplicateKeyError
	if !errors.As(err, &dup) {
		t.Fatalf("expected *DuplicateKeyError, got %v", err)
	}
	if dup.Key != "greeting" || dup.Locale != language.English {
		t.Errorf("unexpected error fields: %+v", dup)
	}

	// the same key in another locale is fine
	if err := b.Add(language.German, "greeting", "Hallo"); err != nil {
		t.Errorf("Add in second locale error: %v", err)
	}
}

func TestTable_Observer(t *testing.T) {
	first := &recordingObserver{}
	second := &recordingObserver{}
	table := newTestTable(t).WithObserver(Observers{first, nil, second})

	if _, err := table.Lookup("de-AT", "greeting"); err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	if _, err := table.Lookup("de", "greeting"); err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	if _, err := table.Lookup("de", "missing"); err == nil {
		t.Fatal("expected error for missing key")
	}

	for _, obs := range []*recordingObserver{first, second} {
		if len(obs.fallbacks) != 1 {
			t.Fatalf("fallbacks = %d, want 1", len(obs.fallbacks))
		}
		if obs.fallbacks[0].Resolved.String() != "de" || obs.fallbacks[0].Requested != "de-AT" {
			t.Errorf("unexpected fallback: %+v", obs.fallbacks[0])
		}
		if len(obs.missing) != 1 || obs.missing[0] != "de/missing" {
			t.Errorf("missing = %v, want [de/missing]", obs.missing)
		}
	}
}

func TestTable_Enumeration(t *testing.T) {
	table := newTestTable(t)

	var locales []string
	for _, tag := range table.Locales() {
		locales = append(locales, tag.String())
	}
	wantLocales := []string{"en", "de", "pt-BR"}
	if len(locales) != len(wantLocales) {
		t.Fatalf("Locales() = %v, want %v", locales, wantLocales)
	}
	for i := range wantLocales {
		if locales[i] != wantLocales[i] {
			t.Errorf("Locales()[%d] = %s, want %s", i, locales[i], wantLocales[i])
		}
	}

	if table.Len() != 6 {
		t.Errorf("Len() = %d, want 6", table.Len())
	}
	if got := table.AllKeys(); len(got) != 4 || got[0] != "farewell" {
		t.Errorf("AllKeys() = %v", got)
	}
	if got := table.Keys(language.German); len(got) != 1 || got[0] != "greeting" {
		t.Errorf("Keys(de) = %v", got)
	}
	if !table.Has(language.German, "greeting") || table.Has(language.German, "farewell") {
		t.Error("Has() should not apply fallback")
	}

	entries := table.Entries()
	if len(entries) != 6 {
		t.Fatalf("Entries() len = %d, want 6", len(entries))
	}
	if entries[0].Locale != language.English || entries[0].Key != "farewell" {
		t.Errorf("Entries()[0] = %+v, want en/farewell", entries[0])
	}
	last := entries[len(entries)-1]
	if last.Locale.String() != "pt-BR" || last.Template != "Olá %1$s" {
		t.Errorf("last entry = %+v, want pt-BR greeting", last)
	}
}

func TestTable_ConcurrentLookup(t *testing.T) {
	table := newTestTable(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if _, err := table.Lookup("de-CH", "greeting"); err != nil {
					t.Errorf("Lookup error: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
}
