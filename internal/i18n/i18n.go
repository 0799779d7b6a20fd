// Package i18n resolves and formats localized strings. It also carries the
// built-in catalogue used for the command line's own messages.
package i18n

import (
	"errors"
	"sync"

	"golang.org/x/text/language"

	"locres/internal/resource"
	"locres/pkg/format"
)

const (
	// DefaultLanguage is the fallback language when no translation is available
	DefaultLanguage = "en"
	// GermanMessages is the German built-in catalogue
	GermanMessages = "de"
)

var (
	builtinOnce  sync.Once
	builtinTable *resource.Table
	builtinRes   *Resolver
)

// Builtin returns the table holding the built-in messages.
func Builtin() *resource.Table {
	builtinOnce.Do(func() {
		b := resource.NewBuilder(language.MustParse(DefaultLanguage))
		for _, lang := range GetSupportedLanguages() {
			// the maps are fixed at compile time, duplicates are impossible
			_ = b.AddAll(language.MustParse(lang), getMessages(lang))
		}
		builtinTable = b.Build()
		builtinRes = NewResolver(builtinTable, format.NewCache(format.DefaultCacheSize))
	})
	return builtinTable
}

// Localizer binds a resolver to one language.
type Localizer struct {
	language string
	resolver *Resolver
}

// NewLocalizer creates a localizer over the built-in messages.
func NewLocalizer(language string) *Localizer {
	Builtin()
	return &Localizer{
		language: language,
		resolver: builtinRes,
	}
}

// NewCatalogLocalizer creates a localizer over an arbitrary resolver.
func NewCatalogLocalizer(resolver *Resolver, language string) *Localizer {
	return &Localizer{
		language: language,
		resolver: resolver,
	}
}

// Language returns the language the localizer was created for.
func (l *Localizer) Language() string { return l.language }

// T translates a message key. It never fails: an unknown key yields the key
// itself and a template that cannot be formatted yields the raw template.
func (l *Localizer) T(key string, args ...any) string {
	result, err := l.resolver.Resolve(l.language, key, args...)
	if err == nil {
		return result.Text
	}
	if errors.Is(err, resource.ErrNotFound) {
		return key
	}
	return result.Resolution.Template
}

// Tf translates a message key and reports lookup and formatting errors.
func (l *Localizer) Tf(key string, args ...any) (string, error) {
	result, err := l.resolver.Resolve(l.language, key, args...)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// GetSupportedLanguages returns list of supported language codes
func GetSupportedLanguages() []string {
	return []string{DefaultLanguage, GermanMessages}
}

// getMessages returns the message map for a given language
func getMessages(language string) map[string]string {
	switch language {
	case DefaultLanguage:
		return englishMessages
	case GermanMessages:
		return germanMessages
	default:
		return englishMessages // Default to English
	}
}
