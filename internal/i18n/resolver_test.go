package i18n

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"locres/internal/resource"
	"locres/pkg/format"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()

	b := resource.NewBuilder(language.English)
	require.NoError(t, b.AddAll(language.English, map[string]string{
		"price":   "Total: %1$.2f",
		"welcome": "Welcome, %1$s!",
		"items":   "Hello %2$s, you have %1$d items",
	}))
	require.NoError(t, b.AddAll(language.German, map[string]string{
		"price": "Summe: %1$.2f",
	}))
	return NewResolver(b.Build(), format.NewCache(16))
}

func TestResolver_Resolve(t *testing.T) {
	resolver := newTestResolver(t)

	tests := []struct {
		name         string
		locale       string
		key          string
		args         []any
		expected     string
		wantLocale   string
		wantFallback bool
	}{
		{"default locale", "en", "items", []any{5, "John"}, "Hello John, you have 5 items", "en", false},
		{"german numbers", "de", "price", []any{99.99}, "Summe: 99,99", "de", false},
		{"regional fallback keeps german numbers", "de-AT", "price", []any{3.5}, "Summe: 3,50", "de", true},
		{"default locale numbers after fallback", "fr", "price", []any{3.5}, "Total: 3.50", "en", true},
		{"german request for english template", "de", "welcome", []any{"Jana"}, "Welcome, Jana!", "en", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := resolver.Resolve(tt.locale, tt.key, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result.Text)
			assert.Equal(t, tt.wantLocale, result.Resolution.Locale.String())
			assert.Equal(t, tt.wantFallback, result.Resolution.Fallback != nil)
		})
	}
}

func TestResolver_Errors(t *testing.T) {
	resolver := newTestResolver(t)

	_, err := resolver.Resolve("en", "itemz", 1, "x")
	var notFound *resource.NotFoundError
	require.True(t, errors.As(err, &notFound), "expected *resource.NotFoundError, got %v", err)
	assert.Equal(t, []string{"items"}, notFound.Suggestions)

	_, err = resolver.Resolve("en", "items", "five", "John")
	assert.ErrorIs(t, err, format.ErrTypeMismatch)

	result, err := resolver.Resolve("de", "price")
	assert.ErrorIs(t, err, format.ErrMissingArgument)
	assert.Equal(t, "Summe: %1$.2f", result.Resolution.Template)
}

func TestResolver_FormatterIsShared(t *testing.T) {
	resolver := newTestResolver(t)

	first := resolver.Formatter(language.German)
	second := resolver.Formatter(language.MustParse("de"))
	assert.Same(t, first, second)
	assert.NotSame(t, first, resolver.Formatter(language.English))
}
