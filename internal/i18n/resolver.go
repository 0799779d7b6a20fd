package i18n

import (
	"fmt"
	"sync"

	"golang.org/x/text/language"

	"locres/internal/resource"
	"locres/pkg/format"
)

// Result is a formatted string together with where its template came from.
type Result struct {
	Text       string
	Resolution resource.Resolution
}

// Resolver looks templates up through a ResourceProvider and formats them
// with the conventions of the locale the template was found in.
type Resolver struct {
	provider   resource.ResourceProvider
	cache      *format.Cache
	formatters sync.Map // tag string -> *format.Formatter
}

// NewResolver creates a resolver over provider. All formatters share cache,
// which may be nil.
func NewResolver(provider resource.ResourceProvider, cache *format.Cache) *Resolver {
	return &Resolver{
		provider: provider,
		cache:    cache,
	}
}

// Resolve looks up key for locale and substitutes args. Lookup errors are
// returned unwrapped so callers can match *resource.NotFoundError directly.
func (r *Resolver) Resolve(locale, key string, args ...any) (Result, error) {
	res, err := r.provider.Lookup(locale, key)
	if err != nil {
		return Result{Resolution: res}, err
	}

	text, err := r.Formatter(res.Locale).Format(res.Template, args...)
	if err != nil {
		return Result{Resolution: res}, fmt.Errorf("format %q (%s): %w", key, res.Locale, err)
	}

	return Result{Text: text, Resolution: res}, nil
}

// Formatter returns the shared formatter for tag.
func (r *Resolver) Formatter(tag language.Tag) *format.Formatter {
	id := tag.String()
	if f, ok := r.formatters.Load(id); ok {
		return f.(*format.Formatter)
	}
	f, _ := r.formatters.LoadOrStore(id, format.NewFormatter(tag, r.cache))
	return f.(*format.Formatter)
}
