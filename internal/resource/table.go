// Package resource holds locale-scoped string templates and resolves a
// (locale, key) pair to a template, walking the locale's parent chain and
// finally the default locale.
package resource

import (
	"sort"
	"strings"

	"golang.org/x/text/language"

	"locres/internal/store"
	"locres/pkg/fuzzy"
)

const (
	suggestionThreshold = 0.6
	maxSuggestions      = 3
	// maxChainDepth bounds the parent walk; CLDR chains are at most a few hops.
	maxChainDepth = 8
)

// ResourceProvider resolves a key for a locale. Implementations must be safe
// for concurrent use.
type ResourceProvider interface {
	Lookup(locale, key string) (Resolution, error)
}

// Resolution describes where a template came from.
type Resolution struct {
	Key       string
	Requested string
	Locale    language.Tag
	Template  string
	// Fallback is non-nil when Locale differs from the requested locale.
	Fallback *FallbackUsed
}

// Entry is one template of a table.
type Entry struct {
	Locale   language.Tag
	Key      string
	Template string
}

var _ ResourceProvider = (*Table)(nil)

// Table is an immutable (locale, key) -> template mapping. Build one with a
// Builder; after Build it is shared by concurrent readers without locking.
type Table struct {
	defaultTag language.Tag
	entries    map[string]map[string]string // by tag.String()
	locales    []language.Tag
	keys       *store.KeyIndex
	observer   Observer
	normalizer *fuzzy.Normalizer
}

// Lookup returns the template for key in locale. An empty locale selects
// the default locale. A locale that does not parse is resolved against the
// default locale and reported as a fallback.
func (t *Table) Lookup(locale, key string) (Resolution, error) {
	res := Resolution{Key: key, Requested: locale}

	if !t.keys.Has(key) {
		return res, t.notFound(locale, key)
	}

	chain, exact := t.chain(locale)
	for i, tag := range chain {
		tmpl, ok := t.entries[tag.String()][key]
		if !ok {
			continue
		}
		res.Locale = tag
		res.Template = tmpl
		if i > 0 || !exact {
			res.Fallback = &FallbackUsed{Key: key, Requested: locale, Resolved: tag}
			if t.observer != nil {
				t.observer.OnFallback(*res.Fallback)
			}
		}
		return res, nil
	}

	return res, t.notFound(locale, key)
}

// chain lists the tags to try for locale. exact reports whether the first
// tag is the one the caller asked for.
func (t *Table) chain(locale string) ([]language.Tag, bool) {
	if strings.TrimSpace(locale) == "" {
		return []language.Tag{t.defaultTag}, true
	}

	tag, err := language.Parse(locale)
	if err != nil {
		return []language.Tag{t.defaultTag}, false
	}

	var chain []language.Tag
	seen := make(map[string]bool)
	for i := 0; i < maxChainDepth && tag != language.Und; i++ {
		if !seen[tag.String()] {
			chain = append(chain, tag)
			seen[tag.String()] = true
		}
		tag = tag.Parent()
	}
	if !seen[t.defaultTag.String()] {
		chain = append(chain, t.defaultTag)
	}
	return chain, true
}

func (t *Table) notFound(locale, key string) error {
	if t.observer != nil {
		t.observer.OnMissing(locale, key)
	}

	var suggestions []string
	for _, m := range t.normalizer.Closest(key, t.keys.Keys(), suggestionThreshold, maxSuggestions) {
		suggestions = append(suggestions, m.Key)
	}
	return &NotFoundError{Locale: locale, Key: key, Suggestions: suggestions}
}

// WithObserver returns a table sharing t's data that reports to o.
func (t *Table) WithObserver(o Observer) *Table {
	c := *t
	c.observer = o
	return &c
}

// DefaultLocale returns the locale every lookup finally falls back to.
func (t *Table) DefaultLocale() language.Tag { return t.defaultTag }

// Locales returns the table's locales, default locale first, the rest sorted.
func (t *Table) Locales() []language.Tag {
	out := make([]language.Tag, len(t.locales))
	copy(out, t.locales)
	return out
}

// Keys returns the sorted keys defined for tag.
func (t *Table) Keys(tag language.Tag) []string {
	m := t.entries[tag.String()]
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// AllKeys returns every key known in any locale, sorted.
func (t *Table) AllKeys() []string {
	keys := t.keys.Keys()
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// Has reports whether tag defines key, without fallback.
func (t *Table) Has(tag language.Tag, key string) bool {
	_, ok := t.entries[tag.String()][key]
	return ok
}

// Len returns the number of templates across all locales.
func (t *Table) Len() int {
	n := 0
	for _, m := range t.entries {
		n += len(m)
	}
	return n
}

// Entries returns every template ordered by locale (as Locales) then key.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, t.Len())
	for _, tag := range t.locales {
		for _, key := range t.Keys(tag) {
			out = append(out, Entry{Locale: tag, Key: key, Template: t.entries[tag.String()][key]})
		}
	}
	return out
}

// Builder accumulates templates for a Table.
type Builder struct {
	defaultTag language.Tag
	entries    map[string]map[string]string
	tags       map[string]language.Tag
	observer   Observer
}

// NewBuilder starts a table whose fallback locale is defaultLocale.
func NewBuilder(defaultLocale language.Tag) *Builder {
	return &Builder{
		defaultTag: defaultLocale,
		entries:    make(map[string]map[string]string),
		tags:       make(map[string]language.Tag),
	}
}

// Observe sets the observer of the built table.
func (b *Builder) Observe(o Observer) *Builder {
	b.observer = o
	return b
}

// Add registers a template. Keys are unique per locale.
func (b *Builder) Add(tag language.Tag, key, template string) error {
	id := tag.String()
	m, ok := b.entries[id]
	if !ok {
		m = make(map[string]string)
		b.entries[id] = m
		b.tags[id] = tag
	}
	if _, exists := m[key]; exists {
		return &DuplicateKeyError{Locale: tag, Key: key}
	}
	m[key] = template
	return nil
}

// AddAll registers every key of messages for tag.
func (b *Builder) AddAll(tag language.Tag, messages map[string]string) error {
	keys := make([]string, 0, len(messages))
	for key := range messages {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := b.Add(tag, key, messages[key]); err != nil {
			return err
		}
	}
	return nil
}

// Build freezes the builder's content into a Table. The builder must not be
// used afterwards.
func (b *Builder) Build() *Table {
	var allKeys []string
	locales := make([]language.Tag, 0, len(b.entries))
	for id, m := range b.entries {
		if id != b.defaultTag.String() {
			locales = append(locales, b.tags[id])
		}
		for key := range m {
			allKeys = append(allKeys, key)
		}
	}
	sort.Slice(locales, func(i, j int) bool {
		return locales[i].String() < locales[j].String()
	})
	locales = append([]language.Tag{b.defaultTag}, locales...)

	return &Table{
		defaultTag: b.defaultTag,
		entries:    b.entries,
		locales:    locales,
		keys:       store.NewKeyIndex(allKeys, store.DefaultFalsePositiveRate),
		observer:   b.observer,
		normalizer: fuzzy.NewNormalizer(),
	}
}
