// Package catalog builds resource tables from message files, Android
// resource trees and SQL stores, and keeps a live table up to date.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"

	"locres/internal/resource"
	"locres/internal/store"
	"locres/pkg/format"
)

// ErrEmpty is returned when a source holds no templates at all.
var ErrEmpty = errors.New("catalog: no templates found")

// Options control how a catalogue is built.
type Options struct {
	// DefaultLocale is the final fallback of the built table. Android
	// values/strings.xml files are read as this locale.
	DefaultLocale language.Tag
	// Strict turns every reported issue into a load error.
	Strict bool
	// Observer is attached to the built table.
	Observer resource.Observer
}

// Issue is a problem found while loading. Issues do not stop a load unless
// Options.Strict is set.
type Issue struct {
	Source string
	Locale string
	Key    string
	Reason string
}

func (i Issue) String() string {
	var b strings.Builder
	b.WriteString(i.Source)
	if i.Locale != "" {
		b.WriteString(" [" + i.Locale + "]")
	}
	if i.Key != "" {
		b.WriteString(" " + i.Key)
	}
	return b.String() + ": " + i.Reason
}

// Missing lists the default locale keys one locale does not translate.
type Missing struct {
	Locale string
	Keys   []string
	Total  int
}

// Report summarizes a load.
type Report struct {
	Sources int
	Issues  []Issue
	Missing []Missing
}

// Clean reports whether the load found neither issues nor missing keys.
func (r Report) Clean() bool {
	return len(r.Issues) == 0 && len(r.Missing) == 0
}

func (r *Report) addIssue(source, locale, key, reason string) {
	r.Issues = append(r.Issues, Issue{Source: source, Locale: locale, Key: key, Reason: reason})
}

// StrictError is returned by a strict load that found issues.
type StrictError struct {
	Issues []Issue
}

func (e *StrictError) Error() string {
	if len(e.Issues) == 1 {
		return "catalog: " + e.Issues[0].String()
	}
	return fmt.Sprintf("catalog: %d issues, first: %s", len(e.Issues), e.Issues[0])
}

// pending is a template read from a source, before validation.
type pending struct {
	source   string
	locale   language.Tag
	key      string
	template string
}

// build validates templates and assembles the table. Invalid templates are
// left out so lookups fall back to a locale that has a usable one.
func build(items []pending, report Report, opts Options) (*resource.Table, Report, error) {
	if opts.DefaultLocale == language.Und {
		opts.DefaultLocale = language.English
	}

	b := resource.NewBuilder(opts.DefaultLocale)
	if opts.Observer != nil {
		b.Observe(opts.Observer)
	}

	defaultID := opts.DefaultLocale.String()
	arity := make(map[string]int) // default locale key -> arity
	parsed := make([]*format.Template, len(items))
	accepted := 0

	for i, it := range items {
		tmpl, err := format.Parse(it.template)
		if err != nil {
			report.addIssue(it.source, it.locale.String(), it.key, err.Error())
			continue
		}
		parsed[i] = tmpl
		if it.locale.String() == defaultID {
			arity[it.key] = tmpl.Arity()
		}
	}

	for i, it := range items {
		if parsed[i] == nil {
			continue
		}
		if err := b.Add(it.locale, it.key, it.template); err != nil {
			report.addIssue(it.source, it.locale.String(), it.key, "duplicate key, first definition kept")
			continue
		}
		accepted++
		if want, ok := arity[it.key]; ok && it.locale.String() != defaultID && parsed[i].Arity() != want {
			report.addIssue(it.source, it.locale.String(), it.key,
				fmt.Sprintf("takes %d arguments, %s takes %d", parsed[i].Arity(), defaultID, want))
		}
	}

	if accepted == 0 {
		return nil, report, ErrEmpty
	}

	table := b.Build()
	report.Missing = missing(table)

	if opts.Strict && len(report.Issues) > 0 {
		return nil, report, &StrictError{Issues: report.Issues}
	}
	return table, report, nil
}

// missing compares every locale against the default locale.
func missing(table *resource.Table) []Missing {
	def := table.DefaultLocale()
	reference := table.Keys(def)

	var out []Missing
	for _, tag := range table.Locales() {
		if tag.String() == def.String() {
			continue
		}
		var keys []string
		for _, key := range reference {
			if !table.Has(tag, key) {
				keys = append(keys, key)
			}
		}
		if len(keys) > 0 {
			out = append(out, Missing{Locale: tag.String(), Keys: keys, Total: len(reference)})
		}
	}
	return out
}

// FromRecords builds a table from stored records.
func FromRecords(records []store.Record, source string, opts Options) (*resource.Table, Report, error) {
	report := Report{Sources: 1}
	items := make([]pending, 0, len(records))
	for _, r := range records {
		tag, err := language.Parse(r.Locale)
		if err != nil {
			report.addIssue(source, r.Locale, r.Key, "invalid locale")
			continue
		}
		items = append(items, pending{source: source, locale: tag, key: r.Key, template: r.Template})
	}
	return build(items, report, opts)
}

// Records flattens a table for storage, ordered as Table.Entries.
func Records(table *resource.Table) []store.Record {
	entries := table.Entries()
	records := make([]store.Record, len(entries))
	for i, e := range entries {
		records[i] = store.Record{Locale: e.Locale.String(), Key: e.Key, Template: e.Template}
	}
	return records
}

// Open loads a catalogue from source: a directory, "sqlite://<path>" or a
// "postgres://" connection string.
func Open(ctx context.Context, source string, opts Options) (*resource.Table, Report, error) {
	switch {
	case strings.HasPrefix(source, "sqlite://"):
		db, err := store.OpenSQLite(strings.TrimPrefix(source, "sqlite://"))
		if err != nil {
			return nil, Report{}, err
		}
		defer db.Close()

		records, err := db.Load(ctx)
		if err != nil {
			return nil, Report{}, err
		}
		return FromRecords(records, source, opts)

	case strings.HasPrefix(source, "postgres://"), strings.HasPrefix(source, "postgresql://"):
		records, err := store.LoadPostgres(ctx, source)
		if err != nil {
			return nil, Report{}, err
		}
		return FromRecords(records, "postgres", opts)

	default:
		info, err := os.Stat(source)
		if err != nil {
			return nil, Report{}, fmt.Errorf("catalog source: %w", err)
		}
		if !info.IsDir() {
			return nil, Report{}, fmt.Errorf("catalog source %s is not a directory", source)
		}
		return LoadDir(os.DirFS(source), opts)
	}
}

// IsDir reports whether source names a directory catalogue rather than a
// database.
func IsDir(source string) bool {
	return !strings.Contains(source, "://")
}
