// Package export writes resource tables in the native string formats of
// mobile platforms.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"locres/internal/resource"
	"locres/pkg/format"
)

// Exporter writes a table below a directory and returns the files written,
// relative to that directory.
type Exporter interface {
	Export(table *resource.Table, dir string) ([]string, error)
}

// ExporterFunc adapts a function to Exporter.
type ExporterFunc func(table *resource.Table, dir string) ([]string, error)

func (f ExporterFunc) Export(table *resource.Table, dir string) ([]string, error) {
	return f(table, dir)
}

var exporters = map[string]Exporter{
	"android": ExporterFunc(Android),
	"arb":     ExporterFunc(ARB),
	"ios":     ExporterFunc(IOS),
}

// Formats lists the supported export format names.
func Formats() []string {
	names := make([]string, 0, len(exporters))
	for name := range exporters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the exporter for a format name.
func Get(name string) (Exporter, error) {
	e, ok := exporters[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown export format %q (supported: %s)", name, strings.Join(Formats(), ", "))
	}
	return e, nil
}

func writeFile(dir, rel string, data []byte) error {
	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}

// group splits the table's entries by locale, in Table.Locales order.
func group(table *resource.Table) [][]resource.Entry {
	var groups [][]resource.Entry
	for _, e := range table.Entries() {
		n := len(groups)
		if n == 0 || groups[n-1][0].Locale != e.Locale {
			groups = append(groups, nil)
			n++
		}
		groups[n-1] = append(groups[n-1], e)
	}
	return groups
}

// parse returns the parsed template. Tables built by the catalogue only hold
// valid templates, but a hand-built table may not.
func parse(e resource.Entry) (*format.Template, error) {
	tmpl, err := format.Parse(e.Template)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", e.Locale, e.Key, err)
	}
	return tmpl, nil
}
