package catalog

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"locres/internal/resource"
)

// unmarshalers decode message files by extension. JSON is built into go-i18n.
var unmarshalers = map[string]i18n.UnmarshalFunc{
	"toml": toml.Unmarshal,
	"yaml": yaml.Unmarshal,
	"yml":  yaml.Unmarshal,
}

// LoadDir builds a table from every message file and Android strings.xml
// below the root of fsys. Files are read in lexical order; when a key is
// defined twice for a locale the first definition wins.
func LoadDir(fsys fs.FS, opts Options) (*resource.Table, Report, error) {
	if opts.DefaultLocale == language.Und {
		opts.DefaultLocale = language.English
	}

	var (
		report Report
		items  []pending
	)

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}

		switch {
		case d.Name() == "strings.xml" && strings.HasPrefix(path.Base(path.Dir(p)), "values"):
			found, ok := readAndroid(fsys, p, opts.DefaultLocale, &report)
			if ok {
				report.Sources++
				items = append(items, found...)
			}
		case isMessageFile(d.Name()):
			found, ok := readMessageFile(fsys, p, &report)
			if ok {
				report.Sources++
				items = append(items, found...)
			}
		}
		return nil
	})
	if err != nil {
		return nil, report, fmt.Errorf("walk catalogue: %w", err)
	}

	return build(items, report, opts)
}

func isMessageFile(name string) bool {
	switch strings.TrimPrefix(path.Ext(name), ".") {
	case "json", "toml", "yaml", "yml":
		return true
	}
	return false
}

func readMessageFile(fsys fs.FS, p string, report *Report) ([]pending, bool) {
	tag, ok := localeFromFilename(p)
	if !ok {
		report.addIssue(p, "", "", "cannot determine locale from file name")
		return nil, false
	}

	buf, err := fs.ReadFile(fsys, p)
	if err != nil {
		report.addIssue(p, tag.String(), "", err.Error())
		return nil, false
	}

	// go-i18n takes the locale from the path; hand it a canonical one
	ext := strings.TrimPrefix(path.Ext(p), ".")
	mf, err := i18n.ParseMessageFileBytes(buf, tag.String()+"."+ext, unmarshalers)
	if err != nil {
		report.addIssue(p, tag.String(), "", err.Error())
		return nil, false
	}

	sort.Slice(mf.Messages, func(i, j int) bool {
		return mf.Messages[i].ID < mf.Messages[j].ID
	})

	items := make([]pending, 0, len(mf.Messages))
	for _, msg := range mf.Messages {
		text := msg.Other
		if text == "" {
			text = msg.One
		}
		if text == "" {
			report.addIssue(p, tag.String(), msg.ID, "message has no text")
			continue
		}
		items = append(items, pending{source: p, locale: tag, key: msg.ID, template: text})
	}
	return items, true
}

// localeFromFilename finds the locale in names such as en.json,
// active.de.toml, sample_ja.json or strings-pt-BR.yaml.
func localeFromFilename(p string) (language.Tag, bool) {
	base := path.Base(p)
	base = strings.TrimSuffix(base, path.Ext(base))
	if i := strings.LastIndexByte(base, '.'); i >= 0 {
		base = base[i+1:]
	}

	parts := strings.FieldsFunc(base, func(r rune) bool { return r == '_' || r == '-' })
	for i := range parts {
		tag, err := language.Parse(strings.Join(parts[i:], "-"))
		if err == nil && tag != language.Und {
			return tag, true
		}
	}
	return language.Und, false
}
