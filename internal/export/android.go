package export

import (
	"bytes"
	"path"
	"strings"

	"locres/internal/catalog"
	"locres/internal/resource"
	"locres/pkg/format"
)

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

// Android writes values/strings.xml for the default locale and
// values-<qualifier>/strings.xml for the others. Placeholders are made
// positional.
func Android(table *resource.Table, dir string) ([]string, error) {
	var files []string
	def := table.DefaultLocale()

	for _, entries := range group(table) {
		tag := entries[0].Locale
		var buf bytes.Buffer
		buf.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n<resources>\n")

		for _, e := range entries {
			tmpl, err := parse(e)
			if err != nil {
				return files, err
			}
			text := tmpl.Rewrite(func(ph format.Placeholder) string {
				if ph.Conversion == format.ConvNewline {
					return "\n"
				}
				return ph.Positional()
			})

			buf.WriteString(`    <string name="`)
			buf.WriteString(xmlEscaper.Replace(e.Key))
			buf.WriteString(`">`)
			buf.WriteString(xmlEscaper.Replace(catalog.EscapeAndroid(text)))
			buf.WriteString("</string>\n")
		}
		buf.WriteString("</resources>\n")

		valuesDir := "values"
		if tag.String() != def.String() {
			valuesDir = catalog.ValuesDir(tag)
		}
		rel := path.Join(valuesDir, "strings.xml")
		if err := writeFile(dir, rel, buf.Bytes()); err != nil {
			return files, err
		}
		files = append(files, rel)
	}
	return files, nil
}
