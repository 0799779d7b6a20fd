package export

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"locres/internal/resource"
	"locres/pkg/format"
)

type arbPlaceholder struct {
	Type               string         `json:"type"`
	Format             string         `json:"format,omitempty"`
	OptionalParameters map[string]int `json:"optionalParameters,omitempty"`
}

type arbMetadata struct {
	Placeholders map[string]arbPlaceholder `json:"placeholders"`
}

// ICU message syntax reserves braces
var icuEscaper = strings.NewReplacer("{", "'{'", "}", "'}'")

// ARB writes Flutter app_<locale>.arb files. Placeholders become {argN};
// the default locale file carries the placeholder metadata.
func ARB(table *resource.Table, dir string) ([]string, error) {
	var files []string
	def := table.DefaultLocale()

	for _, entries := range group(table) {
		tag := entries[0].Locale
		locale := strings.ReplaceAll(tag.String(), "-", "_")

		var buf bytes.Buffer
		buf.WriteString("{\n  \"@@locale\": ")
		buf.WriteString(jsonString(locale))

		for _, e := range entries {
			tmpl, err := parse(e)
			if err != nil {
				return files, err
			}
			text := tmpl.Map(icuEscaper.Replace, arbPlaceholderText)

			buf.WriteString(",\n  ")
			buf.WriteString(jsonString(e.Key))
			buf.WriteString(": ")
			buf.WriteString(jsonString(text))

			if tag.String() != def.String() || tmpl.Arity() == 0 {
				continue
			}
			meta, err := json.MarshalIndent(arbMetadata{Placeholders: arbPlaceholders(tmpl)}, "  ", "  ")
			if err != nil {
				return files, err
			}
			buf.WriteString(",\n  ")
			buf.WriteString(jsonString("@" + e.Key))
			buf.WriteString(": ")
			buf.Write(meta)
		}
		buf.WriteString("\n}\n")

		rel := "app_" + locale + ".arb"
		if err := writeFile(dir, rel, buf.Bytes()); err != nil {
			return files, err
		}
		files = append(files, rel)
	}
	return files, nil
}

func arbName(index int) string {
	return "arg" + strconv.Itoa(index)
}

func arbPlaceholderText(ph format.Placeholder) string {
	switch ph.Conversion {
	case format.ConvPercent:
		return "%"
	case format.ConvNewline:
		return "\n"
	default:
		return "{" + arbName(ph.Index) + "}"
	}
}

// arbPlaceholders describes each argument by its first use.
func arbPlaceholders(tmpl *format.Template) map[string]arbPlaceholder {
	out := make(map[string]arbPlaceholder)
	for _, ph := range tmpl.Placeholders() {
		name := arbName(ph.Index)
		if _, seen := out[name]; seen {
			continue
		}

		p := arbPlaceholder{Type: "String"}
		switch ph.Conversion {
		case format.ConvInteger:
			p.Type = "int"
			if ph.Has(format.FlagGroup) {
				p.Format = "decimalPattern"
			}
		case format.ConvFloat:
			p.Type = "double"
			if ph.Precision >= 0 {
				p.Format = "decimalPatternDigits"
				p.OptionalParameters = map[string]int{"decimalDigits": ph.Precision}
			}
		case format.ConvBool:
			p.Type = "Object"
		}
		out[name] = p
	}
	return out
}

// jsonString encodes s without HTML escaping.
func jsonString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s) // strings always encode
	return strings.TrimSuffix(buf.String(), "\n")
}
