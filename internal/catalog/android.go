package catalog

import (
	"encoding/xml"
	"fmt"
	"html"
	"io/fs"
	"path"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/language"
)

type androidResources struct {
	Strings []androidString `xml:"string"`
}

type androidString struct {
	Name         string `xml:"name,attr"`
	Translatable string `xml:"translatable,attr"`
	Value        string `xml:",innerxml"`
}

func readAndroid(fsys fs.FS, p string, def language.Tag, report *Report) ([]pending, bool) {
	dir := path.Base(path.Dir(p))
	tag, ok := ParseValuesDir(dir, def)
	if !ok {
		// values-night, values-v21 and friends carry no translations
		return nil, false
	}

	buf, err := fs.ReadFile(fsys, p)
	if err != nil {
		report.addIssue(p, tag.String(), "", err.Error())
		return nil, false
	}

	var res androidResources
	if err := xml.Unmarshal(buf, &res); err != nil {
		report.addIssue(p, tag.String(), "", fmt.Sprintf("invalid XML: %v", err))
		return nil, false
	}

	isDefault := dir == "values"
	items := make([]pending, 0, len(res.Strings))
	for _, s := range res.Strings {
		if s.Name == "" {
			report.addIssue(p, tag.String(), "", "string without name")
			continue
		}
		if s.Translatable == "false" && !isDefault {
			continue
		}
		items = append(items, pending{
			source:   p,
			locale:   tag,
			key:      s.Name,
			template: UnescapeAndroid(xmlText(s.Value)),
		})
	}
	return items, true
}

// xmlText turns raw inner XML into text. Markup is kept as written.
func xmlText(inner string) string {
	inner = strings.ReplaceAll(inner, "<![CDATA[", "")
	inner = strings.ReplaceAll(inner, "]]>", "")
	return html.UnescapeString(inner)
}

// ParseValuesDir maps an Android resource directory name to its locale:
// values is def, values-de is de, values-pt-rBR is pt-BR and
// values-b+sr+Latn is sr-Latn. Directories without a locale qualifier
// report false.
func ParseValuesDir(dir string, def language.Tag) (language.Tag, bool) {
	if dir == "values" {
		return def, true
	}
	qualifiers, ok := strings.CutPrefix(dir, "values-")
	if !ok {
		return language.Und, false
	}

	if rest, ok := strings.CutPrefix(qualifiers, "b+"); ok {
		if i := strings.IndexByte(rest, '-'); i >= 0 {
			rest = rest[:i]
		}
		tag, err := language.Parse(strings.ReplaceAll(rest, "+", "-"))
		return tag, err == nil
	}

	parts := strings.Split(qualifiers, "-")
	lang := parts[0]
	if uiModeQualifiers[lang] || len(lang) < 2 || len(lang) > 3 {
		return language.Und, false
	}
	id := lang
	if len(parts) > 1 && len(parts[1]) == 3 && parts[1][0] == 'r' {
		id += "-" + parts[1][1:]
	}

	tag, err := language.Parse(id)
	if err != nil {
		return language.Und, false
	}
	return tag, true
}

// uiModeQualifiers are resource qualifiers that can lead a values directory
// name without being a language.
var uiModeQualifiers = map[string]bool{
	"car":        true,
	"desk":       true,
	"watch":      true,
	"television": true,
	"appliance":  true,
	"vrheadset":  true,
}

// ValuesDir is the inverse of ParseValuesDir for a non-default locale.
func ValuesDir(tag language.Tag) string {
	base, script, region := tag.Raw()

	var noScript language.Script
	var noRegion language.Region
	switch {
	case script != noScript:
		dir := "values-b+" + base.String() + "+" + script.String()
		if region != noRegion {
			dir += "+" + region.String()
		}
		return dir
	case region != noRegion:
		return "values-" + base.String() + "-r" + region.String()
	default:
		return "values-" + base.String()
	}
}

// UnescapeAndroid decodes an Android string resource value: backslash
// escapes are resolved, double quotes are dropped and whitespace outside
// them collapses to single spaces.
func UnescapeAndroid(s string) string {
	var b strings.Builder
	rs := []rune(s)
	quoted := false
	space := false

	flush := func() {
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
	}

	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch {
		case r == '\\' && i+1 < len(rs):
			flush()
			i++
			switch rs[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'u':
				if i+4 < len(rs) {
					if v, err := strconv.ParseUint(string(rs[i+1:i+5]), 16, 32); err == nil {
						b.WriteRune(rune(v))
						i += 4
						continue
					}
				}
				b.WriteRune('u')
			default:
				b.WriteRune(rs[i])
			}
		case r == '"':
			quoted = !quoted
		case unicode.IsSpace(r) && !quoted:
			space = true
		default:
			flush()
			b.WriteRune(r)
		}
	}
	return b.String()
}

// EscapeAndroid encodes s so that UnescapeAndroid returns it unchanged.
// XML escaping is left to the writer.
func EscapeAndroid(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '@', '?':
			if i == 0 {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}

	out := b.String()
	if strings.HasPrefix(out, " ") || strings.HasSuffix(out, " ") || strings.Contains(out, "  ") {
		return `"` + out + `"`
	}
	return out
}
