package export

import (
	"bytes"
	"path"
	"strings"

	"locres/internal/resource"
	"locres/pkg/format"
)

var stringsEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`)

// printfFlags are the flags Foundation's format strings understand.
const printfFlags = format.FlagLeft | format.FlagPlus | format.FlagSpace | format.FlagZero

// IOS writes <locale>.lproj/Localizable.strings files. Strings, characters
// and booleans become %@ objects, integers %ld.
func IOS(table *resource.Table, dir string) ([]string, error) {
	var files []string

	for _, entries := range group(table) {
		tag := entries[0].Locale

		var buf bytes.Buffer
		for _, e := range entries {
			tmpl, err := parse(e)
			if err != nil {
				return files, err
			}
			text := tmpl.Map(stringsEscaper.Replace, iosPlaceholder)

			buf.WriteString(`"`)
			buf.WriteString(stringsEscaper.Replace(e.Key))
			buf.WriteString(`" = "`)
			buf.WriteString(text)
			buf.WriteString("\";\n")
		}

		rel := path.Join(tag.String()+".lproj", "Localizable.strings")
		if err := writeFile(dir, rel, buf.Bytes()); err != nil {
			return files, err
		}
		files = append(files, rel)
	}
	return files, nil
}

func iosPlaceholder(ph format.Placeholder) string {
	switch ph.Conversion {
	case format.ConvPercent:
		return "%%"
	case format.ConvNewline:
		return `\n`
	case format.ConvInteger:
		return ph.Printf(printfFlags, "ld")
	case format.ConvFloat:
		return ph.Printf(printfFlags, "f")
	default:
		return ph.Printf(format.FlagLeft, "@")
	}
}
