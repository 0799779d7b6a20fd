// Package format renders templates carrying positional, typed placeholders
// of the form %[index$][flags][width][.precision]conversion, the syntax used
// by Android string resources and java.util.Formatter.
package format

import (
	"strconv"
	"strings"
)

// Conversion selects how an argument is rendered.
type Conversion byte

const (
	ConvString  Conversion = 's'
	ConvInteger Conversion = 'd'
	ConvFloat   Conversion = 'f'
	ConvChar    Conversion = 'c'
	ConvBool    Conversion = 'b'

	// ConvPercent and ConvNewline consume no argument.
	ConvPercent Conversion = '%'
	ConvNewline Conversion = 'n'
)

func (c Conversion) String() string {
	switch c {
	case ConvString:
		return "string"
	case ConvInteger:
		return "integer"
	case ConvFloat:
		return "float"
	case ConvChar:
		return "character"
	case ConvBool:
		return "boolean"
	case ConvPercent:
		return "percent"
	case ConvNewline:
		return "newline"
	default:
		return "conversion(" + string(c) + ")"
	}
}

// Flags is the set of flag characters given on a placeholder.
type Flags uint8

const (
	FlagLeft  Flags = 1 << iota // '-'
	FlagPlus                    // '+'
	FlagSpace                   // ' '
	FlagZero                    // '0'
	FlagGroup                   // ','
	FlagParen                   // '('
)

var flagChars = map[byte]Flags{
	'-': FlagLeft,
	'+': FlagPlus,
	' ': FlagSpace,
	'0': FlagZero,
	',': FlagGroup,
	'(': FlagParen,
}

// numericFlags are only meaningful on d and f.
const numericFlags = FlagPlus | FlagSpace | FlagZero | FlagGroup | FlagParen

// Placeholder is one parsed substitution token.
type Placeholder struct {
	Token      string // raw text, e.g. "%1$.2f"
	Offset     int    // byte offset of the token in the template
	Index      int    // 1-based argument index, 0 for %% and %n
	Explicit   bool   // index came from n$ or <
	Flags      Flags
	Width      int // -1 when absent
	Precision  int // -1 when absent
	Conversion Conversion
	Upper      bool
}

// Has reports whether f is set on the placeholder.
func (p Placeholder) Has(f Flags) bool { return p.Flags&f != 0 }

var flagOrder = []struct {
	char byte
	flag Flags
}{
	{'-', FlagLeft}, {'+', FlagPlus}, {' ', FlagSpace}, {'0', FlagZero}, {',', FlagGroup}, {'(', FlagParen},
}

// Positional renders p with an explicit index. %% and %n keep their token.
func (p Placeholder) Positional() string {
	if p.Index == 0 {
		return p.Token
	}
	verb := string(p.Conversion)
	if p.Upper {
		verb = strings.ToUpper(verb)
	}
	return p.Printf(p.Flags, verb)
}

// Printf renders p as "%index$flags width.precision verb", keeping only the
// flags in keep.
func (p Placeholder) Printf(keep Flags, verb string) string {
	var b strings.Builder
	b.WriteByte('%')
	if p.Index > 0 {
		b.WriteString(strconv.Itoa(p.Index))
		b.WriteByte('$')
	}
	for _, f := range flagOrder {
		if keep&f.flag != 0 && p.Flags&f.flag != 0 {
			b.WriteByte(f.char)
		}
	}
	if p.Width >= 0 {
		b.WriteString(strconv.Itoa(p.Width))
	}
	if p.Precision >= 0 {
		b.WriteByte('.')
		b.WriteString(strconv.Itoa(p.Precision))
	}
	b.WriteString(verb)
	return b.String()
}

type segment struct {
	literal string
	ph      *Placeholder
}

// Template is a parsed, immutable template.
type Template struct {
	src      string
	segments []segment
	arity    int
}

// Source returns the template text as it was parsed.
func (t *Template) Source() string { return t.src }

// Arity is the highest argument index referenced by the template.
func (t *Template) Arity() int { return t.arity }

// Placeholders returns the argument-consuming placeholders in template order.
func (t *Template) Placeholders() []Placeholder {
	var out []Placeholder
	for _, seg := range t.segments {
		if seg.ph != nil && seg.ph.Index > 0 {
			out = append(out, *seg.ph)
		}
	}
	return out
}

// Rewrite rebuilds the template text with every placeholder, including %%
// and %n, replaced by the result of fn. Literal text is kept as is.
func (t *Template) Rewrite(fn func(Placeholder) string) string {
	return t.Map(nil, fn)
}

// Map is Rewrite with a mapping for literal text as well. A nil literal
// function keeps literals unchanged.
func (t *Template) Map(literal func(string) string, placeholder func(Placeholder) string) string {
	var b strings.Builder
	for _, seg := range t.segments {
		switch {
		case seg.ph != nil:
			b.WriteString(placeholder(*seg.ph))
		case literal != nil:
			b.WriteString(literal(seg.literal))
		default:
			b.WriteString(seg.literal)
		}
	}
	return b.String()
}

// Parse scans src left to right and returns its parsed form.
func Parse(src string) (*Template, error) {
	t := &Template{src: src}

	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			t.segments = append(t.segments, segment{literal: lit.String()})
			lit.Reset()
		}
	}

	ordinary, last := 0, 0
	for i := 0; i < len(src); {
		if src[i] != '%' {
			next := strings.IndexByte(src[i:], '%')
			if next < 0 {
				lit.WriteString(src[i:])
				break
			}
			lit.WriteString(src[i : i+next])
			i += next
			continue
		}

		ph, end, err := scanPlaceholder(src, i)
		if err != nil {
			return nil, err
		}
		i = end

		switch {
		case ph.Conversion == ConvPercent || ph.Conversion == ConvNewline:
			// no argument
		case ph.Index > 0:
			last = ph.Index
		case ph.Explicit:
			if last == 0 {
				return nil, &SyntaxError{Offset: ph.Offset, Token: ph.Token, Reason: "'<' without a previous argument"}
			}
			ph.Index = last
		default:
			ordinary++
			ph.Index = ordinary
			last = ordinary
		}
		if ph.Index > t.arity {
			t.arity = ph.Index
		}

		flush()
		t.segments = append(t.segments, segment{ph: ph})
	}
	flush()

	return t, nil
}

// scanPlaceholder parses the token starting at src[start] == '%' and returns
// the placeholder and the offset just past it.
func scanPlaceholder(src string, start int) (*Placeholder, int, error) {
	ph := &Placeholder{Offset: start, Width: -1, Precision: -1}
	fail := func(end int, reason string) (*Placeholder, int, error) {
		if end > len(src) {
			end = len(src)
		}
		return nil, 0, &SyntaxError{Offset: start, Token: src[start:end], Reason: reason}
	}

	j := start + 1
	if j >= len(src) {
		return fail(j, "dangling '%'")
	}

	// argument index
	if d := digitsAt(src, j); d > 0 && j+d < len(src) && src[j+d] == '$' {
		n, err := strconv.Atoi(src[j : j+d])
		if err != nil || n == 0 {
			return fail(j+d+1, "argument index must be a positive integer")
		}
		ph.Index = n
		ph.Explicit = true
		j += d + 1
	}

	// flags
	for j < len(src) {
		c := src[j]
		if c == '<' {
			if ph.Explicit {
				return fail(j+1, "'<' combined with an explicit index")
			}
			ph.Explicit = true
			j++
			continue
		}
		f, ok := flagChars[c]
		if !ok {
			break
		}
		if ph.Flags&f != 0 {
			return fail(j+1, "duplicate flag '"+string(c)+"'")
		}
		ph.Flags |= f
		j++
	}

	// width
	if d := digitsAt(src, j); d > 0 {
		w, err := strconv.Atoi(src[j : j+d])
		if err != nil {
			return fail(j+d, "width out of range")
		}
		ph.Width = w
		j += d
	}

	// precision
	if j < len(src) && src[j] == '.' {
		d := digitsAt(src, j+1)
		if d == 0 {
			return fail(j+1, "precision requires digits")
		}
		p, err := strconv.Atoi(src[j+1 : j+1+d])
		if err != nil {
			return fail(j+1+d, "precision out of range")
		}
		ph.Precision = p
		j += 1 + d
	}

	if j >= len(src) {
		return fail(j, "missing conversion")
	}

	conv := src[j]
	j++
	ph.Token = src[start:j]

	switch conv {
	case 's', 'd', 'f', 'c', 'b', '%', 'n':
		ph.Conversion = Conversion(conv)
	case 'S', 'C', 'B':
		ph.Conversion = Conversion(conv + ('a' - 'A'))
		ph.Upper = true
	default:
		return fail(j, "unknown conversion '"+string(conv)+"'")
	}

	if reason := validate(ph); reason != "" {
		return fail(j, reason)
	}
	return ph, j, nil
}

func validate(ph *Placeholder) string {
	switch ph.Conversion {
	case ConvNewline:
		if ph.Explicit || ph.Flags != 0 || ph.Width >= 0 || ph.Precision >= 0 {
			return "%n takes no index, flags, width or precision"
		}
		return ""
	case ConvPercent:
		if ph.Explicit || ph.Flags&^FlagLeft != 0 || ph.Precision >= 0 {
			return "%% only accepts '-' and a width"
		}
	case ConvString, ConvBool:
		if ph.Flags&numericFlags != 0 {
			return "numeric flag on a " + ph.Conversion.String() + " conversion"
		}
	case ConvChar:
		if ph.Flags&numericFlags != 0 {
			return "numeric flag on a character conversion"
		}
		if ph.Precision >= 0 {
			return "precision is not allowed on a character conversion"
		}
	case ConvInteger:
		if ph.Precision >= 0 {
			return "precision is not allowed on an integer conversion"
		}
	}

	switch {
	case ph.Has(FlagLeft) && ph.Width < 0:
		return "'-' requires a width"
	case ph.Has(FlagZero) && ph.Width < 0:
		return "'0' requires a width"
	case ph.Has(FlagLeft) && ph.Has(FlagZero):
		return "'-' and '0' are mutually exclusive"
	case ph.Has(FlagPlus) && ph.Has(FlagSpace):
		return "'+' and ' ' are mutually exclusive"
	}
	return ""
}

func digitsAt(s string, i int) int {
	n := 0
	for i+n < len(s) && s[i+n] >= '0' && s[i+n] <= '9' {
		n++
	}
	return n
}
