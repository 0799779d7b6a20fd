package format

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	// DefaultCacheSize is the number of parsed templates kept by NewCache
	// when no size is given.
	DefaultCacheSize = 512
	// DefaultFloatPrecision applies to %f without an explicit precision.
	DefaultFloatPrecision = 6

	nullText = "null"
)

// boolWords holds the true/false text per base language.
var boolWords = map[string][2]string{
	"en": {"true", "false"},
	"de": {"wahr", "falsch"},
	"fr": {"vrai", "faux"},
	"es": {"verdadero", "falso"},
	"it": {"vero", "falso"},
	"pt": {"verdadeiro", "falso"},
	"nl": {"waar", "onwaar"},
	"ja": {"真", "偽"},
	"ar": {"صحيح", "خطأ"},
}

var defaultFormatter = NewFormatter(language.English, NewCache(DefaultCacheSize))

// Format renders template with args using English number and boolean rules.
func Format(template string, args ...any) (string, error) {
	return defaultFormatter.Format(template, args...)
}

// Cache keeps parsed templates. Parsed templates carry no locale state, so
// one cache can serve formatters for every locale.
type Cache struct {
	lru *lru.Cache[string, *Template]
}

// NewCache creates a cache holding up to size parsed templates.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, _ := lru.New[string, *Template](size)
	return &Cache{lru: c}
}

// Parse returns the cached parse of src, parsing it on a miss. Templates
// that fail to parse are not cached.
func (c *Cache) Parse(src string) (*Template, error) {
	if c == nil {
		return Parse(src)
	}
	if t, ok := c.lru.Get(src); ok {
		return t, nil
	}
	t, err := Parse(src)
	if err != nil {
		return nil, err
	}
	c.lru.Add(src, t)
	return t, nil
}

// Len returns the number of cached templates.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

// Formatter renders templates for one locale. It is safe for concurrent use.
type Formatter struct {
	tag   language.Tag
	cache *Cache
}

// NewFormatter creates a Formatter for tag. cache may be nil.
func NewFormatter(tag language.Tag, cache *Cache) *Formatter {
	return &Formatter{tag: tag, cache: cache}
}

// Locale returns the formatter's locale.
func (f *Formatter) Locale() language.Tag { return f.tag }

// Format parses template (through the cache) and renders it with args.
func (f *Formatter) Format(template string, args ...any) (string, error) {
	t, err := f.cache.Parse(template)
	if err != nil {
		return "", err
	}
	return f.Render(t, args...)
}

// Render substitutes args into a parsed template.
func (f *Formatter) Render(t *Template, args ...any) (string, error) {
	r := renderer{tag: f.tag}
	var b strings.Builder
	b.Grow(len(t.src))

	for _, seg := range t.segments {
		if seg.ph == nil {
			b.WriteString(seg.literal)
			continue
		}
		s, err := r.render(seg.ph, args)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

// Format renders t for tag.
func (t *Template) Format(tag language.Tag, args ...any) (string, error) {
	return NewFormatter(tag, nil).Render(t, args...)
}

// renderer holds per-call state; the printer is created on first numeric use.
type renderer struct {
	tag     language.Tag
	printer *message.Printer
}

func (r *renderer) render(ph *Placeholder, args []any) (string, error) {
	switch ph.Conversion {
	case ConvPercent:
		return pad(ph, "%"), nil
	case ConvNewline:
		return "\n", nil
	}

	if ph.Index > len(args) {
		return "", &MissingArgumentError{Index: ph.Index, Count: len(args), Token: ph.Token}
	}
	arg := args[ph.Index-1]

	switch ph.Conversion {
	case ConvString:
		return pad(ph, r.upper(ph, truncate(ph, stringValue(arg)))), nil
	case ConvBool:
		v, ok := boolValue(arg)
		if !ok {
			return "", mismatch(ph, arg)
		}
		return pad(ph, r.upper(ph, truncate(ph, r.boolText(v)))), nil
	case ConvChar:
		c, ok := charValue(arg)
		if !ok {
			return "", mismatch(ph, arg)
		}
		return pad(ph, r.upper(ph, string(c))), nil
	case ConvInteger:
		neg, mag, ok := integerValue(arg)
		if !ok {
			return "", mismatch(ph, arg)
		}
		return r.number(ph, neg, number.Decimal(mag, r.numberOptions(ph)...)), nil
	case ConvFloat:
		v, ok := floatValue(arg)
		if !ok {
			return "", mismatch(ph, arg)
		}
		return r.float(ph, v), nil
	}
	return "", mismatch(ph, arg)
}

func (r *renderer) upper(ph *Placeholder, s string) string {
	if !ph.Upper {
		return s
	}
	return cases.Upper(r.tag).String(s)
}

func (r *renderer) boolText(v bool) string {
	base, _ := r.tag.Base()
	words, ok := boolWords[base.String()]
	if !ok {
		words = boolWords["en"]
	}
	if v {
		return words[0]
	}
	return words[1]
}

func (r *renderer) print(f number.Formatter) string {
	if r.printer == nil {
		r.printer = message.NewPrinter(r.tag)
	}
	return r.printer.Sprint(f)
}

func (r *renderer) numberOptions(ph *Placeholder) []number.Option {
	if ph.Has(FlagGroup) {
		return nil
	}
	return []number.Option{number.NoSeparator()}
}

func (r *renderer) float(ph *Placeholder, v float64) string {
	switch {
	case math.IsNaN(v):
		return pad(ph, "NaN")
	case math.IsInf(v, 0):
		return r.signed(ph, v < 0, "Infinity", false)
	}

	prec := ph.Precision
	if prec < 0 {
		prec = DefaultFloatPrecision
	}
	opts := append(r.numberOptions(ph), number.Scale(prec))
	return r.number(ph, math.Signbit(v), number.Decimal(math.Abs(v), opts...))
}

func (r *renderer) number(ph *Placeholder, neg bool, f number.Formatter) string {
	return r.signed(ph, neg, r.print(f), true)
}

// signed applies sign flags and zero padding to an unsigned digit string.
func (r *renderer) signed(ph *Placeholder, neg bool, digits string, zeroPad bool) string {
	var prefix, suffix string
	switch {
	case neg && ph.Has(FlagParen):
		prefix, suffix = "(", ")"
	case neg:
		prefix = "-"
	case ph.Has(FlagPlus):
		prefix = "+"
	case ph.Has(FlagSpace):
		prefix = " "
	}

	if zeroPad && ph.Has(FlagZero) {
		n := ph.Width - utf8.RuneCountInString(prefix+digits+suffix)
		if n > 0 {
			zero := r.print(number.Decimal(0, number.NoSeparator()))
			digits = strings.Repeat(zero, n) + digits
		}
	}
	return pad(ph, prefix+digits+suffix)
}

func pad(ph *Placeholder, s string) string {
	n := ph.Width - utf8.RuneCountInString(s)
	if n <= 0 {
		return s
	}
	if ph.Has(FlagLeft) {
		return s + strings.Repeat(" ", n)
	}
	return strings.Repeat(" ", n) + s
}

func truncate(ph *Placeholder, s string) string {
	if ph.Precision < 0 || utf8.RuneCountInString(s) <= ph.Precision {
		return s
	}
	runes := []rune(s)
	return string(runes[:ph.Precision])
}

func stringValue(arg any) string {
	switch v := arg.(type) {
	case nil:
		return nullText
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case error:
		return v.Error()
	default:
		return fmt.Sprint(v)
	}
}

func boolValue(arg any) (bool, bool) {
	if arg == nil {
		return false, true
	}
	v := reflect.ValueOf(arg)
	if v.Kind() != reflect.Bool {
		return false, false
	}
	return v.Bool(), true
}

func charValue(arg any) (rune, bool) {
	if s, ok := arg.(string); ok {
		r, size := utf8.DecodeRuneInString(s)
		if size == 0 || size != len(s) || r == utf8.RuneError {
			return 0, false
		}
		return r, true
	}

	neg, mag, ok := integerValue(arg)
	if !ok || neg || mag > utf8.MaxRune {
		return 0, false
	}
	r := rune(mag)
	return r, utf8.ValidRune(r)
}

// integerValue splits an integral argument into sign and magnitude.
func integerValue(arg any) (neg bool, mag uint64, ok bool) {
	if n, isNumber := arg.(json.Number); isNumber {
		if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			return splitInt(i)
		}
		if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
			return false, u, true
		}
		return false, 0, false
	}
	if arg == nil {
		return false, 0, false
	}

	v := reflect.ValueOf(arg)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return splitInt(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return false, v.Uint(), true
	default:
		return false, 0, false
	}
}

func splitInt(i int64) (bool, uint64, bool) {
	if i < 0 {
		return true, uint64(-(i + 1)) + 1, true
	}
	return false, uint64(i), true
}

// floatValue accepts float kinds and coerces integer kinds.
func floatValue(arg any) (float64, bool) {
	if n, isNumber := arg.(json.Number); isNumber {
		f, err := n.Float64()
		return f, err == nil
	}
	if arg == nil {
		return 0, false
	}

	v := reflect.ValueOf(arg)
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(v.Uint()), true
	default:
		return 0, false
	}
}
