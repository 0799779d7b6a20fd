package resource

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// ErrNotFound is matched by every *NotFoundError.
var ErrNotFound = errors.New("resource not found")

// NotFoundError reports a (locale, key) pair with no template in the
// requested locale, its parents, or the default locale.
type NotFoundError struct {
	Locale      string
	Key         string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("resource: no template for key %q in locale %q", e.Key, e.Locale)
	if len(e.Suggestions) > 0 {
		msg += " (did you mean " + strings.Join(e.Suggestions, ", ") + "?)"
	}
	return msg
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// FallbackUsed is the non-fatal notice attached to a Resolution when the
// template came from a locale other than the one requested. It implements
// error so callers can log or wrap it, but Lookup never returns it as a
// failure.
type FallbackUsed struct {
	Key       string
	Requested string
	Resolved  language.Tag
}

func (f *FallbackUsed) Error() string {
	return fmt.Sprintf("resource: key %q resolved in %s instead of %q", f.Key, f.Resolved, f.Requested)
}

// DuplicateKeyError is returned by Builder.Add when a key is registered twice
// for the same locale.
type DuplicateKeyError struct {
	Locale language.Tag
	Key    string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("resource: duplicate key %q for locale %s", e.Key, e.Locale)
}
