package i18n

// englishMessages contains all English translations.
var englishMessages = map[string]string{
	// Error messages
	"error.generic":      "Something went wrong. Please try again.",
	"error.not_found":    "No text for key %1$s in locale %2$s.",
	"error.suggestions":  "Did you mean: %1$s?",
	"error.format":       "Could not format %1$s: %2$s",
	"error.bad_request":  "The request could not be read: %1$s",
	"error.rate_limited": "Too many requests. Please wait a minute.",
	"error.not_ready":    "The catalogue is still loading.",
	"error.load":         "Could not load the catalogue from %1$s: %2$s",
	"error.argument":     "Argument %1$d (%2$s) is invalid: %3$s",

	// Resolve command
	"resolve.fallback": "Note: %1$s is not available in %2$s, used %3$s instead.",

	// Check command
	"check.issue":   "%1$s: %2$s",
	"check.missing": "%1$s is missing %2$d of %3$d keys: %4$s",
	"check.summary": "Checked %1$,d templates in %2$d locales: %3$d issues, %4$d missing translations.",
	"check.ok":      "The catalogue is complete.",

	// Export and import commands
	"export.done": "Wrote %1$d files to %2$s.",
	"import.done": "Imported %1$,d templates into %2$s.",

	// Locales command
	"locales.row":     "%1$-12s %2$,6d keys",
	"locales.default": "%1$s (default)",

	// Service home page
	"home.title": "Localized string service",
	"home.body":  "Serving %1$d locales with %2$,d templates.",
}
