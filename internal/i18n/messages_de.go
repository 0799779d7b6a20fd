package i18n

// germanMessages contains all German translations.
var germanMessages = map[string]string{
	// Error messages
	"error.generic":      "Etwas ist schiefgelaufen. Bitte versuche es noch einmal.",
	"error.not_found":    "Kein Text für den Schlüssel %1$s in der Sprache %2$s.",
	"error.suggestions":  "Meintest du: %1$s?",
	"error.format":       "%1$s konnte nicht formatiert werden: %2$s",
	"error.bad_request":  "Die Anfrage konnte nicht gelesen werden: %1$s",
	"error.rate_limited": "Zu viele Anfragen. Bitte warte eine Minute.",
	"error.not_ready":    "Der Katalog wird noch geladen.",
	"error.load":         "Der Katalog aus %1$s konnte nicht geladen werden: %2$s",
	"error.argument":     "Argument %1$d (%2$s) ist ungültig: %3$s",

	// Resolve command
	"resolve.fallback": "Hinweis: %1$s ist in %2$s nicht verfügbar, stattdessen wurde %3$s verwendet.",

	// Check command
	"check.issue":   "%1$s: %2$s",
	"check.missing": "%1$s fehlen %2$d von %3$d Schlüsseln: %4$s",
	"check.summary": "%1$,d Vorlagen in %2$d Sprachen geprüft: %3$d Probleme, %4$d fehlende Übersetzungen.",
	"check.ok":      "Der Katalog ist vollständig.",

	// Export and import commands
	"export.done": "%1$d Dateien nach %2$s geschrieben.",
	"import.done": "%1$,d Vorlagen in %2$s importiert.",

	// Locales command
	"locales.row":     "%1$-12s %2$,6d Schlüssel",
	"locales.default": "%1$s (Standard)",

	// Service home page
	"home.title": "Dienst für lokalisierte Texte",
	"home.body":  "%1$d Sprachen mit %2$,d Vorlagen verfügbar.",
}
