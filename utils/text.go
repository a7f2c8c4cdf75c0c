package utils

import (
	"strings"

	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CategoryKey turns a free-form category label ("Electronics", "Home Décor") into a
// lookup key. Multi-word labels keep only their first word.
func CategoryKey(label string) string {
	key := slug.Make(strings.TrimSpace(label))
	if i := strings.IndexByte(key, '-'); i > 0 {
		key = key[:i]
	}
	return key
}

// DisplayName title-cases a category key for clients.
func DisplayName(key string) string {
	// a Caser keeps state, so each call gets its own
	return cases.Title(language.English).String(strings.ReplaceAll(key, "-", " "))
}
