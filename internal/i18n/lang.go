// Package i18n holds the language preference and the message catalog used
// for advisories, category names and CLI labels.
package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Language is a supported display language.
type Language string

const (
	Arabic  Language = "ar"
	English Language = "en"
)

// Default is the language used until the user picks one.
const Default = Arabic

// Parse accepts "ar", "en" and their English names, case-insensitively.
func Parse(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ar", "arabic", "عربي", "العربية":
		return Arabic, nil
	case "en", "english":
		return English, nil
	}
	return "", fmt.Errorf("unsupported language %q (want ar or en)", s)
}

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	return l == Arabic || l == English
}

// Tag returns the x/text tag for l.
func (l Language) Tag() language.Tag {
	if l == English {
		return language.English
	}
	return language.Arabic
}

// IsRTL reports whether l is written right to left.
func (l Language) IsRTL() bool { return l == Arabic }

// Other returns the language a toggle switches to.
func (l Language) Other() Language {
	if l == Arabic {
		return English
	}
	return Arabic
}
