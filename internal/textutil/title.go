package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TitleCase collapses whitespace and title-cases text using English rules.
func TitleCase(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return cases.Title(language.English).String(strings.Join(fields, " "))
}
