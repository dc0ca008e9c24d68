package vectorise

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FormatFieldHeader converts a field header to the upper snake case form the
// blueprint is keyed on, e.g. "Admission method" -> "ADMISSION_METHOD"
func FormatFieldHeader(field string) string {
	header := lower(field)
	header = strings.Map(func(r rune) rune {
		if r == '-' || r == '.' || unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, header)
	return upper(header)
}

// casers are stateful, so one is built per call
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

func upper(s string) string {
	return cases.Upper(language.Und).String(s)
}
