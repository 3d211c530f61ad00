// Package sanitize cleans free-text input before it reaches storage.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strictPolicy removes all HTML tags and attributes.
var strictPolicy = bluemonday.StrictPolicy()

var stripper = strings.NewReplacer("<", "", ">", "", ";", "")

// Text strips markup and the characters < > ; from input and trims the
// result. Entities escaped by the HTML pass are decoded again so plain text
// such as "O'Brien" or "A & B" survives unchanged.
func Text(input string) string {
	cleaned := html.UnescapeString(strictPolicy.Sanitize(input))
	return strings.TrimSpace(stripper.Replace(cleaned))
}

// Optional sanitizes an optional value. It returns nil when input is nil or
// nothing remains after sanitizing.
func Optional(input *string) *string {
	if input == nil {
		return nil
	}
	cleaned := Text(*input)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
