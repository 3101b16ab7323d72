// Package sanitize cleans user supplied text before it is stored.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// maxPasses bounds the strip/unescape loop for input hiding markup behind nested entities.
const maxPasses = 8

// Text strips every HTML element from s and trims surrounding whitespace. Entities are
// decoded, so the result is plain text: "Tom & Jerry" and "O'Brien" come back unchanged.
// The result may be empty when s contained only markup.
func Text(s string) string {
	// Decoding can reveal markup written as entities ("&lt;b&gt;"), so strip until stable.
	for range maxPasses {
		next := html.UnescapeString(strict.Sanitize(s))
		if next == s {
			break
		}
		s = next
	}
	return strings.TrimSpace(s)
}
