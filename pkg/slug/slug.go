package slug

import (
	"regexp"
	"strings"
)

var nonWord = regexp.MustCompile(`\W+`)

// Generate derives a URL-safe slug from a title: lowercase, every run of
// non-word characters collapsed into a single hyphen. It does not guarantee
// uniqueness; the database's unique index on the slug column does.
func Generate(title string) string {
	s := nonWord.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}
