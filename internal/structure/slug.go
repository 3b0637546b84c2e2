package structure

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`[\s\v\p{Z}]+`)
	nonSlugChars  = regexp.MustCompile(`[^\p{L}\p{N}-]+`)
)

// Slugify turns a level label into a route segment: lower-cased, trimmed,
// whitespace runs replaced by a single hyphen, and everything that is not a
// letter, digit or hyphen removed. Letters and digits of any script survive.
//
// Slugify is idempotent but not injective ("Level 1" and "Level-1!" both give
// "level-1"), so callers must not rely on distinct labels producing distinct slugs.
func Slugify(label string) string {
	s := strings.TrimSpace(strings.ToLower(label))
	s = whitespaceRun.ReplaceAllString(s, "-")
	return nonSlugChars.ReplaceAllString(s, "")
}
