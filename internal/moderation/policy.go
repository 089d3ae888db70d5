// Package moderation screens free text before it is stored or sent to a generation
// provider and builds the negative prompts attached to generated assets.
package moderation

import (
	"errors"
	"strings"
)

var ErrContentNotAllowed = errors.New("content_not_allowed")

// blocklist is matched as plain substrings of the lower-cased text.
// No unicode folding or whitespace collapsing is applied.
var blocklist = []string{
	"deepfake",
	"deep fake",
	"real person",
	"celebrity",
	"celeb ",
	"lookalike",
	"underage",
	"minor",
	"child",
	"teen",
	"loli",
	"schoolgirl",
	"non-consent",
	"nonconsent",
	"without consent",
	"rape",
	"drugged",
}

// Allowed reports whether text contains none of the blocked fragments.
func Allowed(text string) bool {
	lower := strings.ToLower(text)
	for _, term := range blocklist {
		if strings.Contains(lower, term) {
			return false
		}
	}
	return true
}

// Screen returns ErrContentNotAllowed for blocked text.
func Screen(text string) error {
	if !Allowed(text) {
		return ErrContentNotAllowed
	}
	return nil
}
