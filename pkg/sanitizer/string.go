package sanitizer

import (
	"strings"
	"unicode"
)

const MaxIdentityLength = 128

func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else if unicode.IsPrint(r) {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

// NormalizeIdentity canonicalizes a requester identity so that ownership
// checks compare like with like. Overlong identities are cut at
// MaxIdentityLength runes.
func NormalizeIdentity(identity string) string {
	normalized := TrimAndNormalize(identity)
	runes := []rune(normalized)
	if len(runes) > MaxIdentityLength {
		normalized = strings.TrimSpace(string(runes[:MaxIdentityLength]))
	}
	return normalized
}
