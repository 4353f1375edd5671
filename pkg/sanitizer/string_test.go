package sanitizer

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trim spaces", input: "  user1  ", want: "user1"},
		{name: "collapse inner whitespace", input: "team\t\n  blue", want: "team blue"},
		{name: "empty string", input: "", want: ""},
		{name: "only whitespace", input: "   \t\n  ", want: ""},
		{name: "drop control characters", input: "user\x001", want: "user1"},
		{name: "preserve unicode", input: " Café ™ ", want: "Café ™"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdentity_Idempotent(t *testing.T) {
	inputs := []string{" user1 ", "a  b", strings.Repeat("x", 300), "  "}

	for _, in := range inputs {
		once := NormalizeIdentity(in)
		twice := NormalizeIdentity(once)
		if once != twice {
			t.Errorf("NormalizeIdentity not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestNormalizeIdentity_Truncates(t *testing.T) {
	got := NormalizeIdentity(strings.Repeat("é", 200))
	if n := utf8.RuneCountInString(got); n != MaxIdentityLength {
		t.Errorf("expected %d runes, got %d", MaxIdentityLength, n)
	}
}
