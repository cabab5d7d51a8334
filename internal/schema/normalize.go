package schema

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"golang.org/x/net/html"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// validate is shared; validator.Validate is safe for concurrent use and
// caches struct metadata internally.
var validate = validator.New()

// SanitizeKey lowercases s and keeps only [a-z0-9_].
func SanitizeKey(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SanitizeText reduces s to a single line of plain text: markup is removed,
// the result is NFC-normalized, control characters and invalid UTF-8 are
// dropped, and runs of whitespace collapse to one space.
func SanitizeText(s string) string {
	s = cleanRunes(stripTags(s), false)
	return strings.Join(strings.Fields(s), " ")
}

// SanitizeMultiline is SanitizeText for textarea input: line breaks survive,
// every line is collapsed and trimmed, and blank lines at either end go away.
func SanitizeMultiline(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = cleanRunes(stripTags(s), true)
	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		lines[i] = strings.Join(strings.Fields(ln), " ")
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}

// SanitizeEmail strips everything that cannot appear in an address: markup,
// whitespace, control characters, and the specials ()<>[]\,;:" that are only
// legal inside quoted local parts.
func SanitizeEmail(s string) string {
	s = stripTags(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= utf8.RuneSelf, unicode.IsSpace(r), unicode.IsControl(r):
			continue
		case strings.ContainsRune(`()<>[]\,;:"`, r):
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IsEmail reports whether s is a syntactically valid e-mail address.
func IsEmail(s string) bool {
	if s == "" {
		return false
	}
	return validate.Var(s, "email") == nil
}

// Token turns free text into a slug-like token: diacritics are removed,
// letters are lowercased, and every run of other characters becomes a single
// sep. Leading and trailing separators are trimmed.
func Token(s string, sep rune) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	pending := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pending && b.Len() > 0 {
				b.WriteRune(sep)
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}

// stripTags drops markup, comments, and the contents of script and style
// elements. Entities in text are kept as written so repeated calls are stable.
func stripTags(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken:
			if name, _ := z.TagName(); isRawTextElement(name) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isRawTextElement(name) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Raw())
			}
		}
	}
}

func isRawTextElement(name []byte) bool {
	n := string(name)
	return n == "script" || n == "style"
}

func cleanRunes(s string, keepNewlines bool) string {
	s = norm.NFC.String(strings.ToValidUTF8(s, ""))
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' && keepNewlines:
			return r
		case r == '\t' || r == '\n':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
}
