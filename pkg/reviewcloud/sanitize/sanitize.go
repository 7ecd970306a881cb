package sanitize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// censorPattern matches Steam's heart censorship glyphs together with any
// non-space characters glued to them ("♥♥♥♥ing").
var censorPattern = regexp.MustCompile(`[\x{2665}\x{2764}]\S*`)

// possessivePattern matches a possessive 's at the end of a word.
var possessivePattern = regexp.MustCompile(`'s\b`)

// urlPattern is John Gruber's liberal URL matcher (https://gist.github.com/gruber/249502).
var urlPattern = regexp.MustCompile(`(?i)\b((?:[a-z][\w-]+:(?:/{1,3}|[a-z0-9%])|www\d{0,3}[.]|[a-z0-9.\-]+[.][a-z]{2,4}/)(?:[^\s()<>]+|\(([^\s()<>]+|(\([^\s()<>]+\)))*\))+(?:\(([^\s()<>]+|(\([^\s()<>]+\)))*\)|[^\s` + "`" + `!()\[\]{};:'".,<>?«»“”‘’]))`)

// punctuation folds typographic quotes and dash variants to ASCII.
var punctuation = strings.NewReplacer(
	"‘", "'", "’", "'", "‚", "'", "‛", "'",
	"′", "'", "´", "'", "`", "'",
	"“", `"`, "”", `"`, "„", `"`, "‟", `"`,
	"″", `"`, "«", `"`, "»", `"`,
	"‐", "-", "‑", "-", "‒", "-", "–", "-",
	"—", "-", "―", "-", "−", "-", "﹘", "-",
	"﹣", "-", "－", "-",
)

// Sanitizer normalizes raw review text before term extraction.
// The zero value is ready to use.
type Sanitizer struct {
	// KeepPossessives disables removal of trailing 's.
	KeepPossessives bool
}

// New returns a Sanitizer with default settings.
func New() *Sanitizer {
	return &Sanitizer{}
}

// Sanitize strips censorship glyphs, folds case, canonicalizes punctuation
// and removes embedded URLs. Sanitize(Sanitize(x)) == Sanitize(x).
func (s *Sanitizer) Sanitize(text string) string {
	text = censorPattern.ReplaceAllString(text, "")
	// Fold before NFKC as well: NFKC decomposes some marks (´ → " ́").
	text = punctuation.Replace(text)
	text = norm.NFKC.String(text)
	text = cases.Lower(language.Und).String(text)
	text = punctuation.Replace(text)
	// Possessives go first: dropping 's can join a URL together.
	if !s.KeepPossessives {
		text = possessivePattern.ReplaceAllString(text, "")
	}
	text = urlPattern.ReplaceAllString(text, " ")
	return text
}

// String is a convenience wrapper using default settings.
func String(text string) string {
	return New().Sanitize(text)
}
