package ingest

import (
	"iter"
	"regexp"
	"strings"
)

// clausePattern matches a maximal run of word characters with the interior
// punctuation a term may carry: apostrophes, hyphens, slash-digit and
// backslash-digit pairs ("10/10"), and single spaces between words.
var clausePattern = regexp.MustCompile(`(?:[\p{L}\p{N}_'\-]|[/\\]\p{N})+(?: (?:[\p{L}\p{N}_'\-]|[/\\]\p{N})+)*`)

// Extractor splits sanitized text into clauses and produces word n-grams.
// It holds no state between calls.
type Extractor struct{}

// NewExtractor creates a new extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Clauses returns the words of every clause in text, in order.
// A word that cleans down to nothing, such as a lone dash, ends the clause.
func (e *Extractor) Clauses(text string) [][]string {
	var clauses [][]string
	for _, match := range clausePattern.FindAllString(text, -1) {
		var words []string
		for _, raw := range strings.Split(match, " ") {
			word := cleanWord(raw)
			if word == "" {
				if len(words) > 0 {
					clauses = append(clauses, words)
				}
				words = nil
				continue
			}
			words = append(words, word)
		}
		if len(words) > 0 {
			clauses = append(clauses, words)
		}
	}
	return clauses
}

// Extract yields every distinct contiguous n-gram of minWords..maxWords
// words found in text. Duplicates within text are yielded once. The
// sequence is lazy and may be ranged over more than once.
func (e *Extractor) Extract(text string, minWords, maxWords int) iter.Seq[string] {
	if minWords < 1 {
		minWords = 1
	}
	return func(yield func(string) bool) {
		if maxWords < minWords {
			return
		}
		seen := make(map[string]struct{})
		for _, words := range e.Clauses(text) {
			for n := minWords; n <= maxWords && n <= len(words); n++ {
				for i := 0; i+n <= len(words); i++ {
					term := strings.Join(words[i:i+n], " ")
					if _, ok := seen[term]; ok {
						continue
					}
					seen[term] = struct{}{}
					if !yield(term) {
						return
					}
				}
			}
		}
	}
}

// Words returns the unique single words in text.
func (e *Extractor) Words(text string) []string {
	var out []string
	for w := range e.Extract(text, 1, 1) {
		out = append(out, w)
	}
	return out
}

// cleanWord strips leading/trailing hyphens and apostrophes and collapses
// consecutive hyphens.
func cleanWord(word string) string {
	word = strings.Trim(word, "-'")

	for strings.Contains(word, "--") {
		word = strings.ReplaceAll(word, "--", "-")
	}

	return word
}
