package ingest

import "strings"

// PhraseMatcher recognizes known multi-word terms inside clauses so they
// can be cut out of the text before single words are counted.
type PhraseMatcher struct {
	phrases   map[string]struct{}
	maxLen    int
	extractor *Extractor
}

// NewPhraseMatcher creates a matcher for the given space-joined phrases.
// Single-word entries are ignored.
func NewPhraseMatcher(phrases []string) *PhraseMatcher {
	set := make(map[string]struct{}, len(phrases))
	maxLen := 1
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		n := phraseLen(p)
		if n < 2 {
			continue
		}
		set[p] = struct{}{}
		if n > maxLen {
			maxLen = n
		}
	}
	return &PhraseMatcher{phrases: set, maxLen: maxLen, extractor: NewExtractor()}
}

// Len returns the number of phrases held by the matcher.
func (m *PhraseMatcher) Len() int {
	return len(m.phrases)
}

// Residue applies greedy longest-match to words and returns the runs of
// words left between recognized phrases.
func (m *PhraseMatcher) Residue(words []string) [][]string {
	var out [][]string
	var run []string
	i := 0

	for i < len(words) {
		matchLen := 0

		// Try matching from longest phrase to shortest (bigram)
		maxPhrase := m.maxLen
		if remaining := len(words) - i; maxPhrase > remaining {
			maxPhrase = remaining
		}
		for n := maxPhrase; n >= 2; n-- {
			if _, ok := m.phrases[strings.Join(words[i:i+n], " ")]; ok {
				matchLen = n
				break
			}
		}

		if matchLen > 0 {
			if len(run) > 0 {
				out = append(out, run)
				run = nil
			}
			i += matchLen
			continue
		}
		run = append(run, words[i])
		i++
	}

	if len(run) > 0 {
		out = append(out, run)
	}
	return out
}

// Strip removes every whole-word occurrence of a known phrase from text.
// The remaining words are returned one clause per line so that no new
// adjacency is created across a removed phrase.
func (m *PhraseMatcher) Strip(text string) string {
	var lines []string
	for _, words := range m.extractor.Clauses(text) {
		for _, run := range m.Residue(words) {
			lines = append(lines, strings.Join(run, " "))
		}
	}
	return strings.Join(lines, "\n")
}

func phraseLen(phrase string) int {
	if phrase == "" {
		return 0
	}
	return len(strings.Fields(phrase))
}
