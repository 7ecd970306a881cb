package terms

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cognicore/reviewcloud/pkg/reviewcloud/ingest"
	"github.com/cognicore/reviewcloud/pkg/reviewcloud/sanitize"
	"github.com/cognicore/reviewcloud/pkg/reviewcloud/stoplist"
)

// Reasons reported by Filter.Reason.
const (
	ReasonTooShort   = "too short"
	ReasonTooLong    = "too long"
	ReasonNumeric    = "numeric"
	ReasonStopword   = "stopword"
	ReasonApostrophe = "contraction"
	ReasonName       = "product name"
)

// NameMatcher recognizes the product's own name, each of its words and
// every contiguous sub-phrase of it.
type NameMatcher struct {
	forms map[string]struct{}
}

// NewNameMatcher builds a matcher for name. An empty name matches nothing.
func NewNameMatcher(name string) *NameMatcher {
	m := &NameMatcher{forms: make(map[string]struct{})}
	clean := sanitize.String(name)
	e := ingest.NewExtractor()
	for _, words := range e.Clauses(clean) {
		for form := range e.Extract(strings.Join(words, " "), 1, len(words)) {
			m.forms[form] = struct{}{}
		}
	}
	return m
}

// Matches reports whether term is the name or part of it.
func (m *NameMatcher) Matches(term string) bool {
	if m == nil {
		return false
	}
	_, ok := m.forms[term]
	return ok
}

// Filter decides which terms are significant enough to keep.
type Filter struct {
	Stops *stoplist.Manager
	Name  *NameMatcher

	// Single-word terms shorter than MinWordLength or longer than
	// MaxWordLength (when > 0) are dropped.
	MinWordLength int
	MaxWordLength int
	// Multi-word terms shorter than MinPhraseLength are dropped.
	MinPhraseLength int
}

// Reason returns why term should be dropped, or "" to keep it.
func (f *Filter) Reason(term string) string {
	words := strings.Fields(term)
	if len(words) == 0 {
		return ReasonTooShort
	}
	n := utf8.RuneCountInString(term)

	if len(words) == 1 {
		if n < f.MinWordLength {
			return ReasonTooShort
		}
		if f.MaxWordLength > 0 && n > f.MaxWordLength {
			return ReasonTooLong
		}
	} else if n < f.MinPhraseLength {
		return ReasonTooShort
	}

	if allNumeric(words) {
		return ReasonNumeric
	}

	if f.Stops != nil {
		if f.Stops.IsStop(term) {
			return ReasonStopword
		}
		// Phrases may not start or end on a stopword.
		first, last := words[0], words[len(words)-1]
		if f.Stops.Matches(first) || f.Stops.Matches(last) {
			return ReasonStopword
		}
	}

	if len(words) == 1 && strings.ContainsRune(term, '\'') {
		return ReasonApostrophe
	}
	if len(words) > 1 && (strings.ContainsRune(words[0], '\'') || strings.ContainsRune(words[len(words)-1], '\'')) {
		return ReasonApostrophe
	}

	if f.Name.Matches(term) {
		return ReasonName
	}

	return ""
}

// Keep reports whether term survives the filter.
func (f *Filter) Keep(term string) bool {
	return f.Reason(term) == ""
}

// Apply removes every insignificant term from t and returns the removed
// terms keyed by reason.
func (f *Filter) Apply(t *Table) map[string][]string {
	removed := make(map[string][]string)
	for _, term := range t.Terms() {
		if reason := f.Reason(term); reason != "" {
			removed[reason] = append(removed[reason], term)
		}
	}
	for _, list := range removed {
		for _, term := range list {
			t.Delete(term)
		}
	}
	return removed
}

func allNumeric(words []string) bool {
	for _, w := range words {
		for _, r := range w {
			if !unicode.IsDigit(r) {
				return false
			}
		}
	}
	return true
}
