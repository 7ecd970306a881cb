package terms

import (
	"regexp"
	"strings"
)

// Merge records one term folded into another.
type Merge struct {
	From  string
	Into  string
	Count Count
}

// pluralRules are tried in order; the first singular form present wins.
var pluralRules = []struct {
	suffix    string
	singulars []string
}{
	{"s", []string{""}},
	{"ies", []string{"y", "ie"}},
	{"sses", []string{"ss", "s"}},
	{"shes", []string{"sh"}},
	{"ches", []string{"ch"}},
	{"oes", []string{"o"}},
	{"ves", []string{"ve", "f"}},
}

var hyphenPattern = regexp.MustCompile(`[\p{L}\p{N}_]-[\p{L}\p{N}_]`)

// Consolidate runs MergePlurals followed by MergeHyphenations.
func Consolidate(t *Table) []Merge {
	merges := MergePlurals(t)
	return append(merges, MergeHyphenations(t)...)
}

// MergePlurals folds plural/singular pairs into one entry. The form with
// the higher total survives; on a tie the plural survives.
func MergePlurals(t *Table) []Merge {
	var merges []Merge
	for _, term := range t.Terms() {
		pc, ok := t.counts[term]
		if !ok || !strings.HasSuffix(term, "s") {
			continue
		}
		singular := findSingular(t, term)
		if singular == "" {
			continue
		}
		sc := t.counts[singular]
		if pc.Total() >= sc.Total() {
			merges = append(merges, fold(t, singular, term))
		} else {
			merges = append(merges, fold(t, term, singular))
		}
	}
	return merges
}

func findSingular(t *Table, term string) string {
	for _, rule := range pluralRules {
		if !strings.HasSuffix(term, rule.suffix) {
			continue
		}
		stem := strings.TrimSuffix(term, rule.suffix)
		for _, end := range rule.singulars {
			cand := stem + end
			if cand == "" || cand == term || strings.HasSuffix(cand, " ") {
				continue
			}
			if _, ok := t.counts[cand]; ok {
				return cand
			}
		}
	}
	return ""
}

// MergeHyphenations folds the hyphenated, spaced and joined spellings of
// a term into whichever has the highest total. Ties favor that order.
func MergeHyphenations(t *Table) []Merge {
	var merges []Merge
	for _, term := range t.Terms() {
		if _, ok := t.counts[term]; !ok || !hyphenPattern.MatchString(term) {
			continue
		}
		variants := []string{
			term,
			strings.ReplaceAll(term, "-", " "),
			strings.ReplaceAll(term, "-", ""),
		}

		var present []string
		best := ""
		bestTotal := -1
		for _, v := range variants {
			c, ok := t.counts[v]
			if !ok || contains(present, v) {
				continue
			}
			present = append(present, v)
			if c.Total() > bestTotal {
				best, bestTotal = v, c.Total()
			}
		}
		for _, v := range present {
			if v != best {
				merges = append(merges, fold(t, v, best))
			}
		}
	}
	return merges
}

// fold adds the counts of from into into and removes from.
func fold(t *Table, from, into string) Merge {
	c := t.counts[from]
	t.counts[into] = t.counts[into].Add(c)
	delete(t.counts, from)
	return Merge{From: from, Into: into, Count: c}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
