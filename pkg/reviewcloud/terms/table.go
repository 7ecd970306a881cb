// Package terms holds the per-run term counts and the passes that filter,
// prune and consolidate them.
package terms

import (
	"iter"
	"sort"
	"strings"
)

// Count holds the number of positive and negative records containing a term.
type Count struct {
	Positive int
	Negative int
}

// Total returns the number of records containing the term.
func (c Count) Total() int {
	return c.Positive + c.Negative
}

// Add returns the sum of two counts.
func (c Count) Add(o Count) Count {
	return Count{Positive: c.Positive + o.Positive, Negative: c.Negative + o.Negative}
}

// Table maintains positive/negative record counts per term.
// A Table belongs to a single run and is not safe for concurrent use.
type Table struct {
	counts map[string]Count
}

// NewTable creates an empty term table.
func NewTable() *Table {
	return &Table{counts: make(map[string]Count)}
}

// Add counts one record containing term.
func (t *Table) Add(term string, positive bool) {
	c := t.counts[term]
	if positive {
		c.Positive++
	} else {
		c.Negative++
	}
	t.counts[term] = c
}

// AddReview counts every term of one record. The sequence is expected to
// yield each term once per record.
func (t *Table) AddReview(terms iter.Seq[string], positive bool) {
	for term := range terms {
		t.Add(term, positive)
	}
}

// Get returns the count for term.
func (t *Table) Get(term string) (Count, bool) {
	c, ok := t.counts[term]
	return c, ok
}

// Set overwrites the count for term.
func (t *Table) Set(term string, c Count) {
	t.counts[term] = c
}

// Has reports whether term is present with a non-zero total.
func (t *Table) Has(term string) bool {
	c, ok := t.counts[term]
	return ok && c.Total() > 0
}

// Zero clears the counts of term without removing the key.
func (t *Table) Zero(term string) {
	if _, ok := t.counts[term]; ok {
		t.counts[term] = Count{}
	}
}

// Delete removes term.
func (t *Table) Delete(term string) {
	delete(t.counts, term)
}

// Len returns the number of keys, zeroed ones included.
func (t *Table) Len() int {
	return len(t.counts)
}

// Terms returns all keys in lexicographic order.
func (t *Table) Terms() []string {
	out := make([]string, 0, len(t.counts))
	for term := range t.counts {
		out = append(out, term)
	}
	sort.Strings(out)
	return out
}

// All yields terms and counts in lexicographic order.
func (t *Table) All() iter.Seq2[string, Count] {
	return func(yield func(string, Count) bool) {
		for _, term := range t.Terms() {
			c, ok := t.counts[term]
			if !ok {
				continue
			}
			if !yield(term, c) {
				return
			}
		}
	}
}

// Mass returns the sum of all totals.
func (t *Table) Mass() int {
	sum := 0
	for _, c := range t.counts {
		sum += c.Total()
	}
	return sum
}

// Compact removes every term whose total is zero and returns how many
// were removed.
func (t *Table) Compact() int {
	var dead []string
	for term, c := range t.counts {
		if c.Total() <= 0 {
			dead = append(dead, term)
		}
	}
	for _, term := range dead {
		delete(t.counts, term)
	}
	return len(dead)
}

// DropRare removes terms of at least minWords words seen in fewer than
// minOccurrences records. It returns the removed terms, sorted.
func (t *Table) DropRare(minWords, minOccurrences int) []string {
	var dead []string
	for term, c := range t.counts {
		if WordCount(term) >= minWords && c.Total() < minOccurrences {
			dead = append(dead, term)
		}
	}
	for _, term := range dead {
		delete(t.counts, term)
	}
	sort.Strings(dead)
	return dead
}

// Clone returns an independent copy.
func (t *Table) Clone() *Table {
	out := &Table{counts: make(map[string]Count, len(t.counts))}
	for term, c := range t.counts {
		out.counts[term] = c
	}
	return out
}

// MultiWord returns the terms with two or more words and a non-zero total.
func (t *Table) MultiWord() []string {
	var out []string
	for term, c := range t.counts {
		if c.Total() > 0 && WordCount(term) > 1 {
			out = append(out, term)
		}
	}
	sort.Strings(out)
	return out
}

// WordCount returns the number of space-separated words in term.
func WordCount(term string) int {
	return len(strings.Fields(term))
}
