package terms

import (
	"sort"
	"strings"
)

// Subsumption records a sub-term zeroed in favor of a longer parent.
type Subsumption struct {
	Parent string
	Term   string
	Ratio  float64
}

// Prune zeroes sub-phrases that mostly occur inside a longer phrase.
//
// Parents are multi-word terms with a total above one, visited longest
// first, then most frequent, then lexicographically. For every parent of
// more than two words that still has a non-zero total, each contiguous
// sub-phrase of 2..n-1 words present in the table is zeroed when
// parentTotal/subTotal exceeds threshold. Zeroed terms stay in the table
// until Compact is called.
func Prune(t *Table, threshold float64) []Subsumption {
	type candidate struct {
		term  string
		words []string
		total int
	}

	var cands []candidate
	for term, c := range t.counts {
		words := strings.Fields(term)
		if len(words) > 1 && c.Total() > 1 {
			cands = append(cands, candidate{term: term, words: words, total: c.Total()})
		}
	}
	sort.Slice(cands, func(i, j int) bool {
		if len(cands[i].words) != len(cands[j].words) {
			return len(cands[i].words) > len(cands[j].words)
		}
		if cands[i].total != cands[j].total {
			return cands[i].total > cands[j].total
		}
		return cands[i].term < cands[j].term
	})

	var out []Subsumption
	for _, parent := range cands {
		n := len(parent.words)
		if n <= 2 {
			continue
		}
		pc := t.counts[parent.term]
		if pc.Total() <= 0 {
			continue
		}
		for size := n - 1; size >= 2; size-- {
			for i := 0; i+size <= n; i++ {
				sub := strings.Join(parent.words[i:i+size], " ")
				sc, ok := t.counts[sub]
				if !ok || sc.Total() <= 0 {
					continue
				}
				ratio := float64(pc.Total()) / float64(sc.Total())
				if ratio > threshold {
					t.counts[sub] = Count{}
					out = append(out, Subsumption{Parent: parent.term, Term: sub, Ratio: ratio})
				}
			}
		}
	}
	return out
}
