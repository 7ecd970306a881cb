package ingest

import (
	"reflect"
	"testing"
)

func TestPhraseMatcherResidue(t *testing.T) {
	m := NewPhraseMatcher([]string{"first person", "open world"})

	words := []string{"great", "first", "person", "shooter", "with", "open", "world"}
	got := m.Residue(words)
	want := [][]string{{"great"}, {"shooter", "with"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestPhraseMatcherGreedyLongest(t *testing.T) {
	m := NewPhraseMatcher([]string{"first person", "first person shooter"})

	got := m.Residue([]string{"a", "first", "person", "shooter", "game"})
	want := [][]string{{"a"}, {"game"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Should match longest phrase, got %v", got)
	}
}

func TestPhraseMatcherIgnoresSingleWords(t *testing.T) {
	m := NewPhraseMatcher([]string{"zombies", "  ", "boss fight"})

	if m.Len() != 1 {
		t.Fatalf("Expected 1 phrase, got %d", m.Len())
	}
	got := m.Residue([]string{"zombies", "boss", "fight"})
	want := [][]string{{"zombies"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestPhraseMatcherStripWholeWords(t *testing.T) {
	m := NewPhraseMatcher([]string{"boss fight"})

	got := m.Strip("the boss fights and the boss fight, again")
	want := "the boss fights and the\nagain"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestPhraseMatcherStripKeepsAdjacencyBroken(t *testing.T) {
	m := NewPhraseMatcher([]string{"open world"})
	e := NewExtractor()

	residue := m.Strip("huge open world map")
	for term := range e.Extract(residue, 2, 2) {
		if term == "huge map" {
			t.Error("Stripping a phrase must not join its neighbours")
		}
	}
}
