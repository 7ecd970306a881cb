package ingest

import (
	"reflect"
	"sort"
	"testing"
)

func collect(e *Extractor, text string, minWords, maxWords int) []string {
	var out []string
	for term := range e.Extract(text, minWords, maxWords) {
		out = append(out, term)
	}
	sort.Strings(out)
	return out
}

func TestClausesSplitOnPunctuation(t *testing.T) {
	e := NewExtractor()

	got := e.Clauses("great zombies game, love the zombies!")
	want := [][]string{{"great", "zombies", "game"}, {"love", "the", "zombies"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestClausesInteriorPunctuation(t *testing.T) {
	e := NewExtractor()

	tests := []struct {
		text string
		want [][]string
	}{
		{"don't buy", [][]string{{"don't", "buy"}}},
		{"free-to-play title", [][]string{{"free-to-play", "title"}}},
		{"solid 10/10 experience", [][]string{{"solid", "10/10", "experience"}}},
		{"and/or", [][]string{{"and"}, {"or"}}},
		{"two  spaces", [][]string{{"two"}, {"spaces"}}},
		{"before - after", [][]string{{"before"}, {"after"}}},
		{"'quoted' words", [][]string{{"quoted", "words"}}},
	}

	for _, tt := range tests {
		got := e.Clauses(tt.text)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Clauses(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestExtractNgrams(t *testing.T) {
	e := NewExtractor()

	got := collect(e, "first person shooter", 1, 3)
	want := []string{
		"first", "first person", "first person shooter",
		"person", "person shooter", "shooter",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestExtractRespectsWindow(t *testing.T) {
	e := NewExtractor()

	got := collect(e, "a b c d", 2, 3)
	want := []string{"a b", "a b c", "b c", "b c d", "c d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	if got := collect(e, "a b c", 3, 2); len(got) != 0 {
		t.Errorf("Expected nothing when max < min, got %v", got)
	}
}

func TestExtractDeduplicatesWithinText(t *testing.T) {
	e := NewExtractor()

	got := collect(e, "zombies everywhere. zombies!", 1, 1)
	want := []string{"everywhere", "zombies"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestExtractDoesNotCrossClauses(t *testing.T) {
	e := NewExtractor()

	for term := range e.Extract("good story. bad ending", 2, 2) {
		if term == "story bad" {
			t.Error("n-gram should not span a clause boundary")
		}
	}
}

func TestExtractRestartable(t *testing.T) {
	e := NewExtractor()
	seq := e.Extract("one two three", 1, 2)

	first := 0
	for range seq {
		first++
	}
	second := 0
	for range seq {
		second++
	}
	if first != 5 || second != first {
		t.Errorf("Expected 5 terms on both passes, got %d and %d", first, second)
	}
}

func TestExtractEarlyStop(t *testing.T) {
	e := NewExtractor()

	n := 0
	for range e.Extract("a b c d e f", 1, 3) {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("Expected iteration to stop at 2, got %d", n)
	}
}
