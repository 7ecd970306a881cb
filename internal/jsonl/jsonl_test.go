package jsonl

import (
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cognicore/reviewcloud/pkg/reviewcloud/ingest"
)

func TestRead(t *testing.T) {
	input := `{"id":"a1","text":"Great zombies game","voted_up":true}

{"id":1002,"text":"Too many zombie enemies","voted_up":false}
not json
{"id":1.5,"text":"fractional id","voted_up":true}
{"id":"a3","text":"no vote"}
`
	var logs bytes.Buffer
	raws, err := Read(strings.NewReader(input), "test", log.New(&logs, "", 0))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(raws) != 3 {
		t.Fatalf("expected 3 records, got %d: %+v", len(raws), raws)
	}
	if raws[1].ID != "1002" || raws[1].VotedUp == nil || *raws[1].VotedUp {
		t.Errorf("numeric id not decoded: %+v", raws[1])
	}
	if raws[2].VotedUp != nil {
		t.Error("missing vote should stay nil")
	}
	if !strings.Contains(logs.String(), "line 4") || !strings.Contains(logs.String(), "line 5") {
		t.Errorf("expected warnings for lines 4 and 5, got %q", logs.String())
	}
}

func TestReadSkipsOversizedLine(t *testing.T) {
	huge := `{"id":"2","text":"` + strings.Repeat("a", 2<<20) + `","voted_up":true}`
	input := `{"id":"1","text":"fun co-op","voted_up":true}` + "\n" +
		huge + "\n" +
		`{"id":"3","text":"servers crash","voted_up":false}`

	var logs bytes.Buffer
	raws, err := Read(strings.NewReader(input), "big", log.New(&logs, "", 0))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(raws) != 2 || raws[0].ID != "1" || raws[1].ID != "3" {
		t.Fatalf("expected records 1 and 3, got %+v", raws)
	}
	if !strings.Contains(logs.String(), "Warning: skipping line 2 in big") {
		t.Errorf("expected warning for line 2, got %q", logs.String())
	}
}

func TestLoadUsesLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mixed.jsonl")
	if err := os.WriteFile(path, []byte("garbage\n{\"id\":\"1\",\"text\":\"fun\",\"voted_up\":true}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var logs bytes.Buffer
	raws, err := Load(path, log.New(&logs, "", 0))
	if err != nil {
		t.Fatal(err)
	}
	if len(raws) != 1 || !strings.Contains(logs.String(), "line 1") {
		t.Errorf("got %d records, logs %q", len(raws), logs.String())
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reviews.jsonl")
	reviews := []ingest.Review{
		{ID: "1", Text: "fun co-op", Positive: true},
		{ID: "2", Text: "servers crash", Positive: false},
	}
	if err := Save(path, reviews); err != nil {
		t.Fatal(err)
	}

	raws, err := Load(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i, raw := range raws {
		rev, err := raw.Review()
		if err != nil {
			t.Fatalf("line %d: %v", i+1, err)
		}
		if rev != reviews[i] {
			t.Errorf("got %+v, want %+v", rev, reviews[i])
		}
	}
}

func TestLoadEmpty(t *testing.T) {
	quiet := log.New(io.Discard, "", 0)
	path := filepath.Join(t.TempDir(), "empty.jsonl")
	if err := os.WriteFile(path, []byte("garbage\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, quiet); err == nil {
		t.Error("expected error for file without reviews")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.jsonl"), quiet); err == nil {
		t.Error("expected error for missing file")
	}
}
