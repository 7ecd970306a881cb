package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cognicore/reviewcloud/pkg/reviewcloud/store/sqlite"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFixtures(t *testing.T) (dir, cfgPath, input string) {
	t.Helper()
	dir = t.TempDir()

	cfgPath = filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("seed: 7\ndelayed_mode_threshold: 0\nmax_items: 20\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	texts := []struct {
		text string
		up   bool
	}{
		{"Zombies!", true},
		{"Co-op campaign with friends is amazing", true},
		{"Servers crash constantly", false},
	}
	var sb strings.Builder
	for i := 0; i < 6; i++ {
		tx := texts[i%len(texts)]
		fmt.Fprintf(&sb, `{"id":%d,"text":%q,"voted_up":%v}`+"\n", i+1, tx.text, tx.up)
	}
	sb.WriteString("this line is broken\n")
	input = filepath.Join(dir, "reviews.jsonl")
	if err := os.WriteFile(input, []byte(sb.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir, cfgPath, input
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "reviewcloud "+Version) {
		t.Errorf("unexpected output %q", out)
	}
}

func TestTermsCommand(t *testing.T) {
	_, cfgPath, input := writeFixtures(t)

	out, err := execute(t, "terms", "--config", cfgPath, "--input", input, "--db=", "--limit", "5")
	if err != nil {
		t.Fatalf("terms failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if !strings.HasPrefix(lines[0], "TERM") {
		t.Errorf("missing header: %q", out)
	}
	if len(lines) < 2 || len(lines) > 6 {
		t.Errorf("expected 1..5 terms, got %d lines", len(lines))
	}
	if !strings.Contains(out, "zombies") {
		t.Errorf("expected zombies in output:\n%s", out)
	}
}

func TestBuildCommand(t *testing.T) {
	dir, cfgPath, input := writeFixtures(t)
	db := filepath.Join(dir, "reviews.db")
	jsonPath := filepath.Join(dir, "cloud.json")
	svgPath := filepath.Join(dir, "cloud.svg")

	_, err := execute(t, "build", "--config", cfgPath,
		"--input", input, "--db", db, "--app", "550",
		"--title", "Left 4 Dead 2", "--json", jsonPath, "--svg", svgPath)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Items []struct {
			Text string `json:"text"`
		} `json:"items"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if doc.Title != "Left 4 Dead 2" || len(doc.Items) == 0 {
		t.Errorf("unexpected cloud %+v", doc)
	}

	svg, err := os.ReadFile(svgPath)
	if err != nil || !bytes.HasPrefix(bytes.TrimSpace(svg), []byte("<svg")) {
		t.Errorf("expected SVG output, err=%v", err)
	}

	ctx := context.Background()
	st, err := sqlite.OpenSQLite(ctx, db)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	if n, _ := st.CountReviews(ctx, "550"); n != 6 {
		t.Errorf("expected 6 imported reviews, got %d", n)
	}
	saved, ok, err := st.LatestCloud(ctx, "550")
	if err != nil || !ok || saved.ID != doc.ID {
		t.Errorf("expected saved cloud %s, got ok=%v err=%v", doc.ID, ok, err)
	}
}

func TestBuildRequiresSource(t *testing.T) {
	_, cfgPath, _ := writeFixtures(t)
	if _, err := execute(t, "build", "--config", cfgPath, "--input=", "--db="); err == nil {
		t.Error("expected error without --input or --db")
	}
	if _, err := execute(t, "build", "--config", cfgPath, "--input=", "--db", "x.db", "--app="); err == nil {
		t.Error("expected error for --db without --app")
	}
}

func TestFetchCommand(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/app/550/", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<div class="apphub_AppName">Left 4 Dead 2</div>`)
	})
	mux.HandleFunc("/appreviews/550", func(w http.ResponseWriter, r *http.Request) {
		offset := r.URL.Query().Get("start_offset")
		html := fmt.Sprintf(`<div class="review_box"><div class="thumb">thumbsUp</div><div class="content" id="ReviewContentall9%s">Fun co-op</div></div>`, offset)
		json.NewEncoder(w).Encode(map[string]any{"success": 1, "html": html})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	dir, cfgPath, _ := writeFixtures(t)
	db := filepath.Join(dir, "fetched.db")
	out := filepath.Join(dir, "fetched.jsonl")

	stdout, err := execute(t, "fetch", "550", "--config", cfgPath,
		"--base-url", srv.URL, "--rate", "1000", "--pages", "3", "--db", db, "--out", out)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if !strings.Contains(stdout, "Fetched 3 reviews for Left 4 Dead 2 (3 new)") {
		t.Errorf("unexpected output %q", stdout)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "\n"); n != 3 {
		t.Errorf("expected 3 JSONL lines, got %d", n)
	}
}

func TestFetchThenBuildExcludesAppName(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/app/550/", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<div class="apphub_AppName">Left 4 Dead 2</div>`)
	})
	mux.HandleFunc("/appreviews/550", func(w http.ResponseWriter, r *http.Request) {
		offset := r.URL.Query().Get("start_offset")
		html := fmt.Sprintf(`
<div class="review_box"><div class="thumb">thumbsUp</div><div class="content" id="ReviewContentall1%s0">Left 4 Dead 2. Zombies everywhere</div></div>
<div class="review_box"><div class="thumb">thumbsDown</div><div class="content" id="ReviewContentall1%s1">Dead. Left. Servers crash</div></div>`, offset, offset)
		json.NewEncoder(w).Encode(map[string]any{"success": 1, "html": html})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	dir, cfgPath, _ := writeFixtures(t)
	db := filepath.Join(dir, "l4d2.db")
	jsonPath := filepath.Join(dir, "l4d2.json")

	if _, err := execute(t, "fetch", "550", "--config", cfgPath,
		"--base-url", srv.URL, "--rate", "1000", "--pages", "3", "--db", db, "--out="); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if _, err := execute(t, "build", "--config", cfgPath,
		"--input=", "--db", db, "--app", "550", "--title=", "--json", jsonPath, "--svg="); err != nil {
		t.Fatalf("build failed: %v", err)
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Title string `json:"title"`
		Items []struct {
			Text string `json:"text"`
		} `json:"items"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if doc.Title != "Left 4 Dead 2" {
		t.Errorf("expected title from saved app name, got %q", doc.Title)
	}
	nameParts := map[string]bool{"left": true, "dead": true, "left 4": true, "4 dead": true, "left 4 dead": true, "left 4 dead 2": true}
	for _, item := range doc.Items {
		if nameParts[item.Text] {
			t.Errorf("app name part %q reached the cloud", item.Text)
		}
	}
}

func TestConfigInitAndShow(t *testing.T) {
	dir, cfgPath, _ := writeFixtures(t)
	target := filepath.Join(dir, "nested", "config.yaml")

	if _, err := execute(t, "config", "init", "--config", cfgPath, "--path", target); err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "max_items: 20") {
		t.Errorf("init should write the effective config:\n%s", data)
	}
	if _, err := execute(t, "config", "init", "--config", cfgPath, "--path", target); err == nil {
		t.Error("expected error when config exists")
	}

	out, err := execute(t, "config", "show", "--config", target)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "spiral_shape: elliptical") || !strings.Contains(out, "seed: 7") {
		t.Errorf("unexpected config show output:\n%s", out)
	}
}
