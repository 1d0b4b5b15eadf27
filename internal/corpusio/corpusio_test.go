package corpusio

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ModeEric/RapidSift/internal/filter"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDocuments_Text(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "corpus.txt", "first document\nsecond document\n\nthird document\n")

	docs, err := LoadDocuments(path, FormatText)
	if err != nil {
		t.Fatal(err)
	}

	if len(docs) != 3 {
		t.Fatalf("docs = %d, want 3 (blank line skipped)", len(docs))
	}
	if docs[0].ID != "0" || docs[2].ID != "2" {
		t.Errorf("ids not sequential: %s %s %s", docs[0].ID, docs[1].ID, docs[2].ID)
	}
	if docs[1].Text != "second document" {
		t.Errorf("docs[1] = %q", docs[1].Text)
	}
}

func TestLoadDocuments_JSONArray(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "corpus.json",
		`[{"id":"a","text":"hello","url":"https://x.com"},{"text":"anonymous"}]`)

	docs, err := LoadDocuments(path, FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("docs = %d", len(docs))
	}
	if docs[0].ID != "a" || docs[0].URL != "https://x.com" {
		t.Errorf("docs[0] = %+v", docs[0])
	}
	if docs[1].ID != "1" {
		t.Errorf("missing id not auto-assigned: %q", docs[1].ID)
	}
}

func TestLoadDocuments_NDJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "corpus.jsonl", "{\"id\":\"x\",\"text\":\"one\"}\n{\"id\":\"y\",\"text\":\"two\"}\n")

	docs, err := LoadDocuments(path, FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 || docs[1].Text != "two" {
		t.Fatalf("docs = %+v", docs)
	}
}

func TestLoadDocuments_MalformedJSONAborts(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.json", `[{"id": "a", "text": }]`)

	if _, err := LoadDocuments(path, FormatJSON); err == nil {
		t.Error("expected malformed JSON error")
	}
}

func TestSaveDocuments_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	docs := []filter.Document{
		{ID: "0", Text: "alpha"},
		{ID: "1", Text: "beta", URL: "https://b.example"},
	}

	for _, format := range []Format{FormatText, FormatJSON} {
		ext := map[Format]string{FormatText: "txt", FormatJSON: "json"}[format]
		path := filepath.Join(dir, "out."+ext)

		if err := SaveDocuments(path, docs, format); err != nil {
			t.Fatal(err)
		}

		loaded, err := LoadDocuments(path, format)
		if err != nil {
			t.Fatal(err)
		}
		if len(loaded) != 2 || loaded[0].Text != "alpha" || loaded[1].Text != "beta" {
			t.Errorf("format %v round trip = %+v", format, loaded)
		}
	}
}

func TestLoadDomainList(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "domains.txt", "# comment\nexample.com\nSPAM.NET\n\n")

	domains, err := LoadDomainList(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(domains, []string{"example.com", "spam.net"}) {
		t.Errorf("domains = %v", domains)
	}
}

func TestLoadOptOutList(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "optout.txt", "plain.org\nwithreason.com\tauthor request\n# skip\n")

	entries, err := LoadOptOutList(path)
	if err != nil {
		t.Fatal(err)
	}
	if entries["plain.org"] != "" {
		t.Errorf("plain entry reason = %q", entries["plain.org"])
	}
	if entries["withreason.com"] != "author request" {
		t.Errorf("reason = %q", entries["withreason.com"])
	}
	if len(entries) != 2 {
		t.Errorf("entries = %v", entries)
	}
}

func TestWriteStats(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stats.json")

	stats := filter.NewStats()
	stats.TotalProcessed = 10
	stats.Kept = 7
	stats.Rejected = 2
	stats.Sanitized = 1
	stats.RejectionCounts[filter.ReasonTooShort] = 2

	if err := WriteStats(path, stats); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"total_processed": 10`, `"TooShort": 2`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("stats output missing %q:\n%s", want, data)
		}
	}
}

func TestListBenchmarkFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "squad.txt", "x")
	writeFile(t, dir, "trivia.csv", "x")
	writeFile(t, dir, "notes.md", "x")

	files, err := ListBenchmarkFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Errorf("files = %v, want squad and trivia only", files)
	}
	if _, ok := files["squad"]; !ok {
		t.Errorf("missing squad dataset: %v", files)
	}
}
