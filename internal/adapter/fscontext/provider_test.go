package fscontext_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/overseer-hq/overseer/internal/adapter/fscontext"
	"github.com/overseer-hq/overseer/internal/domain/retrieval"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func retrieve(t *testing.T, root, prompt string, limit int) ([]retrieval.Snippet, *retrieval.Error) {
	t.Helper()
	p := fscontext.New(root)
	return p.Retrieve(context.Background(), retrieval.Query{Prompt: prompt, RootPath: root, Limit: limit})
}

func TestRetrieve_FindsMatchingFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "store.go", "package store\n\nfunc LoadPagination() error { return nil }\n")
	writeFile(t, root, "other.go", "package other\n")

	snippets, retErr := retrieve(t, root, "add pagination support", 0)
	if retErr != nil {
		t.Fatalf("unexpected error: %v", retErr)
	}
	if len(snippets) == 0 {
		t.Fatal("expected at least one snippet")
	}
	found := false
	for _, s := range snippets {
		if strings.HasSuffix(s.Path, "store.go") {
			found = true
			if s.Provider != "filesystem" {
				t.Fatalf("expected provider filesystem, got %q", s.Provider)
			}
			if !strings.Contains(strings.ToLower(s.Content), "pagination") {
				t.Fatalf("expected matched content, got %q", s.Content)
			}
			if s.Score <= 0 {
				t.Fatalf("expected positive score, got %f", s.Score)
			}
		}
	}
	if !found {
		t.Fatalf("expected a snippet from store.go, got %+v", snippets)
	}
}

func TestRetrieve_CollapsesWhitespace(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "notes.txt", "pagination   is\n\n\tneeded here")

	snippets, retErr := retrieve(t, root, "pagination", 0)
	if retErr != nil {
		t.Fatalf("unexpected error: %v", retErr)
	}
	if len(snippets) != 1 {
		t.Fatalf("expected one snippet, got %d", len(snippets))
	}
	if strings.ContainsAny(snippets[0].Content, "\n\t") || strings.Contains(snippets[0].Content, "  ") {
		t.Fatalf("expected collapsed whitespace, got %q", snippets[0].Content)
	}
}

func TestRetrieve_MissingRootIsInvalidRootPath(t *testing.T) {
	_, retErr := retrieve(t, filepath.Join(t.TempDir(), "missing"), "pagination", 0)
	if retErr == nil {
		t.Fatal("expected error for missing root")
	}
	if retErr.Code != retrieval.ErrInvalidRootPath {
		t.Fatalf("expected invalid_root_path, got %s", retErr.Code)
	}
	if retErr.Retryable {
		t.Fatal("invalid_root_path must not be retryable")
	}
}

func TestRetrieve_FileRootIsInvalidRootPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "file.txt", "pagination")

	_, retErr := retrieve(t, filepath.Join(root, "file.txt"), "pagination", 0)
	if retErr == nil || retErr.Code != retrieval.ErrInvalidRootPath {
		t.Fatalf("expected invalid_root_path for non-directory root, got %v", retErr)
	}
}

func TestRetrieve_NoUsableTermsIsInvalidQuery(t *testing.T) {
	_, retErr := retrieve(t, t.TempDir(), "a b c!! --", 0)
	if retErr == nil || retErr.Code != retrieval.ErrInvalidQuery {
		t.Fatalf("expected invalid_query for short tokens, got %v", retErr)
	}
}

func TestRetrieve_NegativeLimitIsInvalidQuery(t *testing.T) {
	_, retErr := retrieve(t, t.TempDir(), "pagination", -2)
	if retErr == nil || retErr.Code != retrieval.ErrInvalidQuery {
		t.Fatalf("expected invalid_query for negative limit, got %v", retErr)
	}
}

func TestRetrieve_RespectsLimit(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		writeFile(t, root, name, "pagination everywhere")
	}

	snippets, retErr := retrieve(t, root, "pagination", 2)
	if retErr != nil {
		t.Fatalf("unexpected error: %v", retErr)
	}
	if len(snippets) != 2 {
		t.Fatalf("expected limit respected, got %d snippets", len(snippets))
	}
}

func TestRetrieve_SkipsBinaryAndIgnoredDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "bin.dat", "pagination\x00binary")
	writeFile(t, root, filepath.Join("node_modules", "dep.js"), "pagination")
	writeFile(t, root, filepath.Join(".git", "config"), "pagination")
	writeFile(t, root, filepath.Join("src", "ok.go"), "pagination")

	snippets, retErr := retrieve(t, root, "pagination", 0)
	if retErr != nil {
		t.Fatalf("unexpected error: %v", retErr)
	}
	if len(snippets) != 1 {
		t.Fatalf("expected only src/ok.go to match, got %+v", snippets)
	}
	if !strings.HasSuffix(snippets[0].Path, "ok.go") {
		t.Fatalf("unexpected snippet %+v", snippets[0])
	}
}

func TestRetrieve_SkipsOversizedFiles(t *testing.T) {
	root := t.TempDir()
	big := strings.Repeat("x", 201*1024) + " pagination"
	writeFile(t, root, "big.txt", big)

	snippets, retErr := retrieve(t, root, "pagination", 0)
	if retErr != nil {
		t.Fatalf("unexpected error: %v", retErr)
	}
	if len(snippets) != 0 {
		t.Fatalf("expected oversized file skipped, got %d snippets", len(snippets))
	}
}
