// Package fscontext implements the context provider port with a bounded
// breadth-first scan of a workspace directory tree.
package fscontext

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/overseer-hq/overseer/internal/domain/retrieval"
	"github.com/overseer-hq/overseer/internal/port/contextprovider"
)

// ProviderID is the id this provider registers under.
const ProviderID = "filesystem"

const (
	// maxFilesVisited caps the walk so retrieval latency stays bounded.
	maxFilesVisited = 250
	// maxFileSize skips files larger than 200 KB.
	maxFileSize = 200 * 1024
	// defaultLimit is the snippet count used when the query does not set one.
	defaultLimit = 5
	// snippetBefore/snippetAfter bound the extracted window around a match.
	snippetBefore = 100
	snippetAfter  = 220
	// minTermLength is the shortest usable search term.
	minTermLength = 3
)

// skippedDirs are never descended into.
var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"dist":         true,
	"coverage":     true,
}

// Provider scans a root directory for files matching prompt-derived terms.
type Provider struct {
	rootPath string
}

var _ contextprovider.Provider = (*Provider)(nil)

// New creates a filesystem provider rooted at rootPath. A leading "~" is
// expanded when the provider runs, not here, so a query-level root can
// still override it.
func New(rootPath string) *Provider {
	return &Provider{rootPath: rootPath}
}

// ID implements contextprovider.Provider.
func (p *Provider) ID() string { return ProviderID }

// Retrieve implements contextprovider.Provider. Per-file read errors are
// swallowed; retrieval is best-effort over whatever it can read.
func (p *Provider) Retrieve(ctx context.Context, query retrieval.Query) ([]retrieval.Snippet, *retrieval.Error) {
	terms := searchTerms(query.Prompt)
	if len(terms) == 0 {
		return nil, &retrieval.Error{
			Code:        retrieval.ErrInvalidQuery,
			Message:     "The prompt contains no usable search terms.",
			Remediation: "Use a prompt with at least one word of three or more letters or digits.",
			Retryable:   false,
			ProviderID:  ProviderID,
		}
	}

	limit := query.Limit
	if limit == 0 {
		limit = defaultLimit
	}
	if limit < 0 {
		return nil, &retrieval.Error{
			Code:        retrieval.ErrInvalidQuery,
			Message:     fmt.Sprintf("Snippet limit %d is not a positive integer.", query.Limit),
			Remediation: "Request a positive snippet limit.",
			Retryable:   false,
			ProviderID:  ProviderID,
		}
	}

	root := query.RootPath
	if root == "" {
		root = p.rootPath
	}
	root, err := expandHome(root)
	if err != nil {
		return nil, invalidRoot(root, err.Error())
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		detail := "it is not a directory"
		if err != nil {
			detail = err.Error()
		}
		return nil, invalidRoot(root, detail)
	}

	return p.scan(ctx, root, terms, limit), nil
}

// scan walks the tree breadth-first, collecting up to limit snippets.
func (p *Provider) scan(ctx context.Context, root string, terms []string, limit int) []retrieval.Snippet {
	var snippets []retrieval.Snippet
	visited := 0
	queue := []string{root}

	for len(queue) > 0 && visited < maxFilesVisited && len(snippets) < limit {
		if ctx.Err() != nil {
			break
		}
		dir := queue[0]
		queue = queue[1:]

		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if visited >= maxFilesVisited || len(snippets) >= limit {
				break
			}
			name := entry.Name()
			full := filepath.Join(dir, name)

			if entry.Type()&os.ModeSymlink != 0 {
				continue
			}
			if entry.IsDir() {
				if !skippedDirs[name] {
					queue = append(queue, full)
				}
				continue
			}

			visited++
			if snippet, ok := p.extract(root, full, entry, terms); ok {
				snippets = append(snippets, snippet)
			}
		}
	}

	return snippets
}

// extract reads one file and returns a snippet around the first term match.
func (p *Provider) extract(root, path string, entry os.DirEntry, terms []string) (retrieval.Snippet, bool) {
	info, err := entry.Info()
	if err != nil || info.Size() > maxFileSize {
		return retrieval.Snippet{}, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return retrieval.Snippet{}, false
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return retrieval.Snippet{}, false
	}

	lower := strings.ToLower(string(data))
	matchIdx := -1
	matchedTerms := 0
	for _, term := range terms {
		idx := strings.Index(lower, term)
		if idx < 0 {
			continue
		}
		matchedTerms++
		if matchIdx < 0 || idx < matchIdx {
			matchIdx = idx
		}
	}
	if matchIdx < 0 {
		return retrieval.Snippet{}, false
	}

	start := matchIdx - snippetBefore
	if start < 0 {
		start = 0
	}
	end := matchIdx + snippetAfter
	if end > len(data) {
		end = len(data)
	}
	content := strings.TrimSpace(collapseWhitespace(string(data[start:end])))

	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}

	return retrieval.Snippet{
		ID:       uuid.NewString(),
		Provider: ProviderID,
		Path:     rel,
		Source:   path,
		Content:  content,
		Score:    float64(matchedTerms) / float64(len(terms)),
	}, true
}

// searchTerms tokenizes the prompt into deduplicated lower-cased
// alphanumeric runs of at least three characters.
func searchTerms(prompt string) []string {
	var terms []string
	seen := make(map[string]bool)
	var current strings.Builder

	flush := func() {
		if current.Len() >= minTermLength {
			term := current.String()
			if !seen[term] {
				seen[term] = true
				terms = append(terms, term)
			}
		}
		current.Reset()
	}

	for _, r := range strings.ToLower(prompt) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			current.WriteRune(r)
			continue
		}
		flush()
	}
	flush()

	return terms
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path, fmt.Errorf("resolve home directory: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

func invalidRoot(root, detail string) *retrieval.Error {
	return &retrieval.Error{
		Code:        retrieval.ErrInvalidRootPath,
		Message:     fmt.Sprintf("Context root %q is not usable: %s.", root, detail),
		Remediation: "Point the space at an existing directory.",
		Retryable:   false,
		ProviderID:  ProviderID,
	}
}
