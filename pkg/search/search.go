package search

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/atomicobject/codesearch/pkg/errs"
	"github.com/atomicobject/codesearch/pkg/index"
)

// searchManager is the subset of *index.Manager the Service depends on.
type searchManager interface {
	Search(ctx context.Context, workspacePath string, matchExpr string, limit int) ([]index.SearchHit, error)
	ContentTokens(ctx context.Context, workspacePath string, path string) (string, error)
}

// Service answers the five query kinds spec §1 lists (text/file/
// directory/recency/similarity) against one index.Manager.
type Service struct {
	manager  searchManager
	analyzer *index.Analyzer
}

// New builds a Service over manager.
func New(manager *index.Manager) *Service {
	return &Service{manager: manager, analyzer: index.NewAnalyzer()}
}

// Result is one ranked match returned to a caller.
type Result struct {
	index.SearchHit
}

// SearchText answers a boolean content query (spec §4.8's query layer
// home): parses the boolean expression, compiles it to FTS5 MATCH syntax,
// and applies any NOT-excluded terms as a post-query content filter.
func (s *Service) SearchText(ctx context.Context, workspacePath, query string, limit int) ([]Result, error) {
	node, err := Parse(query)
	if err != nil {
		return nil, errs.New(errs.InvalidPattern, "invalid search query", err)
	}
	if node == nil {
		return nil, nil
	}

	matchExpr, excludes := Compile(node, s.analyzer)
	if matchExpr == "" {
		return nil, nil
	}

	hits, err := s.manager.Search(ctx, workspacePath, matchExpr, limit)
	if err != nil {
		return nil, errs.New(errs.Transient, "search failed", err)
	}

	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		if matchesExcludedTerm(h, excludes) {
			continue
		}
		results = append(results, Result{SearchHit: h})
	}
	return results, nil
}

// matchesExcludedTerm reports whether a hit's path/filename carries any
// excluded term; content-level exclusion would require re-reading the
// document body, which the query layer intentionally keeps out of scope
// (see Compile's doc comment).
func matchesExcludedTerm(h index.SearchHit, excludes []string) bool {
	haystack := strings.ToLower(h.RelativePath)
	for _, term := range excludes {
		if term != "" && strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}

// SearchFiles answers a filename-glob query by fetching a broad candidate
// set from the index and fuzzy-matching paths in Go, since FTS5 has no
// path-fuzzy-match primitive of its own.
func (s *Service) SearchFiles(ctx context.Context, workspacePath, pattern string, limit int) ([]Result, error) {
	candidates, err := s.manager.Search(ctx, workspacePath, "*", candidatePoolSize(limit))
	if err != nil {
		return nil, errs.New(errs.Transient, "search failed", err)
	}

	var results []Result
	for _, h := range candidates {
		if FuzzyMatchPath(pattern, h.RelativePath) {
			results = append(results, Result{SearchHit: h})
			if len(results) >= limit {
				break
			}
		}
	}
	return results, nil
}

// SearchDirectory answers a directory-scoped query: every indexed file
// whose relative path starts with the given directory prefix.
func (s *Service) SearchDirectory(ctx context.Context, workspacePath, directory string, limit int) ([]Result, error) {
	prefix := strings.Trim(strings.ToLower(strings.ReplaceAll(directory, "\\", "/")), "/") + "/"
	candidates, err := s.manager.Search(ctx, workspacePath, "*", candidatePoolSize(limit))
	if err != nil {
		return nil, errs.New(errs.Transient, "search failed", err)
	}

	var results []Result
	for _, h := range candidates {
		rel := strings.ToLower(strings.ReplaceAll(h.RelativePath, "\\", "/"))
		if strings.HasPrefix(rel, prefix) {
			results = append(results, Result{SearchHit: h})
			if len(results) >= limit {
				break
			}
		}
	}
	return results, nil
}

// recencyHalfLife is the decay constant spec §4.3's "illustrative
// weighting" suggests: a 7-day half-life on last_modified, boosting
// recently-touched files. Build-config extensions decay twice as fast,
// documentation extensions decay half as fast, matching the spec's "build
// artifacts decay faster, config/docs decay slower" guidance. Resolved as
// an Open Question decision in DESIGN.md rather than left unimplemented.
const recencyHalfLife = 7 * 24 * time.Hour

var fastDecayExtensions = map[string]bool{".lock": true, ".log": true, ".map": true}
var slowDecayExtensions = map[string]bool{".md": true, ".yaml": true, ".yml": true, ".json": true, ".toml": true}

// SearchRecency answers a text query re-ranked by a recency boost layered
// on top of FTS5's bm25 relevance score.
func (s *Service) SearchRecency(ctx context.Context, workspacePath, query string, limit int) ([]Result, error) {
	results, err := s.SearchText(ctx, workspacePath, query, candidatePoolSize(limit))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sort.SliceStable(results, func(i, j int) bool {
		return recencyScore(results[i].SearchHit, now) > recencyScore(results[j].SearchHit, now)
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func recencyScore(h index.SearchHit, now time.Time) float64 {
	halfLife := recencyHalfLife
	switch {
	case fastDecayExtensions[h.Extension]:
		halfLife /= 2
	case slowDecayExtensions[h.Extension]:
		halfLife *= 2
	}

	age := now.Sub(h.LastModified)
	if age < 0 {
		age = 0
	}
	decay := math.Exp(-math.Ln2 * age.Hours() / halfLife.Hours())

	// bm25 in SQLite is a cost (lower is better); invert so higher relevance
	// contributes positively alongside the recency boost.
	relevance := 1.0 / (1.0 + math.Max(h.Score, 0))
	return relevance * decay
}

// SearchSimilarity answers a structural-similarity query: documents
// sharing the most indexed tokens with the reference path, via an FTS5
// MATCH over the reference document's own tokens. This is lexical/
// structural overlap, not semantic embedding similarity — the spec's
// Non-goals exclude "semantic analysis beyond grammar extraction", so
// there is no embedding model to compare against here.
func (s *Service) SearchSimilarity(ctx context.Context, workspacePath, referencePath string, limit int) ([]Result, error) {
	tokens, err := s.manager.ContentTokens(ctx, workspacePath, referencePath)
	if err != nil {
		return nil, errs.New(errs.Transient, "failed to read reference document", err)
	}
	if strings.TrimSpace(tokens) == "" {
		return nil, errs.New(errs.NotIndexed, "reference path is not indexed: "+referencePath, nil)
	}

	matchExpr := orJoinTokens(tokens)
	if matchExpr == "" {
		return nil, nil
	}

	hits, err := s.manager.Search(ctx, workspacePath, matchExpr, limit+1)
	if err != nil {
		return nil, errs.New(errs.Transient, "search failed", err)
	}

	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		if h.Path == referencePath {
			continue
		}
		results = append(results, Result{SearchHit: h})
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

func orJoinTokens(tokens string) string {
	fields := strings.Fields(tokens)
	if len(fields) == 0 {
		return ""
	}
	seen := make(map[string]bool, len(fields))
	var parts []string
	for _, f := range fields {
		if seen[f] {
			continue
		}
		seen[f] = true
		parts = append(parts, `"`+escapeFTS5(f)+`"`)
		if len(parts) >= 32 {
			break // cap query fan-out; the most common shared tokens still dominate bm25 ranking
		}
	}
	return strings.Join(parts, " OR ")
}

func candidatePoolSize(limit int) int {
	pool := limit * 5
	if pool < 100 {
		pool = 100
	}
	return pool
}
