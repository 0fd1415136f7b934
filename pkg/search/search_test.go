package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomicobject/codesearch/pkg/index"
)

type fakeManager struct {
	hits          []index.SearchHit
	tokens        map[string]string
	searchErr     error
	tokensErr     error
	lastMatchExpr string
}

func (f *fakeManager) Search(ctx context.Context, workspacePath string, matchExpr string, limit int) ([]index.SearchHit, error) {
	f.lastMatchExpr = matchExpr
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if limit > 0 && limit < len(f.hits) {
		return f.hits[:limit], nil
	}
	return f.hits, nil
}

func (f *fakeManager) ContentTokens(ctx context.Context, workspacePath string, path string) (string, error) {
	if f.tokensErr != nil {
		return "", f.tokensErr
	}
	return f.tokens[path], nil
}

func newServiceWithHits(hits []index.SearchHit) (*Service, *fakeManager) {
	fm := &fakeManager{hits: hits, tokens: map[string]string{}}
	return &Service{manager: fm, analyzer: index.NewAnalyzer()}, fm
}

func TestServiceSearchText(t *testing.T) {
	t.Run("empty query returns no results and no error", func(t *testing.T) {
		// Arrange
		svc, _ := newServiceWithHits(nil)

		// Act
		results, err := svc.SearchText(context.Background(), "/ws", "   ", 10)

		// Assert
		require.NoError(t, err)
		assert.Nil(t, results)
	})

	t.Run("invalid query syntax is an error", func(t *testing.T) {
		// Arrange
		svc, _ := newServiceWithHits(nil)

		// Act
		_, err := svc.SearchText(context.Background(), "/ws", "(foo", 10)

		// Assert
		assert.Error(t, err)
	})

	t.Run("compiles the query and returns manager hits", func(t *testing.T) {
		// Arrange
		hits := []index.SearchHit{{Path: "/ws/a.go", RelativePath: "a.go"}}
		svc, fm := newServiceWithHits(hits)

		// Act
		results, err := svc.SearchText(context.Background(), "/ws", "foo", 10)

		// Assert
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "a.go", results[0].RelativePath)
		assert.Equal(t, `"foo"`, fm.lastMatchExpr)
	})

	t.Run("excluded terms filter matching paths out of the result set", func(t *testing.T) {
		// Arrange
		hits := []index.SearchHit{
			{Path: "/ws/foo_test.go", RelativePath: "foo_test.go"},
			{Path: "/ws/bar.go", RelativePath: "bar.go"},
		}
		svc, _ := newServiceWithHits(hits)

		// Act
		results, err := svc.SearchText(context.Background(), "/ws", "go AND NOT test", 10)

		// Assert
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "bar.go", results[0].RelativePath)
	})
}

func TestServiceSearchFiles(t *testing.T) {
	t.Run("fuzzy matches candidate paths", func(t *testing.T) {
		// Arrange
		hits := []index.SearchHit{
			{Path: "/ws/pkg/search/query.go", RelativePath: "pkg/search/query.go"},
			{Path: "/ws/pkg/index/store.go", RelativePath: "pkg/index/store.go"},
		}
		svc, _ := newServiceWithHits(hits)

		// Act
		results, err := svc.SearchFiles(context.Background(), "/ws", "query", 10)

		// Assert
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "pkg/search/query.go", results[0].RelativePath)
	})

	t.Run("honors the limit", func(t *testing.T) {
		// Arrange
		hits := []index.SearchHit{
			{Path: "/ws/a/query.go", RelativePath: "a/query.go"},
			{Path: "/ws/b/query.go", RelativePath: "b/query.go"},
		}
		svc, _ := newServiceWithHits(hits)

		// Act
		results, err := svc.SearchFiles(context.Background(), "/ws", "query", 1)

		// Assert
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})
}

func TestServiceSearchDirectory(t *testing.T) {
	t.Run("keeps only paths under the requested directory", func(t *testing.T) {
		// Arrange
		hits := []index.SearchHit{
			{Path: "/ws/pkg/search/query.go", RelativePath: "pkg/search/query.go"},
			{Path: "/ws/pkg/index/store.go", RelativePath: "pkg/index/store.go"},
			{Path: "/ws/cmd/main.go", RelativePath: "cmd/main.go"},
		}
		svc, _ := newServiceWithHits(hits)

		// Act
		results, err := svc.SearchDirectory(context.Background(), "/ws", "pkg/search", 10)

		// Assert
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "pkg/search/query.go", results[0].RelativePath)
	})
}

func TestServiceSearchRecency(t *testing.T) {
	t.Run("ranks the more recently modified hit first", func(t *testing.T) {
		// Arrange
		now := time.Now()
		hits := []index.SearchHit{
			{Path: "/ws/old.go", RelativePath: "old.go", LastModified: now.Add(-30 * 24 * time.Hour), Score: 0},
			{Path: "/ws/new.go", RelativePath: "new.go", LastModified: now.Add(-1 * time.Hour), Score: 0},
		}
		svc, _ := newServiceWithHits(hits)

		// Act
		results, err := svc.SearchRecency(context.Background(), "/ws", "foo", 10)

		// Assert
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "new.go", results[0].RelativePath)
	})

	t.Run("fast-decay extensions lose their recency edge sooner", func(t *testing.T) {
		// Arrange
		now := time.Now()
		older := now.Add(-3 * 24 * time.Hour)
		hit := index.SearchHit{RelativePath: "a.lock", Extension: ".lock", LastModified: older}
		docHit := index.SearchHit{RelativePath: "a.md", Extension: ".md", LastModified: older}

		// Act
		lockScore := recencyScore(hit, now)
		docScore := recencyScore(docHit, now)

		// Assert: same age, but .md decays slower than .lock
		assert.Greater(t, docScore, lockScore)
	})
}

func TestServiceSearchSimilarity(t *testing.T) {
	t.Run("unindexed reference path is an error", func(t *testing.T) {
		// Arrange
		svc, _ := newServiceWithHits(nil)

		// Act
		_, err := svc.SearchSimilarity(context.Background(), "/ws", "missing.go", 10)

		// Assert
		assert.Error(t, err)
	})

	t.Run("excludes the reference document from its own similarity results", func(t *testing.T) {
		// Arrange
		hits := []index.SearchHit{
			{Path: "/ws/a.go", RelativePath: "a.go"},
			{Path: "/ws/b.go", RelativePath: "b.go"},
		}
		svc, fm := newServiceWithHits(hits)
		fm.tokens["/ws/a.go"] = "foo bar foo baz"

		// Act
		results, err := svc.SearchSimilarity(context.Background(), "/ws", "/ws/a.go", 10)

		// Assert
		require.NoError(t, err)
		for _, r := range results {
			assert.NotEqual(t, "/ws/a.go", r.Path)
		}
		assert.Contains(t, fm.lastMatchExpr, "OR")
	})
}
