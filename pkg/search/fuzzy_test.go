package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFuzzyMatchPath(t *testing.T) {
	t.Run("empty pattern or path never matches", func(t *testing.T) {
		assert.False(t, FuzzyMatchPath("", "pkg/search/query.go"))
		assert.False(t, FuzzyMatchPath("query", ""))
	})

	t.Run("plain word matches anywhere in the path", func(t *testing.T) {
		assert.True(t, FuzzyMatchPath("query", "pkg/search/query.go"))
	})

	t.Run("words must appear in order", func(t *testing.T) {
		assert.True(t, FuzzyMatchPath("search query", "pkg/search/query.go"))
		assert.False(t, FuzzyMatchPath("query search", "pkg/search/query.go"))
	})

	t.Run("directory specifier restricts to the first path segment", func(t *testing.T) {
		// Arrange / Act / Assert
		assert.True(t, FuzzyMatchPath("pkg/query", "pkg/search/query.go"))
		assert.False(t, FuzzyMatchPath("cmd/query", "pkg/search/query.go"))
	})

	t.Run("single-letter directory specifier matches by prefix", func(t *testing.T) {
		assert.True(t, FuzzyMatchPath("p/query", "pkg/search/query.go"))
	})

	t.Run("more than one slash never matches", func(t *testing.T) {
		assert.False(t, FuzzyMatchPath("a/b/c", "pkg/search/query.go"))
	})

	t.Run("dotted pattern matches per path segment", func(t *testing.T) {
		assert.True(t, FuzzyMatchPath("query.go", "pkg/search/query.go"))
	})

	t.Run("wildcard star matches across a segment", func(t *testing.T) {
		assert.True(t, FuzzyMatchPath("que*.go", "pkg/search/query.go"))
	})

	t.Run("wildcard in a directory specifier matches the first path segment", func(t *testing.T) {
		assert.True(t, FuzzyMatchPath("s*/query", "search/query.go"))
		assert.False(t, FuzzyMatchPath("s*/query", "pkg/search/query.go"))
	})

	t.Run("case insensitive", func(t *testing.T) {
		assert.True(t, FuzzyMatchPath("QUERY", "pkg/search/query.go"))
	})
}

func TestWildcardToRegex(t *testing.T) {
	t.Run("escapes regex metacharacters", func(t *testing.T) {
		assert.Equal(t, `foo\.bar`, wildcardToRegex("foo.bar"))
	})

	t.Run("translates wildcards", func(t *testing.T) {
		assert.Equal(t, `foo.*bar.`, wildcardToRegex("foo*bar?"))
	})
}
