package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomicobject/codesearch/pkg/index"
)

func TestCompile(t *testing.T) {
	analyzer := index.NewAnalyzer()

	t.Run("nil node compiles to empty expression", func(t *testing.T) {
		// Act
		expr, excludes := Compile(nil, analyzer)

		// Assert
		assert.Empty(t, expr)
		assert.Nil(t, excludes)
	})

	t.Run("single leaf compiles to a quoted term", func(t *testing.T) {
		// Arrange
		node, err := Parse("foo")
		require.NoError(t, err)

		// Act
		expr, excludes := Compile(node, analyzer)

		// Assert
		assert.Equal(t, `"foo"`, expr)
		assert.Empty(t, excludes)
	})

	t.Run("quoted phrase is not tokenized", func(t *testing.T) {
		// Arrange
		node, err := Parse(`"HelloWorld"`)
		require.NoError(t, err)

		// Act
		expr, _ := Compile(node, analyzer)

		// Assert
		assert.Equal(t, `"HelloWorld"`, expr)
	})

	t.Run("unquoted camelCase term expands to its split and whole-word tokens", func(t *testing.T) {
		// Arrange
		node, err := Parse("HelloWorld")
		require.NoError(t, err)

		// Act
		expr, _ := Compile(node, analyzer)

		// Assert
		assert.Equal(t, `("hello" AND "world" AND "HelloWorld")`, expr)
	})

	t.Run("AND node combines both sides", func(t *testing.T) {
		// Arrange
		node, err := Parse("foo AND bar")
		require.NoError(t, err)

		// Act
		expr, excludes := Compile(node, analyzer)

		// Assert
		assert.Equal(t, `("foo" AND "bar")`, expr)
		assert.Empty(t, excludes)
	})

	t.Run("leading NOT is excluded from the MATCH expression", func(t *testing.T) {
		// Arrange
		node, err := Parse("NOT foo")
		require.NoError(t, err)

		// Act
		expr, excludes := Compile(node, analyzer)

		// Assert
		assert.Empty(t, expr)
		assert.Equal(t, []string{"foo"}, excludes)
	})

	t.Run("AND NOT keeps the positive side and collects the excluded term", func(t *testing.T) {
		// Arrange
		node, err := Parse("foo AND NOT bar")
		require.NoError(t, err)

		// Act
		expr, excludes := Compile(node, analyzer)

		// Assert
		assert.Equal(t, `"foo"`, expr)
		assert.Equal(t, []string{"bar"}, excludes)
	})

	t.Run("escapes embedded quotes", func(t *testing.T) {
		assert.Equal(t, `foo ""bar""`, escapeFTS5(`foo "bar"`))
	})
}
