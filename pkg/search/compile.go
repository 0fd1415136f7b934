package search

import (
	"strings"

	"github.com/atomicobject/codesearch/pkg/index"
)

// Compile translates a parsed query into a SQLite FTS5 MATCH expression
// and a set of terms to exclude from results after the query runs.
//
// FTS5's NOT operator is strictly binary (left AND NOT right), so a
// leading/standalone NOT has no direct MATCH-syntax equivalent. Rather
// than hand-rolling a second boolean evaluator to cover that one case, any
// term under a NOT is pulled out of the compiled MATCH string and applied
// as a post-query content filter instead — documented as a deliberate
// simplification, not an oversight.
func Compile(n *Node, analyzer *index.Analyzer) (matchExpr string, excludeTerms []string) {
	if n == nil {
		return "", nil
	}
	return compile(n, analyzer)
}

func compile(n *Node, analyzer *index.Analyzer) (string, []string) {
	switch n.Kind {
	case NodeLeaf:
		return compileLeaf(n, analyzer), nil

	case NodeNot:
		return "", collectLeafTerms(n.Left)

	case NodeAnd:
		left, lex := compile(n.Left, analyzer)
		right, rex := compile(n.Right, analyzer)
		excludes := append(lex, rex...)
		return combine(left, right, "AND"), excludes

	case NodeOr:
		left, lex := compile(n.Left, analyzer)
		right, rex := compile(n.Right, analyzer)
		excludes := append(lex, rex...)
		return combine(left, right, "OR"), excludes
	}
	return "", nil
}

func combine(left, right, op string) string {
	switch {
	case left == "" && right == "":
		return ""
	case left == "":
		return right
	case right == "":
		return left
	default:
		return "(" + left + " " + op + " " + right + ")"
	}
}

func compileLeaf(n *Node, analyzer *index.Analyzer) string {
	if n.Phrase {
		return `"` + escapeFTS5(n.Term) + `"`
	}

	tokens := dedupeTokens(analyzer.Tokenize(n.Term))
	if len(tokens) == 0 {
		return `"` + escapeFTS5(strings.ToLower(n.Term)) + `"`
	}
	if len(tokens) == 1 {
		return `"` + escapeFTS5(tokens[0]) + `"`
	}

	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = `"` + escapeFTS5(t) + `"`
	}
	return "(" + strings.Join(quoted, " AND ") + ")"
}

// dedupeTokens drops repeats while keeping first-seen order; Analyzer.Tokenize
// deliberately emits the same whole-word token twice (once as itself, once
// via its case-split expansion) per spec §4.4, which would otherwise compile
// to a redundant "x" AND "x" clause.
func dedupeTokens(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func escapeFTS5(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}

// collectLeafTerms gathers every leaf term under a subtree, for building
// the exclude set under a NOT.
func collectLeafTerms(n *Node) []string {
	if n == nil {
		return nil
	}
	if n.Kind == NodeLeaf {
		return []string{strings.ToLower(n.Term)}
	}
	var out []string
	out = append(out, collectLeafTerms(n.Left)...)
	out = append(out, collectLeafTerms(n.Right)...)
	return out
}
