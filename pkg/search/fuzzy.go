package search

import (
	"regexp"
	"strings"
)

// FuzzyMatchPath reports whether pattern matches a relative file path,
// used by the search_files query kind. Adapted from the teacher's
// pkg/obsidian/file_filtering.go FuzzyMatch, which is domain-agnostic path
// matching (directory-prefix + word-boundary content matching, with
// shell-style wildcards) rather than anything vault-specific.
func FuzzyMatchPath(pattern, path string) bool {
	if pattern == "" || path == "" {
		return false
	}

	hasDirectorySpecifier := strings.Contains(pattern, "/")
	if hasDirectorySpecifier && strings.Count(pattern, "/") > 1 {
		return false
	}

	patternLower := strings.ToLower(pattern)
	pathLower := strings.ToLower(path)

	if hasDirectorySpecifier {
		dirPattern, contentPattern := splitDirectoryAndContent(patternLower)
		if !matchesDirectory(dirPattern, pathLower) {
			return false
		}
		if contentPattern != "" {
			parts := strings.SplitN(pathLower, "/", 2)
			if len(parts) < 2 {
				return false
			}
			return matchesContent(contentPattern, parts[1])
		}
		return true
	}

	if strings.Contains(patternLower, ".") {
		return matchesDottedPattern(patternLower, pathLower)
	}
	return matchesContentOnly(patternLower, pathLower)
}

func splitDirectoryAndContent(pattern string) (string, string) {
	parts := strings.SplitN(pattern, "/", 2)
	dirPattern := parts[0]
	contentPattern := ""
	if len(parts) > 1 {
		contentPattern = parts[1]
	}
	return dirPattern, contentPattern
}

func matchesDirectory(dirPattern string, path string) bool {
	pathParts := strings.Split(path, "/")
	if len(pathParts) == 0 {
		return false
	}
	firstSegment := pathParts[0]

	if containsWildcards(dirPattern) {
		return wildcardMatch(dirPattern, firstSegment)
	}
	if len(dirPattern) == 1 {
		return strings.HasPrefix(firstSegment, dirPattern)
	}
	return firstSegment == dirPattern
}

func matchesContent(contentPattern, content string) bool {
	if containsWildcards(contentPattern) {
		return wildcardMatch(contentPattern, content)
	}
	return matchWordsInOrder(splitWords(contentPattern), content)
}

func matchesContentOnly(pattern, path string) bool {
	if containsWildcards(pattern) {
		return wildcardMatchAnywhere(pattern, path)
	}
	return matchWordsInOrder(splitWords(pattern), path)
}

func matchesDottedPattern(pattern, path string) bool {
	for _, segment := range strings.Split(path, "/") {
		if matchesContentOnly(pattern, segment) {
			return true
		}
	}
	return false
}

func matchWordsInOrder(words []string, text string) bool {
	if len(words) == 0 {
		return true
	}
	searchText := text
	for _, word := range words {
		found := false
		for {
			index := strings.Index(searchText, word)
			if index == -1 {
				return false
			}
			if isWordBoundary(searchText, index) {
				searchText = searchText[index+len(word):]
				found = true
				break
			}
			searchText = searchText[index+1:]
		}
		if !found {
			return false
		}
	}
	return true
}

func isDelimiter(b byte) bool {
	switch b {
	case '/', '-', '_', ' ', '.', ',', '(', ')':
		return true
	default:
		return false
	}
}

func isWordBoundary(text string, pos int) bool {
	if pos == 0 {
		return true
	}
	if pos >= len(text) {
		return false
	}
	return isDelimiter(text[pos-1])
}

func splitWords(text string) []string {
	var result []string
	for _, part := range strings.Fields(text) {
		for _, hp := range strings.Split(part, "-") {
			for _, up := range strings.Split(hp, "_") {
				for _, dp := range strings.Split(up, ".") {
					if dp != "" {
						result = append(result, dp)
					}
				}
			}
		}
	}
	return result
}

func containsWildcards(pattern string) bool {
	return strings.ContainsAny(pattern, "*?")
}

func wildcardMatch(pattern, text string) bool {
	rx, err := regexp.Compile("^" + wildcardToRegex(pattern) + "$")
	if err != nil {
		return false
	}
	return rx.MatchString(text)
}

func wildcardMatchAnywhere(pattern, text string) bool {
	rx, err := regexp.Compile(wildcardToRegex(pattern))
	if err != nil {
		return false
	}
	return rx.MatchString(text)
}

func wildcardToRegex(pattern string) string {
	var b strings.Builder
	for _, ch := range pattern {
		switch ch {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '.', '+', '(', ')', '|', '[', ']', '{', '}', '^', '$', '\\':
			b.WriteString(`\`)
			b.WriteRune(ch)
		default:
			b.WriteRune(ch)
		}
	}
	return b.String()
}
