package extract

import (
	"path/filepath"
	"strings"
)

func baseName(path string) string {
	return filepath.Base(path)
}

func extOf(path string) string {
	return filepath.Ext(path)
}

// baseNameWithoutExt strips the final extension from a file's base name,
// e.g. "Counter.razor" -> "Counter".
func baseNameWithoutExt(path string) string {
	base := baseName(path)
	if ext := extOf(base); ext != "" {
		return strings.TrimSuffix(base, ext)
	}
	return base
}
