package extract

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/atomicobject/codesearch/pkg/errs"
	"github.com/atomicobject/codesearch/pkg/index"
)

// directiveEmbeddedAnalyzer is spec §4.9's "directive-embedded document"
// variant (Razor .razor/.cshtml pages): concatenate every directive body
// into a synthesized wrapper class and re-enter the extractor on it as C#.
type directiveEmbeddedAnalyzer struct{}

const directiveNoiseThreshold = 20

var (
	codeBlockPattern      = regexp.MustCompile(`(?s)@code\s*\{(.*?)\n\}`)
	functionsBlockPattern = regexp.MustCompile(`(?s)@functions\s*\{(.*?)\n\}`)
	modelDirectivePattern = regexp.MustCompile(`(?m)^@model\s+(.+)$`)
	inheritsDirectivePattern = regexp.MustCompile(`(?m)^@inherits\s+(.+)$`)
	inlineBlockPattern    = regexp.MustCompile(`@\{([^\n]*)\}[ \t]*(?:\n|$)|(?s:@\{(.*?)\n\})`)
)

func (directiveEmbeddedAnalyzer) Analyze(e *Extractor, filename, content string) ([]index.ExtractedType, []index.ExtractedMethod, *errs.Error) {
	var bodies []string

	for _, m := range codeBlockPattern.FindAllStringSubmatch(content, -1) {
		bodies = append(bodies, m[1])
	}
	for _, m := range functionsBlockPattern.FindAllStringSubmatch(content, -1) {
		bodies = append(bodies, m[1])
	}
	for _, m := range modelDirectivePattern.FindAllStringSubmatch(content, -1) {
		bodies = append(bodies, "// @model "+strings.TrimSpace(m[1]))
	}
	for _, m := range inheritsDirectivePattern.FindAllStringSubmatch(content, -1) {
		bodies = append(bodies, "// @inherits "+strings.TrimSpace(m[1]))
	}
	for _, m := range inlineBlockPattern.FindAllStringSubmatch(content, -1) {
		block := strings.TrimSpace(m[1] + m[2])
		if len(block) >= directiveNoiseThreshold {
			bodies = append(bodies, block)
		}
	}

	if len(bodies) == 0 {
		return nil, nil, nil
	}

	className := wrapperClassName(filename)
	synthesized := "using System;\nusing System.Collections.Generic;\nusing System.Linq;\n\nclass " +
		className + " {\n" + strings.Join(bodies, "\n\n") + "\n}\n"

	virtualName := "razor-" + uuid.NewString() + ".cs"
	types, methods, extractErr := e.extract(virtualName, synthesized, true)
	if extractErr != nil {
		return nil, nil, extractErr
	}

	langMarker := "razor"
	outerExt := strings.ToLower(extOf(filename))
	pageKind := "razor-page"
	if outerExt == ".cshtml" {
		pageKind = "cshtml-page"
	}

	for i := range types {
		types[i].Modifiers = append(types[i].Modifiers, langMarker)
	}
	for i := range methods {
		methods[i].Modifiers = append(methods[i].Modifiers, langMarker)
	}

	pageType := index.ExtractedType{
		Name: baseNameWithoutExt(filename),
		Kind: pageKind,
		Line: 1, Column: 1,
	}
	types = append([]index.ExtractedType{pageType}, types...)

	return types, methods, nil
}

// wrapperClassName names the synthesized class after the file, with dots
// replaced so "Index.razor" becomes "Index_razor_Wrapper".
func wrapperClassName(filename string) string {
	base := baseName(filename)
	return strings.ReplaceAll(base, ".", "_") + "_Wrapper"
}
