package extract

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/atomicobject/codesearch/pkg/errs"
	"github.com/atomicobject/codesearch/pkg/index"
)

// scriptEmbeddedAnalyzer is spec §4.9's "script-embedded document" variant
// (Vue single-file components): locate a <script> block, re-enter the
// extractor on its contents under a synthesized filename, and decorate the
// results so the component reads as a first-class entity.
type scriptEmbeddedAnalyzer struct{}

var scriptBlockPattern = regexp.MustCompile(`(?is)<script(\s+[^>]*)?>(.*?)</script>`)
var langAttrPattern = regexp.MustCompile(`lang\s*=\s*["']([^"']+)["']`)
var setupAttrPattern = regexp.MustCompile(`\bsetup\b`)

func (scriptEmbeddedAnalyzer) Analyze(e *Extractor, filename, content string) ([]index.ExtractedType, []index.ExtractedMethod, *errs.Error) {
	match := scriptBlockPattern.FindStringSubmatch(content)
	if match == nil {
		return nil, nil, nil
	}
	attrs, body := match[1], match[2]

	ext := ".js"
	if langMatch := langAttrPattern.FindStringSubmatch(attrs); langMatch != nil {
		lang := strings.ToLower(langMatch[1])
		if lang == "ts" || lang == "typescript" {
			ext = ".ts"
		}
	}
	isSetup := setupAttrPattern.MatchString(attrs)

	virtualName := "vue-script-" + uuid.NewString() + ext
	types, methods, extractErr := e.extract(virtualName, body, true)
	if extractErr != nil {
		return nil, nil, extractErr
	}

	apiModifier := "options-api"
	if isSetup {
		apiModifier = "composition-api"
	}
	for i := range methods {
		methods[i].Modifiers = append(methods[i].Modifiers, apiModifier)
	}

	componentKind := "vue-component"
	if len(types) > 0 {
		types[0].Kind = componentKind
	}

	fileType := index.ExtractedType{
		Name: baseNameWithoutExt(filename),
		Kind: "vue-file",
		Line: 1, Column: 1,
	}
	types = append([]index.ExtractedType{fileType}, types...)

	return types, methods, nil
}
