package extract

import (
	"context"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/atomicobject/codesearch/pkg/errs"
	"github.com/atomicobject/codesearch/pkg/index"
)

// modifierKeywords is the fixed keyword set spec §4.8 names, checked
// against a node's own type name in addition to each language's
// grammar-specific modifier container node types.
var modifierKeywords = map[string]bool{
	"public": true, "private": true, "protected": true, "static": true,
	"async": true, "abstract": true, "readonly": true, "const": true,
	"final": true, "modifier": true, "modifiers": true,
}

// CompositeAnalyzer extracts embedded code from a multi-language document
// and re-enters the Extractor on the synthesized single-language source
// (spec §4.9).
type CompositeAnalyzer interface {
	Analyze(e *Extractor, filename, content string) ([]index.ExtractedType, []index.ExtractedMethod, *errs.Error)
}

// Extractor is the TypeExtractor of spec §4.8.
type Extractor struct {
	composites map[string]CompositeAnalyzer
}

// New returns an Extractor with the Vue-style and Razor-style composite
// analyzers registered, spec §4.9's two concrete variants.
func New() *Extractor {
	e := &Extractor{composites: make(map[string]CompositeAnalyzer)}
	e.RegisterComposite(".vue", scriptEmbeddedAnalyzer{})
	e.RegisterComposite(".razor", directiveEmbeddedAnalyzer{})
	e.RegisterComposite(".cshtml", directiveEmbeddedAnalyzer{})
	return e
}

// RegisterComposite binds ext to a CompositeAnalyzer.
func (e *Extractor) RegisterComposite(ext string, analyzer CompositeAnalyzer) {
	e.composites[ext] = analyzer
}

// Extract harvests type and method declarations from content, dispatching
// by filename's extension (spec §4.8).
func (e *Extractor) Extract(filename, content string) ([]index.ExtractedType, []index.ExtractedMethod, *errs.Error) {
	return e.extract(filename, content, false)
}

// extract is Extract's internal form; internal=true suppresses composite
// dispatch, used when a CompositeAnalyzer re-enters the extractor on its
// synthesized source so TypeExtractor is entered at most twice per
// top-level call (spec §4.8's self-recursion guard).
func (e *Extractor) extract(filename, content string, internal bool) ([]index.ExtractedType, []index.ExtractedMethod, *errs.Error) {
	if strings.TrimSpace(content) == "" {
		return nil, nil, nil
	}

	ext := strings.ToLower(filepath.Ext(filename))

	if !internal {
		if analyzer, ok := e.composites[ext]; ok {
			return analyzer.Analyze(e, filename, content)
		}
	}

	spec, ok := languageForExtension(ext)
	if !ok {
		return nil, nil, errs.New(errs.ValidationError, "unsupported file extension: "+ext, nil)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(spec.Language())

	tree, err := parser.ParseCtx(context.Background(), nil, []byte(content))
	if err != nil {
		return nil, nil, errs.New(errs.IndexingFailed, "parse failed", err)
	}

	source := []byte(content)
	h := &harvester{vocab: spec.Vocab, source: source}
	h.walk(tree.RootNode(), nil)
	return h.types, h.methods, nil
}

// harvester walks one parse tree, collecting declarations per spec §4.8.
type harvester struct {
	vocab   declVocab
	source  []byte
	types   []index.ExtractedType
	methods []index.ExtractedMethod
}

func (h *harvester) walk(node *sitter.Node, typeStack []*sitter.Node) {
	if node == nil {
		return
	}

	nodeType := node.Type()
	nextStack := typeStack

	if kind, ok := h.vocab.Types[nodeType]; ok {
		kind = h.refineTypeKind(node, nodeType, kind)
		h.harvestType(node, kind)
		nextStack = append(append([]*sitter.Node{}, typeStack...), node)
	} else if kind, ok := h.vocab.Aliases[nodeType]; ok {
		h.harvestType(node, kind)
	} else if kind, ok := h.vocab.Methods[nodeType]; ok {
		h.harvestMethod(node, kind, typeStack)
	}

	count := int(node.NamedChildCount())
	for i := 0; i < count; i++ {
		h.walk(node.NamedChild(i), nextStack)
	}
}

// refineTypeKind special-cases Go's single type_spec node type, which
// covers struct, interface, and plain alias declarations alike; the real
// kind is determined by the node's "type" field.
func (h *harvester) refineTypeKind(node *sitter.Node, nodeType, fallback string) string {
	if nodeType != "type_spec" {
		return fallback
	}
	typeChild := node.ChildByFieldName("type")
	if typeChild == nil {
		return fallback
	}
	switch typeChild.Type() {
	case "interface_type":
		return "interface"
	case "struct_type":
		return "struct"
	default:
		return "type_alias"
	}
}

func (h *harvester) harvestType(node *sitter.Node, kind string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		nameNode = firstIdentifierChild(node)
	}
	if nameNode == nil {
		return
	}

	point := node.StartPoint()
	h.types = append(h.types, index.ExtractedType{
		Name:      nameNode.Content(h.source),
		Kind:      kind,
		Signature: firstLine(node, h.source),
		Line:      int(point.Row) + 1,
		Column:    int(point.Column) + 1,
		Modifiers: h.collectModifiers(node),
	})
}

func (h *harvester) harvestMethod(node *sitter.Node, kind string, typeStack []*sitter.Node) {
	nameNode := h.chooseMethodName(node)
	if nameNode == nil {
		return
	}

	modifiers := h.collectModifiers(node)
	point := node.StartPoint()

	h.methods = append(h.methods, index.ExtractedMethod{
		Name:           nameNode.Content(h.source),
		Kind:           kind,
		Signature:      firstLine(node, h.source),
		Line:           int(point.Row) + 1,
		Column:         int(point.Column) + 1,
		Modifiers:      modifiers,
		ReturnType:     h.extractReturnType(node, nameNode, modifiers),
		Parameters:     h.extractParameters(node),
		ContainingType: h.containingTypeName(typeStack),
	})
}

// chooseMethodName implements spec §4.8's method-name disambiguation: with
// a single identifier child, use it; with several, prefer the one
// immediately preceding the parameter list.
func (h *harvester) chooseMethodName(node *sitter.Node) *sitter.Node {
	if name := node.ChildByFieldName("name"); name != nil {
		return name
	}

	idents := identifierChildren(node)
	if len(idents) == 0 {
		return nil
	}
	if len(idents) == 1 {
		return idents[0]
	}

	paramList := findParameterList(node)
	if paramList == nil {
		return idents[len(idents)-1]
	}

	paramStart := paramList.StartPoint().Column
	var best *sitter.Node
	for _, ident := range idents {
		if ident.StartPoint().Column < paramStart {
			if best == nil || ident.StartPoint().Column > best.StartPoint().Column {
				best = ident
			}
		}
	}
	if best != nil {
		return best
	}
	return idents[0]
}

// extractReturnType implements spec §4.8's return-type extraction.
func (h *harvester) extractReturnType(node, nameNode *sitter.Node, modifiers []string) string {
	for _, field := range h.vocab.ReturnTypeFields {
		if child := node.ChildByFieldName(field); child != nil {
			return strings.TrimSpace(child.Content(h.source))
		}
	}

	if h.vocab.ReturnsBeforeName {
		count := int(node.NamedChildCount())
		for i := 0; i < count; i++ {
			child := node.NamedChild(i)
			if child == nameNode {
				break
			}
			if isReturnTypeShaped(child) {
				return strings.TrimSpace(child.Content(h.source))
			}
		}
	}

	for _, m := range modifiers {
		if m == "async" && h.vocab.AsyncReturnPlaceholder != "" {
			return h.vocab.AsyncReturnPlaceholder
		}
	}
	return h.vocab.DefaultReturnType
}

// isReturnTypeShaped matches spec §4.8's "predefined type, generic name,
// nullable type, array type, qualified name, or a non-name identifier".
func isReturnTypeShaped(node *sitter.Node) bool {
	switch node.Type() {
	case "predefined_type", "generic_name", "nullable_type", "array_type", "qualified_name":
		return true
	}
	return strings.Contains(node.Type(), "identifier") || strings.Contains(node.Type(), "type")
}

// extractParameters implements spec §4.8's parameter extraction.
func (h *harvester) extractParameters(node *sitter.Node) []string {
	paramList := findParameterList(node)
	if paramList == nil {
		return nil
	}

	var params []string
	count := int(paramList.NamedChildCount())
	for i := 0; i < count; i++ {
		child := paramList.NamedChild(i)
		if child.Type() == "parameter" || child.Type() == "formal_parameter" {
			params = append(params, strings.TrimSpace(child.Content(h.source)))
		}
	}
	return params
}

// collectModifiers scans a declaration's immediate children for the fixed
// modifier keyword set and each language's modifier/modifiers container
// nodes, flattening container contents into individual modifier strings.
func (h *harvester) collectModifiers(node *sitter.Node) []string {
	var modifiers []string
	count := int(node.ChildCount())
	for i := 0; i < count; i++ {
		child := node.Child(i)
		childType := child.Type()

		if modifierKeywords[childType] || h.vocab.Modifiers[childType] {
			if childType == "modifier" || childType == "modifiers" {
				modifiers = append(modifiers, flattenModifierContainer(child, h.source)...)
				continue
			}
			modifiers = append(modifiers, childType)
		}
	}
	return dedupeStrings(modifiers)
}

func flattenModifierContainer(node *sitter.Node, source []byte) []string {
	var out []string
	count := int(node.NamedChildCount())
	for i := 0; i < count; i++ {
		out = append(out, strings.TrimSpace(node.NamedChild(i).Content(source)))
	}
	if len(out) == 0 {
		out = append(out, strings.TrimSpace(node.Content(source)))
	}
	return out
}

// containingTypeName implements spec §4.8's "walk parents until a
// class/interface/struct/enum/namespace declaration node is found".
func (h *harvester) containingTypeName(typeStack []*sitter.Node) string {
	if len(typeStack) == 0 {
		return ""
	}
	enclosing := typeStack[len(typeStack)-1]
	if name := enclosing.ChildByFieldName("name"); name != nil {
		return name.Content(h.source)
	}
	if name := firstIdentifierChild(enclosing); name != nil {
		return name.Content(h.source)
	}
	return ""
}

func identifierChildren(node *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	count := int(node.ChildCount())
	for i := 0; i < count; i++ {
		child := node.Child(i)
		if strings.Contains(child.Type(), "identifier") {
			out = append(out, child)
		}
	}
	return out
}

func firstIdentifierChild(node *sitter.Node) *sitter.Node {
	count := int(node.ChildCount())
	for i := 0; i < count; i++ {
		child := node.Child(i)
		if strings.Contains(child.Type(), "identifier") {
			return child
		}
	}
	return nil
}

func findParameterList(node *sitter.Node) *sitter.Node {
	if paramList := node.ChildByFieldName("parameters"); paramList != nil {
		return paramList
	}
	count := int(node.ChildCount())
	for i := 0; i < count; i++ {
		child := node.Child(i)
		t := child.Type()
		if strings.Contains(t, "parameter") && (strings.Contains(t, "list") || strings.HasSuffix(t, "parameters") || t == "parameters") {
			return child
		}
	}
	return nil
}

func firstLine(node *sitter.Node, source []byte) string {
	content := node.Content(source)
	if idx := strings.IndexByte(content, '\n'); idx != -1 {
		content = content[:idx]
	}
	return strings.TrimSpace(content)
}

func dedupeStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
