// Package extract implements the TypeExtractor and CompositeFileAnalyzer
// components of spec §4.8/§4.9: grammar-driven harvesting of type and
// method declarations from source text, with two composite-file variants
// for formats that embed one language inside another. Grounded on
// other_examples/54f61968_jamaly87-codebase-semantic-search-mcp, the one
// pack repo whose go.mod pairs an MCP code tool with
// github.com/smacker/go-tree-sitter for exactly this job; no usage-pattern
// file for the parser itself survived retrieval, so the parse-tree walk
// below follows go-tree-sitter's documented public API (Parser, Tree,
// Node, ChildByFieldName) directly rather than a corpus example.
package extract

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// declVocab classifies a grammar's node type names into the categories
// spec §4.8 describes: type-like declarations, method-like declarations,
// type aliases, and the modifier keyword set.
type declVocab struct {
	Types     map[string]string // node type -> Kind ("class", "interface", ...)
	Methods   map[string]string // node type -> Kind ("function", "method", ...)
	Aliases   map[string]string // node type -> Kind ("type_alias")
	Modifiers map[string]bool   // node type -> true

	// ReturnsBeforeName is true for languages whose method node places the
	// return type before the name in source order (Java, C#, C++): the
	// walk scans children up to the chosen name node for the first
	// type-shaped child.
	ReturnsBeforeName bool
	// ReturnTypeFields are grammar field names tried (in order) for
	// languages with an explicit return-type child (Go's "result", Rust's
	// and TypeScript's "return_type").
	ReturnTypeFields []string
	// AsyncReturnPlaceholder is substituted when no return type is found
	// but the declaration carries an "async" modifier.
	AsyncReturnPlaceholder string
	// DefaultReturnType is used when no return type is found and the
	// declaration is not async; "" for dynamically-typed languages.
	DefaultReturnType string
}

// langSpec binds a grammar to the extension(s) that select it and the
// declaration vocabulary used to interpret its parse tree.
type langSpec struct {
	Name     string
	Language func() *sitter.Language
	Vocab    declVocab
}

var languagesByExtension = map[string]langSpec{
	".go": {Name: "go", Language: golang.GetLanguage, Vocab: goVocab},

	".py": {Name: "python", Language: python.GetLanguage, Vocab: pythonVocab},

	".js":  {Name: "javascript", Language: javascript.GetLanguage, Vocab: jsVocab},
	".jsx": {Name: "javascript", Language: javascript.GetLanguage, Vocab: jsVocab},
	".ts":  {Name: "typescript", Language: typescript.GetLanguage, Vocab: tsVocab},
	".tsx": {Name: "typescript", Language: tsx.GetLanguage, Vocab: tsVocab},

	".java": {Name: "java", Language: java.GetLanguage, Vocab: javaVocab},

	".cs": {Name: "csharp", Language: csharp.GetLanguage, Vocab: csharpVocab},

	".rs": {Name: "rust", Language: rust.GetLanguage, Vocab: rustVocab},

	".cpp": {Name: "cpp", Language: cpp.GetLanguage, Vocab: cppVocab},
	".cc":  {Name: "cpp", Language: cpp.GetLanguage, Vocab: cppVocab},
	".cxx": {Name: "cpp", Language: cpp.GetLanguage, Vocab: cppVocab},
	".hpp": {Name: "cpp", Language: cpp.GetLanguage, Vocab: cppVocab},
	".c":   {Name: "cpp", Language: cpp.GetLanguage, Vocab: cppVocab},
	".h":   {Name: "cpp", Language: cpp.GetLanguage, Vocab: cppVocab},

	".rb": {Name: "ruby", Language: ruby.GetLanguage, Vocab: rubyVocab},

	".sh":   {Name: "bash", Language: bash.GetLanguage, Vocab: bashVocab},
	".bash": {Name: "bash", Language: bash.GetLanguage, Vocab: bashVocab},
}

var goVocab = declVocab{
	Types: map[string]string{
		"type_spec":      "struct",
		"interface_type": "interface",
	},
	Methods: map[string]string{
		"function_declaration": "function",
		"method_declaration":   "method",
	},
	Aliases:           map[string]string{},
	Modifiers:         map[string]bool{},
	ReturnTypeFields:  []string{"result"},
	DefaultReturnType: "",
}

var pythonVocab = declVocab{
	Types: map[string]string{
		"class_definition": "class",
	},
	Methods: map[string]string{
		"function_definition": "function",
		"lambda":              "lambda",
	},
	Aliases: map[string]string{},
	Modifiers: map[string]bool{
		"decorator": true,
	},
	DefaultReturnType: "",
}

var jsVocab = declVocab{
	Types: map[string]string{
		"class_declaration": "class",
	},
	Methods: map[string]string{
		"function_declaration": "function",
		"method_definition":    "method",
		"arrow_function":       "arrow-function",
		"function":             "function",
	},
	Aliases:                map[string]string{},
	Modifiers:              map[string]bool{"async": true, "static": true, "get": true, "set": true},
	AsyncReturnPlaceholder: "Promise",
	DefaultReturnType:      "",
}

var tsVocab = declVocab{
	Types: map[string]string{
		"class_declaration":     "class",
		"interface_declaration": "interface",
		"enum_declaration":      "enum",
	},
	Methods: map[string]string{
		"function_declaration": "function",
		"method_definition":    "method",
		"arrow_function":       "arrow-function",
	},
	Aliases: map[string]string{
		"type_alias_declaration": "type_alias",
	},
	Modifiers: map[string]bool{
		"accessibility_modifier": true, "async": true, "static": true, "readonly": true,
		"abstract": true, "public": true, "private": true, "protected": true,
	},
	ReturnTypeFields:       []string{"return_type"},
	AsyncReturnPlaceholder: "Promise",
	DefaultReturnType:      "any",
}

var javaVocab = declVocab{
	Types: map[string]string{
		"class_declaration":      "class",
		"interface_declaration":  "interface",
		"enum_declaration":       "enum",
		"record_declaration":     "record",
		"annotation_type_declaration": "annotation",
	},
	Methods: map[string]string{
		"method_declaration":      "method",
		"constructor_declaration": "initializer",
	},
	Aliases: map[string]string{},
	Modifiers: map[string]bool{
		"modifiers": true, "public": true, "private": true, "protected": true,
		"static": true, "final": true, "abstract": true,
	},
	ReturnsBeforeName: true,
	DefaultReturnType: "void",
}

var csharpVocab = declVocab{
	Types: map[string]string{
		"class_declaration":     "class",
		"interface_declaration": "interface",
		"struct_declaration":    "struct",
		"enum_declaration":      "enum",
		"record_declaration":    "record",
	},
	Methods: map[string]string{
		"method_declaration":      "method",
		"constructor_declaration": "initializer",
		"local_function_statement": "function",
	},
	Aliases: map[string]string{},
	Modifiers: map[string]bool{
		"modifier": true, "public": true, "private": true, "protected": true,
		"static": true, "readonly": true, "abstract": true, "async": true,
	},
	ReturnsBeforeName:      true,
	AsyncReturnPlaceholder: "Task",
	DefaultReturnType:      "void",
}

var rustVocab = declVocab{
	Types: map[string]string{
		"struct_item": "struct",
		"enum_item":   "enum",
		"trait_item":  "trait",
		"impl_item":   "impl",
	},
	Methods: map[string]string{
		"function_item": "function",
	},
	Aliases: map[string]string{
		"type_item": "type_alias",
	},
	Modifiers:         map[string]bool{"visibility_modifier": true, "async": true},
	ReturnTypeFields:  []string{"return_type"},
	DefaultReturnType: "()",
}

var cppVocab = declVocab{
	Types: map[string]string{
		"class_specifier":  "class",
		"struct_specifier": "struct",
		"enum_specifier":   "enum",
	},
	Methods: map[string]string{
		"function_definition": "function",
	},
	Aliases: map[string]string{
		"type_definition": "type_alias",
	},
	Modifiers:         map[string]bool{"storage_class_specifier": true, "virtual": true},
	ReturnsBeforeName: true,
	DefaultReturnType: "void",
}

var rubyVocab = declVocab{
	Types: map[string]string{
		"class":  "class",
		"module": "module",
	},
	Methods: map[string]string{
		"method":       "method",
		"singleton_method": "method",
	},
	Aliases:           map[string]string{},
	Modifiers:         map[string]bool{},
	ReturnsBeforeName: false,
}

var bashVocab = declVocab{
	Types: map[string]string{},
	Methods: map[string]string{
		"function_definition": "function",
	},
	Aliases:           map[string]string{},
	Modifiers:         map[string]bool{},
	ReturnsBeforeName: false,
}

// languageForExtension reports the langSpec registered for a (lower-cased)
// file extension, and whether one was found.
func languageForExtension(ext string) (langSpec, bool) {
	spec, ok := languagesByExtension[ext]
	return spec, ok
}
