package index

import "time"

// ExtractedType is one type/interface/class declaration harvested by the
// TypeExtractor, attached to a Document (spec §3).
type ExtractedType struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Signature string `json:"signature,omitempty"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	Modifiers []string `json:"modifiers,omitempty"`
}

// ExtractedMethod is one method/function declaration harvested by the
// TypeExtractor, optionally tied to a containing type (spec §3).
type ExtractedMethod struct {
	Name          string   `json:"name"`
	Kind          string   `json:"kind"`
	Signature     string   `json:"signature,omitempty"`
	Line          int      `json:"line"`
	Column        int      `json:"column"`
	Modifiers     []string `json:"modifiers,omitempty"`
	ReturnType    string   `json:"return_type,omitempty"`
	Parameters    []string `json:"parameters,omitempty"`
	ContainingType string  `json:"containing_type,omitempty"`
}

// Document is one indexed file record (spec §3). Path is the document's
// identity: re-indexing the same path is a delete-by-term followed by an
// add, never an in-place mutation.
type Document struct {
	Path         string    `json:"path"`
	RelativePath string    `json:"relative_path"`
	Filename     string    `json:"filename"`
	Extension    string    `json:"extension"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	Content      string    `json:"content"`

	Types   []ExtractedType   `json:"types,omitempty"`
	Methods []ExtractedMethod `json:"methods,omitempty"`
}
