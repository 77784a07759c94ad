package extractor

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// CodeUnit is the universal container for any extracted code symbol.
type CodeUnit struct {
	ID          string      `json:"id"`
	Filepath    string      `json:"filepath"`
	Package     string      `json:"package"`
	Language    string      `json:"language"`
	StartLine   int         `json:"start_line"`
	EndLine     int         `json:"end_line"`
	UnitType    string      `json:"unit_type"` // "struct", "interface", "type", "function", "method"
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Details     interface{} `json:"details"` // Language-specific details
}

// Source is the "file:line" location of u.
func (u *CodeUnit) Source() string {
	return fmt.Sprintf("%s:%d", u.Filepath, u.StartLine)
}

// FileResult is everything extracted from one source file.
type FileResult struct {
	Filepath string
	Package  string
	// Imports maps the local qualifier of each import to its path.
	Imports map[string]string
	Units   []*CodeUnit
}

// LanguageExtractor defines the interface that each language parser must implement.
type LanguageExtractor interface {
	GetLanguage() *sitter.Language
	GetQuery() string
	ExtractUnit(captureName string, node *sitter.Node, sourceCode []byte, filepath string, packageName string) *CodeUnit
	ExtractImports(root *sitter.Node, sourceCode []byte) map[string]string
}
