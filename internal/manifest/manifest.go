package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Kind values of a TypeDecl.
const (
	KindBase      = "base"
	KindInterface = "interface"
	KindConcrete  = "concrete"
)

// File is one scope's declaration stream. Types are applied in order, so a
// type must appear after everything it extends.
type File struct {
	Scope           string               `yaml:"scope"`
	Imports         []string             `yaml:"imports,omitempty"`
	Types           []TypeDecl           `yaml:"types,omitempty"`
	Implementations []ImplementationDecl `yaml:"implementations,omitempty"`

	// Path is where the file was loaded from, for error messages.
	Path string `yaml:"-"`
}

type TypeDecl struct {
	Name     string        `yaml:"name"`
	Kind     string        `yaml:"kind"`
	Extends  []string      `yaml:"extends,omitempty"`
	Mutable  bool          `yaml:"mutable,omitempty"`
	Doc      string        `yaml:"doc,omitempty"`
	Fields   []FieldDecl   `yaml:"fields,omitempty"`
	Requires []RequireDecl `yaml:"requires,omitempty"`
	Source   string        `yaml:"source,omitempty"`
}

type FieldDecl struct {
	Name string `yaml:"name"`
	Type string `yaml:"type,omitempty"`
}

type RequireDecl struct {
	Signature string `yaml:"signature"`
	Doc       string `yaml:"doc,omitempty"`
}

type ImplementationDecl struct {
	Signature string `yaml:"signature"`
	Source    string `yaml:"source,omitempty"`
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	if f.Scope == "" {
		return nil, fmt.Errorf("invalid manifest: scope is required")
	}
	for i, t := range f.Types {
		switch t.Kind {
		case KindBase, KindInterface, KindConcrete:
		default:
			return nil, fmt.Errorf("invalid manifest: types[%d] %q: unknown kind %q", i, t.Name, t.Kind)
		}
	}
	if err := validateSchema(data); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &f, nil
}

func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.Path = path
	return f, nil
}

func (f *File) Marshal() ([]byte, error) {
	return yaml.Marshal(f)
}

func (f *File) where() string {
	if f.Path != "" {
		return f.Path
	}
	return f.Scope
}
