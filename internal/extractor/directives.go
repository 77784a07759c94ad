package extractor

import (
	"fmt"
	"sort"
	"strings"

	"inherit/internal/manifest"
	"inherit/internal/signature"
)

const directivePrefix = "inherit:"

const (
	verbBase      = "base"
	verbInterface = "interface"
	verbImplement = "implement"
	verbRequire   = "require"
)

type directive struct {
	verb string
	args []string
}

// parseDirectives splits a cleaned doc comment into its inherit: directives
// and the remaining prose.
func parseDirectives(desc string) ([]directive, string) {
	var dirs []directive
	var prose []string
	for _, line := range strings.Split(desc, "\n") {
		if !strings.HasPrefix(line, directivePrefix) {
			prose = append(prose, line)
			continue
		}
		fields := strings.Fields(strings.TrimPrefix(line, directivePrefix))
		if len(fields) == 0 {
			continue
		}
		dirs = append(dirs, directive{verb: fields[0], args: fields[1:]})
	}
	return dirs, strings.TrimSpace(strings.Join(prose, "\n"))
}

// Package is the extraction result of one Go package directory.
type Package struct {
	Dir   string
	Name  string
	Files []*FileResult
}

func (p *Package) units() []*CodeUnit {
	var out []*CodeUnit
	for _, f := range p.Files {
		out = append(out, f.Units...)
	}
	return out
}

// IsAnnotated reports whether any declaration of p carries a type directive.
func (p *Package) IsAnnotated() bool {
	for _, u := range p.units() {
		if u.UnitType == "function" || u.UnitType == "method" {
			continue
		}
		dirs, _ := parseDirectives(u.Description)
		if len(dirs) > 0 {
			return true
		}
	}
	return false
}

// RequiredFunctions returns the names of the functions p declares as
// requirements, either through inherit:require or as methods of an annotated
// Go interface.
func (p *Package) RequiredFunctions() []string {
	seen := make(map[string]bool)
	for _, u := range p.units() {
		dirs, _ := parseDirectives(u.Description)
		for _, d := range dirs {
			switch {
			case d.verb == verbRequire && (u.UnitType == "function" || u.UnitType == "method"):
				seen[u.Name] = true
			case (d.verb == verbBase || d.verb == verbInterface) && u.UnitType == "interface":
				if details, ok := u.Details.(GoTypeDetails); ok {
					for _, m := range details.Methods {
						seen[m.Name] = true
					}
				}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// manifestBuilder resolves references for one package.
type manifestBuilder struct {
	pkg     *Package
	scopes  map[string]bool
	imports map[string]bool
}

// qualify keeps references into known scopes and records them as imports.
// References into any other package carry no nominal information here and
// become Any.
func (b *manifestBuilder) qualify(t signature.TypeExpr) signature.TypeExpr {
	return signature.Map(t, func(n signature.Named) signature.TypeExpr {
		if n.Scope == "" || n.Scope == b.pkg.Name {
			return signature.Named{Name: n.Name}
		}
		if !b.scopes[n.Scope] {
			return signature.Any{}
		}
		b.imports[n.Scope] = true
		return n
	})
}

func (b *manifestBuilder) text(t signature.TypeExpr) string {
	return b.qualify(t).String()
}

func (b *manifestBuilder) sig(name string, params []GoParam) string {
	parts := make([]signature.TypeExpr, 0, len(params))
	for _, p := range params {
		parts = append(parts, b.qualify(p.Type))
	}
	return signature.New(name, parts...).String()
}

// positional returns the parameters in dispatch order, receiver first.
func (d GoFunctionDetails) positional() []GoParam {
	if d.Receiver == nil {
		return d.Parameters
	}
	return append([]GoParam{*d.Receiver}, d.Parameters...)
}

// BuildManifest turns the annotated declarations of pkg into the declaration
// stream of the scope named after the package. scopes holds every scope
// known in the project. Only implementations of functions in required are
// emitted.
func BuildManifest(pkg *Package, scopes map[string]bool, required map[string]bool) (*manifest.File, error) {
	b := &manifestBuilder{pkg: pkg, scopes: scopes, imports: make(map[string]bool)}
	f := &manifest.File{Scope: pkg.Name, Path: pkg.Dir}

	var decls []manifest.TypeDecl
	index := make(map[string]int)
	var pendingRequires []*CodeUnit

	for _, u := range pkg.units() {
		dirs, doc := parseDirectives(u.Description)
		switch u.UnitType {
		case "function", "method":
			details, _ := u.Details.(GoFunctionDetails)
			if hasVerb(dirs, verbRequire) {
				if details.HasBody {
					return nil, fmt.Errorf("%s: inherit:require on %s which has a body", u.Source(), u.Name)
				}
				pendingRequires = append(pendingRequires, u)
				continue
			}
			if !details.HasBody || !required[u.Name] {
				continue
			}
			f.Implementations = append(f.Implementations, manifest.ImplementationDecl{
				Signature: b.sig(u.Name, details.positional()),
				Source:    u.Source(),
			})
		default:
			decl, ok, err := b.typeDecl(u, dirs, doc)
			if err != nil {
				return nil, err
			}
			if ok {
				index[decl.Name] = len(decls)
				decls = append(decls, decl)
			}
		}
	}

	for _, u := range pendingRequires {
		details, _ := u.Details.(GoFunctionDetails)
		dirs, doc := parseDirectives(u.Description)
		var target string
		for _, d := range dirs {
			if d.verb == verbRequire && len(d.args) > 0 {
				target = d.args[0]
			}
		}
		i, ok := index[target]
		if target == "" || !ok {
			return nil, fmt.Errorf("%s: inherit:require on %s names %q, which is not an annotated type of package %s", u.Source(), u.Name, target, pkg.Name)
		}
		decls[i].Requires = append(decls[i].Requires, manifest.RequireDecl{
			Signature: b.sig(u.Name, details.positional()),
			Doc:       doc,
		})
	}

	// Embedded types without a directive are ordinary Go composition.
	for i := range decls {
		kept := decls[i].Extends[:0]
		for _, p := range decls[i].Extends {
			if _, ok := index[p]; ok || strings.Contains(p, ".") {
				kept = append(kept, p)
			}
		}
		decls[i].Extends = kept
		if len(kept) == 0 {
			decls[i].Extends = nil
		}
	}

	f.Types = orderTypes(decls)
	for scope := range b.imports {
		f.Imports = append(f.Imports, scope)
	}
	sort.Strings(f.Imports)
	return f, nil
}

func (b *manifestBuilder) typeDecl(u *CodeUnit, dirs []directive, doc string) (manifest.TypeDecl, bool, error) {
	var d *directive
	for i := range dirs {
		switch dirs[i].verb {
		case verbBase, verbInterface, verbImplement:
			if d != nil {
				return manifest.TypeDecl{}, false, fmt.Errorf("%s: %s has more than one type directive", u.Source(), u.Name)
			}
			d = &dirs[i]
		}
	}
	if d == nil {
		return manifest.TypeDecl{}, false, nil
	}

	decl := manifest.TypeDecl{Name: u.Name, Doc: doc, Source: u.Source()}
	switch d.verb {
	case verbBase:
		decl.Kind = manifest.KindBase
	case verbInterface:
		decl.Kind = manifest.KindInterface
	case verbImplement:
		decl.Kind = manifest.KindConcrete
	}
	for _, arg := range d.args {
		if arg != "mutable" {
			return decl, false, fmt.Errorf("%s: unknown inherit:%s option %q", u.Source(), d.verb, arg)
		}
		if decl.Kind == manifest.KindInterface {
			return decl, false, fmt.Errorf("%s: interfaces carry no mutability", u.Source())
		}
		decl.Mutable = true
	}

	details, _ := u.Details.(GoTypeDetails)
	if u.UnitType == "interface" && decl.Kind == manifest.KindConcrete {
		return decl, false, fmt.Errorf("%s: inherit:implement needs a struct type, %s is an interface", u.Source(), u.Name)
	}
	for _, field := range details.Fields {
		if field.Embedded {
			ref, ok := refName(b.qualify(field.Type))
			if !ok {
				continue
			}
			decl.Extends = append(decl.Extends, ref.String())
			continue
		}
		decl.Fields = append(decl.Fields, manifest.FieldDecl{Name: field.Name, Type: b.text(field.Type)})
	}
	self := GoParam{Type: signature.Named{Name: u.Name}}
	for _, m := range details.Methods {
		decl.Requires = append(decl.Requires, manifest.RequireDecl{
			Signature: b.sig(m.Name, append([]GoParam{self}, m.Parameters...)),
			Doc:       m.Doc,
		})
	}
	return decl, true, nil
}

func hasVerb(dirs []directive, verb string) bool {
	for _, d := range dirs {
		if d.verb == verb {
			return true
		}
	}
	return false
}

// orderTypes sorts decls so that every local parent precedes its children.
// Source order is kept otherwise. Members of a cycle keep their source order
// and are left for the registry to reject.
func orderTypes(decls []manifest.TypeDecl) []manifest.TypeDecl {
	local := make(map[string]bool, len(decls))
	for _, d := range decls {
		local[d.Name] = true
	}
	placed := make(map[string]bool, len(decls))
	out := make([]manifest.TypeDecl, 0, len(decls))
	for len(out) < len(decls) {
		progress := false
		for _, d := range decls {
			if placed[d.Name] {
				continue
			}
			ready := true
			for _, p := range d.Extends {
				if local[p] && !placed[p] && p != d.Name {
					ready = false
					break
				}
			}
			if ready {
				placed[d.Name] = true
				out = append(out, d)
				progress = true
			}
		}
		if !progress {
			for _, d := range decls {
				if !placed[d.Name] {
					placed[d.Name] = true
					out = append(out, d)
				}
			}
		}
	}
	return out
}
