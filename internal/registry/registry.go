package registry

import (
	"fmt"
	"sort"
	"sync"

	"inherit/internal/conformance"
	"inherit/internal/graph"
	"inherit/internal/report"
	"inherit/internal/signature"

	"go.uber.org/zap"
)

type scope struct {
	mu    sync.Mutex
	name  string
	graph *graph.Graph
	last  *report.Report
}

// lockedView exposes another scope's graph while holding that scope's lock.
// Imports form a DAG, so nested locking always follows import edges.
type lockedView struct{ s *scope }

func (v lockedView) ScopeName() string { return v.s.name }

func (v lockedView) Lookup(name string) (*graph.Node, bool) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return v.s.graph.Lookup(name)
}

func (v lockedView) Overloads(fn string) []graph.Implementation {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return v.s.graph.Overloads(fn)
}

// Registry is the load-time entry point for declarations. Scopes are created
// on first use and always see the core prelude.
type Registry struct {
	mu      sync.RWMutex
	scopes  map[string]*scope
	deps    map[string][]string
	prelude *graph.Graph

	settings report.Settings
	checker  *conformance.Checker
	renderer *report.Renderer
	logger   *zap.Logger
}

type Option func(*Registry)

func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

func WithSettings(s report.Settings) Option {
	return func(r *Registry) {
		r.settings = s
	}
}

func New(opts ...Option) *Registry {
	r := &Registry{
		scopes:  make(map[string]*scope),
		deps:    make(map[string][]string),
		prelude: graph.NewPrelude(),
		checker: conformance.NewChecker(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.renderer = report.NewRenderer(r.logger, r.settings)
	return r
}

func (r *Registry) scope(name string) (*scope, error) {
	if name == "" {
		return nil, fmt.Errorf("scope name is empty")
	}
	if name == graph.PreludeScope {
		return nil, graph.NewOrderError(graph.CodeFinalized, name, "the prelude scope cannot be modified")
	}
	r.mu.RLock()
	s, ok := r.scopes[name]
	r.mu.RUnlock()
	if ok {
		return s, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.scopes[name]; ok {
		return s, nil
	}
	g := graph.NewGraph(name)
	g.Import(r.prelude, true)
	s = &scope{name: name, graph: g}
	r.scopes[name] = s
	return s, nil
}

func (r *Registry) lookup(name string) (*scope, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.scopes[name]
	return s, ok
}

func (r *Registry) DeclareBase(scopeName string, d graph.BaseDecl) (*graph.Node, error) {
	s, err := r.scope(scopeName)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.DeclareBase(d)
}

func (r *Registry) DeclareInterface(scopeName string, d graph.InterfaceDecl) (*graph.Node, error) {
	s, err := r.scope(scopeName)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.DeclareInterface(d)
}

func (r *Registry) DeclareConcrete(scopeName string, d graph.ConcreteDecl) (*graph.Node, error) {
	s, err := r.scope(scopeName)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.DeclareConcrete(d)
}

// RegisterImplementation adds impl to the overload set of its function in
// scopeName. It is allowed after finalization; the next FinalizeAndCheck sees it.
func (r *Registry) RegisterImplementation(scopeName string, impl graph.Implementation) (bool, error) {
	s, err := r.scope(scopeName)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	replaced, err := s.graph.RegisterImplementation(impl)
	if err == nil && replaced {
		r.logger.Debug("implementation replaced",
			zap.String("scope", scopeName),
			zap.String("signature", impl.Signature.String()),
			zap.String("source", impl.Source),
		)
	}
	return replaced, err
}

// Import lets scopeName reference types of foreign by qualified name. The
// foreign scope must already exist and the import must not close a cycle.
func (r *Registry) Import(scopeName, foreign string) error {
	if foreign == graph.PreludeScope {
		return nil
	}
	s, err := r.scope(scopeName)
	if err != nil {
		return err
	}
	f, ok := r.lookup(foreign)
	if !ok {
		return graph.NewOrderError(graph.CodeUndeclared, scopeName, "imported scope %q does not exist", foreign)
	}
	s.mu.Lock()
	frozen := s.graph.Frozen()
	s.mu.Unlock()
	if frozen {
		return graph.NewOrderError(graph.CodeFinalized, scopeName, "cannot import %q into a finalized scope", foreign)
	}

	r.mu.Lock()
	if foreign == scopeName || r.reachable(foreign, scopeName) {
		r.mu.Unlock()
		return graph.NewOrderError(graph.CodeCycle, scopeName, "importing %q creates a scope dependency cycle", foreign)
	}
	for _, d := range r.deps[scopeName] {
		if d == foreign {
			r.mu.Unlock()
			return nil
		}
	}
	r.deps[scopeName] = append(r.deps[scopeName], foreign)
	r.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.graph.Import(lockedView{s: f}, false)
	return nil
}

// reachable reports whether to is reachable from from along import edges.
// Callers hold r.mu.
func (r *Registry) reachable(from, to string) bool {
	seen := make(map[string]bool)
	stack := []string{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == to {
			return true
		}
		if seen[cur] {
			continue
		}
		seen[cur] = true
		stack = append(stack, r.deps[cur]...)
	}
	return false
}

// FinalizeAndCheck freezes scopeName, checks every concrete type against its
// inherited requirements and renders the result under the scope's policy.
// The report is returned even when the policy turns it into an error. Calling
// it again re-runs the check against the then-current graph.
// Unknown scopes are an error rather than an empty passing report.
func (r *Registry) FinalizeAndCheck(scopeName string) (*report.Report, error) {
	if scopeName == graph.PreludeScope {
		return nil, graph.NewOrderError(graph.CodeFinalized, scopeName, "the prelude scope cannot be checked")
	}
	s, ok := r.lookup(scopeName)
	if !ok {
		return nil, graph.NewOrderError(graph.CodeUndeclared, scopeName, "scope %q does not exist", scopeName)
	}
	for _, dep := range r.Imports(scopeName) {
		d, _ := r.lookup(dep)
		d.mu.Lock()
		frozen := d.graph.Frozen()
		d.mu.Unlock()
		if !frozen {
			return nil, graph.NewOrderError(graph.CodeNotFinalized, scopeName, "imported scope %q must be finalized first", dep)
		}
	}

	s.mu.Lock()
	s.graph.Freeze()
	res := r.checker.Check(s.graph)
	s.mu.Unlock()

	rep := report.Build(res, r.renderer.PolicyFor(scopeName))
	s.mu.Lock()
	s.last = rep
	s.mu.Unlock()

	r.logger.Debug("scope checked",
		zap.String("scope", scopeName),
		zap.Int("attempted", res.Stats.Attempted),
		zap.Int("satisfied", res.Stats.Satisfied),
		zap.Int("missing", res.Stats.Missing),
	)
	return rep, r.renderer.Render(rep)
}

// KindOf reports the kind of the type ref resolves to from scopeName.
func (r *Registry) KindOf(scopeName string, ref signature.Named) (graph.Kind, error) {
	s, err := r.scope(scopeName)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.KindOf(ref)
}

// Graph returns the graph of scopeName. Callers must not declare into it directly.
func (r *Registry) Graph(scopeName string) (*graph.Graph, bool) {
	if scopeName == graph.PreludeScope {
		return r.prelude, true
	}
	s, ok := r.lookup(scopeName)
	if !ok {
		return nil, false
	}
	return s.graph, true
}

// LastReport returns the report of the most recent FinalizeAndCheck of scopeName.
func (r *Registry) LastReport(scopeName string) (*report.Report, bool) {
	s, ok := r.lookup(scopeName)
	if !ok {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.last != nil
}

// Scopes returns the names of all user scopes, sorted.
func (r *Registry) Scopes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.scopes))
	for name := range r.scopes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Imports returns the scopes scopeName imports, in import order.
func (r *Registry) Imports(scopeName string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.deps[scopeName]...)
}
