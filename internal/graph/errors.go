package graph

import "fmt"

// Shape error codes.
const (
	CodeInvalidDecl          = "E100"
	CodeDuplicateType        = "E101"
	CodeWrongParentKind      = "E102"
	CodeMutabilityMismatch   = "E103"
	CodeFieldCollision       = "E104"
	CodeRequirementCollision = "E105"
	CodeAmbiguousRequirement = "E106"
)

// Order error codes.
const (
	CodeUndeclared   = "E201"
	CodeNotImported  = "E202"
	CodeFinalized    = "E203"
	CodeCycle        = "E204"
	CodeNotFinalized = "E205"
)

// ShapeError reports a malformed declaration. The graph is left unchanged.
type ShapeError struct {
	Code    string
	Scope   string
	Type    string
	Message string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s shape error: %s: %s", e.Code, qualify(e.Scope, e.Type), e.Message)
}

// OrderError reports a reference to something not yet available: an
// undeclared parent, an unimported or unfinalized scope, a scope dependency
// cycle, or a declaration into an already finalized scope.
type OrderError struct {
	Code    string
	Scope   string
	Type    string
	Message string
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("%s order error: %s: %s", e.Code, qualify(e.Scope, e.Type), e.Message)
}

func shapeErr(code, scope, typ, format string, args ...interface{}) *ShapeError {
	return &ShapeError{Code: code, Scope: scope, Type: typ, Message: fmt.Sprintf(format, args...)}
}

func orderErr(code, scope, typ, format string, args ...interface{}) *OrderError {
	return &OrderError{Code: code, Scope: scope, Type: typ, Message: fmt.Sprintf(format, args...)}
}

// NewOrderError is used by the registry for scope-level ordering failures.
func NewOrderError(code, scope, format string, args ...interface{}) *OrderError {
	return orderErr(code, scope, "", format, args...)
}

func qualify(scope, name string) string {
	switch {
	case scope == "":
		return name
	case name == "":
		return scope
	default:
		return scope + "." + name
	}
}
