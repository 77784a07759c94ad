package report

import (
	"fmt"
	"strings"
)

// Policy decides what happens when a scope has missing methods.
type Policy string

const (
	PolicyFailFast Policy = "fail-fast"
	PolicyWarn     Policy = "warn"
	PolicySilent   Policy = "silent"
)

// DefaultPolicy applies when neither a scope override nor a global default is set.
const DefaultPolicy = PolicyFailFast

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyFailFast, PolicyWarn, PolicySilent:
		return p, nil
	case "failfast", "error":
		return PolicyFailFast, nil
	}
	return "", fmt.Errorf("unknown report policy %q (want fail-fast, warn or silent)", s)
}

// Verbosity is the severity of the summary line. VerbosityNone suppresses it.
type Verbosity string

const (
	VerbosityDebug Verbosity = "debug"
	VerbosityInfo  Verbosity = "info"
	VerbosityWarn  Verbosity = "warn"
	VerbosityError Verbosity = "error"
	VerbosityNone  Verbosity = "none"
)

func ParseVerbosity(s string) (Verbosity, error) {
	switch v := Verbosity(strings.ToLower(strings.TrimSpace(s))); v {
	case VerbosityDebug, VerbosityInfo, VerbosityWarn, VerbosityError, VerbosityNone:
		return v, nil
	case "":
		return VerbosityInfo, nil
	case "warning":
		return VerbosityWarn, nil
	}
	return "", fmt.Errorf("unknown summary verbosity %q", s)
}

// Settings is the reporting configuration of a registry. The zero value
// resolves every scope to fail-fast with an info summary.
type Settings struct {
	Default Policy
	Scopes  map[string]Policy
	Summary Verbosity
}

// PolicyFor resolves the policy of scope: per-scope override, then the
// global default, then fail-fast.
func (s Settings) PolicyFor(scope string) Policy {
	if p, ok := s.Scopes[scope]; ok && p != "" {
		return p
	}
	if s.Default != "" {
		return s.Default
	}
	return DefaultPolicy
}

func (s Settings) SummaryVerbosity() Verbosity {
	if s.Summary == "" {
		return VerbosityInfo
	}
	return s.Summary
}

// WithScope returns a copy of s with p set for scope.
func (s Settings) WithScope(scope string, p Policy) Settings {
	scopes := make(map[string]Policy, len(s.Scopes)+1)
	for k, v := range s.Scopes {
		scopes[k] = v
	}
	scopes[scope] = p
	s.Scopes = scopes
	return s
}
