package report

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Renderer applies the configured policy and summary verbosity to reports.
type Renderer struct {
	logger   *zap.Logger
	settings Settings
}

func NewRenderer(logger *zap.Logger, settings Settings) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{logger: logger, settings: settings}
}

func (r *Renderer) Settings() Settings { return r.settings }

// PolicyFor resolves the policy that Render will apply to scope.
func (r *Renderer) PolicyFor(scope string) Policy {
	return r.settings.PolicyFor(scope)
}

// Render emits the summary line and acts on rep.Policy. Only fail-fast
// returns an error, and only when methods are missing.
func (r *Renderer) Render(rep *Report) error {
	r.summary(rep)

	switch rep.Policy {
	case PolicySilent:
		return nil
	case PolicyWarn:
		if rep.OK() {
			return nil
		}
		for _, m := range rep.Missing {
			r.logger.Warn("missing method",
				zap.String("scope", rep.Scope),
				zap.String("type", m.Type),
				zap.String("function", m.Function),
				zap.String("expected", m.Expected),
				zap.String("declared_by", m.DeclaredBy),
			)
		}
		r.logger.Warn("conformance check found missing methods",
			zap.String("scope", rep.Scope),
			zap.Int("missing", len(rep.Missing)),
			zap.Strings("types", (&ConformanceError{Missing: rep.Missing}).Types()),
		)
		return nil
	default:
		return rep.Err()
	}
}

func (r *Renderer) summary(rep *Report) {
	var level zapcore.Level
	switch r.settings.SummaryVerbosity() {
	case VerbosityNone:
		return
	case VerbosityDebug:
		level = zapcore.DebugLevel
	case VerbosityWarn:
		level = zapcore.WarnLevel
	case VerbosityError:
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}
	if ce := r.logger.Check(level, rep.Summary()); ce != nil {
		ce.Write(
			zap.String("scope", rep.Scope),
			zap.Int("supertypes", rep.Supertypes),
			zap.Int("requirements", rep.Requirements),
			zap.Int("subtypes", rep.Subtypes),
			zap.Int("missing", len(rep.Missing)),
		)
	}
}
