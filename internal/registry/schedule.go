package registry

import (
	"context"
	"sort"

	"inherit/internal/graph"
	"inherit/internal/report"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Levels groups the scopes into dependency layers: every scope of a layer
// imports only scopes of earlier layers. Names within a layer are sorted.
func (r *Registry) Levels() ([][]string, error) {
	r.mu.RLock()
	indegree := make(map[string]int, len(r.scopes))
	dependents := make(map[string][]string)
	for name := range r.scopes {
		indegree[name] += 0
		for _, dep := range r.deps[name] {
			indegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}
	r.mu.RUnlock()

	var levels [][]string
	var ready []string
	for name, n := range indegree {
		if n == 0 {
			ready = append(ready, name)
		}
	}
	placed := 0
	for len(ready) > 0 {
		sort.Strings(ready)
		levels = append(levels, ready)
		placed += len(ready)
		var next []string
		for _, name := range ready {
			for _, d := range dependents[name] {
				indegree[d]--
				if indegree[d] == 0 {
					next = append(next, d)
				}
			}
		}
		ready = next
	}
	if placed != len(indegree) {
		var stuck []string
		for name, n := range indegree {
			if n > 0 {
				stuck = append(stuck, name)
			}
		}
		sort.Strings(stuck)
		return nil, graph.NewOrderError(graph.CodeCycle, "", "scope dependency cycle among %v", stuck)
	}
	return levels, nil
}

// CheckAll finalizes and checks every scope in dependency order. Scopes of
// one level run concurrently. Every scope is checked even when others fail;
// the failures are combined into one error. Cancelling ctx stops scheduling
// further levels.
func (r *Registry) CheckAll(ctx context.Context) ([]*report.Report, error) {
	levels, err := r.Levels()
	if err != nil {
		return nil, err
	}

	var reports []*report.Report
	var errs error
	for i, level := range levels {
		if err := ctx.Err(); err != nil {
			return reports, multierr.Append(errs, err)
		}

		levelReports := make([]*report.Report, len(level))
		levelErrs := make([]error, len(level))
		eg, gctx := errgroup.WithContext(ctx)
		for j, name := range level {
			j, name := j, name
			eg.Go(func() error {
				if err := gctx.Err(); err != nil {
					levelErrs[j] = err
					return nil
				}
				levelReports[j], levelErrs[j] = r.FinalizeAndCheck(name)
				return nil
			})
		}
		_ = eg.Wait()

		r.logger.Debug("scope level checked", zap.Int("level", i), zap.Strings("scopes", level))
		for j := range level {
			if levelReports[j] != nil {
				reports = append(reports, levelReports[j])
			}
			errs = multierr.Append(errs, levelErrs[j])
		}
	}
	return reports, errs
}
