package ribbonsync

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/ribbonsync/pkg/cache"
	"github.com/agentstation/ribbonsync/pkg/discovery"
	"github.com/agentstation/ribbonsync/pkg/logging"
	"github.com/agentstation/ribbonsync/pkg/reconciler"
	"github.com/agentstation/ribbonsync/pkg/tree"
)

// Compile-time interface check to ensure proper implementation.
var _ Loader = (*session)(nil)

// Loader performs load passes.
type Loader interface {
	// Load discovers every package and reconciles it into the live UI.
	// A package that fails is recorded on its PackageReport and the others
	// still load; the returned error is only set when ctx is done.
	Load(ctx context.Context) (*Report, error)
}

// Load implements Loader.
func (s *session) Load(ctx context.Context) (*Report, error) {
	// Step 0: Set context
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Step 1: Tag the pass
	if s.options.logger != nil {
		ctx = logging.WithLogger(ctx, s.options.logger)
	}
	report := &Report{
		RunID:     uuid.NewString(),
		DryRun:    s.options.dryRun,
		StartTime: time.Now(),
	}
	ctx = logging.WithRunID(ctx, report.RunID)
	logger := logging.FromContext(ctx)

	// Step 2: Locate every package so each one knows the tabs of the others
	plans := make([]*discovery.Plan, len(s.options.packages))
	for i, root := range s.options.packages {
		if err := ctx.Err(); err != nil {
			return finish(report), err
		}
		pr := &PackageReport{Root: root}
		report.Packages = append(report.Packages, pr)

		plan, err := s.discoverer.Locate(ctx, root)
		if err != nil {
			pr.Err = err
			logger.Error().Err(err).Str("root", root).Msg("Could not locate package")
			continue
		}
		pr.Identity = plan.Identity
		pr.Diagnostics = append(pr.Diagnostics, plan.Diagnostics...)
		plans[i] = plan
	}

	// Step 3: Build every desired tree before touching the UI, so each
	// package knows everything the others declare
	desired := make([]*tree.Node, len(plans))
	for i, pr := range report.Packages {
		if err := ctx.Err(); err != nil {
			return finish(report), err
		}
		if plans[i] != nil {
			desired[i] = s.buildPackage(ctx, pr, plans[i])
		}
	}

	// Step 4: Reconcile packages one at a time
	for i, pr := range report.Packages {
		if err := ctx.Err(); err != nil {
			return finish(report), err
		}
		if desired[i] != nil {
			s.reconcilePackage(ctx, pr, desired[i], protectedTabs(plans, i), others(desired, i))
		}
		s.hooks.triggerPackage(pr)
	}
	if err := ctx.Err(); err != nil {
		return finish(report), err
	}

	// Step 5: Log totals
	finish(report)
	totals := report.Totals()
	logger.Info().
		Int("packages", len(report.Packages)).
		Int("failed", len(report.Failed())).
		Int("created", totals.Created).
		Int("updated", totals.Updated).
		Int("disabled", totals.Disabled).
		Bool("dry_run", report.DryRun).
		Dur("duration", report.Duration).
		Msg("Load completed")

	return report, nil
}

// ============================================================================
// Helper Methods for Load
// ============================================================================

// buildPackage builds the desired tree of one package. It returns nil when
// ctx is done before every tab was loaded.
func (s *session) buildPackage(ctx context.Context, pr *PackageReport, plan *discovery.Plan) *tree.Node {
	ctx = logging.WithPackage(ctx, plan.Identity)

	tabs := make([]*tree.Node, 0, len(plan.Tabs))
	for _, loc := range plan.Tabs {
		if err := ctx.Err(); err != nil {
			pr.Err = err
			return nil
		}
		tab, tr := s.loadTab(ctx, pr, plan, loc)
		tabs = append(tabs, tab)
		pr.Tabs = append(pr.Tabs, tr)
	}
	return plan.Package(tabs)
}

// reconcilePackage applies a desired package tree to the live UI, leaving
// alone everything the other packages own.
func (s *session) reconcilePackage(ctx context.Context, pr *PackageReport, pkg *tree.Node, protected []string, owned []*tree.Node) {
	ctx = logging.WithPackage(ctx, pkg.Identity)
	logger := logging.FromContext(ctx)

	rec, err := reconciler.New(
		reconciler.WithProtectedTabs(protected...),
		reconciler.WithProtectedTree(owned...),
		reconciler.WithDryRun(s.options.dryRun),
	)
	if err != nil {
		pr.Err = err
		return
	}
	res, err := rec.Reconcile(ctx, pkg, s.ui)
	pr.Result = res
	if err != nil {
		pr.Err = err
		logger.Error().Err(err).Msg("Reconciliation aborted")
		return
	}

	logger.Info().
		Int("tabs", len(pr.Tabs)).
		Int("cached", pr.CacheHits()).
		Int("diagnostics", len(pr.Diagnostics)).
		Int("ui_errors", len(res.Errors)).
		Msg("Loaded package")
}

// loadTab returns the cached tree of a tab when its fingerprint is
// unchanged, and otherwise discovers it and saves a fresh snapshot.
func (s *session) loadTab(ctx context.Context, pr *PackageReport, plan *discovery.Plan, loc discovery.TabLocation) (*tree.Node, TabReport) {
	ctx = logging.WithTab(ctx, loc.Identity)
	logger := logging.FromContext(ctx)
	tr := TabReport{Identity: loc.Identity, Source: SourceDiscovery}
	key := cache.Key{Package: plan.Identity, Tab: loc.Identity}

	hash, err := cache.Fingerprint(s.options.layout, loc.Dirs...)
	if err != nil {
		logger.Warn().Err(err).Msg("Could not fingerprint tab, discovering without cache")
	} else {
		tr.Hash = hash
		snap, err := s.options.store.Load(ctx, key, hash)
		if err == nil {
			err = s.discoverer.CheckAliases(snap.Tree)
		}
		if err == nil {
			tr.Source = SourceCache
			tr.Commands = snap.Tree.CountCommands()
			logger.Debug().Str("hash", hash).Msg("Loaded tab from cache")
			return snap.Tree, tr
		}
		logger.Debug().Err(err).Msg("Tab cache miss")
	}

	tab, diags := s.discoverer.DiscoverTab(ctx, plan, loc)
	pr.Diagnostics = append(pr.Diagnostics, diags...)
	tr.Commands = tab.CountCommands()

	// Only complete, freshly discovered trees are written
	if tr.Hash == "" || s.options.dryRun || ctx.Err() != nil {
		return tab, tr
	}
	if err := s.options.store.Save(ctx, key, cache.NewSnapshot(tab, tr.Hash)); err != nil {
		tr.CacheErr = err
		logger.Warn().Err(err).Msg("Could not save tab snapshot")
	}
	return tab, tr
}

// protectedTabs lists the tab identities of every located package but the
// i-th, so its final cleanup leaves them alone.
func protectedTabs(plans []*discovery.Plan, i int) []string {
	var out []string
	for j, p := range plans {
		if j == i || p == nil {
			continue
		}
		for _, loc := range p.Tabs {
			out = append(out, loc.Identity)
		}
	}
	return out
}

// others returns every desired tree but the i-th.
func others(desired []*tree.Node, i int) []*tree.Node {
	var out []*tree.Node
	for j, d := range desired {
		if j != i && d != nil {
			out = append(out, d)
		}
	}
	return out
}

func finish(r *Report) *Report {
	r.Duration = time.Since(r.StartTime)
	return r
}
