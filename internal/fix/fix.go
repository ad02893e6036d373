// Package fix applies code actions to solutions and checks that the
// result changed and introduced no new errors. Single mode fixes
// exactly one diagnostic; batch mode fixes every fixable diagnostic
// per iteration until none remain.
package fix

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/unbound-force/fixcheck/internal/analysis"
	"github.com/unbound-force/fixcheck/internal/solution"
	"github.com/unbound-force/fixcheck/internal/taxonomy"
	"github.com/unbound-force/fixcheck/internal/verifyerr"
)

// DefaultMaxIterations bounds batch mode when Request.MaxIterations
// is zero.
const DefaultMaxIterations = 16

// Request describes one fix run.
type Request struct {
	// Analyzer reports the diagnostics to fix.
	Analyzer analysis.Analyzer

	// Provider proposes the code actions.
	Provider analysis.Provider

	// Solution is the model to fix. It is never modified.
	Solution *solution.Solution

	// ActionTitle selects among several proposed actions. Empty means
	// exactly one action must be proposed.
	ActionTitle string

	// MaxIterations bounds batch mode. Zero means
	// DefaultMaxIterations.
	MaxIterations int

	// Logger receives debug tracing. Nil disables logging.
	Logger *log.Logger
}

// Result is the outcome of a successful fix run.
type Result struct {
	// Solution is the fixed model.
	Solution *solution.Solution

	// Applications is the chain of applied fixes, oldest first.
	Applications []taxonomy.FixApplication

	// Before and After are the diagnostics of the input and the
	// fixed model.
	Before *analysis.Collected
	After  *analysis.Collected
}

// Single fixes the one fixable diagnostic in the request's solution.
//
// The analyzer must support exactly one identifier
// (ANALYZER_AMBIGUITY) that the provider can fix
// (NO_FIXABLE_DIAGNOSTIC). Exactly one diagnostic must be fixable
// (NO_FIXABLE_DIAGNOSTIC, MULTIPLE_FIXABLE_DIAGNOSTICS) and exactly
// one action must be selected (NO_CODE_ACTION, AMBIGUITY). The result
// must differ from the input (NO_CHANGE) and must not contain error
// diagnostics the input did not have (REGRESSION).
func Single(ctx context.Context, req Request) (*Result, error) {
	ids := req.Analyzer.SupportedDiagnostics()
	if len(ids) != 1 {
		return nil, verifyerr.Newf(verifyerr.AnalyzerAmbiguity,
			"analyzer %s supports %d diagnostics %v; a fix run needs exactly one",
			analysis.NameOf(req.Analyzer), len(ids), ids)
	}
	if err := checkCompatible(req); err != nil {
		return nil, err
	}

	before, err := analysis.Collect(ctx, req.Analyzer, req.Solution)
	if err != nil {
		return nil, err
	}
	fixable := fixableDiagnostics(req.Provider, before)
	switch len(fixable) {
	case 0:
		return nil, verifyerr.Newf(verifyerr.NoFixableDiagnostic,
			"expected one diagnostic fixable by %s (fixable ids %v), found none.\nDiagnostics:\n%s",
			analysis.NameOf(req.Provider), req.Provider.FixableDiagnosticIDs(),
			taxonomy.FormatDiagnostics(before.All()))
	case 1:
	default:
		return nil, verifyerr.Newf(verifyerr.MultipleFixableDiagnostics,
			"expected one fixable diagnostic, found %d. Maybe you meant to call FixAll?\n%s",
			len(fixable), taxonomy.FormatDiagnostics(fixable))
	}
	d := fixable[0]

	action, err := chooseAction(ctx, req, d, req.Solution)
	if err != nil {
		return nil, err
	}
	if action == nil {
		return nil, noCodeAction(req, d, nil)
	}
	req.debug("applying action", "title", action.Title(), "diagnostic", d.String())

	fixed, err := action.Apply(ctx, req.Solution)
	if err != nil {
		return nil, verifyerr.Wrap(verifyerr.Collaborator,
			fmt.Sprintf("applying action %q", action.Title()), err)
	}
	if fixed == nil || fixed.Equal(req.Solution) {
		return nil, verifyerr.Newf(verifyerr.NoChange,
			"action %q for %s did not change any document", action.Title(), d)
	}

	after, err := analysis.Collect(ctx, req.Analyzer, fixed)
	if err != nil {
		return nil, err
	}
	if err := checkRegression(before, after); err != nil {
		return nil, err
	}

	return &Result{
		Solution: fixed,
		Applications: []taxonomy.FixApplication{{
			Iteration:        1,
			Diagnostics:      []taxonomy.Diagnostic{d},
			Provider:         analysis.NameOf(req.Provider),
			Action:           action.Title(),
			ChangedDocuments: req.Solution.ChangedDocuments(fixed),
		}},
		Before: before,
		After:  after,
	}, nil
}

// All fixes every fixable diagnostic, iterating until none remain.
//
// Each iteration proposes an action for every fixable diagnostic of
// the current model, turns each action into edits against that model,
// merges the edit sets that do not conflict and applies them at once.
// Skipped sets are retried in the next iteration. An iteration that
// leaves the model unchanged or leaves the same fixable diagnostics
// behind is NO_PROGRESS, and so is running past MaxIterations.
func All(ctx context.Context, req Request) (*Result, error) {
	if err := checkCompatible(req); err != nil {
		return nil, err
	}
	maxIter := req.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	res := &Result{Solution: req.Solution}
	current, err := analysis.Collect(ctx, req.Analyzer, req.Solution)
	if err != nil {
		return nil, err
	}
	res.Before = current

	for iter := 1; ; iter++ {
		fixable := fixableDiagnostics(req.Provider, current)
		if len(fixable) == 0 {
			if iter == 1 {
				return nil, verifyerr.Newf(verifyerr.NoFixableDiagnostic,
					"expected diagnostics fixable by %s (fixable ids %v), found none.\nDiagnostics:\n%s",
					analysis.NameOf(req.Provider), req.Provider.FixableDiagnosticIDs(),
					taxonomy.FormatDiagnostics(current.All()))
			}
			break
		}
		if iter > maxIter {
			return nil, verifyerr.Newf(verifyerr.NoProgress,
				"%d fixable diagnostics remain after %d iterations:\n%s",
				len(fixable), maxIter, taxonomy.FormatDiagnostics(fixable))
		}

		base := res.Solution
		app, next, err := batch(ctx, req, iter, base, fixable)
		if err != nil {
			return nil, err
		}
		if next.Equal(base) {
			return nil, verifyerr.Newf(verifyerr.NoProgress,
				"iteration %d changed nothing while %d diagnostics remain fixable:\n%s",
				iter, len(fixable), taxonomy.FormatDiagnostics(fixable))
		}

		after, err := analysis.Collect(ctx, req.Analyzer, next)
		if err != nil {
			return nil, err
		}
		if err := checkRegression(current, after); err != nil {
			return nil, err
		}
		if remaining := fixableDiagnostics(req.Provider, after); sameFindings(fixable, remaining) {
			return nil, verifyerr.Newf(verifyerr.NoProgress,
				"iteration %d changed the code but left the same %d fixable diagnostics:\n%s",
				iter, len(remaining), taxonomy.FormatDiagnostics(remaining))
		}

		req.debug("fix-all iteration", "iteration", iter,
			"fixed", len(app.Diagnostics), "changed", strings.Join(app.ChangedDocuments, ","))
		res.Applications = append(res.Applications, app)
		res.Solution = next
		current = after
	}

	res.After = current
	return res, nil
}

// batch runs one fix-all iteration against base.
func batch(ctx context.Context, req Request, iter int, base *solution.Solution, fixable []taxonomy.Diagnostic) (taxonomy.FixApplication, *solution.Solution, error) {
	var (
		sets    [][]taxonomy.TextEdit
		owners  []taxonomy.Diagnostic
		titles  []string
		offered int
	)
	for _, d := range fixable {
		action, err := chooseAction(ctx, req, d, base)
		if err != nil {
			return taxonomy.FixApplication{}, nil, err
		}
		if action == nil {
			req.debug("no action offered", "diagnostic", d.String())
			continue
		}
		offered++

		edits, err := actionEdits(ctx, action, base)
		if err != nil {
			return taxonomy.FixApplication{}, nil, err
		}
		sets = append(sets, edits)
		owners = append(owners, d)
		titles = append(titles, action.Title())
	}
	if offered == 0 {
		return taxonomy.FixApplication{}, nil, noCodeAction(req, fixable[0], nil)
	}

	merged, skipped := solution.MergeEdits(sets)
	if len(skipped) > 0 {
		req.debug("skipping conflicting fixes", "iteration", iter, "count", len(skipped))
	}
	next, err := base.ApplyEdits(merged)
	if err != nil {
		return taxonomy.FixApplication{}, nil, verifyerr.Wrap(verifyerr.Collaborator,
			fmt.Sprintf("applying fix-all edits in iteration %d", iter), err)
	}

	app := taxonomy.FixApplication{
		Iteration:        iter,
		Provider:         analysis.NameOf(req.Provider),
		ChangedDocuments: base.ChangedDocuments(next),
	}
	skip := make(map[int]bool, len(skipped))
	for _, i := range skipped {
		skip[i] = true
	}
	var applied []string
	for i, d := range owners {
		if skip[i] {
			continue
		}
		app.Diagnostics = append(app.Diagnostics, d)
		applied = append(applied, titles[i])
	}
	app.Action = summarizeTitles(applied)
	return app, next, nil
}

// actionEdits describes an action's change as edits against base.
func actionEdits(ctx context.Context, action analysis.CodeAction, base *solution.Solution) ([]taxonomy.TextEdit, error) {
	if ea, ok := action.(analysis.EditAction); ok {
		edits, err := ea.Edits(ctx, base)
		if err != nil {
			return nil, verifyerr.Wrap(verifyerr.Collaborator,
				fmt.Sprintf("computing edits of action %q", action.Title()), err)
		}
		return edits, nil
	}

	changed, err := action.Apply(ctx, base)
	if err != nil {
		return nil, verifyerr.Wrap(verifyerr.Collaborator,
			fmt.Sprintf("applying action %q", action.Title()), err)
	}
	if changed == nil {
		return nil, nil
	}
	edits, err := solution.DiffEdits(base, changed)
	if err != nil {
		return nil, verifyerr.Wrap(verifyerr.Collaborator,
			fmt.Sprintf("action %q", action.Title()), err)
	}
	return edits, nil
}

// chooseAction returns the action to apply for d, or nil when the
// provider offers none.
func chooseAction(ctx context.Context, req Request, d taxonomy.Diagnostic, sol *solution.Solution) (analysis.CodeAction, error) {
	if err := ctx.Err(); err != nil {
		return nil, verifyerr.Wrap(verifyerr.Collaborator, "fix canceled", err)
	}
	actions, err := req.Provider.ProposeActions(ctx, d, sol)
	if err != nil {
		return nil, verifyerr.Wrap(verifyerr.Collaborator,
			fmt.Sprintf("provider %s failed for %s", analysis.NameOf(req.Provider), d), err)
	}

	if req.ActionTitle != "" {
		var matching []analysis.CodeAction
		for _, a := range actions {
			if a.Title() == req.ActionTitle {
				matching = append(matching, a)
			}
		}
		switch len(matching) {
		case 0:
			if len(actions) == 0 {
				return nil, nil
			}
			return nil, noCodeAction(req, d, actions)
		case 1:
			return matching[0], nil
		default:
			return nil, verifyerr.Newf(verifyerr.Ambiguity,
				"%d actions titled %q were proposed for %s", len(matching), req.ActionTitle, d)
		}
	}

	switch len(actions) {
	case 0:
		return nil, nil
	case 1:
		return actions[0], nil
	default:
		return nil, verifyerr.Newf(verifyerr.Ambiguity,
			"%d actions were proposed for %s: %s; select one by title",
			len(actions), d, strings.Join(actionTitles(actions), ", "))
	}
}

func noCodeAction(req Request, d taxonomy.Diagnostic, offered []analysis.CodeAction) error {
	if req.ActionTitle != "" && len(offered) > 0 {
		return verifyerr.Newf(verifyerr.NoCodeAction,
			"no action titled %q was proposed for %s; proposed: %s",
			req.ActionTitle, d, strings.Join(actionTitles(offered), ", "))
	}
	return verifyerr.Newf(verifyerr.NoCodeAction,
		"provider %s proposed no action for %s", analysis.NameOf(req.Provider), d)
}

// checkCompatible fails when the provider fixes none of the
// identifiers the analyzer reports.
func checkCompatible(req Request) error {
	supported := req.Analyzer.SupportedDiagnostics()
	fixable := req.Provider.FixableDiagnosticIDs()
	for _, id := range fixable {
		if analysis.Supports(supported, id) {
			return nil
		}
	}
	return verifyerr.Newf(verifyerr.NoFixableDiagnostic,
		"provider %s fixes %v, none of which analyzer %s reports (%v)",
		analysis.NameOf(req.Provider), fixable, analysis.NameOf(req.Analyzer), supported)
}

func fixableDiagnostics(p analysis.Provider, c *analysis.Collected) []taxonomy.Diagnostic {
	return c.WithIDs(p.FixableDiagnosticIDs())
}

// checkRegression fails when after has error diagnostics that before
// did not. Diagnostics are compared by id and message as a multiset
// since positions move when text is edited.
func checkRegression(before, after *analysis.Collected) error {
	type key struct{ id, msg string }
	counts := make(map[key]int)
	for _, d := range before.Errors() {
		counts[key{d.ID, d.Message}]++
	}
	var introduced []taxonomy.Diagnostic
	for _, d := range after.Errors() {
		k := key{d.ID, d.Message}
		if counts[k] > 0 {
			counts[k]--
			continue
		}
		introduced = append(introduced, d)
	}
	if len(introduced) == 0 {
		return nil
	}
	return verifyerr.Newf(verifyerr.Regression,
		"the fix introduced %d error diagnostics:\n%s",
		len(introduced), taxonomy.FormatDiagnostics(introduced))
}

// sameFindings reports whether a and b hold the same diagnostics by
// id and message, as a multiset.
func sameFindings(a, b []taxonomy.Diagnostic) bool {
	if len(a) != len(b) {
		return false
	}
	type key struct{ id, msg string }
	counts := make(map[key]int, len(a))
	for _, d := range a {
		counts[key{d.ID, d.Message}]++
	}
	for _, d := range b {
		k := key{d.ID, d.Message}
		if counts[k] == 0 {
			return false
		}
		counts[k]--
	}
	return true
}

func actionTitles(actions []analysis.CodeAction) []string {
	titles := make([]string, 0, len(actions))
	for _, a := range actions {
		titles = append(titles, fmt.Sprintf("%q", a.Title()))
	}
	return titles
}

// summarizeTitles joins the distinct titles in sorted order.
func summarizeTitles(titles []string) string {
	seen := make(map[string]bool, len(titles))
	var unique []string
	for _, t := range titles {
		if !seen[t] {
			seen[t] = true
			unique = append(unique, t)
		}
	}
	sort.Strings(unique)
	return strings.Join(unique, "; ")
}

func (r Request) debug(msg string, keyvals ...any) {
	if r.Logger != nil {
		r.Logger.Debug(msg, keyvals...)
	}
}
