// Package applier runs the applicable rules of one pass against one target,
// producing its match set and per-rule errors.
package applier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/sastkit/sastkit/internal/engine"
	"github.com/sastkit/sastkit/internal/guard"
	"github.com/sastkit/sastkit/internal/location"
	"github.com/sastkit/sastkit/internal/result"
	"github.com/sastkit/sastkit/internal/rule"
	"github.com/sastkit/sastkit/internal/target"
)

// Options configures rule application for one pass.
type Options struct {
	// RuleTimeout bounds each engine invocation; zero disables it.
	RuleTimeout time.Duration
	// MemoryMB bounds each engine invocation's allocation burst; zero
	// disables it.
	MemoryMB int
	// Modes selects which rule modes this pass runs. Extract rules never
	// run here regardless of this set.
	Modes []rule.Mode
	// FailFast propagates the first failure instead of recording it.
	FailFast bool
	// ProLanguages marks languages served by the proprietary engine.
	ProLanguages map[string]bool
	// ProHooks is set when proprietary engine hooks are installed.
	ProHooks bool
	// ForcePro attributes every match of this pass to the proprietary
	// engine, used by the secrets pass.
	ForcePro bool
	// OnMatch, when set, observes each match as it is produced. It runs on
	// the worker goroutine and must not assume shared state.
	OnMatch func(result.Match)
}

// Applier applies rules to targets. One Applier instance is worker-local;
// its parser memoization and last-matched-rule slot are never shared.
type Applier struct {
	parser  engine.Parser
	matcher engine.Matcher
	opts    Options
	logger  hclog.Logger
}

// Outcome is the per-target result handed to the aggregator.
type Outcome struct {
	Target  target.Target
	Matches []result.Match
	Errors  []result.Error
	Skipped []result.Skipped
	Timing  result.TargetTiming

	// Abort is set only in fail-fast mode and terminates the run.
	Abort error
}

// New creates a worker-local applier.
func New(parser engine.Parser, matcher engine.Matcher, opts Options, logger hclog.Logger) *Applier {
	if len(opts.Modes) == 0 {
		opts.Modes = []rule.Mode{rule.ModeSearch, rule.ModeTaint, rule.ModeSteps}
	}
	return &Applier{parser: parser, matcher: matcher, opts: opts, logger: logger}
}

// Apply runs the target's applicable rules. Each engine invocation runs
// under a per-rule guard; the whole target additionally runs under a
// backstop guard sized to the applicable rule count, because matching may
// spawn sub-computations the per-rule guard cannot always bound. A backstop
// breach replaces the target's partial output with a single error that names
// the last matched rule for context.
func (a *Applier) Apply(table []rule.Rule, t *target.Target) Outcome {
	start := time.Now()
	applicable := a.selectRules(table, t)
	if len(applicable) == 0 {
		return Outcome{Target: *t, Timing: result.TargetTiming{RunTime: time.Since(start), Bytes: t.SizeBytes}}
	}

	// worker-local diagnostic slot, only ever read for error context
	lastRule := ""

	backstop := guard.Limits{
		Timeout:  a.opts.RuleTimeout * time.Duration(len(applicable)),
		MemoryMB: a.opts.MemoryMB,
	}
	out, err := guard.Run(backstop, func() string {
		return fmt.Sprintf("target %s (last rule %s)", t.Path, lastRule)
	}, func(ctx context.Context) (Outcome, error) {
		return a.applyAll(ctx, applicable, t, &lastRule), nil
	})
	if err != nil {
		if a.opts.FailFast {
			return Outcome{Target: *t, Abort: err}
		}
		out = Outcome{Target: *t, Errors: []result.Error{ruleError(err, lastRule, t.Path)}}
	}
	out.Timing.RunTime = time.Since(start)
	out.Timing.Bytes = t.SizeBytes
	return out
}

func (a *Applier) applyAll(ctx context.Context, applicable []rule.Rule, t *target.Target, lastRule *string) Outcome {
	out := Outcome{Target: *t}
	attribution := a.attribution(t.Language)

	// AST resolution is lazy and memoized for the duration of this call.
	var doc *engine.Document
	parseOnce := func() *engine.Document {
		if doc != nil {
			return doc
		}
		parseStart := time.Now()
		parsed, parseErrs := a.parser.Parse(t.Language, t)
		out.Timing.ParseTime += time.Since(parseStart)
		for _, perr := range parseErrs {
			out.Errors = append(out.Errors, result.Error{
				Kind:    result.ErrASTBuilder,
				Path:    t.Path,
				Range:   location.FirstRange(),
				Message: perr.Error(),
			})
		}
		doc = parsed
		return doc
	}

	for i := range applicable {
		r := &applicable[i]
		if err := ctx.Err(); err != nil {
			// the backstop guard already fired; its failure wins
			return out
		}
		d := parseOnce()
		if d == nil {
			// nothing to match against; parse errors are already recorded
			if a.opts.FailFast && len(out.Errors) > 0 {
				return Outcome{Target: *t, Abort: errors.New(out.Errors[0].Message)}
			}
			return out
		}

		*lastRule = r.ID
		matchStart := time.Now()
		matches, err := guard.Run(guard.Limits{Timeout: a.opts.RuleTimeout, MemoryMB: a.opts.MemoryMB}, func() string {
			return fmt.Sprintf("rule %s on %s", r.ID, t.Path)
		}, func(ctx context.Context) ([]result.Match, error) {
			return a.matcher.Check(ctx, r, d)
		})
		out.Timing.MatchTime += time.Since(matchStart)

		if err != nil {
			if a.opts.FailFast {
				return Outcome{Target: *t, Abort: err}
			}
			out.Errors = append(out.Errors, ruleError(err, r.ID, t.Path))
			a.logger.Debug("rule failed on target", "rule", r.ID, "target", t.Path, "error", err)
			continue
		}

		for _, m := range matches {
			m.Engine = attribution
			out.Matches = append(out.Matches, m)
			if a.opts.OnMatch != nil {
				a.opts.OnMatch(m)
			}
		}
	}
	return out
}

// selectRules picks the target's applicable rules for this pass: referenced
// by index, carrying a pass mode, bound to the target's language, and
// admitted by the rule's path globs. Extract rules are always excluded here;
// they run in the expansion pass.
func (a *Applier) selectRules(table []rule.Rule, t *target.Target) []rule.Rule {
	want := make(map[rule.Mode]bool, len(a.opts.Modes))
	for _, m := range a.opts.Modes {
		want[m] = true
	}

	var out []rule.Rule
	for _, idx := range t.RuleIdx {
		if idx < 0 || idx >= len(table) {
			continue
		}
		r := table[idx]
		if r.Mode == rule.ModeExtract || !want[r.Mode] {
			continue
		}
		if r.Language != t.Language {
			continue
		}
		if !r.AppliesTo(extractReportPath(t)) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (a *Applier) attribution(language string) result.EngineKind {
	if a.opts.ForcePro || a.opts.ProHooks || a.opts.ProLanguages[language] {
		return result.EngineProprietary
	}
	return result.EngineOpenSource
}

// extractReportPath applies path globs against the parent file for
// synthetic targets, since their own paths carry a synthetic suffix.
func extractReportPath(t *target.Target) string {
	if !t.Synthetic {
		return t.Path
	}
	for i := len(t.Path) - 1; i >= 0; i-- {
		if t.Path[i] == '#' {
			return t.Path[:i]
		}
	}
	return t.Path
}

func ruleError(err error, ruleID, path string) result.Error {
	kind := result.ErrGeneric
	if le, ok := guard.AsLimit(err); ok {
		switch le.Kind {
		case guard.KindTimeout:
			kind = result.ErrTimeout
		case guard.KindOutOfMemory:
			kind = result.ErrOutOfMemory
		}
	}
	var pe *engine.PatternError
	if errors.As(err, &pe) {
		kind = result.ErrPatternParse
	}
	var ae *engine.ParseError
	if errors.As(err, &ae) {
		kind = result.ErrASTBuilder
	}
	return result.Error{
		Kind:    kind,
		RuleID:  ruleID,
		Path:    path,
		Range:   location.FirstRange(),
		Message: err.Error(),
	}
}
