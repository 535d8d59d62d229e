package runner

import (
	"fmt"
	"sort"

	"github.com/sastkit/sastkit/internal/applier"
	"github.com/sastkit/sastkit/internal/capping"
	"github.com/sastkit/sastkit/internal/extract"
	"github.com/sastkit/sastkit/internal/result"
	"github.com/sastkit/sastkit/internal/rule"
	"github.com/sastkit/sastkit/internal/trace"
)

// aggregate merges per-target outcomes into the final result, in arrival
// order. Synthetic-target matches are adjusted into parent-file coordinates
// first, and the synthetic targets themselves disappear from the report.
// Capping runs once over the complete match set; its errors and skips are
// appended, never replacing prior valid matches from other files.
func aggregate(final *result.FinalResult, outcomes []applier.Outcome, adjusters map[string]extract.Adjuster, opts Options, rules *rule.CompiledRules) {
	var matches []result.Match

	for _, out := range outcomes {
		adjust := adjusters[out.Target.Path]
		reportPath := out.Target.Path
		if out.Target.Synthetic {
			reportPath = extract.RewritePath(out.Target.Path)
		}

		for _, m := range out.Matches {
			if adjust != nil {
				m.Range = adjust(m.Range)
				m.Path = reportPath
				adjustTaint(m.Taint, adjust)
			}
			matches = append(matches, m)
		}
		for _, e := range out.Errors {
			if out.Target.Synthetic {
				e.Path = reportPath
			}
			final.Errors = append(final.Errors, e)
		}
		final.Skipped = append(final.Skipped, out.Skipped...)

		timing := final.Profile.Targets[reportPath]
		timing.ParseTime += out.Timing.ParseTime
		timing.MatchTime += out.Timing.MatchTime
		timing.RunTime += out.Timing.RunTime
		if !out.Target.Synthetic {
			timing.Bytes = out.Timing.Bytes
		}
		final.Profile.Targets[reportPath] = timing
	}

	capped, capErrs, capSkips := capping.Apply(opts.MaxMatchesPerFile, matches)
	final.Matches = capped
	final.Errors = append(final.Errors, capErrs...)
	final.Skipped = append(final.Skipped, capSkips...)

	for _, m := range final.Matches {
		final.EngineByRule[m.RuleID] = m.Engine
	}

	if opts.Explain {
		final.Explanations = explain(final, rules)
	}
}

// adjustTaint rewrites every range of a taint trace into parent coordinates.
func adjustTaint(t *trace.TaintTrace, adjust extract.Adjuster) {
	if t == nil {
		return
	}
	adjustCallTrace(&t.Source, adjust)
	for i := range t.Intermediates {
		t.Intermediates[i] = adjust(t.Intermediates[i])
	}
	adjustCallTrace(&t.Sink, adjust)
}

func adjustCallTrace(ct *trace.CallTrace, adjust extract.Adjuster) {
	if ct == nil {
		return
	}
	if ct.Toks != nil {
		r := adjust(*ct.Toks)
		ct.Toks = &r
		return
	}
	if ct.Call != nil {
		ct.Call.Site = adjust(ct.Call.Site)
		for i := range ct.Call.Intermediates {
			ct.Call.Intermediates[i] = adjust(ct.Call.Intermediates[i])
		}
		adjustCallTrace(ct.Call.Inner, adjust)
	}
}

// explain builds the per-rule explanation entries attached when Explain is
// requested: how many matches each rule produced and which engine served it.
func explain(final *result.FinalResult, rules *rule.CompiledRules) []string {
	counts := make(map[string]int)
	for _, m := range final.Matches {
		counts[m.RuleID]++
	}

	var out []string
	for _, r := range rules.Valid {
		if r.Mode == rule.ModeExtract {
			continue
		}
		engine := final.EngineByRule[r.ID]
		if engine == "" {
			engine = result.EngineOpenSource
		}
		out = append(out, fmt.Sprintf("rule %s (%s, %s engine): %d matches", r.ID, r.Mode, engine, counts[r.ID]))
	}
	for _, inv := range rules.Invalid {
		out = append(out, fmt.Sprintf("rule %s: rejected by the rule compiler: %s", inv.ID, inv.Reason))
	}
	sort.Strings(out)
	return out
}
