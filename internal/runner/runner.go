// Package runner wires the execution core together: target preparation,
// extract expansion, scheduling, the main and secrets passes, match
// adjustment, capping, and final aggregation.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/sastkit/sastkit/internal/applier"
	"github.com/sastkit/sastkit/internal/engine"
	"github.com/sastkit/sastkit/internal/extract"
	"github.com/sastkit/sastkit/internal/location"
	"github.com/sastkit/sastkit/internal/result"
	"github.com/sastkit/sastkit/internal/rule"
	"github.com/sastkit/sastkit/internal/scheduler"
	"github.com/sastkit/sastkit/internal/target"
)

// Engine bundles the collaborator seams one matching engine provides.
type Engine interface {
	engine.Parser
	engine.Matcher
	engine.Extractor
}

// Options configures one run.
type Options struct {
	// Workers is the degree of parallelism; values below 2 run sequentially.
	Workers int
	// RuleTimeout bounds each engine invocation.
	RuleTimeout time.Duration
	// MemoryMB is the per-invocation memory ceiling.
	MemoryMB int
	// MaxMatchesPerFile caps pathological per-file match counts.
	MaxMatchesPerFile int
	// FailFast aborts the whole run on the first failure.
	FailFast bool
	// ScanRoot and Language drive the file-discovery fallback when no
	// explicit target list is supplied.
	ScanRoot string
	Language string
	// ProLanguages and ProHooks control engine attribution.
	ProLanguages map[string]bool
	ProHooks     bool
	// Explain adds per-rule explanation entries to the final result.
	Explain bool
	// OnMatch observes matches incrementally, e.g. for a live progress UI.
	OnMatch func(result.Match)
	// NewEngine builds a worker-local engine. Defaults to the reference
	// regex engine.
	NewEngine func() Engine

	Logger hclog.Logger
}

func (o *Options) engineFactory() func() Engine {
	if o.NewEngine != nil {
		return o.NewEngine
	}
	return func() Engine { return engine.NewRegex() }
}

// Run executes every applicable rule against every target and aggregates the
// outcome. An empty target list is a valid run yielding an empty result; a
// rule set with no valid rule is a configuration error raised before any
// scheduling begins. In fail-fast mode the first failure aborts the run with
// no FinalResult.
func Run(ctx context.Context, opts Options, rules *rule.CompiledRules, targets []target.Target) (*result.FinalResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("rule configuration error: %w", err)
	}

	start := time.Now()
	final := &result.FinalResult{
		Profile: result.Profile{
			RunID:   uuid.NewString(),
			Targets: make(map[string]result.TargetTiming),
		},
		EngineByRule: make(map[string]result.EngineKind),
	}

	if len(targets) == 0 && opts.ScanRoot != "" {
		discovered, skipped, err := target.Discover(opts.ScanRoot, opts.Language, len(rules.Valid), logger)
		if err != nil {
			return nil, fmt.Errorf("target discovery failed: %w", err)
		}
		targets = discovered
		final.Skipped = append(final.Skipped, skipped...)
	}

	// Extract expansion runs first so synthetic targets join the queue.
	sharedEngine := opts.engineFactory()()
	expander := extract.NewExpander(sharedEngine, sharedEngine, logger)
	synthetic, adjusters, extractErrs := expander.Expand(ctx, rules, targets)
	if opts.FailFast && len(extractErrs) > 0 {
		return nil, fmt.Errorf("extract expansion failed: %s", extractErrs[0].Message)
	}
	final.Errors = append(final.Errors, extractErrs...)

	queue := make([]target.Target, 0, len(targets)+len(synthetic))
	queue = append(queue, targets...)
	queue = append(queue, synthetic...)

	logger.Info("scan starting",
		"run_id", final.Profile.RunID,
		"rules", len(rules.Valid),
		"targets", len(targets),
		"nested_targets", len(synthetic),
		"workers", opts.Workers)

	// Cancelled on the first fail-fast abort so targets still waiting for a
	// worker are never dispatched.
	runCtx, stopDispatch := context.WithCancel(ctx)
	defer stopDispatch()

	outcomes := scheduler.Map(runCtx, opts.Workers, queue,
		func(t target.Target) int64 { return t.SizeBytes },
		func(t target.Target) applier.Outcome {
			out := processTarget(opts, rules, logger, t)
			if out.Abort != nil {
				stopDispatch()
			}
			return out
		},
	)

	for _, out := range outcomes {
		if out.Abort != nil {
			return nil, fmt.Errorf("run aborted (fail-fast) on %s: %w", out.Target.Path, out.Abort)
		}
	}

	aggregate(final, outcomes, adjusters, opts, rules)
	final.Profile.WallTime = time.Since(start)
	logger.Info("scan finished",
		"run_id", final.Profile.RunID,
		"matches", len(final.Matches),
		"errors", len(final.Errors),
		"skipped", len(final.Skipped))
	return final, nil
}

// processTarget is one worker invocation: build worker-local appliers and
// run the main pass plus the secrets pass over a single target.
func processTarget(opts Options, rules *rule.CompiledRules, logger hclog.Logger, t target.Target) applier.Outcome {
	if _, err := t.Read(); err != nil {
		if opts.FailFast {
			return applier.Outcome{Target: t, Abort: err}
		}
		logger.Warn("skipping unreadable target", "path", t.Path, "error", err)
		return applier.Outcome{
			Target: t,
			Errors: []result.Error{{
				Kind:    result.ErrGeneric,
				Path:    t.Path,
				Range:   location.FirstRange(),
				Message: err.Error(),
			}},
			Skipped: []result.Skipped{{
				Path:    t.Path,
				Reason:  result.SkipUnreadable,
				Details: err.Error(),
			}},
		}
	}

	eng := opts.engineFactory()()

	main := applier.New(eng, eng, applier.Options{
		RuleTimeout:  opts.RuleTimeout,
		MemoryMB:     opts.MemoryMB,
		FailFast:     opts.FailFast,
		ProLanguages: opts.ProLanguages,
		ProHooks:     opts.ProHooks,
		OnMatch:      opts.OnMatch,
	}, logger)
	out := main.Apply(rules.Valid, &t)
	if out.Abort != nil {
		return out
	}

	secrets := applier.New(eng, eng, applier.Options{
		RuleTimeout: opts.RuleTimeout,
		MemoryMB:    opts.MemoryMB,
		FailFast:    opts.FailFast,
		Modes:       []rule.Mode{rule.ModeSecrets},
		ForcePro:    true,
		OnMatch:     opts.OnMatch,
	}, logger)
	secretOut := secrets.Apply(rules.Valid, &t)
	if secretOut.Abort != nil {
		return secretOut
	}

	out.Matches = append(out.Matches, secretOut.Matches...)
	out.Errors = append(out.Errors, secretOut.Errors...)
	out.Timing.ParseTime += secretOut.Timing.ParseTime
	out.Timing.MatchTime += secretOut.Timing.MatchTime
	out.Timing.RunTime += secretOut.Timing.RunTime
	return out
}
