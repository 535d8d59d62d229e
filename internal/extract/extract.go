// Package extract runs extract-mode rules to synthesize nested sub-targets
// from parent targets, and builds the coordinate adjusters that map matches
// in synthetic content back into the parent file.
package extract

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/sastkit/sastkit/internal/engine"
	"github.com/sastkit/sastkit/internal/location"
	"github.com/sastkit/sastkit/internal/result"
	"github.com/sastkit/sastkit/internal/rule"
	"github.com/sastkit/sastkit/internal/target"
)

// Adjuster maps a range in synthetic content back to parent-file coordinates.
type Adjuster func(location.Range) location.Range

// Expander synthesizes nested targets from extract rules.
type Expander struct {
	parser    engine.Parser
	extractor engine.Extractor
	logger    hclog.Logger
}

// NewExpander wires an expander to its parser and extractor collaborators.
func NewExpander(parser engine.Parser, extractor engine.Extractor, logger hclog.Logger) *Expander {
	return &Expander{parser: parser, extractor: extractor, logger: logger}
}

// Expand runs every extract rule against every basic target. It returns the
// synthetic targets to append to the work queue, a lookup from synthetic
// target path to its adjuster, and any per-target errors hit along the way.
// Extraction failures never abort the expansion; they are recorded and the
// remaining targets still expand.
func (e *Expander) Expand(ctx context.Context, rules *rule.CompiledRules, targets []target.Target) ([]target.Target, map[string]Adjuster, []result.Error) {
	extractRules := rules.ByMode(rule.ModeExtract)
	if len(extractRules) == 0 {
		return nil, nil, nil
	}

	var synthetic []target.Target
	adjusters := make(map[string]Adjuster)
	var errors []result.Error

	for i := range targets {
		parent := &targets[i]
		var doc *engine.Document

		for _, r := range extractRules {
			r := r
			if r.Language != parent.Language || !r.AppliesTo(parent.Path) {
				continue
			}
			if doc == nil {
				parsed, parseErrs := e.parser.Parse(parent.Language, parent)
				if len(parseErrs) > 0 {
					errors = append(errors, result.Error{
						Kind:    result.ErrASTBuilder,
						Path:    parent.Path,
						Range:   location.FirstRange(),
						Message: parseErrs[0].Error(),
					})
				}
				if parsed == nil {
					break
				}
				doc = parsed
			}

			extractions, err := e.extractor.Extract(ctx, &r, doc)
			if err != nil {
				errors = append(errors, extractionError(&r, parent.Path, err))
				continue
			}
			for n, ex := range extractions {
				path := fmt.Sprintf("%s#%s.%d", parent.Path, r.ID, n)
				synthetic = append(synthetic, target.Target{
					Path:      path,
					Language:  r.NestedLanguage,
					RuleIdx:   ruleIndexesForLanguage(rules, r.NestedLanguage),
					SizeBytes: int64(len(ex.Content)),
					Content:   ex.Content,
					Synthetic: true,
				})
				adjusters[path] = newOffsetAdjuster(doc.Index, ex.Content, ex.StartOffset)
				e.logger.Debug("extracted nested target",
					"parent", parent.Path, "rule", r.ID, "language", r.NestedLanguage, "bytes", len(ex.Content))
			}
		}
	}

	return synthetic, adjusters, errors
}

// RewritePath strips the synthetic suffix, restoring the parent file path
// for reporting.
func RewritePath(syntheticPath string) string {
	for i := len(syntheticPath) - 1; i >= 0; i-- {
		if syntheticPath[i] == '#' {
			return syntheticPath[:i]
		}
	}
	return syntheticPath
}

func extractionError(r *rule.Rule, path string, err error) result.Error {
	kind := result.ErrGeneric
	var pe *engine.PatternError
	if errors.As(err, &pe) {
		kind = result.ErrPatternParse
	}
	return result.Error{
		Kind:    kind,
		RuleID:  r.ID,
		Path:    path,
		Range:   location.FirstRange(),
		Message: err.Error(),
	}
}

func ruleIndexesForLanguage(rules *rule.CompiledRules, language string) []int {
	var idx []int
	for i, r := range rules.Valid {
		if r.Mode != rule.ModeExtract && r.Language == language {
			idx = append(idx, i)
		}
	}
	return idx
}
