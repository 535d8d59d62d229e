// Package capping bounds pathological per-file match counts.
package capping

import (
	"fmt"
	"sort"

	"github.com/sastkit/sastkit/internal/location"
	"github.com/sastkit/sastkit/internal/result"
)

// Apply removes every match of any file whose total match count exceeds
// maxPerFile. Partial retention is disallowed: keeping a subset would leave
// downstream range-overlap logic unbounded. For each capped file it emits
// one TooManyMatches error naming the rule with the highest count on that
// file, plus one skip record per rule that contributed matches there, so
// tooling can both halt confidently and audit which rules ran hot.
//
// A maxPerFile of zero or less disables capping.
func Apply(maxPerFile int, matches []result.Match) ([]result.Match, []result.Error, []result.Skipped) {
	if maxPerFile <= 0 {
		return matches, nil, nil
	}

	perFile := make(map[string]int)
	for _, m := range matches {
		perFile[m.Path]++
	}

	capped := make(map[string]bool)
	for path, count := range perFile {
		if count > maxPerFile {
			capped[path] = true
		}
	}
	if len(capped) == 0 {
		return matches, nil, nil
	}

	kept := make([]result.Match, 0, len(matches))
	perFileRule := make(map[string]map[string]int)
	for _, m := range matches {
		if !capped[m.Path] {
			kept = append(kept, m)
			continue
		}
		byRule := perFileRule[m.Path]
		if byRule == nil {
			byRule = make(map[string]int)
			perFileRule[m.Path] = byRule
		}
		byRule[m.RuleID]++
	}

	var errors []result.Error
	var skipped []result.Skipped
	for _, path := range sortedKeys(capped) {
		byRule := perFileRule[path]
		offender := mostOffendingRule(byRule)
		errors = append(errors, result.Error{
			Kind:   result.ErrTooManyMatches,
			RuleID: offender,
			Path:   path,
			Range:  location.FirstRange(),
			Message: fmt.Sprintf("%d matches on %s exceed the per-file cap of %d; all matches for this file were dropped",
				perFile[path], path, maxPerFile),
		})
		for _, ruleID := range sortedRuleIDs(byRule) {
			skipped = append(skipped, result.Skipped{
				Path:   path,
				Reason: result.SkipTooManyMatches,
				Details: fmt.Sprintf("rule %s produced %d of %d matches (cap %d)",
					ruleID, byRule[ruleID], perFile[path], maxPerFile),
			})
		}
	}

	return kept, errors, skipped
}

// mostOffendingRule picks the rule with the highest match count, breaking
// ties by rule ID so repeated runs report the same offender.
func mostOffendingRule(byRule map[string]int) string {
	var offender string
	best := -1
	for _, ruleID := range sortedRuleIDs(byRule) {
		if byRule[ruleID] > best {
			best = byRule[ruleID]
			offender = ruleID
		}
	}
	return offender
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedRuleIDs(byRule map[string]int) []string {
	out := make([]string, 0, len(byRule))
	for k := range byRule {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
