package capping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sastkit/sastkit/internal/result"
)

func matchesOn(path, ruleID string, n int) []result.Match {
	out := make([]result.Match, n)
	for i := range out {
		out[i] = result.Match{RuleID: ruleID, Path: path}
	}
	return out
}

func TestApplyDropsAllMatchesOfCappedFile(t *testing.T) {
	var matches []result.Match
	matches = append(matches, matchesOn("hot.py", "noisy-rule", 8)...)
	matches = append(matches, matchesOn("ok.py", "noisy-rule", 2)...)

	kept, errors, skipped := Apply(5, matches)

	// hot.py loses all 8, ok.py keeps its 2
	require.Len(t, kept, 2)
	for _, m := range kept {
		assert.Equal(t, "ok.py", m.Path)
	}

	require.Len(t, errors, 1)
	assert.Equal(t, result.ErrTooManyMatches, errors[0].Kind)
	assert.Equal(t, "noisy-rule", errors[0].RuleID)
	assert.Equal(t, "hot.py", errors[0].Path)
	assert.Equal(t, 1, errors[0].Range.Start.Line)

	require.Len(t, skipped, 1)
	assert.Equal(t, result.SkipTooManyMatches, skipped[0].Reason)
	assert.Contains(t, skipped[0].Details, "8 of 8 matches")
	assert.Contains(t, skipped[0].Details, "cap 5")
}

func TestApplyReportsEveryContributingRule(t *testing.T) {
	var matches []result.Match
	matches = append(matches, matchesOn("hot.py", "rule-b", 4)...)
	matches = append(matches, matchesOn("hot.py", "rule-a", 3)...)

	kept, errors, skipped := Apply(5, matches)

	assert.Empty(t, kept)
	require.Len(t, errors, 1)
	assert.Equal(t, "rule-b", errors[0].RuleID, "the most offending rule owns the error")

	require.Len(t, skipped, 2)
	assert.Contains(t, skipped[0].Details, "rule rule-a produced 3")
	assert.Contains(t, skipped[1].Details, "rule rule-b produced 4")
}

func TestApplyTieBreaksByRuleID(t *testing.T) {
	var matches []result.Match
	matches = append(matches, matchesOn("hot.py", "zeta", 3)...)
	matches = append(matches, matchesOn("hot.py", "alpha", 3)...)

	_, errors, _ := Apply(5, matches)
	require.Len(t, errors, 1)
	assert.Equal(t, "alpha", errors[0].RuleID)
}

func TestApplyUnderCapKeepsEverything(t *testing.T) {
	matches := matchesOn("f.py", "r", 5)
	kept, errors, skipped := Apply(5, matches)

	assert.Len(t, kept, 5, "exactly at the cap is not over it")
	assert.Empty(t, errors)
	assert.Empty(t, skipped)
}

func TestApplyDisabled(t *testing.T) {
	matches := matchesOn("f.py", "r", 100)
	kept, errors, skipped := Apply(0, matches)

	assert.Len(t, kept, 100)
	assert.Empty(t, errors)
	assert.Empty(t, skipped)
}

func TestApplyEmptyInput(t *testing.T) {
	kept, errors, skipped := Apply(5, nil)
	assert.Empty(t, kept)
	assert.Empty(t, errors)
	assert.Empty(t, skipped)
}
