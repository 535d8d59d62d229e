package baseline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sastkit/sastkit/internal/location"
	"github.com/sastkit/sastkit/internal/result"
)

func TestDiff_ExactMatch(t *testing.T) {
	prev := []Finding{{RuleID: "r1", Path: "a.py", StartLine: 3, EndLine: 3, Fingerprint: "h1"}}
	cur := []Finding{{RuleID: "r1", Path: "a.py", StartLine: 3, EndLine: 3, Fingerprint: "h1"}}

	d := NewDiff(cur, prev)
	assert.Empty(t, d.NovelIndexes())
	assert.Empty(t, d.Resolved())
}

func TestDiff_LineShiftFallsThroughToFingerprint(t *testing.T) {
	// Same finding moved from line 3 to line 10; the fingerprint stage
	// should still pair it with the baseline entry.
	prev := []Finding{{RuleID: "r1", Path: "a.py", StartLine: 3, EndLine: 3, Fingerprint: "h1"}}
	cur := []Finding{{RuleID: "r1", Path: "a.py", StartLine: 10, EndLine: 10, Fingerprint: "h1"}}

	d := NewDiff(cur, prev)
	assert.Empty(t, d.NovelIndexes())
	assert.Empty(t, d.Resolved())
}

func TestDiff_LinesMatchWithoutFingerprint(t *testing.T) {
	prev := []Finding{{RuleID: "r1", Path: "a.py", StartLine: 3, EndLine: 5}}
	cur := []Finding{{RuleID: "r1", Path: "a.py", StartLine: 3, EndLine: 5, Fingerprint: "h2"}}

	d := NewDiff(cur, prev)
	assert.Empty(t, d.NovelIndexes())
}

func TestDiff_NovelAndResolved(t *testing.T) {
	prev := []Finding{
		{RuleID: "r1", Path: "a.py", StartLine: 3, EndLine: 3, Fingerprint: "h1"},
		{RuleID: "r2", Path: "b.py", StartLine: 7, EndLine: 7, Fingerprint: "h2"},
	}
	cur := []Finding{
		{RuleID: "r1", Path: "a.py", StartLine: 3, EndLine: 3, Fingerprint: "h1"},
		{RuleID: "r3", Path: "c.py", StartLine: 1, EndLine: 1, Fingerprint: "h3"},
	}

	d := NewDiff(cur, prev)
	assert.Equal(t, []int{1}, d.NovelIndexes())
	resolved := d.Resolved()
	require.Len(t, resolved, 1)
	assert.Equal(t, "r2", resolved[0].RuleID)
}

func TestDiff_DifferentRuleNeverCorrelates(t *testing.T) {
	prev := []Finding{{RuleID: "r1", Path: "a.py", StartLine: 3, EndLine: 3, Fingerprint: "h1"}}
	cur := []Finding{{RuleID: "r2", Path: "a.py", StartLine: 3, EndLine: 3, Fingerprint: "h1"}}

	d := NewDiff(cur, prev)
	assert.Len(t, d.NovelIndexes(), 1)
	assert.Len(t, d.Resolved(), 1)
}

func TestFingerprint(t *testing.T) {
	src := []byte("one\ntwo\nthree\n")

	assert.NotEmpty(t, Fingerprint(src, 2, 2))
	assert.Equal(t, Fingerprint(src, 2, 2), Fingerprint([]byte("zzz\ntwo\n"), 2, 2),
		"same snippet at a different line must hash identically")
	assert.NotEqual(t, Fingerprint(src, 1, 1), Fingerprint(src, 2, 2))
	assert.Equal(t, Fingerprint(src, 1, 2), Fingerprint(src, 1, 2))

	assert.Empty(t, Fingerprint(src, 0, 0))
	assert.Empty(t, Fingerprint(src, 99, 99))
}

func TestFileFingerprint_UnreadableFile(t *testing.T) {
	assert.Empty(t, FileFingerprint(filepath.Join(t.TempDir(), "missing.py"), 1, 1))
}

func TestApply_SuppressesBaselineFindings(t *testing.T) {
	tmpDir := t.TempDir()
	srcPath := filepath.Join(tmpDir, "app.py")
	require.NoError(t, os.WriteFile(srcPath, []byte("import os\neval(data)\nprint(1)\n"), 0o644))

	matchAt := func(ruleID string, line int) result.Match {
		return result.Match{
			RuleID: ruleID,
			Path:   srcPath,
			Range: location.Range{
				Start: location.Position{Line: line, Col: 1},
				End:   location.Position{Line: line, Col: 5},
			},
			Engine: result.EngineOpenSource,
		}
	}

	// Baseline run: both findings present, fingerprints recorded.
	previous := result.FinalResult{Matches: []result.Match{matchAt("rule-eval", 2)}}
	for i := range previous.Matches {
		m := &previous.Matches[i]
		m.Fingerprint = FileFingerprint(m.Path, m.Range.Start.Line, m.Range.End.Line)
	}
	raw, err := json.Marshal(previous)
	require.NoError(t, err)
	baselinePath := filepath.Join(tmpDir, "baseline.json")
	require.NoError(t, os.WriteFile(baselinePath, raw, 0o644))

	// Current run: the baseline finding plus one new one.
	final := result.FinalResult{Matches: []result.Match{
		matchAt("rule-eval", 2),
		matchAt("rule-print", 3),
	}}

	require.NoError(t, Apply(&final, baselinePath, hclog.NewNullLogger()))
	require.Len(t, final.Matches, 1)
	assert.Equal(t, "rule-print", final.Matches[0].RuleID)
	assert.NotEmpty(t, final.Matches[0].Fingerprint, "kept matches carry fingerprints for the next baseline")
}

func TestApply_MissingBaselineFile(t *testing.T) {
	final := result.FinalResult{}
	err := Apply(&final, filepath.Join(t.TempDir(), "nope.json"), hclog.NewNullLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read baseline report")
}
