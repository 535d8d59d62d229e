package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sastkit/sastkit/internal/location"
	"github.com/sastkit/sastkit/internal/result"
	"github.com/sastkit/sastkit/internal/trace"
)

func rng(line, col, endCol int) location.Range {
	return location.Range{
		Start: location.Position{Line: line, Col: col},
		End:   location.Position{Line: line, Col: endCol},
	}
}

func TestToSarifBasicMatch(t *testing.T) {
	final := &result.FinalResult{
		Matches: []result.Match{
			{RuleID: "py-eval", Path: "app.py", Severity: "ERROR", Range: rng(3, 5, 12), Engine: result.EngineOpenSource},
		},
		Profile:      result.Profile{RunID: "run-123"},
		EngineByRule: map[string]result.EngineKind{"py-eval": result.EngineOpenSource},
	}

	report, err := ToSarif(final)
	require.NoError(t, err)
	require.Len(t, report.Runs, 1)

	run := report.Runs[0]
	assert.Equal(t, "sastkit", run.Tool.Driver.Name)
	assert.Equal(t, "run-123", run.Properties["run_id"])

	require.Len(t, run.Results, 1)
	res := run.Results[0]
	assert.Equal(t, "py-eval", *res.RuleID)
	assert.Equal(t, "error", *res.Level)

	require.Len(t, res.Locations, 1)
	region := res.Locations[0].PhysicalLocation.Region
	assert.Equal(t, 3, *region.StartLine)
	assert.Equal(t, 5, *region.StartColumn)

	require.Len(t, run.Tool.Driver.Rules, 1)
	assert.Equal(t, "py-eval", run.Tool.Driver.Rules[0].ID)
}

func TestToSarifTaintMatchCarriesCodeFlow(t *testing.T) {
	tt := &trace.TaintTrace{
		Source:        trace.Leaf(rng(1, 1, 8)),
		Intermediates: []location.Range{rng(2, 1, 6)},
		Sink:          trace.Leaf(rng(5, 1, 10)),
	}
	final := &result.FinalResult{
		Matches: []result.Match{
			{RuleID: "py-taint", Path: "app.py", Range: rng(5, 1, 10), Taint: tt},
		},
	}

	report, err := ToSarif(final)
	require.NoError(t, err)

	res := report.Runs[0].Results[0]
	require.Len(t, res.CodeFlows, 1)
	require.Len(t, res.CodeFlows[0].ThreadFlows, 1)

	steps := res.CodeFlows[0].ThreadFlows[0].Locations
	require.Len(t, steps, 3, "source, intermediate, sink")
	assert.Equal(t, 1, *steps[0].Location.PhysicalLocation.Region.StartLine)
	assert.Equal(t, 2, *steps[1].Location.PhysicalLocation.Region.StartLine)
	assert.Equal(t, 5, *steps[2].Location.PhysicalLocation.Region.StartLine)

	assert.Contains(t, *res.Message.Text, "taint trace")
}

func TestToSarifErrorSummaries(t *testing.T) {
	final := &result.FinalResult{
		Errors: []result.Error{
			{Kind: result.ErrTimeout, RuleID: "slow", Path: "big.py", Message: "rule slow on big.py"},
		},
	}

	report, err := ToSarif(final)
	require.NoError(t, err)

	run := report.Runs[0]
	summaries, ok := run.Properties["errors"].([]string)
	require.True(t, ok)
	require.Len(t, summaries, 1)
	assert.Contains(t, summaries[0], "Timeout")
	assert.Contains(t, summaries[0], "rule slow on big.py")
}

func TestToSarifEmptyResult(t *testing.T) {
	report, err := ToSarif(&result.FinalResult{})
	require.NoError(t, err)

	run := report.Runs[0]
	assert.Empty(t, run.Results)
	assert.NotContains(t, run.Properties, "errors")
}

func TestSeverityToLevel(t *testing.T) {
	assert.Equal(t, "error", severityToLevel("ERROR"))
	assert.Equal(t, "warning", severityToLevel("WARNING"))
	assert.Equal(t, "note", severityToLevel("INFO"))
	assert.Equal(t, "warning", severityToLevel(""))
}
