// Package report renders a FinalResult for downstream consumers.
package report

import (
	"fmt"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/sastkit/sastkit/internal/location"
	"github.com/sastkit/sastkit/internal/result"
)

const toolName = "sastkit"
const toolURI = "https://github.com/sastkit/sastkit"

// ToSarif converts a final result into a SARIF report with one run. Taint
// traces become SARIF code flows so data-flow findings stay explainable in
// SARIF viewers.
func ToSarif(final *result.FinalResult) (*sarif.Report, error) {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, fmt.Errorf("failed to create sarif report: %w", err)
	}

	run := sarif.NewRunWithInformationURI(toolName, toolURI)
	run.Properties = sarif.Properties{
		"run_id":    final.Profile.RunID,
		"wall_time": final.Profile.WallTime.String(),
	}
	if len(final.Errors) > 0 {
		var summaries []string
		for i := range final.Errors {
			e := &final.Errors[i]
			summaries = append(summaries, fmt.Sprintf("%s: %s", e.Kind, e.Message))
		}
		run.Properties["errors"] = summaries
	}

	seenRules := make(map[string]bool)
	addRule := func(ruleID string) {
		if seenRules[ruleID] {
			return
		}
		seenRules[ruleID] = true
		desc := run.AddRule(ruleID)
		if kind, ok := final.EngineByRule[ruleID]; ok {
			desc.WithProperties(sarif.Properties{"engine": string(kind)})
		}
	}

	for i := range final.Matches {
		m := &final.Matches[i]
		addRule(m.RuleID)

		res := run.CreateResultForRule(m.RuleID).
			WithLevel(severityToLevel(m.Severity)).
			WithMessage(sarif.NewTextMessage(matchMessage(m))).
			WithLocations([]*sarif.Location{sarifLocation(m.Path, m.Range)})

		if m.Taint != nil {
			res.CodeFlows = append(res.CodeFlows, taintCodeFlow(m))
		}
	}

	report.AddRun(run)
	return report, nil
}

func matchMessage(m *result.Match) string {
	if m.Taint != nil {
		return m.Taint.Format()
	}
	return fmt.Sprintf("rule %s matched", m.RuleID)
}

// taintCodeFlow renders the source-to-sink path as one thread flow.
func taintCodeFlow(m *result.Match) *sarif.CodeFlow {
	codeFlow := sarif.NewCodeFlow()
	threadFlow := sarif.NewThreadFlow()
	for _, r := range m.Taint.Flatten() {
		threadFlow.Locations = append(threadFlow.Locations, &sarif.ThreadFlowLocation{
			Location: sarifLocation(m.Path, r),
		})
	}
	codeFlow.ThreadFlows = append(codeFlow.ThreadFlows, threadFlow)
	return codeFlow
}

func sarifLocation(path string, r location.Range) *sarif.Location {
	region := sarif.NewRegion().
		WithStartLine(r.Start.Line).
		WithEndLine(r.End.Line).
		WithStartColumn(r.Start.Col).
		WithEndColumn(r.End.Col)
	physical := sarif.NewPhysicalLocation().
		WithArtifactLocation(sarif.NewArtifactLocation().WithUri(path)).
		WithRegion(region)
	return sarif.NewLocation().WithPhysicalLocation(physical)
}

func severityToLevel(severity string) string {
	switch severity {
	case "ERROR":
		return "error"
	case "WARNING":
		return "warning"
	case "INFO":
		return "note"
	default:
		return "warning"
	}
}
