// Package baseline correlates the findings of a run against a previously
// written report so that only findings new since that report are kept.
package baseline

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/sastkit/sastkit/internal/result"
)

// Finding is the subset of a match used for correlation.
type Finding struct {
	RuleID      string
	Path        string
	StartLine   int
	EndLine     int
	Fingerprint string
}

// fromMatch projects a match onto its correlation fields. The fingerprint is
// taken from the match itself; for current-run matches it is computed by
// Apply before correlation.
func fromMatch(m result.Match) Finding {
	return Finding{
		RuleID:      m.RuleID,
		Path:        m.Path,
		StartLine:   m.Range.Start.Line,
		EndLine:     m.Range.End.Line,
		Fingerprint: m.Fingerprint,
	}
}

// Diff computes the correlation between the findings of the current run and
// the findings of a baseline report. Correlation runs in ordered stages; a
// finding matched in an earlier stage is excluded from later ones, so a line
// shift falls through to the fingerprint stage instead of producing a
// spurious novel finding. Stages:
//  1. rule + path + lines + fingerprint
//  2. rule + path + fingerprint
//  3. rule + path + lines
//  4. rule + path + start line
type Diff struct {
	Current  []Finding
	Previous []Finding

	currentToPrev map[int][]int
	prevToCurrent map[int][]int
	processed     bool
}

// NewDiff constructs a Diff over the two finding sets. The diff is inert
// until one of its accessors runs.
func NewDiff(current, previous []Finding) *Diff {
	return &Diff{Current: current, Previous: previous}
}

func (d *Diff) process() {
	if d.processed {
		return
	}
	d.currentToPrev = make(map[int][]int)
	d.prevToCurrent = make(map[int][]int)

	matchedCur := make(map[int]bool)
	matchedPrev := make(map[int]bool)

	for stage := 1; stage <= 4; stage++ {
		matchedCurThis := make(map[int]bool)
		matchedPrevThis := make(map[int]bool)

		for pi, p := range d.Previous {
			if matchedPrev[pi] {
				continue
			}
			for ci, c := range d.Current {
				if matchedCur[ci] {
					continue
				}
				if matchStage(p, c, stage) {
					d.prevToCurrent[pi] = append(d.prevToCurrent[pi], ci)
					d.currentToPrev[ci] = append(d.currentToPrev[ci], pi)
					matchedPrevThis[pi] = true
					matchedCurThis[ci] = true
				}
			}
		}

		for pi := range matchedPrevThis {
			matchedPrev[pi] = true
		}
		for ci := range matchedCurThis {
			matchedCur[ci] = true
		}
	}

	d.processed = true
}

// matchStage reports whether the two findings correlate under the given
// stage. Rule and path must agree in every stage; the fingerprint stages
// additionally require both fingerprints to be present.
func matchStage(a, b Finding, stage int) bool {
	if a.RuleID == "" || b.RuleID == "" {
		return false
	}
	if a.RuleID != b.RuleID || a.Path != b.Path {
		return false
	}

	switch stage {
	case 1:
		return a.Fingerprint != "" && a.Fingerprint == b.Fingerprint &&
			a.StartLine == b.StartLine && a.EndLine == b.EndLine
	case 2:
		return a.Fingerprint != "" && a.Fingerprint == b.Fingerprint
	case 3:
		return a.StartLine == b.StartLine && a.EndLine == b.EndLine
	case 4:
		return a.StartLine == b.StartLine
	default:
		return false
	}
}

// NovelIndexes returns the indexes into Current of findings that correlate
// to no baseline finding.
func (d *Diff) NovelIndexes() []int {
	d.process()
	var out []int
	for ci := range d.Current {
		if len(d.currentToPrev[ci]) == 0 {
			out = append(out, ci)
		}
	}
	return out
}

// Resolved returns the baseline findings that no current finding correlates
// to, i.e. findings fixed since the baseline was written.
func (d *Diff) Resolved() []Finding {
	d.process()
	var out []Finding
	for pi, p := range d.Previous {
		if len(d.prevToCurrent[pi]) == 0 {
			out = append(out, p)
		}
	}
	return out
}

// Apply loads the baseline report at path, fingerprints the current matches,
// and trims final.Matches down to the findings not present in the baseline.
// The fingerprints stay on the kept matches so the written report can in
// turn serve as a baseline.
func Apply(final *result.FinalResult, path string, logger hclog.Logger) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read baseline report %q: %w", path, err)
	}
	var previous result.FinalResult
	if err := json.Unmarshal(raw, &previous); err != nil {
		return fmt.Errorf("failed to parse baseline report %q: %w", path, err)
	}

	for i := range final.Matches {
		m := &final.Matches[i]
		if m.Fingerprint == "" {
			m.Fingerprint = FileFingerprint(m.Path, m.Range.Start.Line, m.Range.End.Line)
		}
	}

	current := make([]Finding, len(final.Matches))
	for i, m := range final.Matches {
		current[i] = fromMatch(m)
	}
	prev := make([]Finding, len(previous.Matches))
	for i, m := range previous.Matches {
		prev[i] = fromMatch(m)
	}

	diff := NewDiff(current, prev)
	novel := diff.NovelIndexes()
	kept := make([]result.Match, 0, len(novel))
	for _, ci := range novel {
		kept = append(kept, final.Matches[ci])
	}

	logger.Info("baseline applied",
		"baseline", path,
		"previous", len(prev),
		"suppressed", len(final.Matches)-len(kept),
		"resolved", len(diff.Resolved()),
		"novel", len(kept))

	final.Matches = kept
	return nil
}
