package engine

import (
	"context"
	"regexp"
	"strings"

	"github.com/sastkit/sastkit/internal/location"
	"github.com/sastkit/sastkit/internal/result"
	"github.com/sastkit/sastkit/internal/rule"
	"github.com/sastkit/sastkit/internal/target"
	"github.com/sastkit/sastkit/internal/trace"
)

// taintSeparator splits a taint payload into source, optional intermediate,
// and sink segments.
const taintSeparator = "~>"

// Regex is the reference engine: pattern payloads are Go regular
// expressions. It implements Parser, Matcher, and Extractor, and compiles
// patterns lazily so a broken payload surfaces as a PatternError only when
// a target actually exercises it.
//
// A Regex instance is worker-local; its pattern cache is not synchronized.
type Regex struct {
	cache map[string]*regexp.Regexp
}

// NewRegex creates a fresh reference engine.
func NewRegex() *Regex {
	return &Regex{cache: make(map[string]*regexp.Regexp)}
}

// Parse reads the target and builds its offset index.
func (e *Regex) Parse(language string, t *target.Target) (*Document, []error) {
	data, err := t.Read()
	if err != nil {
		return nil, []error{&ParseError{Path: t.Path, Err: err}}
	}
	return &Document{
		Path:     t.Path,
		Language: language,
		Source:   data,
		Index:    location.NewIndex(data),
	}, nil
}

// Check runs one rule against a document.
func (e *Regex) Check(ctx context.Context, r *rule.Rule, doc *Document) ([]result.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch r.Mode {
	case rule.ModeTaint:
		return e.checkTaint(ctx, r, doc)
	default:
		return e.checkSearch(ctx, r, doc)
	}
}

func (e *Regex) checkSearch(ctx context.Context, r *rule.Rule, doc *Document) ([]result.Match, error) {
	re, err := e.compile(r.ID, r.Pattern)
	if err != nil {
		return nil, err
	}

	var matches []result.Match
	for _, idx := range re.FindAllSubmatchIndex(doc.Source, -1) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		matches = append(matches, result.Match{
			RuleID:   r.ID,
			Path:     doc.Path,
			Severity: r.Severity,
			Range:    doc.Index.Range(idx[0], idx[1]),
			Bindings: bindings(re, doc.Source, idx),
		})
	}
	return matches, nil
}

// checkTaint treats the payload as source ~> [intermediate ~>]... sink
// segments. A sink is reported only when the document also contains a
// source; the resulting match carries the full propagation trace.
func (e *Regex) checkTaint(ctx context.Context, r *rule.Rule, doc *Document) ([]result.Match, error) {
	segments := strings.Split(r.Pattern, taintSeparator)
	if len(segments) < 2 {
		return nil, &PatternError{RuleID: r.ID, Err: errMissingSink}
	}

	ranges := make([][]location.Range, len(segments))
	for i, seg := range segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		re, err := e.compile(r.ID, strings.TrimSpace(seg))
		if err != nil {
			return nil, err
		}
		for _, idx := range re.FindAllIndex(doc.Source, -1) {
			ranges[i] = append(ranges[i], doc.Index.Range(idx[0], idx[1]))
		}
	}

	sources, sinks := ranges[0], ranges[len(ranges)-1]
	if len(sources) == 0 || len(sinks) == 0 {
		return nil, nil
	}
	var intermediates []location.Range
	for _, mid := range ranges[1 : len(ranges)-1] {
		intermediates = append(intermediates, mid...)
	}

	var matches []result.Match
	for _, sink := range sinks {
		matches = append(matches, result.Match{
			RuleID:   r.ID,
			Path:     doc.Path,
			Severity: r.Severity,
			Range:    sink,
			Taint: &trace.TaintTrace{
				Source:        trace.Leaf(sources[0]),
				Intermediates: intermediates,
				Sink:          trace.Leaf(sink),
			},
		})
	}
	return matches, nil
}

// Extract locates nested regions: the pattern's first capture group is the
// nested content.
func (e *Regex) Extract(ctx context.Context, r *rule.Rule, doc *Document) ([]Extraction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	re, err := e.compile(r.ID, r.Pattern)
	if err != nil {
		return nil, err
	}
	if re.NumSubexp() < 1 {
		return nil, &PatternError{RuleID: r.ID, Err: errMissingCapture}
	}

	var out []Extraction
	for _, idx := range re.FindAllSubmatchIndex(doc.Source, -1) {
		// idx[2], idx[3] bound the first capture group
		if idx[2] < 0 {
			continue
		}
		out = append(out, Extraction{
			Content:     doc.Source[idx[2]:idx[3]],
			StartOffset: idx[2],
			Span:        doc.Index.Range(idx[2], idx[3]),
		})
	}
	return out, nil
}

func (e *Regex) compile(ruleID, pattern string) (*regexp.Regexp, error) {
	key := ruleID + "\x00" + pattern
	if re, ok := e.cache[key]; ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &PatternError{RuleID: ruleID, Err: err}
	}
	e.cache[key] = re
	return re, nil
}

func bindings(re *regexp.Regexp, src []byte, idx []int) map[string]string {
	var out map[string]string
	for i, name := range re.SubexpNames() {
		if name == "" || 2*i+1 >= len(idx) || idx[2*i] < 0 {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[name] = string(src[idx[2*i]:idx[2*i+1]])
	}
	return out
}
