package trace

import (
	"fmt"
	"strings"

	"github.com/sastkit/sastkit/internal/location"
)

// CallTrace explains how a tainted value reached a program point. It is a
// tagged variant: either a leaf holding the matched tokens, or a call node
// wrapping the trace of the callee. Exactly one of Toks and Call is set.
type CallTrace struct {
	Toks *location.Range
	Call *Call
}

// Call is an intermediate call site on the way from a source to a sink.
type Call struct {
	Site          location.Range
	Intermediates []location.Range
	Inner         *CallTrace
}

// Leaf builds a leaf trace over the given tokens.
func Leaf(r location.Range) CallTrace {
	return CallTrace{Toks: &r}
}

// Nested builds a call-site trace wrapping an inner trace.
func Nested(site location.Range, intermediates []location.Range, inner CallTrace) CallTrace {
	return CallTrace{Call: &Call{Site: site, Intermediates: intermediates, Inner: &inner}}
}

// IsLeaf reports whether the trace terminates at matched tokens.
func (ct CallTrace) IsLeaf() bool {
	return ct.Toks != nil
}

// TaintTrace explains why a value is tainted: the path from a source match,
// through intermediate tainted values, to a sink match. It is consumed by
// printers and serializers only and never drives matching decisions.
type TaintTrace struct {
	Source        CallTrace
	Intermediates []location.Range
	Sink          CallTrace
}

// Format renders the trace as an indented, human-readable explanation.
func (t *TaintTrace) Format() string {
	var b strings.Builder
	b.WriteString("taint trace:\n")
	writeCallTrace(&b, "source", t.Source, 1)
	for _, r := range t.Intermediates {
		indent(&b, 1)
		fmt.Fprintf(&b, "tainted value at %s\n", r)
	}
	writeCallTrace(&b, "sink", t.Sink, 1)
	return b.String()
}

func (t *TaintTrace) String() string {
	return t.Format()
}

// Flatten returns every range on the source-to-sink path in order. The SARIF
// converter uses it to build code-flow steps.
func (t *TaintTrace) Flatten() []location.Range {
	var out []location.Range
	out = appendCallTrace(out, t.Source)
	out = append(out, t.Intermediates...)
	out = appendCallTrace(out, t.Sink)
	return out
}

func appendCallTrace(out []location.Range, ct CallTrace) []location.Range {
	if ct.IsLeaf() {
		return append(out, *ct.Toks)
	}
	out = append(out, ct.Call.Site)
	out = append(out, ct.Call.Intermediates...)
	return appendCallTrace(out, *ct.Call.Inner)
}

func writeCallTrace(b *strings.Builder, role string, ct CallTrace, depth int) {
	if ct.IsLeaf() {
		indent(b, depth)
		fmt.Fprintf(b, "%s at %s\n", role, ct.Toks)
		return
	}
	indent(b, depth)
	fmt.Fprintf(b, "%s via call at %s\n", role, ct.Call.Site)
	for _, r := range ct.Call.Intermediates {
		indent(b, depth+1)
		fmt.Fprintf(b, "tainted value at %s\n", r)
	}
	writeCallTrace(b, role, *ct.Call.Inner, depth+1)
}

func indent(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
}
