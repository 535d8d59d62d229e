package extract

import "github.com/sastkit/sastkit/internal/location"

// newOffsetAdjuster builds the adjuster for content extracted verbatim from
// the parent at startOffset. It works on a per-line table rather than a
// single offset delta so extractors that re-indent nested content (each
// synthetic line starting at a different parent column) stay expressible:
// every synthetic line carries its own parent offset.
func newOffsetAdjuster(parent *location.Index, content []byte, startOffset int) Adjuster {
	// lineStarts[k] = parent byte offset of synthetic line k+1, column 1
	lineStarts := []int{startOffset}
	for i, b := range content {
		if b == '\n' {
			lineStarts = append(lineStarts, startOffset+i+1)
		}
	}
	return newLineAdjuster(parent, lineStarts)
}

// newLineAdjuster builds an adjuster from an explicit synthetic-line to
// parent-offset table.
func newLineAdjuster(parent *location.Index, lineStarts []int) Adjuster {
	position := func(p location.Position) location.Position {
		line := p.Line
		if line < 1 {
			line = 1
		}
		if line > len(lineStarts) {
			line = len(lineStarts)
		}
		return parent.Position(lineStarts[line-1] + p.Col - 1)
	}
	return func(r location.Range) location.Range {
		return location.Range{Start: position(r.Start), End: position(r.End)}
	}
}
