package location

import "fmt"

// Position is a single point in a file. Line and Col are 1-based, Offset is
// a 0-based byte offset from the start of the file.
type Position struct {
	Line   int `json:"line"`
	Col    int `json:"col"`
	Offset int `json:"offset"`
}

// Range is a half-open span [Start, End) inside one file.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

func (r Range) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", r.Start.Line, r.Start.Col, r.End.Line, r.End.Col)
}

// First returns the first position in a file. It is the documented fallback
// for diagnostics that have no precise location.
func First() Position {
	return Position{Line: 1, Col: 1, Offset: 0}
}

// FirstRange returns an empty range anchored to the first position in a file.
func FirstRange() Range {
	return Range{Start: First(), End: First()}
}

// Index resolves byte offsets in a content buffer to line/column positions.
type Index struct {
	lineStarts []int
}

// NewIndex builds an offset index over content.
func NewIndex(content []byte) *Index {
	starts := []int{0}
	for i, b := range content {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Index{lineStarts: starts}
}

// Position converts a byte offset into a Position.
func (ix *Index) Position(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	// binary search for the last line start <= offset
	lo, hi := 0, len(ix.lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if ix.lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return Position{
		Line:   lo + 1,
		Col:    offset - ix.lineStarts[lo] + 1,
		Offset: offset,
	}
}

// Range converts a byte span into a Range.
func (ix *Index) Range(start, end int) Range {
	return Range{Start: ix.Position(start), End: ix.Position(end)}
}
