package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sastkit/sastkit/internal/location"
)

func rng(startLine, startCol, endLine, endCol int) location.Range {
	return location.Range{
		Start: location.Position{Line: startLine, Col: startCol},
		End:   location.Position{Line: endLine, Col: endCol},
	}
}

func TestFormatLeafTrace(t *testing.T) {
	tr := TaintTrace{
		Source: Leaf(rng(1, 1, 1, 10)),
		Sink:   Leaf(rng(5, 3, 5, 20)),
	}

	out := tr.Format()
	assert.Contains(t, out, "source at 1:1-1:10")
	assert.Contains(t, out, "sink at 5:3-5:20")
	assert.NotContains(t, out, "via call")
}

func TestFormatNestedTrace(t *testing.T) {
	inner := Leaf(rng(10, 1, 10, 8))
	tr := TaintTrace{
		Source:        Nested(rng(2, 1, 2, 15), []location.Range{rng(3, 1, 3, 5)}, inner),
		Intermediates: []location.Range{rng(4, 1, 4, 9)},
		Sink:          Leaf(rng(7, 1, 7, 4)),
	}

	out := tr.Format()
	assert.Contains(t, out, "source via call at 2:1-2:15")
	assert.Contains(t, out, "tainted value at 3:1-3:5")
	assert.Contains(t, out, "source at 10:1-10:8")
	assert.Contains(t, out, "tainted value at 4:1-4:9")
	assert.Contains(t, out, "sink at 7:1-7:4")
}

func TestFlattenPreservesPathOrder(t *testing.T) {
	inner := Leaf(rng(10, 1, 10, 8))
	tr := TaintTrace{
		Source:        Nested(rng(2, 1, 2, 15), []location.Range{rng(3, 1, 3, 5)}, inner),
		Intermediates: []location.Range{rng(4, 1, 4, 9)},
		Sink:          Leaf(rng(7, 1, 7, 4)),
	}

	flat := tr.Flatten()
	assert.Equal(t, []location.Range{
		rng(2, 1, 2, 15),
		rng(3, 1, 3, 5),
		rng(10, 1, 10, 8),
		rng(4, 1, 4, 9),
		rng(7, 1, 7, 4),
	}, flat)
}

func TestIsLeaf(t *testing.T) {
	assert.True(t, Leaf(rng(1, 1, 1, 2)).IsLeaf())
	assert.False(t, Nested(rng(1, 1, 1, 2), nil, Leaf(rng(2, 1, 2, 2))).IsLeaf())
}
