package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundingBoxNormalized(t *testing.T) {
	inverted := BoundingBox{X1: 10, Y1: 20, X2: 5, Y2: 2}
	normal := inverted.Normalized()

	assert.Equal(t, BoundingBox{X1: 5, Y1: 2, X2: 10, Y2: 20}, normal)

	// Already ordered boxes are unchanged
	ordered := BoundingBox{X1: 1, Y1: 2, X2: 3, Y2: 4}
	assert.Equal(t, ordered, ordered.Normalized())
}

func TestIsTargetClass(t *testing.T) {
	assert.True(t, IsTargetClass("person"))
	assert.True(t, IsTargetClass("dog"))
	assert.True(t, IsTargetClass("giraffe"))
	assert.False(t, IsTargetClass("car"))
	assert.False(t, IsTargetClass("traffic light"))
	assert.False(t, IsTargetClass(""))
}

func TestTargetClassNamesMatchesLabelMap(t *testing.T) {
	names := TargetClassNames()
	assert.Len(t, names, len(WildlifeLabels))
	for _, name := range names {
		assert.True(t, IsTargetClass(name))
	}
}
