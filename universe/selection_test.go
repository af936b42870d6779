package universe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gfaview "github.com/gfaview/gfaview"
	"github.com/gfaview/gfaview/graph"
	"github.com/gfaview/gfaview/layout"
)

func TestNodeSelectionBasics(t *testing.T) {
	s := NewNodeSelection(200)
	assert.True(t, s.IsEmpty())

	assert.True(t, s.Add(1))
	assert.True(t, s.Add(64))
	assert.True(t, s.Add(65))
	assert.True(t, s.Add(200))
	assert.False(t, s.Add(65), "re-adding must not change the set")
	assert.Equal(t, 4, s.Len())

	assert.True(t, s.Contains(64))
	assert.False(t, s.Contains(2))
	assert.False(t, s.Contains(0), "node id 0 is the background")

	assert.False(t, s.Add(0))
	assert.False(t, s.Add(201), "out of range ids are ignored")

	assert.True(t, s.Remove(64))
	assert.False(t, s.Remove(64))
	assert.Equal(t, []graph.NodeID{1, 65, 200}, s.IDs())

	s.Clear()
	assert.True(t, s.IsEmpty())
	assert.Empty(t, s.IDs())
}

func TestNodeSelectionSetOps(t *testing.T) {
	mk := func(ids ...graph.NodeID) *NodeSelection {
		s := NewNodeSelection(128)
		s.AddSlice(ids)
		return s
	}

	tests := []struct {
		name string
		op   func(a, b *NodeSelection)
		want []graph.NodeID
	}{
		{"union", (*NodeSelection).Union, []graph.NodeID{1, 2, 3, 70, 100}},
		{"intersection", (*NodeSelection).Intersection, []graph.NodeID{2, 70}},
		{"difference", (*NodeSelection).Difference, []graph.NodeID{1, 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mk(1, 2, 70, 100)
			b := mk(2, 3, 70)
			tt.op(a, b)
			assert.Equal(t, tt.want, a.IDs())
			assert.Equal(t, len(tt.want), a.Len())
		})
	}
}

func TestNodeSelectionClone(t *testing.T) {
	a := NewNodeSelection(64)
	a.AddSlice([]graph.NodeID{3, 9})

	b := a.Clone()
	b.Add(10)

	assert.Equal(t, 2, a.Len())
	assert.Equal(t, 3, b.Len())
}

func TestNodeSelectionBoundingBox(t *testing.T) {
	pos := layout.NewPositions([]layout.Node{
		{P0: gfaview.Pt(0, 0), P1: gfaview.Pt(10, 0)},
		{P0: gfaview.Pt(10, 5), P1: gfaview.Pt(20, 5)},
		{P0: gfaview.Pt(-50, -50), P1: gfaview.Pt(-40, -50)},
	})

	s := NewNodeSelection(3)
	assert.True(t, s.BoundingBox(pos).IsEmpty(), "empty selection has an empty bbox")

	s.AddSlice([]graph.NodeID{1, 2})
	bbox := s.BoundingBox(pos)
	assert.Equal(t, gfaview.Pt(0, 0), bbox.Min)
	assert.Equal(t, gfaview.Pt(20, 5), bbox.Max)

	s.Add(3)
	assert.Equal(t, gfaview.Pt(-50, -50), s.BoundingBox(pos).Min)
}

func TestNodeSelectionBytesRoundTrip(t *testing.T) {
	s := NewNodeSelection(10)
	s.AddSlice([]graph.NodeID{1, 4, 10})

	data := s.Bytes(10)
	require.Len(t, data, 40)
	assert.Equal(t, byte(1), data[0])
	assert.Equal(t, byte(1), data[12])
	assert.Equal(t, byte(0), data[4])

	r := NewNodeSelection(10)
	r.FromBytes(data)
	assert.Equal(t, s.IDs(), r.IDs())
}
