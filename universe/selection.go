// Package universe holds the mutable world state of a loaded graph:
// which nodes are selected and where the selection sits in world space.
package universe

import (
	"math/bits"

	gfaview "github.com/gfaview/gfaview"
	"github.com/gfaview/gfaview/graph"
	"github.com/gfaview/gfaview/layout"
)

// NodeSelection is a set of selected node ids, stored as a bitset over
// the node id space. The zero id is never a member.
//
// The set mirrors the GPU selection buffer one to one: word i bit b
// covers node id i*64+b+1.
type NodeSelection struct {
	words []uint64
	count int
}

// NewNodeSelection returns an empty selection sized for nodeCount nodes.
func NewNodeSelection(nodeCount int) *NodeSelection {
	return &NodeSelection{words: make([]uint64, (nodeCount+63)/64)}
}

func (s *NodeSelection) slot(id graph.NodeID) (int, uint64, bool) {
	if id == 0 {
		return 0, 0, false
	}
	w := int(id-1) / 64
	if w >= len(s.words) {
		return 0, 0, false
	}
	return w, 1 << (uint(id-1) % 64), true
}

// Len returns the number of selected nodes.
func (s *NodeSelection) Len() int { return s.count }

// IsEmpty reports whether no node is selected.
func (s *NodeSelection) IsEmpty() bool { return s.count == 0 }

// Contains reports whether id is selected.
func (s *NodeSelection) Contains(id graph.NodeID) bool {
	w, bit, ok := s.slot(id)
	return ok && s.words[w]&bit != 0
}

// Add inserts id and reports whether the set changed.
func (s *NodeSelection) Add(id graph.NodeID) bool {
	w, bit, ok := s.slot(id)
	if !ok || s.words[w]&bit != 0 {
		return false
	}
	s.words[w] |= bit
	s.count++
	return true
}

// Remove deletes id and reports whether the set changed.
func (s *NodeSelection) Remove(id graph.NodeID) bool {
	w, bit, ok := s.slot(id)
	if !ok || s.words[w]&bit == 0 {
		return false
	}
	s.words[w] &^= bit
	s.count--
	return true
}

// AddSlice inserts every id in ids.
func (s *NodeSelection) AddSlice(ids []graph.NodeID) {
	for _, id := range ids {
		s.Add(id)
	}
}

// RemoveSlice deletes every id in ids.
func (s *NodeSelection) RemoveSlice(ids []graph.NodeID) {
	for _, id := range ids {
		s.Remove(id)
	}
}

// Clear empties the set.
func (s *NodeSelection) Clear() {
	for i := range s.words {
		s.words[i] = 0
	}
	s.count = 0
}

// Clone returns an independent copy of the selection.
func (s *NodeSelection) Clone() *NodeSelection {
	c := &NodeSelection{words: make([]uint64, len(s.words)), count: s.count}
	copy(c.words, s.words)
	return c
}

// Union adds every member of other to s.
func (s *NodeSelection) Union(other *NodeSelection) {
	s.binop(other, func(a, b uint64) uint64 { return a | b })
}

// Intersection keeps only members present in both sets.
func (s *NodeSelection) Intersection(other *NodeSelection) {
	s.binop(other, func(a, b uint64) uint64 { return a & b })
}

// Difference removes every member of other from s.
func (s *NodeSelection) Difference(other *NodeSelection) {
	s.binop(other, func(a, b uint64) uint64 { return a &^ b })
}

func (s *NodeSelection) binop(other *NodeSelection, op func(a, b uint64) uint64) {
	count := 0
	for i := range s.words {
		var b uint64
		if i < len(other.words) {
			b = other.words[i]
		}
		s.words[i] = op(s.words[i], b)
		count += bits.OnesCount64(s.words[i])
	}
	s.count = count
}

// IDs returns all selected ids in ascending order.
func (s *NodeSelection) IDs() []graph.NodeID {
	out := make([]graph.NodeID, 0, s.count)
	for w, word := range s.words {
		for word != 0 {
			b := bits.TrailingZeros64(word)
			out = append(out, graph.NodeID(w*64+b+1))
			word &= word - 1
		}
	}
	return out
}

// BoundingBox returns the rectangle covering every selected node's
// endpoints. An empty selection yields an empty rectangle.
func (s *NodeSelection) BoundingBox(pos *layout.Positions) gfaview.Rect {
	bbox := gfaview.RectEmpty()
	for _, id := range s.IDs() {
		n := pos.Node(uint32(id))
		bbox = bbox.ExpandPoint(n.P0).ExpandPoint(n.P1)
	}
	return bbox
}

// Bytes serializes the selection as the GPU selection buffer expects:
// one little-endian u32 per node, 1 when selected.
func (s *NodeSelection) Bytes(nodeCount int) []byte {
	out := make([]byte, nodeCount*4)
	for _, id := range s.IDs() {
		if int(id) <= nodeCount {
			out[(int(id)-1)*4] = 1
		}
	}
	return out
}

// FromBytes rebuilds the selection from a downloaded GPU selection
// buffer, one u32 per node.
func (s *NodeSelection) FromBytes(data []byte) {
	s.Clear()
	for i := 0; i+3 < len(data); i += 4 {
		if data[i] != 0 || data[i+1] != 0 || data[i+2] != 0 || data[i+3] != 0 {
			s.Add(graph.NodeID(i/4 + 1))
		}
	}
}
