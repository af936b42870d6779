// Package graph defines the graph-source interface the viewer renders
// from, plus path position queries over it.
//
// Graph construction and GFA parsing are external concerns: the viewer
// only needs counts, handle/edge iteration, sequences, and per-path
// cumulative base-pair position tables. Graph is an in-memory
// implementation of that contract, used directly by tests and by
// adapters that wrap external graph libraries.
package graph

import (
	"errors"
	"fmt"
	"sort"
)

// Graph errors.
var (
	// ErrNodeOrder is returned when nodes are added out of id order.
	ErrNodeOrder = errors.New("graph: node ids must be added in order starting at 1")

	// ErrUnknownNode is returned when an edge or path references a node
	// that was never added.
	ErrUnknownNode = errors.New("graph: unknown node id")

	// ErrUnknownPath is returned by path queries for missing path ids.
	ErrUnknownPath = errors.New("graph: unknown path id")

	// ErrEmptyPath is returned when a path is added with no steps.
	ErrEmptyPath = errors.New("graph: path has no steps")
)

// NodeID identifies a node. Ids are 1-based and contiguous; 0 is never a
// valid id, which lets the GPU picking buffer use 0 as "background".
type NodeID uint32

// PathID identifies an embedded path.
type PathID uint32

// StepPtr is a stable index of a step within its path.
type StepPtr uint32

// Handle is an oriented reference to a node: the node id shifted left by
// one, with the low bit set for the reverse orientation. This is the
// packed representation used throughout the viewer and on the GPU.
type Handle uint64

// NewHandle packs a node id and orientation into a Handle.
func NewHandle(id NodeID, reverse bool) Handle {
	h := Handle(id) << 1
	if reverse {
		h |= 1
	}
	return h
}

// ID returns the node id of the handle.
func (h Handle) ID() NodeID { return NodeID(h >> 1) }

// IsReverse reports whether the handle is in the reverse orientation.
func (h Handle) IsReverse() bool { return h&1 == 1 }

// Flip returns the handle with the opposite orientation.
func (h Handle) Flip() Handle { return h ^ 1 }

func (h Handle) String() string {
	sign := "+"
	if h.IsReverse() {
		sign = "-"
	}
	return fmt.Sprintf("%d%s", h.ID(), sign)
}

// Edge is an ordered pair of oriented node ends.
type Edge struct {
	From, To Handle
}

// Step is one element of a path's position table: the handle at that
// step, the step's index, and the cumulative base-pair offset at which
// the step begins.
type Step struct {
	Handle Handle
	Step   StepPtr
	Pos    uint64
}

// Source is the read interface the viewer requires from a graph
// implementation.
type Source interface {
	NodeCount() int
	EdgeCount() int
	PathCount() int

	Handles() []Handle
	Edges() []Edge
	Sequence(h Handle) []byte

	PathIDs() []PathID
	PathName(id PathID) []byte
	PathPosSteps(id PathID) ([]Step, error)
	PathBasePairRange(id PathID, startBP, endBP uint64) ([]Step, error)
}

// Graph is an in-memory Source. Nodes, edges, and paths are immutable
// once added; only the viewer's layout positions change after load.
type Graph struct {
	seqs  [][]byte // seqs[id-1]
	edges []Edge

	pathNames   [][]byte
	pathsByName map[string]PathID
	pathSteps   [][]Step // per path, sorted by Pos
	pathLens    []uint64 // total bp per path
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{pathsByName: make(map[string]PathID)}
}

// AddNode appends a node. Ids must be contiguous from 1, matching the
// layout file's implicit numbering.
func (g *Graph) AddNode(id NodeID, seq []byte) error {
	if int(id) != len(g.seqs)+1 {
		return fmt.Errorf("%w: got %d, want %d", ErrNodeOrder, id, len(g.seqs)+1)
	}
	g.seqs = append(g.seqs, seq)
	return nil
}

// AddEdge appends an edge between two oriented node ends.
func (g *Graph) AddEdge(from, to Handle) error {
	if !g.hasNode(from.ID()) || !g.hasNode(to.ID()) {
		return fmt.Errorf("%w: edge %v -> %v", ErrUnknownNode, from, to)
	}
	g.edges = append(g.edges, Edge{From: from, To: to})
	return nil
}

// AddPath appends a named path and builds its cumulative base-pair
// position table. Returns the new path's id.
func (g *Graph) AddPath(name []byte, steps []Handle) (PathID, error) {
	if len(steps) == 0 {
		return 0, ErrEmptyPath
	}

	table := make([]Step, len(steps))
	var pos uint64
	for i, h := range steps {
		if !g.hasNode(h.ID()) {
			return 0, fmt.Errorf("%w: path %q step %d (%v)", ErrUnknownNode, name, i, h)
		}
		table[i] = Step{Handle: h, Step: StepPtr(i), Pos: pos}
		pos += uint64(len(g.seqs[h.ID()-1]))
	}

	id := PathID(len(g.pathNames))
	g.pathNames = append(g.pathNames, name)
	g.pathsByName[string(name)] = id
	g.pathSteps = append(g.pathSteps, table)
	g.pathLens = append(g.pathLens, pos)
	return id, nil
}

func (g *Graph) hasNode(id NodeID) bool {
	return id >= 1 && int(id) <= len(g.seqs)
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.seqs) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// PathCount returns the number of embedded paths.
func (g *Graph) PathCount() int { return len(g.pathNames) }

// Handles returns all forward handles in id order.
func (g *Graph) Handles() []Handle {
	hs := make([]Handle, len(g.seqs))
	for i := range g.seqs {
		hs[i] = NewHandle(NodeID(i+1), false)
	}
	return hs
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []Edge { return g.edges }

// Sequence returns the node's sequence for the handle's orientation.
// Reverse handles get the reverse complement.
func (g *Graph) Sequence(h Handle) []byte {
	if !g.hasNode(h.ID()) {
		return nil
	}
	seq := g.seqs[h.ID()-1]
	if !h.IsReverse() {
		return seq
	}
	return reverseComplement(seq)
}

// NodeLen returns the sequence length of a node, or 0 for unknown ids.
func (g *Graph) NodeLen(id NodeID) int {
	if !g.hasNode(id) {
		return 0
	}
	return len(g.seqs[id-1])
}

// TotalLength returns the summed sequence length over all nodes.
func (g *Graph) TotalLength() uint64 {
	var total uint64
	for _, s := range g.seqs {
		total += uint64(len(s))
	}
	return total
}

// PathIDs returns all path ids.
func (g *Graph) PathIDs() []PathID {
	ids := make([]PathID, len(g.pathNames))
	for i := range ids {
		ids[i] = PathID(i)
	}
	return ids
}

// PathName returns the path's name, or nil for unknown ids.
func (g *Graph) PathName(id PathID) []byte {
	if int(id) >= len(g.pathNames) {
		return nil
	}
	return g.pathNames[id]
}

// PathIDByName resolves a path name to its id.
func (g *Graph) PathIDByName(name []byte) (PathID, bool) {
	id, ok := g.pathsByName[string(name)]
	return id, ok
}

// PathLen returns the path's total base-pair length.
func (g *Graph) PathLen(id PathID) uint64 {
	if int(id) >= len(g.pathLens) {
		return 0
	}
	return g.pathLens[id]
}

// PathPosSteps returns the path's full position table, sorted by
// cumulative base-pair offset.
func (g *Graph) PathPosSteps(id PathID) ([]Step, error) {
	if int(id) >= len(g.pathSteps) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPath, id)
	}
	return g.pathSteps[id], nil
}

// PathBasePairRange returns the sub-slice of the path's position table
// covering startBP through endBP. The step containing endBP is included,
// so a range ending on a node boundary takes the node that starts there.
// The bounds are found by binary search, so lookups are O(log n) in the
// path length.
func (g *Graph) PathBasePairRange(id PathID, startBP, endBP uint64) ([]Step, error) {
	steps, err := g.PathPosSteps(id)
	if err != nil {
		return nil, err
	}
	if endBP <= startBP || len(steps) == 0 {
		return nil, nil
	}

	// First step whose end (= next step's Pos) is past startBP.
	lo := sort.Search(len(steps), func(i int) bool {
		return g.stepEnd(id, steps, i) > startBP
	})
	// First step that begins past endBP.
	hi := sort.Search(len(steps), func(i int) bool {
		return steps[i].Pos > endBP
	})
	if lo >= hi {
		return nil, nil
	}
	return steps[lo:hi], nil
}

// stepEnd returns the base-pair offset one past the end of step i.
func (g *Graph) stepEnd(id PathID, steps []Step, i int) uint64 {
	if i+1 < len(steps) {
		return steps[i+1].Pos
	}
	return g.pathLens[id]
}

var complement = func() [256]byte {
	var c [256]byte
	for i := range c {
		c[i] = 'N'
	}
	c['A'], c['T'] = 'T', 'A'
	c['C'], c['G'] = 'G', 'C'
	c['a'], c['t'] = 't', 'a'
	c['c'], c['g'] = 'g', 'c'
	c['N'], c['n'] = 'N', 'n'
	return c
}()

func reverseComplement(seq []byte) []byte {
	out := make([]byte, len(seq))
	for i, b := range seq {
		out[len(seq)-1-i] = complement[b]
	}
	return out
}
