package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tenNodePath builds a 1000bp path of 10 nodes, 100bp each.
func tenNodePath(t *testing.T) (*Graph, PathID) {
	t.Helper()
	g := New()
	seq := make([]byte, 100)
	for i := range seq {
		seq[i] = 'A'
	}
	handles := make([]Handle, 10)
	for i := 0; i < 10; i++ {
		require.NoError(t, g.AddNode(NodeID(i+1), seq))
		handles[i] = NewHandle(NodeID(i+1), false)
	}
	pid, err := g.AddPath([]byte("seqX"), handles)
	require.NoError(t, err)
	return g, pid
}

func TestHandlePacking(t *testing.T) {
	h := NewHandle(42, false)
	assert.Equal(t, NodeID(42), h.ID())
	assert.False(t, h.IsReverse())

	r := h.Flip()
	assert.Equal(t, NodeID(42), r.ID())
	assert.True(t, r.IsReverse())
	assert.Equal(t, "42-", r.String())
}

func TestAddNodeOrder(t *testing.T) {
	g := New()
	require.NoError(t, g.AddNode(1, []byte("ACGT")))
	err := g.AddNode(3, []byte("A"))
	assert.ErrorIs(t, err, ErrNodeOrder)
}

func TestSequenceReverseComplement(t *testing.T) {
	g := New()
	require.NoError(t, g.AddNode(1, []byte("ACGT")))

	assert.Equal(t, []byte("ACGT"), g.Sequence(NewHandle(1, false)))
	assert.Equal(t, []byte("ACGT"), g.Sequence(NewHandle(1, true)))

	g2 := New()
	require.NoError(t, g2.AddNode(1, []byte("AACG")))
	assert.Equal(t, []byte("CGTT"), g2.Sequence(NewHandle(1, true)))
}

func TestPathPosSteps(t *testing.T) {
	g, pid := tenNodePath(t)

	steps, err := g.PathPosSteps(pid)
	require.NoError(t, err)
	require.Len(t, steps, 10)

	for i, s := range steps {
		assert.Equal(t, uint64(i*100), s.Pos)
		assert.Equal(t, StepPtr(i), s.Step)
		assert.Equal(t, NodeID(i+1), s.Handle.ID())
	}
	assert.Equal(t, uint64(1000), g.PathLen(pid))
}

func TestPathBasePairRange(t *testing.T) {
	g, pid := tenNodePath(t)

	tests := []struct {
		name       string
		start, end uint64
		wantNodes  []NodeID
	}{
		{"boundary end takes next node", 100, 200, []NodeID{2, 3}},
		{"spanning boundary", 150, 250, []NodeID{2, 3}},
		{"just past a boundary", 100, 201, []NodeID{2, 3}},
		{"whole path", 0, 1000, []NodeID{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
		{"past the end", 990, 5000, []NodeID{10}},
		{"empty range", 200, 200, nil},
		{"inverted range", 300, 200, nil},
		{"beyond path", 2000, 3000, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps, err := g.PathBasePairRange(pid, tt.start, tt.end)
			require.NoError(t, err)
			var got []NodeID
			for _, s := range steps {
				got = append(got, s.Handle.ID())
			}
			assert.Equal(t, tt.wantNodes, got)
		})
	}
}

// Widening the query range never drops steps.
func TestPathRangeMonotone(t *testing.T) {
	g, pid := tenNodePath(t)

	inner, err := g.PathBasePairRange(pid, 250, 650)
	require.NoError(t, err)
	outer, err := g.PathBasePairRange(pid, 100, 900)
	require.NoError(t, err)

	in := func(steps []Step, n NodeID) bool {
		for _, s := range steps {
			if s.Handle.ID() == n {
				return true
			}
		}
		return false
	}
	for _, s := range inner {
		assert.True(t, in(outer, s.Handle.ID()),
			"node %d in inner range missing from outer", s.Handle.ID())
	}
}

func TestPathRangeUnknownPath(t *testing.T) {
	g := New()
	_, err := g.PathBasePairRange(PathID(7), 0, 10)
	assert.ErrorIs(t, err, ErrUnknownPath)
}

func TestPathNameOffset(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		offset uint64
		ok     bool
	}{
		{"plain name", "chr1", 0, false},
		{"range suffix", "chr1:1000-2000", 1000, true},
		{"zero start", "scaffold:0-500", 0, true},
		{"trailing colon", "chr1:", 0, false},
		{"malformed range", "chr1:abc-def", 0, false},
		{"missing end", "chr1:100-", 0, false},
		{"colon in name", "sample#1:chr1:50-99", 50, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			off, ok := PathNameOffset([]byte(tt.input))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.offset, off)
		})
	}
}

func TestPathBaseName(t *testing.T) {
	assert.Equal(t, []byte("chr1"), PathBaseName([]byte("chr1:1000-2000")))
	assert.Equal(t, []byte("chr1"), PathBaseName([]byte("chr1")))
}

func TestQueryWorker(t *testing.T) {
	g, pid := tenNodePath(t)
	require.NoError(t, g.AddEdge(NewHandle(1, false), NewHandle(2, false)))

	w := NewQueryWorker(g)
	defer w.Close()

	stats := w.RequestBlocking(StatsRequest{Kind: StatsGraph})
	assert.Equal(t, 10, stats.NodeCount)
	assert.Equal(t, 1, stats.EdgeCount)
	assert.Equal(t, 1, stats.PathCount)
	assert.Equal(t, uint64(1000), stats.TotalLen)

	node := w.RequestBlocking(StatsRequest{Kind: StatsNode, Node: 2})
	assert.Equal(t, 100, node.NodeLen)
	assert.Equal(t, 1, node.DegreeIn)
	assert.Equal(t, 0, node.DegreeOut)
	assert.Equal(t, 1, node.Coverage)

	path := w.RequestBlocking(StatsRequest{Kind: StatsPath, Path: pid})
	assert.Equal(t, 10, path.StepCount)
	assert.Equal(t, uint64(1000), path.PathLen)
}
