//go:build !nogpu

package gpu

import (
	"testing"

	gfaview "github.com/gfaview/gfaview"
	"github.com/gfaview/gfaview/graph"
	"github.com/gfaview/gfaview/layout"
	"github.com/gfaview/gfaview/universe"
)

// testLayout returns a three node layout in a row.
func testLayout() *layout.Positions {
	return layout.NewPositions([]layout.Node{
		{P0: gfaview.Point{X: 0, Y: 0}, P1: gfaview.Point{X: 10, Y: 0}},
		{P0: gfaview.Point{X: 20, Y: 0}, P1: gfaview.Point{X: 30, Y: 0}},
		{P0: gfaview.Point{X: 40, Y: 10}, P1: gfaview.Point{X: 50, Y: 10}},
	})
}

// testGraph returns a three node graph with two edges.
func testGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	for i, seq := range []string{"ACGT", "GG", "T"} {
		if err := g.AddNode(graph.NodeID(i+1), []byte(seq)); err != nil {
			t.Fatalf("AddNode(%d) failed: %v", i+1, err)
		}
	}
	if err := g.AddEdge(graph.NewHandle(1, false), graph.NewHandle(2, false)); err != nil {
		t.Fatalf("AddEdge failed: %v", err)
	}
	if err := g.AddEdge(graph.NewHandle(2, false), graph.NewHandle(3, false)); err != nil {
		t.Fatalf("AddEdge failed: %v", err)
	}
	return g
}

func TestNodeVerticesUpload(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	nv, err := NewNodeVertices(device, queue, testLayout())
	if err != nil {
		t.Fatalf("NewNodeVertices failed: %v", err)
	}
	defer nv.Destroy()

	if nv.NodeCount() != 3 {
		t.Errorf("NodeCount = %d, want 3", nv.NodeCount())
	}
	if nv.SizeBytes() != 3*nodeVertexStride {
		t.Errorf("SizeBytes = %d, want %d", nv.SizeBytes(), 3*nodeVertexStride)
	}
	if nv.Buffer() == nil {
		t.Error("expected non-nil buffer")
	}
}

func TestNodeVerticesEmpty(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	nv, err := NewNodeVertices(device, queue, layout.NewPositions(nil))
	if err != nil {
		t.Fatalf("NewNodeVertices failed: %v", err)
	}
	defer nv.Destroy()

	if nv.NodeCount() != 0 {
		t.Errorf("NodeCount = %d, want 0", nv.NodeCount())
	}
	nodes, err := nv.Download()
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if nodes != nil {
		t.Errorf("expected nil nodes from empty store, got %d", len(nodes))
	}
}

func TestEdgeIndicesUpload(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	ei, err := NewEdgeIndices(device, queue, testGraph(t))
	if err != nil {
		t.Fatalf("NewEdgeIndices failed: %v", err)
	}
	defer ei.Destroy()

	if ei.EdgeCount() != 2 {
		t.Errorf("EdgeCount = %d, want 2", ei.EdgeCount())
	}
	if ei.Buffer() == nil {
		t.Error("expected non-nil buffer")
	}
}

func TestEdgeEndpointIndices(t *testing.T) {
	tests := []struct {
		h     graph.Handle
		exit  uint32
		entry uint32
	}{
		{graph.NewHandle(1, false), 1, 0},
		{graph.NewHandle(1, true), 0, 1},
		{graph.NewHandle(3, false), 5, 4},
		{graph.NewHandle(3, true), 4, 5},
	}
	for _, tt := range tests {
		if got := exitEndpointIndex(tt.h); got != tt.exit {
			t.Errorf("exitEndpointIndex(%v) = %d, want %d", tt.h, got, tt.exit)
		}
		if got := entryEndpointIndex(tt.h); got != tt.entry {
			t.Errorf("entryEndpointIndex(%v) = %d, want %d", tt.h, got, tt.entry)
		}
	}

	// Opposite orientations of the same handle attach at opposite
	// endpoints, never at the same one.
	fwd, rev := graph.NewHandle(2, false), graph.NewHandle(2, true)
	if exitEndpointIndex(fwd) == exitEndpointIndex(rev) {
		t.Error("forward and reverse handles share an exit endpoint")
	}
	if entryEndpointIndex(fwd) == entryEndpointIndex(rev) {
		t.Error("forward and reverse handles share an entry endpoint")
	}
}

func TestSelectionBufferRoundTrip(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	sb, err := NewSelectionBuffer(device, queue, 3)
	if err != nil {
		t.Fatalf("NewSelectionBuffer failed: %v", err)
	}
	defer sb.Destroy()

	if sb.NodeCount() != 3 {
		t.Errorf("NodeCount = %d, want 3", sb.NodeCount())
	}

	sel := universe.NewNodeSelection(3)
	sel.Add(2)
	sb.Upload(sel)
	sb.Clear()

	got, err := sb.Download()
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected non-nil selection")
	}
}

func TestSelectionBufferZeroNodes(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	sb, err := NewSelectionBuffer(device, queue, 0)
	if err != nil {
		t.Fatalf("NewSelectionBuffer failed: %v", err)
	}
	defer sb.Destroy()

	got, err := sb.Download()
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if !got.IsEmpty() {
		t.Error("expected empty selection")
	}
}
