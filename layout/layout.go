// Package layout ingests the offline-computed 2D graph layout and keeps
// the CPU-side mirror of node endpoint positions.
//
// The layout file format is whitespace-separated UTF-8 text: one header
// line (ignored), then one row `index x y` per node endpoint. Indices
// are 0-based and contiguous; even rows are a node's first endpoint and
// odd rows its second, so node id = index/2 + 1.
package layout

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	gfaview "github.com/gfaview/gfaview"
)

// Layout load errors.
var (
	// ErrNoHeader is returned for files that end before the header line.
	ErrNoHeader = errors.New("layout: missing header line")

	// ErrBadRow is returned when a row does not parse as `index x y`.
	ErrBadRow = errors.New("layout: malformed row")

	// ErrIndexGap is returned when endpoint indices skip or repeat.
	ErrIndexGap = errors.New("layout: endpoint index out of order")

	// ErrOddEndpoints is returned when the file ends mid-node.
	ErrOddEndpoints = errors.New("layout: endpoint count is odd")

	// ErrEmpty is returned for layouts with no nodes.
	ErrEmpty = errors.New("layout: no nodes")
)

// Node is a node's drawn line segment in world coordinates.
type Node struct {
	P0, P1 gfaview.Point
}

// Center returns the midpoint of the node's segment.
func (n Node) Center() gfaview.Point { return n.P0.Mid(n.P1) }

// Rect returns the node's axis-aligned bounding rectangle.
func (n Node) Rect() gfaview.Rect { return gfaview.NewRect(n.P0, n.P1) }

// Positions is the CPU mirror of the GPU node vertex buffer: two
// endpoints per node, addressed by node id.
//
// After the initial upload the GPU copy is the source of truth, since
// every position change goes through the translate compute kernel; the
// mirror is only updated from explicit GPU downloads or by replaying the
// same translations (see Translate).
type Positions struct {
	nodes []Node
}

// NewPositions wraps a node slice as a position store.
func NewPositions(nodes []Node) *Positions {
	return &Positions{nodes: nodes}
}

// ReadTSVFile loads a layout from a file.
func ReadTSVFile(path string) (*Positions, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("layout: open %s: %w", path, err)
	}
	defer f.Close()
	pos, err := ReadTSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pos, nil
}

// ReadTSV parses a layout from a reader.
func ReadTSV(r io.Reader) (*Positions, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNoHeader
	}

	var (
		endpoints []gfaview.Point
		next      int
		lineNum   = 1
	)

	for sc.Scan() {
		lineNum++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: line %d: %d fields", ErrBadRow, lineNum, len(fields))
		}

		idx, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: index %q", ErrBadRow, lineNum, fields[0])
		}
		if idx != next {
			return nil, fmt.Errorf("%w: line %d: got %d, want %d", ErrIndexGap, lineNum, idx, next)
		}
		next++

		x, err := strconv.ParseFloat(fields[1], 32)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: x %q", ErrBadRow, lineNum, fields[1])
		}
		y, err := strconv.ParseFloat(fields[2], 32)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: y %q", ErrBadRow, lineNum, fields[2])
		}

		endpoints = append(endpoints, gfaview.Pt(float32(x), float32(y)))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if len(endpoints) == 0 {
		return nil, ErrEmpty
	}
	if len(endpoints)%2 != 0 {
		return nil, fmt.Errorf("%w: %d endpoints", ErrOddEndpoints, len(endpoints))
	}

	nodes := make([]Node, len(endpoints)/2)
	for i := range nodes {
		nodes[i] = Node{P0: endpoints[2*i], P1: endpoints[2*i+1]}
	}

	gfaview.Logger().Info("layout loaded", "nodes", len(nodes))
	return &Positions{nodes: nodes}, nil
}

// NodeCount returns the number of nodes in the layout.
func (p *Positions) NodeCount() int { return len(p.nodes) }

// Node returns the position of a node by 1-based id. Out-of-range ids
// return the zero node.
func (p *Positions) Node(id uint32) Node {
	if id < 1 || int(id) > len(p.nodes) {
		return Node{}
	}
	return p.nodes[id-1]
}

// Nodes returns the underlying node slice, indexed by id-1. The slice
// must not be mutated except through Translate or SetAll.
func (p *Positions) Nodes() []Node { return p.nodes }

// Translate adds delta to both endpoints of each listed node, mirroring
// on the CPU what the translate compute kernel does on the GPU.
func (p *Positions) Translate(ids []uint32, delta gfaview.Point) {
	for _, id := range ids {
		if id < 1 || int(id) > len(p.nodes) {
			continue
		}
		n := &p.nodes[id-1]
		n.P0 = n.P0.Add(delta)
		n.P1 = n.P1.Add(delta)
	}
}

// SetAll replaces every node position. Used when fresh positions are
// downloaded from the GPU.
func (p *Positions) SetAll(nodes []Node) {
	if len(nodes) == len(p.nodes) {
		copy(p.nodes, nodes)
	}
}

// BoundingBox returns the rectangle containing every node endpoint.
func (p *Positions) BoundingBox() gfaview.Rect {
	bbox := gfaview.RectEmpty()
	for _, n := range p.nodes {
		bbox = bbox.ExpandPoint(n.P0).ExpandPoint(n.P1)
	}
	return bbox
}

// VertexBytes serializes all endpoints as little-endian float32 pairs in
// id order: vertex 2*(id-1) is P0, vertex 2*(id-1)+1 is P1. This is the
// exact memory layout of the GPU node vertex buffer.
func (p *Positions) VertexBytes() []byte {
	out := make([]byte, 0, len(p.nodes)*16)
	for _, n := range p.nodes {
		out = appendPoint(out, n.P0)
		out = appendPoint(out, n.P1)
	}
	return out
}

// NodesFromVertexBytes decodes a GPU vertex buffer download back into
// node positions.
func NodesFromVertexBytes(data []byte) ([]Node, error) {
	if len(data)%16 != 0 {
		return nil, fmt.Errorf("layout: vertex data length %d not a multiple of 16", len(data))
	}
	nodes := make([]Node, len(data)/16)
	for i := range nodes {
		off := i * 16
		nodes[i] = Node{
			P0: pointAt(data[off:]),
			P1: pointAt(data[off+8:]),
		}
	}
	return nodes, nil
}
