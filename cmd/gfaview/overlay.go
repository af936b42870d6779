package main

import (
	"fmt"

	gfaview "github.com/gfaview/gfaview"
	"github.com/gfaview/gfaview/annot"
	"github.com/gfaview/gfaview/graph"
	"github.com/gfaview/gfaview/internal/gpu"
	"github.com/gfaview/gfaview/layout"
	"github.com/gfaview/gfaview/overlay"
	"github.com/gfaview/gfaview/view"
)

var labelColor = gfaview.RGBA{R: 0.1, G: 0.1, B: 0.1, A: 1}

// resolveOverlayPath finds the path annotations map onto: the named
// path, or the graph's first path when no name is given.
func resolveOverlayPath(g *graph.Graph, name string) (graph.PathID, error) {
	ids := g.PathIDs()
	if len(ids) == 0 {
		return 0, fmt.Errorf("annotations: graph has no paths")
	}
	if name == "" {
		return ids[0], nil
	}
	for _, id := range ids {
		if string(g.PathName(id)) == name {
			return id, nil
		}
	}
	return 0, fmt.Errorf("annotations: unknown path %q", name)
}

// labelColumn picks the column annotation labels and colors come from:
// a name-like column when the file has one, else the record type, else
// the first optional column.
func labelColumn(coll annot.Collection) annot.Column {
	opt := coll.OptionalColumns()
	for _, c := range opt {
		switch c.Name {
		case "Name", "name", "ID", "gene":
			return c
		}
	}
	for _, c := range opt {
		if c.Kind == annot.ColType {
			return c
		}
	}
	if len(opt) > 0 {
		return opt[0]
	}
	return annot.Column{Kind: annot.ColType}
}

// buildAnnotationOverlay maps the first annotation collection onto the
// chosen path: a per-node color overlay keyed on the label column's
// hash, plus the label set for on-screen text. The interval index
// gates the build; a collection with no record overlapping the path's
// base-pair span is rejected up front.
func buildAnnotationOverlay(in *loadedInputs, pathName string) (*overlay.Overlay, *annot.LabelSet, error) {
	id, err := resolveOverlayPath(in.graph, pathName)
	if err != nil {
		return nil, nil, err
	}
	coll := in.annots[0]

	fullName := in.graph.PathName(id)
	baseName := string(graph.PathBaseName(fullName))
	offset, _ := graph.PathNameOffset(fullName)

	idx := annot.NewIntervalIndex(coll)
	span := in.graph.PathLen(id)
	if len(idx.Query(baseName, offset, offset+span)) == 0 {
		return nil, nil, fmt.Errorf("annotations: no record of %s overlaps path %s", coll.FileName(), fullName)
	}

	col := labelColumn(coll)
	b := overlay.NewBuilder(in.graph, 0)
	defer b.Close()

	ov, err := b.BuildRGB(coll.FileName(), id, coll, overlay.HashColumnColor(col))
	if err != nil {
		return nil, nil, err
	}

	labels, err := annot.BuildLabelSet(coll.FileName(), in.graph, id, offset, col, coll)
	if err != nil {
		// Labels are best-effort; a file without the column still
		// colors nodes.
		gfaview.Logger().Debug("annotation labels skipped", "error", err)
		labels = nil
	}
	return ov, labels, nil
}

// labelMesh lays the label set out as screen-space text anchored at
// each labeled node's midpoint.
func labelMesh(atlas *gpu.FontAtlas, labels *annot.LabelSet, pos *layout.Positions, v view.View, dims view.ScreenDims) gpu.GUIMesh {
	_, lineH := atlas.CellSize()
	mesh := gpu.GUIMesh{
		Clip: gfaview.NewRect(gfaview.Pt(0, 0), gfaview.Pt(dims.Width, dims.Height)),
	}
	for _, nid := range labels.Nodes() {
		n := pos.Node(uint32(nid))
		anchor := v.WorldToScreen(n.Center(), dims)
		for i, text := range labels.Labels(nid) {
			at := gfaview.Pt(anchor.X, anchor.Y-float32(i*lineH))
			atlas.AppendText(&mesh, text, at, labelColor)
		}
	}
	return mesh
}
